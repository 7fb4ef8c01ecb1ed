package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

const maxMessageLen = 4096

// OpsLogger posts handler failures to an operator chat, optionally into a
// forum topic.
type OpsLogger struct {
	sender  messageSender
	chatID  int64
	topicID int
}

func NewOpsLogger(s messageSender, chatID int64, topicID int) *OpsLogger {
	return &OpsLogger{sender: s, chatID: chatID, topicID: topicID}
}

func (l *OpsLogger) LogError(err error, context string) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		context, err.Error(), time.Now().Format("2006-01-02 15:04:05"))
	l.send(msg)
}

func (l *OpsLogger) send(message string) {
	if l == nil || l.chatID == 0 {
		return
	}

	if utf8.RuneCountInString(message) > maxMessageLen {
		message = string([]rune(message)[:maxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := l.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.chatID,
		Text:            message,
		ParseMode:       models.ParseModeMarkdownV1,
		MessageThreadID: l.topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "error", err)
	}
}
