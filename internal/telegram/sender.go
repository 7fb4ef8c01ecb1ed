package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/relaybot/internal/config"
)

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
}

// responder replies to one triggering message.
type responder struct {
	sender    messageSender
	chatID    int64
	messageID int
	interval  time.Duration
	logger    *slog.Logger
}

func newResponder(s messageSender, msg *models.Message, log *slog.Logger) *responder {
	return &responder{
		sender:    s,
		chatID:    msg.Chat.ID,
		messageID: msg.ID,
		interval:  config.TypingInterval,
		logger:    log,
	}
}

// Reply sends text as Markdown, falling back to plain text if Telegram
// rejects the formatting.
func (r *responder) Reply(ctx context.Context, text string) error {
	params := &bot.SendMessageParams{
		ChatID:    r.chatID,
		Text:      FixMarkdown(text),
		ParseMode: models.ParseModeMarkdownV1,
		ReplyParameters: &models.ReplyParameters{
			MessageID:                r.messageID,
			AllowSendingWithoutReply: true,
		},
	}
	_, err := r.sender.SendMessage(ctx, params)
	if err == nil {
		return nil
	}
	r.logger.Warn("markdown send failed, falling back to plain text", "error", err)

	params.Text = text
	params.ParseMode = ""
	if _, err = r.sender.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Typing sends the "typing" chat action until stop is called.
func (r *responder) Typing(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			r.sender.SendChatAction(ctx, &bot.SendChatActionParams{
				ChatID: r.chatID,
				Action: models.ChatActionTyping,
			})
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
