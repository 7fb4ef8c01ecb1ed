package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/middleware"
)

// UserIDPrefix keeps Telegram user ids apart from Discord snowflakes in the
// shared history store.
const UserIDPrefix = "tg:"

// Transport long-polls the Bot API and hands every message to a handler in
// its own goroutine.
type Transport struct {
	logger *slog.Logger
	bot    *bot.Bot
	handle middleware.HandlerFunc

	inflight middleware.Tracker
}

func New(token string, handle middleware.HandlerFunc, log *slog.Logger) (*Transport, error) {
	if log == nil {
		log = slog.Default()
	}
	t := &Transport{
		logger: log.With(slog.String("transport", domain.SourceTelegram)),
		handle: handle,
	}

	b, err := bot.New(token, bot.WithDefaultHandler(t.onUpdate))
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	t.bot = b
	return t, nil
}

// Bot exposes the client for the operator error logger.
func (t *Transport) Bot() *bot.Bot {
	return t.bot
}

// Run polls for updates until ctx is done, then waits for in-flight handlers.
func (t *Transport) Run(ctx context.Context) {
	me, err := t.bot.GetMe(ctx)
	if err != nil {
		t.logger.Error("failed to get bot info", "error", err)
	} else {
		t.logger.Info("logged in", "username", me.Username, "id", me.ID)
	}

	t.bot.Start(ctx)
	t.inflight.Close()
}

func (t *Transport) onUpdate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	t.deliver(ctx, b, b, update.Message)
}

// deliver hands m to the handler. A failed attachment lookup travels with the
// message so the handler answers it with a single error reply.
func (t *Transport) deliver(ctx context.Context, files fileLinker, sender messageSender, m *models.Message) bool {
	r := newResponder(sender, m, t.logger)
	msg, err := toInbound(ctx, files, m)
	if err != nil {
		t.logger.Warn("resolve telegram attachment", "error", err, "chat_id", m.Chat.ID)
		msg.AttachmentErr = err
	}
	return t.inflight.Go(func() { t.handle(ctx, msg, r) })
}

// toInbound converts a Bot API message. The largest photo size and any
// document become attachments with resolved download links. On a lookup
// error the returned message carries everything but the attachments.
func toInbound(ctx context.Context, files fileLinker, m *models.Message) (domain.InboundMessage, error) {
	msg := domain.InboundMessage{
		ID:        strconv.Itoa(m.ID),
		ChannelID: strconv.FormatInt(m.Chat.ID, 10),
		Text:      m.Text,
		Source:    domain.SourceTelegram,
	}
	if strings.TrimSpace(m.Text) == "" {
		msg.Text = m.Caption
	}
	if m.From != nil {
		msg.AuthorID = UserIDPrefix + strconv.FormatInt(m.From.ID, 10)
		msg.IsBot = m.From.IsBot
	}

	if len(m.Photo) > 0 {
		photo := m.Photo[len(m.Photo)-1]
		url, err := GetFileURL(ctx, files, photo.FileID)
		if err != nil {
			msg.Attachments = nil
			return msg, err
		}
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			URL:         url,
			Filename:    photo.FileUniqueID + ".jpg",
			ContentType: "image/jpeg",
		})
	}
	if m.Document != nil {
		url, err := GetFileURL(ctx, files, m.Document.FileID)
		if err != nil {
			msg.Attachments = nil
			return msg, err
		}
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			URL:         url,
			Filename:    m.Document.FileName,
			ContentType: m.Document.MimeType,
		})
	}
	return msg, nil
}
