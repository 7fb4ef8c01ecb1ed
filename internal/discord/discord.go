package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/middleware"
)

// Transport connects to the Discord gateway and hands every message to a
// handler in its own goroutine.
type Transport struct {
	logger  *slog.Logger
	session *discordgo.Session
	handle  middleware.HandlerFunc

	inflight middleware.Tracker
	remove   func()
}

func New(token string, handle middleware.HandlerFunc, log *slog.Logger) (*Transport, error) {
	if log == nil {
		log = slog.Default()
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	return &Transport{
		logger:  log.With(slog.String("transport", domain.SourceDiscord)),
		session: session,
		handle:  handle,
	}, nil
}

// Start registers the message handler and opens the gateway connection.
// Handlers run with ctx until Close is called.
func (t *Transport) Start(ctx context.Context) error {
	t.remove = t.session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if ctx.Err() != nil {
			return
		}
		botID := ""
		if s.State != nil && s.State.User != nil {
			botID = s.State.User.ID
		}
		msg, ok := toInbound(m.Message, botID)
		if !ok {
			return
		}

		r := newResponder(s, m.Message, t.logger)
		t.inflight.Go(func() { t.handle(ctx, msg, r) })
	})

	t.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		t.logger.Info("logged in", "user", r.User.String(), "id", r.User.ID)
	})

	if err := t.session.Open(); err != nil {
		return fmt.Errorf("discord open connection: %w", err)
	}
	return nil
}

// Close stops receiving messages, waits for in-flight handlers and closes
// the gateway connection.
func (t *Transport) Close() error {
	if t.remove != nil {
		t.remove()
	}
	t.inflight.Close()
	return t.session.Close()
}

// toInbound converts a gateway message. Messages from this bot are
// rejected; other bots are passed through flagged so middleware can drop them.
func toInbound(m *discordgo.Message, botID string) (domain.InboundMessage, bool) {
	if m == nil || m.Author == nil {
		return domain.InboundMessage{}, false
	}
	if botID != "" && m.Author.ID == botID {
		return domain.InboundMessage{}, false
	}

	msg := domain.InboundMessage{
		ID:        m.ID,
		AuthorID:  m.Author.ID,
		ChannelID: m.ChannelID,
		Text:      m.Content,
		IsBot:     m.Author.Bot,
		Source:    domain.SourceDiscord,
	}
	for _, att := range m.Attachments {
		if att == nil {
			continue
		}
		msg.Attachments = append(msg.Attachments, domain.Attachment{
			URL:         att.URL,
			Filename:    att.Filename,
			ContentType: att.ContentType,
		})
	}
	return msg, true
}
