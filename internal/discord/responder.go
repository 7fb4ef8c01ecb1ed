package discord

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/set-night/relaybot/internal/config"
)

type replySession interface {
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

// responder replies to one triggering message.
type responder struct {
	session  replySession
	ref      discordgo.MessageReference
	interval time.Duration
	logger   *slog.Logger
}

func newResponder(s replySession, m *discordgo.Message, log *slog.Logger) *responder {
	return &responder{
		session: s,
		ref: discordgo.MessageReference{
			MessageID: m.ID,
			ChannelID: m.ChannelID,
			GuildID:   m.GuildID,
		},
		interval: config.TypingInterval,
		logger:   log,
	}
}

func (r *responder) Reply(ctx context.Context, text string) error {
	ref := r.ref
	_, err := r.session.ChannelMessageSendReply(r.ref.ChannelID, text, &ref, discordgo.WithContext(ctx))
	return err
}

// Typing refreshes the typing indicator until stop is called. Discord
// clears it after about ten seconds on its own.
func (r *responder) Typing(ctx context.Context) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			if err := r.session.ChannelTyping(r.ref.ChannelID, discordgo.WithContext(ctx)); err != nil && ctx.Err() == nil {
				r.logger.Debug("typing indicator failed", "error", err)
			}
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
