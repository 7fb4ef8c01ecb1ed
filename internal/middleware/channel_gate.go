package middleware

import (
	"context"
	"strings"

	"github.com/set-night/relaybot/internal/domain"
)

// ChannelGate drops messages from channels other than allowed. An empty or
// "0" allowed value lets every channel through.
func ChannelGate(allowed string) Middleware {
	allowed = strings.TrimSpace(allowed)
	open := allowed == "" || allowed == "0"
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg domain.InboundMessage, r domain.Responder) {
			if !open && msg.ChannelID != allowed {
				return
			}
			next(ctx, msg, r)
		}
	}
}

// SkipBots drops messages written by bots, including this one.
func SkipBots() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg domain.InboundMessage, r domain.Responder) {
			if msg.IsBot {
				return
			}
			next(ctx, msg, r)
		}
	}
}
