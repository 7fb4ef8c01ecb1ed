package middleware

import (
	"context"
	"runtime/debug"

	"github.com/set-night/relaybot/internal/domain"
)

// Recover returns middleware that recovers from panics.
func Recover() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg domain.InboundMessage, r domain.Responder) {
			defer func() {
				if p := recover(); p != nil {
					Logger(ctx).Error("panic recovered in handler",
						"panic", p,
						"message_id", msg.ID,
						"stack", string(debug.Stack()),
					)
				}
			}()
			next(ctx, msg, r)
		}
	}
}
