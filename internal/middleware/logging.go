package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/set-night/relaybot/internal/domain"
)

type ctxKey string

const LoggerKey ctxKey = "logger"

// Logger returns the request-scoped logger, or the default one.
func Logger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithLogger stores l in ctx for Logger to find.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, l)
}

// Logging returns middleware that tags each message with a request id and
// logs processing time.
func Logging() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, msg domain.InboundMessage, r domain.Responder) {
			start := time.Now()

			logger := slog.Default().With(
				"request_id", uuid.NewString(),
				"source", msg.Source,
				"user_id", msg.AuthorID,
				"channel_id", msg.ChannelID,
			)
			ctx = WithLogger(ctx, logger)

			next(ctx, msg, r)

			logger.Debug("message processed",
				"attachments", len(msg.Attachments),
				"duration", time.Since(start),
			)
		}
	}
}
