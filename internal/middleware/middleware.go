package middleware

import (
	"context"

	"github.com/set-night/relaybot/internal/domain"
)

// HandlerFunc processes one inbound message from any transport.
type HandlerFunc func(ctx context.Context, msg domain.InboundMessage, r domain.Responder)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain wraps h so that the first middleware runs outermost.
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
