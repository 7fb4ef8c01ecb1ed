package handler

import (
	"context"

	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/middleware"
)

// HandleClearHistory drops the invoking user's history and acknowledges it.
func (h *Handler) HandleClearHistory(ctx context.Context, msg domain.InboundMessage, r domain.Responder) {
	unlock := h.locks.Lock(msg.AuthorID)
	cleared, err := h.store.Clear(ctx, msg.AuthorID)
	unlock()
	if err != nil {
		h.fail(ctx, r, err, "clear history")
		return
	}

	middleware.Logger(ctx).Info("history clear requested", "cleared", cleared)

	text := config.HistoryNotFoundReply
	if cleared {
		text = config.HistoryClearedReply
	}
	if err := r.Reply(ctx, text); err != nil {
		middleware.Logger(ctx).Error("send clear acknowledgment", "error", err)
	}
}
