package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
	"github.com/set-night/relaybot/internal/middleware"
	"github.com/set-night/relaybot/internal/service"
)

// HandleMessage answers one inbound message: commands are routed to their
// handler, everything else goes through the completion pipeline. A message
// with no text and nothing ingestible (a sticker, an embed) is still answered
// with the attachment placeholder as its text.
func (h *Handler) HandleMessage(ctx context.Context, msg domain.InboundMessage, r domain.Responder) {
	if msg.IsBot {
		return
	}

	if cmd, ok := parseCommand(msg); ok && cmd == config.CommandClearHistory {
		h.HandleClearHistory(ctx, msg, r)
		return
	}

	stopTyping := r.Typing(ctx)
	defer stopTyping()

	unlock := h.locks.Lock(msg.AuthorID)
	defer unlock()

	reply, err := h.complete(ctx, msg)
	if err != nil {
		h.fail(ctx, r, err, "generate reply")
		return
	}

	if err := h.dispatcher.Dispatch(ctx, r, msg.AuthorID, msg.Text, reply); err != nil {
		middleware.Logger(ctx).Error("dispatch reply", "error", err)
		h.report(err, "dispatch reply")
	}
}

func (h *Handler) complete(ctx context.Context, msg domain.InboundMessage) (string, error) {
	if msg.AttachmentErr != nil {
		return "", msg.AttachmentErr
	}

	history, err := h.store.Window(ctx, msg.AuthorID, config.HistoryWindow)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}

	fragments, err := h.attachments.IngestAll(ctx, msg.Attachments)
	if err != nil {
		return "", err
	}

	prompt := h.assembler.Assemble(history, msg.Text, fragments)

	reqCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	reply, err := h.completer.Complete(reqCtx, prompt)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// fail sends exactly one error reply, then logs and reports err.
func (h *Handler) fail(ctx context.Context, r domain.Responder, err error, where string) {
	logger := middleware.Logger(ctx)
	logger.Error(where, "error", err)
	h.report(err, where)

	text := service.SplitReply(config.ErrorReplyPrefix+err.Error(), config.MaxReplyLen)[0]
	if sendErr := r.Reply(ctx, text); sendErr != nil {
		logger.Error("send error reply", "error", sendErr)
	}
}

// parseCommand recognizes "<prefix>name" with the prefix of the message's
// transport. A Telegram "@botname" suffix is ignored.
func parseCommand(msg domain.InboundMessage) (string, bool) {
	prefix := config.DiscordCommandPrefix
	if msg.Source == domain.SourceTelegram {
		prefix = config.TelegramCommandPrefix
	}

	fields := strings.Fields(msg.Text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], prefix) {
		return "", false
	}
	name := strings.TrimPrefix(fields[0], prefix)
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", false
	}
	return name, true
}
