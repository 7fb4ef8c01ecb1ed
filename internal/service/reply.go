package service

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/set-night/relaybot/internal/config"
	"github.com/set-night/relaybot/internal/domain"
)

type turnAppender interface {
	Append(ctx context.Context, userID string, turn domain.Turn) error
}

// ReplyDispatcher delivers a completion in transport-sized chunks and then
// records the exchange.
type ReplyDispatcher struct {
	store     turnAppender
	chunkSize int
}

func NewReplyDispatcher(store turnAppender, chunkSize int) *ReplyDispatcher {
	if chunkSize <= 0 {
		chunkSize = config.MaxReplyLen
	}
	return &ReplyDispatcher{store: store, chunkSize: chunkSize}
}

// Dispatch sends reply in order as replies to the triggering message. The
// turn is appended whether or not sending succeeded; send and append errors
// are both returned.
func (d *ReplyDispatcher) Dispatch(ctx context.Context, r domain.Responder, userID, userText, reply string) error {
	var sendErr error
	for i, chunk := range SplitReply(reply, d.chunkSize) {
		if err := r.Reply(ctx, chunk); err != nil {
			sendErr = fmt.Errorf("send reply chunk %d: %w", i+1, err)
			break
		}
	}

	if userText == "" {
		userText = config.AttachmentOnlyHistory
	}
	var appendErr error
	if err := d.store.Append(ctx, userID, domain.NewTurn(userText, reply)); err != nil {
		appendErr = fmt.Errorf("save history: %w", err)
	}
	return errors.Join(sendErr, appendErr)
}

// SplitReply cuts text into consecutive chunks of size characters; only the
// last chunk may be shorter. No attempt is made to keep words together.
func SplitReply(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 || utf8.RuneCountInString(text) <= size {
		return []string{text}
	}

	var parts []string
	n, start := 0, 0
	for pos := range text {
		if n == size {
			parts = append(parts, text[start:pos])
			start, n = pos, 0
		}
		n++
	}
	return append(parts, text[start:])
}
