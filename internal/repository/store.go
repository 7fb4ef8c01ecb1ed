package repository

import (
	"context"

	"github.com/set-night/relaybot/internal/domain"
)

// HistoryStore keeps every user's conversation turns.
type HistoryStore interface {
	// Window returns at most n of the user's most recent turns, oldest first.
	Window(ctx context.Context, userID string, n int) ([]domain.Turn, error)
	// Append records a turn for the user and persists it before returning.
	Append(ctx context.Context, userID string, turn domain.Turn) error
	// Clear drops the user's turns and reports whether there were any.
	Clear(ctx context.Context, userID string) (bool, error)
	Close() error
}

var (
	_ HistoryStore = (*FileStore)(nil)
	_ HistoryStore = (*SQLStore)(nil)
)
