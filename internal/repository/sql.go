package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/set-night/relaybot/internal/domain"
)

// SQLStore keeps turns as rows, one per turn, in SQLite or Postgres.
type SQLStore struct {
	db *DB
}

func NewSQLStore(db *DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Window(ctx context.Context, userID string, n int) ([]domain.Turn, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		"SELECT ts, user_text, bot_text FROM turns WHERE user_id = ? ORDER BY id DESC LIMIT ?"),
		userID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		if err := rows.Scan(&t.Timestamp, &t.User, &t.Bot); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	// Reverse to chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *SQLStore) Append(ctx context.Context, userID string, turn domain.Turn) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		"INSERT INTO turns (user_id, ts, user_text, bot_text) VALUES (?, ?, ?, ?)"),
		userID, turn.Timestamp, turn.User, turn.Bot,
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

func (s *SQLStore) Clear(ctx context.Context, userID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM turns WHERE user_id = ?"), userID)
	if err != nil {
		return false, fmt.Errorf("delete turns: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("count deleted turns: %w", err)
	}
	return n > 0, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind turns ? placeholders into $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.db.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
