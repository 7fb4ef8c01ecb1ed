package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/set-night/relaybot/internal/domain"
)

// Table maps user ids to their turns in chronological order.
type Table map[string][]domain.Turn

// FileStore keeps the whole table in memory and rewrites the JSON file after
// every change.
type FileStore struct {
	path  string
	mu    sync.Mutex
	table Table
}

// LoadFileStore reads the table at path. A missing file yields an empty
// table; any other failure is returned.
func LoadFileStore(path string) (*FileStore, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	return &FileStore{path: path, table: table}, nil
}

func readTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", path, err)
	}

	table := Table{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	return table, nil
}

func (s *FileStore) Window(_ context.Context, userID string, n int) ([]domain.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.LastTurns(s.table[userID], n), nil
}

func (s *FileStore) Append(_ context.Context, userID string, turn domain.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.table[userID] = append(s.table[userID], turn)
	return s.saveLocked()
}

func (s *FileStore) Clear(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.table[userID]) == 0 {
		return false, nil
	}
	s.table[userID] = []domain.Turn{}
	if err := s.saveLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// Snapshot returns a copy of everything stored for the user.
func (s *FileStore) Snapshot(userID string) []domain.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.table[userID]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out
}

func (s *FileStore) Close() error {
	return nil
}

// saveLocked writes the table to a temp file next to the target and renames
// it over the target, so a crash mid-write never leaves a truncated file.
func (s *FileStore) saveLocked() error {
	data, err := json.MarshalIndent(s.table, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp history: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace history %s: %w", s.path, err)
	}
	return nil
}
