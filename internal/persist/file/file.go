// Package file persists snapshots as a single JSON document on disk.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"fyra/backend/internal/store"
)

type Backend struct {
	path string
}

func New(path string) (*Backend, error) {
	if path == "" {
		return nil, errors.New("file backend: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("file backend: %w", err)
	}
	return &Backend{path: path}, nil
}

func (b *Backend) Load(_ context.Context) (*store.Snapshot, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("file backend: %w", err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("file backend: corrupt snapshot: %w", err)
	}
	return &snap, nil
}

// Save writes to a temp file in the same directory and renames it over
// the target, so a crash mid-write never leaves a truncated snapshot.
func (b *Backend) Save(_ context.Context, snap store.Snapshot) error {
	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("file backend: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("file backend: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file backend: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file backend: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file backend: %w", err)
	}
	return nil
}

func (b *Backend) Clear(_ context.Context) error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("file backend: %w", err)
	}
	return nil
}

func (b *Backend) Close() error { return nil }
