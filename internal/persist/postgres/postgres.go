// Package postgres stores the snapshot as a single JSONB row, giving
// multi-instance deployments a durable shared backend without mapping
// every collection to its own table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fyra/backend/internal/store"
)

const snapshotKey = "primary"

type Backend struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Backend, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	b := &Backend{db: db}
	if err := b.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *Backend) ensureSchema(ctx context.Context) error {
	_, err := b.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			key        text PRIMARY KEY,
			state      jsonb NOT NULL,
			saved_at   timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("postgres backend: schema: %w", err)
	}
	return nil
}

func (b *Backend) Load(ctx context.Context) (*store.Snapshot, error) {
	var raw []byte
	err := b.db.QueryRowContext(ctx, `
		SELECT state FROM snapshots WHERE key = $1
	`, snapshotKey).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("postgres backend: load: %w", err)
	}
	var snap store.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("postgres backend: corrupt snapshot: %w", err)
	}
	return &snap, nil
}

func (b *Backend) Save(ctx context.Context, snap store.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("postgres backend: %w", err)
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, state, saved_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET state = EXCLUDED.state, saved_at = now()
	`, snapshotKey, raw)
	if err != nil {
		return fmt.Errorf("postgres backend: save: %w", err)
	}
	return nil
}

func (b *Backend) Clear(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM snapshots WHERE key = $1`, snapshotKey); err != nil {
		return fmt.Errorf("postgres backend: clear: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}
