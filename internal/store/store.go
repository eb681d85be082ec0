// Package store persists the waiting configuration as a single JSON blob in
// the settings table. Reads and writes are whole-value; last writer wins.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/example/waiting-scheduler/internal/db"
	"github.com/example/waiting-scheduler/internal/waiting"
)

const configKey = "waiting/config"

// Querier is the subset of *db.DB the store needs; tests provide fakes.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) db.Row
}

// StoreError marks a configuration read/write failure. Callers treat it as
// fatal; it is never folded into a user-facing reply.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

type Store struct {
	q Querier
}

func New(q Querier) *Store { return &Store{q: q} }

// Config returns the stored configuration, or the zero configuration when
// nothing has been stored yet.
func (s *Store) Config(ctx context.Context) (waiting.Config, error) {
	var raw []byte
	err := s.q.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, configKey).Scan(&raw)
	if err != nil {
		if db.IsNotFound(err) {
			return waiting.Config{}, nil
		}
		return waiting.Config{}, &StoreError{Op: "get config", Err: err}
	}

	var cfg waiting.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return waiting.Config{}, &StoreError{Op: "decode config", Err: err}
	}
	return cfg, nil
}

// SaveConfig overwrites the stored configuration unconditionally.
func (s *Store) SaveConfig(ctx context.Context, cfg waiting.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return &StoreError{Op: "encode config", Err: err}
	}
	err = s.q.Exec(ctx, `
INSERT INTO settings(key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()`, configKey, raw)
	if err != nil {
		return &StoreError{Op: "put config", Err: err}
	}
	return nil
}
