// Package sqlkv stores collections as rows of a single state(bucket, payload)
// table. The sqlite and postgres backends differ only in dialect.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mamadbah2/homestead/internal/repository/kv"
)

// Dialect holds the statements that vary between databases.
type Dialect struct {
	CreateTable string
	Select      string
	Upsert      string
}

// Store is a kv.Store over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex
	closed  bool
}

// Open wraps db and ensures the state table exists.
func Open(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	if _, err := db.ExecContext(ctx, d.CreateTable); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &Store{db: db, dialect: d}, nil
}

// DB exposes the underlying handle for tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	if s.isClosed() {
		return nil, kv.ErrClosed
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.dialect.Select, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return payload, nil
}

func (s *Store) Save(ctx context.Context, key string, payload []byte) error {
	return s.SaveBatch(ctx, map[string][]byte{key: payload})
}

// SaveBatch upserts every payload in one database transaction.
func (s *Store) SaveBatch(ctx context.Context, payloads map[string][]byte) (retErr error) {
	if s.isClosed() {
		return kv.ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	keys := make([]string, 0, len(payloads))
	for k := range payloads {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, s.dialect.Upsert, k, payloads[k]); err != nil {
			return fmt.Errorf("upsert %s: %w", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.isClosed() {
		return kv.ErrClosed
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
