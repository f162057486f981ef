// Package store holds the resident ledger state and writes it through to a kv
// backend. Every logical mutation runs in Update: a private copy is mutated, the
// touched collections are persisted, and only then does the copy replace the
// live state. A failed mutation or a failed write leaves the live state as it was.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/repository/kv"
)

// IDSource yields unique opaque ids.
type IDSource interface {
	Next() string
}

// MutationObserver is told the outcome of every named mutation.
type MutationObserver interface {
	ObserveMutation(operation string, err error)
}

// Store is the single writer over ledger state.
type Store struct {
	mu       sync.RWMutex
	backend  kv.Store
	state    state
	ids      IDSource
	observer MutationObserver
	logger   *zap.Logger
}

// New loads every collection from backend and returns a ready Store.
func New(ctx context.Context, backend kv.Store, ids IDSource, logger *zap.Logger) (*Store, error) {
	if backend == nil {
		return nil, errors.New("store: backend is required")
	}
	if ids == nil {
		return nil, errors.New("store: id source is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	st := newState()
	keys := append(append([]string(nil), collectionKeys...), FlagMigrationV2)
	for _, key := range keys {
		payload, err := backend.Load(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", key, err)
		}
		if err := st.decode(key, payload); err != nil {
			return nil, err
		}
	}

	logger.Info("ledger state loaded",
		zap.Int("chicken_events", len(st.events[models.SpeciesChicken])),
		zap.Int("duck_events", len(st.events[models.SpeciesDuck])),
		zap.Int("animals", len(st.animals)),
		zap.Int("breeding_records", len(st.breeding)))

	return &Store{backend: backend, state: st, ids: ids, logger: logger}, nil
}

// View runs fn against the committed state under a read lock.
func (s *Store) View(fn func(v *View) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&View{st: &s.state})
}

// Update runs fn in a transaction. When fn returns nil the touched collections
// are saved and the new state is committed. Any error discards the transaction.
// Saves are atomic only when the backend is a kv.BatchSaver. Other backends are
// written key by key in collectionKeys order, and a failed write keeps the keys
// already written.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	tx := &Tx{View: View{st: &next}, newID: s.ids.Next, dirty: make(map[string]struct{})}
	if err := fn(tx); err != nil {
		return err
	}
	if len(tx.dirty) == 0 {
		return nil
	}

	keys := persistOrder(tx.dirty)

	payloads := make(map[string][]byte, len(keys))
	for _, k := range keys {
		b, err := next.encode(k)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		payloads[k] = b
	}
	if err := kv.SaveAll(ctx, s.backend, keys, payloads); err != nil {
		s.logger.Error("persist ledger state failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("persist %v: %w", keys, err)
	}

	s.state = next
	s.logger.Debug("ledger state committed", zap.Strings("keys", keys))
	return nil
}

// SetObserver installs o for mutations run through Do.
func (s *Store) SetObserver(o MutationObserver) {
	s.mu.Lock()
	s.observer = o
	s.mu.Unlock()
}

// Do is Update labelled with an operation name for observation and logging.
func (s *Store) Do(ctx context.Context, operation string, fn func(tx *Tx) error) error {
	err := s.Update(ctx, fn)
	s.mu.RLock()
	o := s.observer
	s.mu.RUnlock()
	if o != nil {
		o.ObserveMutation(operation, err)
	}
	if err != nil {
		s.logger.Debug("mutation rejected", zap.String("operation", operation), zap.Error(err))
	}
	return err
}

// Backend exposes the kv backend, e.g. for reading legacy keys.
func (s *Store) Backend() kv.Store { return s.backend }

// Ping checks the backend when it supports liveness checks.
func (s *Store) Ping(ctx context.Context) error {
	if p, ok := s.backend.(kv.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the backend.
func (s *Store) Close(ctx context.Context) error {
	return s.backend.Close(ctx)
}
