// Package kv defines the persistence collaborator the ledger store writes
// through. Payloads are opaque JSON documents keyed by collection name.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("kv store closed")

// Store loads and saves whole collections. Load returns (nil, nil) for a key
// that was never saved.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
	Close(ctx context.Context) error
}

// BatchSaver is implemented by backends that can persist several collections
// atomically. The ledger store prefers it when available.
type BatchSaver interface {
	SaveBatch(ctx context.Context, payloads map[string][]byte) error
}

// Pinger is implemented by backends with a liveness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SaveAll persists payloads through SaveBatch when s supports it, and key by
// key otherwise. Keys are written in the order given.
func SaveAll(ctx context.Context, s Store, keys []string, payloads map[string][]byte) error {
	if b, ok := s.(BatchSaver); ok {
		return b.SaveBatch(ctx, payloads)
	}
	for _, k := range keys {
		if err := s.Save(ctx, k, payloads[k]); err != nil {
			return err
		}
	}
	return nil
}
