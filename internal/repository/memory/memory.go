// Package memory is an in-process kv backend used for tests and the memory
// store driver.
package memory

import (
	"context"
	"sync"

	"github.com/mamadbah2/homestead/internal/repository/kv"
)

// Store keeps payloads in a map guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	data   map[string][]byte
	closed bool

	// FailOn makes Save and SaveBatch fail when they touch the named key.
	FailOn map[string]error
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, kv.ErrClosed
	}
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Save(_ context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return kv.ErrClosed
	}
	if err := s.FailOn[key]; err != nil {
		return err
	}
	s.data[key] = append([]byte(nil), payload...)
	return nil
}

// SaveBatch applies every payload or none.
func (s *Store) SaveBatch(_ context.Context, payloads map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return kv.ErrClosed
	}
	for k := range payloads {
		if err := s.FailOn[k]; err != nil {
			return err
		}
	}
	for k, v := range payloads {
		s.data[k] = append([]byte(nil), v...)
	}
	return nil
}

func (s *Store) Ping(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return kv.ErrClosed
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Keys lists the stored keys. Intended for tests.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	return out
}
