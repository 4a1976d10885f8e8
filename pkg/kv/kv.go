// Package kv provides the durable local storage used for guest session
// state. Backends: a JSON file for single-instance deployments, Redis for
// replicated ones, and an in-memory map for tests.
package kv

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when the key has no stored value.
var ErrNotFound = errors.New("kv: key not found")

// Store is a minimal string key-value surface.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, key string) error
}

// Memory is an in-memory Store for tests and ephemeral deployments.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: map[string]string{}}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
