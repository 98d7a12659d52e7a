// Package localcache is the client's durable key-value cache: the fallback
// store when the server is unreachable and the mirror of the last good server
// state.
package localcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrNotFound is returned by Get for keys that were never set.
var ErrNotFound = errors.New("localcache: key not found")

// Store is a flat key-value store of opaque values.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(keys ...string) error
}

// LoadJSON decodes the value under key into v. It reports false with a nil
// error when the key is absent.
func LoadJSON(s Store, key string, v any) (bool, error) {
	data, err := s.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("localcache: decode %s: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("localcache: encode %s: %w", key, err)
	}
	return s.Set(key, data)
}

// Memory is an in-process Store, used when no cache directory is configured
// and in tests.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.m, k)
	}
	return nil
}

var (
	_ Store = (*FS)(nil)
	_ Store = (*Memory)(nil)
)
