package repository

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/core-coin/fortuna/internal/models"
)

// MemoryStore keeps everything in process memory. It is only a shared store for
// handlers living in the same process, which is enough for development and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError("get", key, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[key]
	if !ok {
		return nil, models.ErrNotFound
	}
	return bytes.Clone(value), nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return models.NewStorageError("set", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = bytes.Clone(value)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return models.NewStorageError("delete", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.NewStorageError("list", prefix, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0)
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStore) CompareAndSwap(ctx context.Context, key string, old, new []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, models.NewStorageError("compare-and-swap", key, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	current, exists := m.data[key]
	if old == nil {
		if exists {
			return false, nil
		}
	} else if !exists || !bytes.Equal(current, old) {
		return false, nil
	}
	if new == nil {
		delete(m.data, key)
	} else {
		m.data[key] = bytes.Clone(new)
	}
	return true, nil
}

func (m *MemoryStore) Close() error {
	return nil
}
