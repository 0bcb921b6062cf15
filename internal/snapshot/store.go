// Package snapshot mirrors cart contents to an external key-value store so
// a session can be restored after a reload.
package snapshot

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// DefaultKeyPrefix namespaces session snapshots when no prefix is configured.
const DefaultKeyPrefix = "cart"

// ErrNotFound is returned by Store.Get when no snapshot exists for a key.
var ErrNotFound = errors.New("snapshot not found")

// SessionKey is the store key of a session's cart: <prefix>:<session-id>.
func SessionKey(prefix string, sessionID uuid.UUID) string {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return prefix + ":" + sessionID.String()
}

// Store is the key-value surface the snapshot writer talks to.
type Store interface {
	Set(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	b := make([]byte, len(value))
	copy(b, value)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = b
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	b := make([]byte, len(v))
	copy(b, v)
	return b, nil
}
