package session

import (
	"context"
	"errors"
	"sync"

	"github.com/jobappid/verify-portal/internal/domain"
)

// Store persists at most one session per browser session id.
type Store interface {
	// Load returns the session for sid, or nil when none is stored or the
	// stored value is unreadable. It never fails.
	Load(ctx context.Context, sid string) domain.Session
	// Save replaces any prior value for sid.
	Save(ctx context.Context, sid string, s domain.Session) error
	// Clear removes the value for sid.
	Clear(ctx context.Context, sid string) error
}

var errEmptySID = errors.New("session: empty session id")

// MemoryStore keeps encoded blobs in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Load(_ context.Context, sid string) domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.blobs[Key(sid)]
	if !ok {
		return nil
	}
	sess := Decode(raw)
	if sess == nil {
		delete(m.blobs, Key(sid))
	}
	return sess
}

func (m *MemoryStore) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

func (m *MemoryStore) Save(_ context.Context, sid string, s domain.Session) error {
	if sid == "" {
		return errEmptySID
	}
	raw, err := Encode(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[Key(sid)] = raw
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, sid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, Key(sid))
	return nil
}

// Put writes a raw blob under a full key. Tests use it to plant corrupt or
// foreign data.
func (m *MemoryStore) Put(key string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = raw
}
