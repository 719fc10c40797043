package session

import (
	"context"
	"sync"

	"finboard/internal/core"
)

// Saved is what survives a restart: the bearer token and the identity it
// was issued for.
type Saved struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

// Store persists the session and small client preferences.
type Store interface {
	LoadSession(ctx context.Context) (Saved, bool, error)
	SaveSession(ctx context.Context, s Saved) error
	ClearSession(ctx context.Context) error
	Preference(ctx context.Context, key string) (string, bool, error)
	SetPreference(ctx context.Context, key, value string) error
}

// MemoryStore keeps everything in process.
type MemoryStore struct {
	mu    sync.Mutex
	saved *Saved
	prefs map[string]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{prefs: map[string]string{}}
}

func (m *MemoryStore) LoadSession(_ context.Context) (Saved, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saved == nil {
		return Saved{}, false, nil
	}
	return *m.saved, true, nil
}

func (m *MemoryStore) SaveSession(_ context.Context, s Saved) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = &s
	return nil
}

func (m *MemoryStore) ClearSession(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = nil
	return nil
}

func (m *MemoryStore) Preference(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.prefs[key]
	return v, ok, nil
}

func (m *MemoryStore) SetPreference(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[key] = value
	return nil
}
