package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache defines a generic keyed cache
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Clear drops every entry, used when the owning session ends
	Clear()
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps registered caches
type Manager struct {
	mu          sync.Mutex
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

// NewManager creates a new cache manager
func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the sweep list
func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// StartCleanup begins periodic cleanup of all registered caches.
// Calling it more than once has no effect.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	go m.cleanup(interval)
}

// Sweep runs one cleanup pass and returns the number of removed entries
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				slog.Debug("Expired cache entries removed", "component", "cache", "count", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop stops the cleanup routine if it was started
func (m *Manager) Stop() {
	m.mu.Lock()
	started := m.started
	m.started = false
	m.mu.Unlock()

	if started {
		close(m.stopCleanup)
		<-m.cleanupDone
	}
}
