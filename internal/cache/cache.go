// Package cache provides a small TTL cache and a sweeper that drops expired
// entries in the background.
package cache

import (
	"sync"
	"time"

	"finanzas/internal/log"
)

// Cache is the read-through surface adapters depend on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries on demand.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically sweeps every registered cache.
type Manager struct {
	mu     sync.Mutex
	caches []Cleaner
	stop   chan struct{}
	done   chan struct{}
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// Sweep cleans every registered cache once and returns the number of
// entries removed.
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

// StartCleanup sweeps every interval until Stop. Calling it twice is a no-op.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return
	}
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	stop, done := m.stop, m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					log.Default(log.ComponentCache).Debug("Expired cache entries removed", "removed", n)
				}
			case <-stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine and waits for it.
func (m *Manager) Stop() {
	m.mu.Lock()
	stop, done := m.stop, m.done
	m.stop, m.done = nil, nil
	m.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}
