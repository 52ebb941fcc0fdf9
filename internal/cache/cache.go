package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is a best-effort key/value store for derived data such as month
// summaries. Backend failures count as misses; callers always fall back to
// the store.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, data T)
	Delete(ctx context.Context, key string)

	// DeletePrefix drops every key starting with prefix and reports how many
	// were removed.
	DeletePrefix(ctx context.Context, prefix string) int

	Size(ctx context.Context) int
}

// Cleaner is implemented by caches that have to evict expired entries
// themselves.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs periodic expiry sweeps over in-process caches.
type Manager struct {
	mu     sync.Mutex
	caches []Cleaner
	cancel context.CancelFunc
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

// StartCleanup sweeps every interval until Stop is called. Calling it twice
// is a no-op.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.sweep(ctx, interval, m.done)
}

func (m *Manager) sweep(ctx context.Context, interval time.Duration, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				slog.Debug("Expired summaries evicted", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}

// CleanNow runs one sweep and returns the number of evicted entries.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop ends the sweep loop and waits for it. Safe to call more than once.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
