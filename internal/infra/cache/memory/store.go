package memory

import (
	"context"
	"sync"
	"time"

	"github.com/veritaslab/aiprobe/internal/domain/analysis"
)

type entry struct {
	result    analysis.Result
	expiresAt time.Time
}

// Store is an in-process Cache implementation. Expired entries are treated
// as misses and purged lazily on access plus by a periodic sweep. Entries
// for different fingerprints are fully independent; concurrent get/put on
// the same fingerprint race safely with last put winning.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	done    chan struct{}
	once    sync.Once
}

// New creates a store and starts its sweep goroutine.
func New(sweepInterval time.Duration) *Store {
	if sweepInterval <= 0 {
		sweepInterval = 5 * time.Minute
	}
	s := &Store{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}
	go s.sweep(sweepInterval)
	return s
}

func (s *Store) Get(_ context.Context, fingerprint string) (analysis.Result, bool) {
	s.mu.RLock()
	e, ok := s.entries[fingerprint]
	s.mu.RUnlock()
	if !ok {
		return analysis.Result{}, false
	}
	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a fresh put may have replaced it.
		if cur, ok := s.entries[fingerprint]; ok && time.Now().After(cur.expiresAt) {
			delete(s.entries, fingerprint)
		}
		s.mu.Unlock()
		return analysis.Result{}, false
	}
	return e.result, true
}

func (s *Store) Put(_ context.Context, fingerprint string, res analysis.Result, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	s.mu.Lock()
	s.entries[fingerprint] = entry{result: res, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

// Len reports the live entry count, expired included until swept.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close stops the sweep goroutine.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Store) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for fp, e := range s.entries {
				if now.After(e.expiresAt) {
					delete(s.entries, fp)
				}
			}
			s.mu.Unlock()
		}
	}
}
