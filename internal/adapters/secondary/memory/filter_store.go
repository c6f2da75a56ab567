package memory

import (
	"context"
	"sync"
	"time"

	"github.com/lorrc/ticket-reports/internal/core/domain"
	"github.com/lorrc/ticket-reports/internal/core/ports"
)

type entry struct {
	filters  domain.ReportFilters
	lastSeen time.Time
}

// FilterStore keeps session filters in process memory.
// Sessions idle for longer than ttl are dropped by a background sweep.
type FilterStore struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
}

var _ ports.FilterStore = (*FilterStore)(nil)

// NewFilterStore creates a store; a zero ttl keeps sessions forever.
func NewFilterStore(ttl time.Duration) *FilterStore {
	return &FilterStore{
		sessions: make(map[string]*entry),
		ttl:      ttl,
	}
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (s *FilterStore) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *FilterStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

func (s *FilterStore) Get(_ context.Context, sessionID string) (domain.ReportFilters, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[sessionID]
	if !ok {
		return domain.ReportFilters{}, false, nil
	}
	e.lastSeen = time.Now()
	return e.filters, true, nil
}

func (s *FilterStore) Save(_ context.Context, sessionID string, filters domain.ReportFilters) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = &entry{filters: filters, lastSeen: time.Now()}
	return nil
}

func (s *FilterStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// Len returns the number of live sessions.
func (s *FilterStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
