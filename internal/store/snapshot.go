package store

import (
	"maps"
	"sync"
	"time"

	"github.com/eldtechnologies/speedq/internal/models"
)

// Snapshot caches the last session list and stats pushed by the router.
type Snapshot struct {
	mu        sync.RWMutex
	sessions  []models.Session
	stats     models.RouterStats
	updatedAt time.Time
}

// NewSnapshot creates an empty cache with zeroed router stats.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		sessions: []models.Session{},
		stats:    models.DefaultRouterStats(),
	}
}

// ReplaceSessions swaps in a full session list. Nothing is merged.
func (s *Snapshot) ReplaceSessions(sessions []models.Session, now time.Time) {
	cp := make([]models.Session, len(sessions))
	copy(cp, sessions)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = cp
	s.updatedAt = now
}

// ReplaceStats swaps in a new stats report stamped with now.
func (s *Snapshot) ReplaceStats(stats models.RouterStats, now time.Time) {
	stamped := now
	stats.Fields = maps.Clone(stats.Fields)
	stats.LastUpdate = &stamped

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
	s.updatedAt = now
}

// Sessions returns a copy of the cached session list.
func (s *Snapshot) Sessions() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Len returns the number of cached sessions.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stats returns a copy of the cached router stats.
func (s *Snapshot) Stats() models.RouterStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.stats
	st.Fields = maps.Clone(st.Fields)
	return st
}

// UpdatedAt returns when the cache last changed; zero before the first push.
func (s *Snapshot) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
