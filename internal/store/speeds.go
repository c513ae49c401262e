// Package store holds the in-memory per-user state and the router snapshot
// cache, plus the optional Redis client used for request rate limiting.
package store

import (
	"sync"

	"github.com/eldtechnologies/speedq/internal/models"
)

// SpeedStore maps usernames to the last speed they asked for. Entries are
// never removed.
type SpeedStore struct {
	speeds sync.Map // string -> models.Speed
}

// NewSpeedStore creates an empty store.
func NewSpeedStore() *SpeedStore {
	return &SpeedStore{}
}

// Get returns the desired speed for username.
func (s *SpeedStore) Get(username string) (models.Speed, bool) {
	v, ok := s.speeds.Load(username)
	if !ok {
		return "", false
	}
	return v.(models.Speed), true
}

// Set overwrites the desired speed for username.
func (s *SpeedStore) Set(username string, speed models.Speed) {
	s.speeds.Store(username, speed)
}

// Len returns the number of users with a desired speed.
func (s *SpeedStore) Len() int {
	n := 0
	s.speeds.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
