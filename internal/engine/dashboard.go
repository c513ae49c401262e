package engine

import (
	"time"

	"github.com/eldtechnologies/speedq/internal/models"
)

// SessionsView is the active session list as last pushed by the router.
type SessionsView struct {
	Sessions  []models.Session
	Stats     models.RouterStats
	UpdatedAt time.Time
}

// Sessions returns the cached router snapshot.
func (e *Engine) Sessions() SessionsView {
	return SessionsView{
		Sessions:  e.snapshot.Sessions(),
		Stats:     e.snapshot.Stats(),
		UpdatedAt: e.snapshot.UpdatedAt(),
	}
}

// StatsView aggregates queue and snapshot counters for dashboards.
type StatsView struct {
	Stats     models.RouterStats
	Pending   int
	History   int
	TotalSent int64
	Sessions  int
	Recent    []models.Command
}

// Stats returns counters plus the n most recent history entries, newest
// first.
func (e *Engine) Stats(n int) StatsView {
	return StatsView{
		Stats:     e.snapshot.Stats(),
		Pending:   e.queue.PendingLen(),
		History:   e.queue.HistoryLen(),
		TotalSent: e.queue.Moved(),
		Sessions:  e.snapshot.Len(),
		Recent:    e.queue.Recent(n),
	}
}

// LastPush returns when the router last pushed a snapshot; zero before the
// first push.
func (e *Engine) LastPush() time.Time { return e.snapshot.UpdatedAt() }

// Now returns the engine's clock reading.
func (e *Engine) Now() time.Time { return e.now() }
