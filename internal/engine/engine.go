// Package engine owns the command queue, per-user speed state and the router
// snapshot, and implements intake, reconciliation and the router exchange
// on top of them.
package engine

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/speedq/internal/metrics"
	"github.com/eldtechnologies/speedq/internal/queue"
	"github.com/eldtechnologies/speedq/internal/store"
)

// Recent history sizes for the two dashboard surfaces.
const (
	RecentForAPI  = 20
	RecentForPage = 10
)

// Config configures an Engine.
type Config struct {
	HistoryLimit int
	Cooldown     time.Duration
	Now          func() time.Time
	Logger       zerolog.Logger
}

// Engine is the shared state of one router deployment. Every method is safe
// for concurrent use.
type Engine struct {
	queue    *queue.Queue
	speeds   *store.SpeedStore
	gate     *store.Gate
	snapshot *store.Snapshot

	now    func() time.Time
	logger zerolog.Logger
}

// New creates an engine with empty state.
func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		queue:    queue.New(queue.Config{HistoryLimit: cfg.HistoryLimit, Now: now}),
		speeds:   store.NewSpeedStore(),
		gate:     store.NewGate(cfg.Cooldown),
		snapshot: store.NewSnapshot(),
		now:      now,
		logger:   cfg.Logger,
	}
}

// Queue exposes the command queue for read-only inspection.
func (e *Engine) Queue() *queue.Queue { return e.queue }

// observe refreshes the size gauges.
func (e *Engine) observe() {
	metrics.PendingCommands.Set(float64(e.queue.PendingLen()))
	metrics.HistoryCommands.Set(float64(e.queue.HistoryLen()))
	metrics.ActiveSessions.Set(float64(e.snapshot.Len()))
}
