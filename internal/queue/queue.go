// Package queue holds the commands waiting for the router and the history of
// commands that have already been handed over.
package queue

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/eldtechnologies/speedq/internal/models"
)

// DefaultHistoryLimit caps history when no limit is configured.
const DefaultHistoryLimit = 1000

// ConfirmResult describes what a confirmation did to the history.
type ConfirmResult int

const (
	// Confirmed means the command moved from sent to a final status.
	Confirmed ConfirmResult = iota
	// NotFound means no retained history entry has the id.
	NotFound
	// AlreadyFinal means the command was confirmed before; the first outcome is kept.
	AlreadyFinal
)

func (r ConfirmResult) String() string {
	switch r {
	case Confirmed:
		return "confirmed"
	case NotFound:
		return "not_found"
	case AlreadyFinal:
		return "already_final"
	}
	return "unknown"
}

// Config configures a Queue.
type Config struct {
	// HistoryLimit bounds retained history entries. Zero uses
	// DefaultHistoryLimit, a negative value keeps everything.
	HistoryLimit int
	Now          func() time.Time
}

// Queue is the pending command list plus history. All methods are safe for
// concurrent use; every operation runs under a single mutex.
type Queue struct {
	mu      sync.Mutex
	pending []*models.Command
	history *history
	moved   int64

	now     func() time.Time
	entropy io.Reader
	lastMs  uint64
}

// New creates an empty queue.
func New(cfg Config) *Queue {
	limit := cfg.HistoryLimit
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Queue{
		history: newHistory(limit),
		now:     now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// nextID returns a ULID strictly greater than every id issued before.
// Must be called with mu held.
func (q *Queue) nextID(at time.Time) string {
	ms := ulid.Timestamp(at)
	if ms < q.lastMs {
		// Clock stepped back; stay on the last millisecond so the
		// monotonic entropy keeps ids ordered.
		ms = q.lastMs
	}
	q.lastMs = ms
	return ulid.MustNew(ms, q.entropy).String()
}

// Enqueue appends cmd as a new pending command and returns it with its
// assigned id.
func (q *Queue) Enqueue(cmd models.Command) models.Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.enqueueLocked(cmd)
}

func (q *Queue) enqueueLocked(cmd models.Command) models.Command {
	now := q.now()
	c := cmd
	c.ID = q.nextID(now)
	c.Status = models.StatusPending
	c.CreatedAt = now
	c.SentAt = nil
	c.CompletedAt = nil
	c.Error = ""
	q.pending = append(q.pending, &c)
	return c
}

// Drain removes every pending command, marks it sent and moves it to
// history. The returned commands keep their enqueue order.
func (q *Queue) Drain() []models.Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.Command, 0, len(q.pending))
	if len(q.pending) == 0 {
		return out
	}

	now := q.now()
	for _, c := range q.pending {
		sentAt := now
		c.Status = models.StatusSent
		c.SentAt = &sentAt
		q.history.push(c)
		q.moved++
		out = append(out, *c)
	}
	q.pending = nil
	return out
}

// Confirm records the router's outcome for a sent command. The first
// confirmation wins; later ones for the same id report AlreadyFinal.
func (q *Queue) Confirm(id string, succeeded bool, errText string) (models.Command, ConfirmResult) {
	q.mu.Lock()
	defer q.mu.Unlock()

	c := q.history.get(id)
	if c == nil {
		return models.Command{}, NotFound
	}
	if c.Status.Final() {
		return *c, AlreadyFinal
	}

	now := q.now()
	c.CompletedAt = &now
	if succeeded {
		c.Status = models.StatusCompleted
	} else {
		c.Status = models.StatusFailed
	}
	if errText != "" {
		c.Error = errText
	}
	return *c, Confirmed
}

// Tx gives Update callers a consistent view of the pending list.
type Tx struct {
	q *Queue
}

// HasPending reports whether a pending command of type t exists for username.
func (tx *Tx) HasPending(t models.CommandType, username string) bool {
	for _, c := range tx.q.pending {
		if c.Type == t && c.Username == username {
			return true
		}
	}
	return false
}

// Enqueue appends a pending command inside the transaction.
func (tx *Tx) Enqueue(cmd models.Command) models.Command {
	return tx.q.enqueueLocked(cmd)
}

// Update runs fn with the queue locked, so check-then-enqueue sequences
// cannot interleave with Drain or another Update. fn must not call other
// Queue methods.
func (q *Queue) Update(fn func(tx *Tx)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fn(&Tx{q: q})
}

// Pending returns a copy of the pending commands in order.
func (q *Queue) Pending() []models.Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]models.Command, len(q.pending))
	for i, c := range q.pending {
		out[i] = *c
	}
	return out
}

// PendingLen returns the number of commands waiting for the router.
func (q *Queue) PendingLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// HistoryLen returns the number of retained history entries.
func (q *Queue) HistoryLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.history.len()
}

// Moved returns how many commands have ever been drained into history,
// including ones since evicted.
func (q *Queue) Moved() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.moved
}

// Recent returns up to n history entries, newest first.
func (q *Queue) Recent(n int) []models.Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.history.recent(n)
}

// Get looks up a command by id in either collection.
func (q *Queue) Get(id string) (models.Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, c := range q.pending {
		if c.ID == id {
			return *c, true
		}
	}
	if c := q.history.get(id); c != nil {
		return *c, true
	}
	return models.Command{}, false
}
