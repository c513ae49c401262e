package store

import (
	"sync"
	"time"
)

// DefaultCooldown is the minimum spacing between accepted beacon intents for
// one user.
const DefaultCooldown = 10 * time.Second

// Gate suppresses repeated intents from the same user within a cooldown
// window. Decisions for different users never contend on a shared lock.
type Gate struct {
	cooldown time.Duration
	last     sync.Map // string -> time.Time
}

// NewGate creates a gate. A non-positive cooldown uses DefaultCooldown.
func NewGate(cooldown time.Duration) *Gate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Gate{cooldown: cooldown}
}

// Cooldown returns the configured window.
func (g *Gate) Cooldown() time.Duration { return g.cooldown }

// Allow reports whether an intent for username at now may proceed, and if so
// records now as the last accepted time. The check and the record happen as
// one compare-and-swap, so concurrent callers for the same user inside one
// window admit exactly one.
func (g *Gate) Allow(username string, now time.Time) bool {
	for {
		prev, loaded := g.last.LoadOrStore(username, now)
		if !loaded {
			return true
		}
		if now.Sub(prev.(time.Time)) < g.cooldown {
			return false
		}
		if g.last.CompareAndSwap(username, prev, now) {
			return true
		}
	}
}

// LastAccepted returns the time of the last accepted intent for username.
func (g *Gate) LastAccepted(username string) (time.Time, bool) {
	v, ok := g.last.Load(username)
	if !ok {
		return time.Time{}, false
	}
	return v.(time.Time), true
}
