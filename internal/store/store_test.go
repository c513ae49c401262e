package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/speedq/internal/models"
)

func TestSpeedStoreLastWriteWins(t *testing.T) {
	s := NewSpeedStore()

	_, ok := s.Get("alice")
	assert.False(t, ok)

	s.Set("alice", models.Speed4M)
	s.Set("alice", models.Speed8M)
	s.Set("bob", "weird-tier")

	got, ok := s.Get("alice")
	require.True(t, ok)
	assert.Equal(t, models.Speed8M, got)

	got, _ = s.Get("bob")
	assert.Equal(t, models.Speed("weird-tier"), got, "unknown tokens pass through")
	assert.Equal(t, 2, s.Len())
}

func TestSpeedStoreConcurrentUsers(t *testing.T) {
	s := NewSpeedStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Set(fmt.Sprintf("user-%d", i), models.Speed2M)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 100, s.Len())
}

func TestGateWindow(t *testing.T) {
	g := NewGate(10 * time.Second)
	t0 := time.Unix(1700000000, 0)

	assert.True(t, g.Allow("alice", t0))
	assert.False(t, g.Allow("alice", t0.Add(3*time.Second)))
	assert.False(t, g.Allow("alice", t0.Add(10*time.Second-time.Millisecond)))
	assert.True(t, g.Allow("bob", t0.Add(time.Second)), "users are independent")

	assert.True(t, g.Allow("alice", t0.Add(10*time.Second)), "exact boundary is accepted")

	last, ok := g.LastAccepted("alice")
	require.True(t, ok)
	assert.Equal(t, t0.Add(10*time.Second), last)
}

func TestGateRejectionDoesNotExtendWindow(t *testing.T) {
	g := NewGate(10 * time.Second)
	t0 := time.Unix(1700000000, 0)

	require.True(t, g.Allow("alice", t0))
	require.False(t, g.Allow("alice", t0.Add(9*time.Second)))
	assert.True(t, g.Allow("alice", t0.Add(11*time.Second)))
}

func TestGateDefaultCooldown(t *testing.T) {
	assert.Equal(t, DefaultCooldown, NewGate(0).Cooldown())
}

func TestGateConcurrentSameUser(t *testing.T) {
	g := NewGate(10 * time.Second)
	now := time.Unix(1700000000, 0)

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Allow("alice", now) {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, accepted.Load())
}

func TestSnapshotReplace(t *testing.T) {
	s := NewSnapshot()
	assert.Empty(t, s.Sessions())
	assert.True(t, s.UpdatedAt().IsZero())
	assert.Nil(t, s.Stats().LastUpdate)

	now := time.Unix(1700000000, 0)
	s.ReplaceSessions([]models.Session{{Username: "alice", Speed: models.Speed4M}, {Username: "bob"}}, now)
	s.ReplaceSessions([]models.Session{{Username: "carol", Speed: models.Speed1M}}, now.Add(time.Second))

	sessions := s.Sessions()
	require.Len(t, sessions, 1, "last snapshot wins, no merge")
	assert.Equal(t, "carol", sessions[0].Username)
	assert.Equal(t, now.Add(time.Second), s.UpdatedAt())

	s.ReplaceStats(models.RouterStats{Fields: map[string]json.RawMessage{"cpu": json.RawMessage(`12`)}}, now.Add(2*time.Second))
	st := s.Stats()
	require.NotNil(t, st.LastUpdate)
	assert.Equal(t, now.Add(2*time.Second), *st.LastUpdate)
	assert.JSONEq(t, `12`, string(st.Fields["cpu"]))
	_, hasMemory := st.Fields["memory"]
	assert.False(t, hasMemory, "stats are replaced wholesale")
}

func TestSnapshotReturnsCopies(t *testing.T) {
	s := NewSnapshot()
	s.ReplaceSessions([]models.Session{{Username: "alice"}}, time.Now())

	got := s.Sessions()
	got[0].Username = "mallory"
	assert.Equal(t, "alice", s.Sessions()[0].Username)
}
