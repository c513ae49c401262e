package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPassThrough(t *testing.T) {
	in := `{"username":"alice","speed":"4M","ip":"10.5.50.2","bytes-in":123,"mac":"AA:BB"}`

	var s Session
	require.NoError(t, json.Unmarshal([]byte(in), &s))
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, Speed4M, s.Speed)
	assert.Len(t, s.Extra, 3)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestSessionWithoutSpeed(t *testing.T) {
	var s Session
	require.NoError(t, json.Unmarshal([]byte(`{"username":"bob"}`), &s))
	assert.Empty(t, s.Speed)
	assert.Nil(t, s.Extra)
}

func TestRouterStatsJSON(t *testing.T) {
	var rs RouterStats
	require.NoError(t, json.Unmarshal([]byte(`{"cpu":12,"uptime":"1d","lastUpdate":"spoofed"}`), &rs))
	assert.NotContains(t, rs.Fields, "lastUpdate", "lastUpdate is stamped by the server")

	out, err := json.Marshal(DefaultRouterStats())
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpu":0,"memory":0,"uptime":"0s","lastUpdate":null}`, string(out))

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rs.LastUpdate = &now
	out, err = json.Marshal(rs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"cpu":12,"uptime":"1d","lastUpdate":"2024-05-01T12:00:00Z"}`, string(out))
}

func TestSpeedTokens(t *testing.T) {
	assert.True(t, SpeedNoQueue.Unqueued())
	assert.True(t, SpeedAuto.Unqueued())
	assert.False(t, Speed2M.Unqueued())
	assert.False(t, Speed("noqueue").Unqueued(), "matching is exact")

	assert.True(t, SpeedUnlimited.Known())
	assert.False(t, Speed("2000k").Known())
}

func TestCommandStatusFinal(t *testing.T) {
	assert.False(t, StatusPending.Final())
	assert.False(t, StatusSent.Final())
	assert.True(t, StatusCompleted.Final())
	assert.True(t, StatusFailed.Final())
}
