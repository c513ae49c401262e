package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eldtechnologies/speedq/internal/engine"
	"github.com/eldtechnologies/speedq/internal/models"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*httptest.Server, *engine.Engine) {
	t.Helper()
	e := engine.New(engine.Config{Cooldown: 10 * time.Second, Logger: zerolog.Nop()})
	srv := httptest.NewServer(NewRouter(zerolog.Nop(), e, nil, Options{RouterSecret: testSecret}))
	t.Cleanup(srv.Close)
	return srv, e
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

func TestEndToEndOverHTTP(t *testing.T) {
	srv, e := newTestServer(t)

	res, data := doJSON(t, http.MethodPost, srv.URL+"/api/speed/request", map[string]string{"username": "alice", "speed": "4M"}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var queued struct {
		Success   bool   `json:"success"`
		CommandID string `json:"commandId"`
	}
	require.NoError(t, json.Unmarshal(data, &queued))
	assert.True(t, queued.Success)
	assert.NotEmpty(t, queued.CommandID)
	assert.Equal(t, models.Speed4M, e.DesiredSpeed("alice"))

	res, data = doJSON(t, http.MethodGet, srv.URL+"/api/router/commands?secret="+testSecret, nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var poll struct {
		Success  bool             `json:"success"`
		PollID   string           `json:"pollId"`
		Commands []models.Command `json:"commands"`
	}
	require.NoError(t, json.Unmarshal(data, &poll))
	require.Len(t, poll.Commands, 1)
	assert.Equal(t, queued.CommandID, poll.Commands[0].ID)
	assert.Equal(t, models.StatusSent, poll.Commands[0].Status)
	assert.Equal(t, models.CommandSetSpeed, poll.Commands[0].Type)
	assert.Equal(t, 0, e.Queue().PendingLen())

	res, _ = doJSON(t, http.MethodPost, srv.URL+"/api/router/confirm", map[string]any{"commandId": queued.CommandID, "success": true},
		map[string]string{"X-Router-Secret": testSecret})
	require.Equal(t, http.StatusOK, res.StatusCode)
	got, ok := e.Queue().Get(queued.CommandID)
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, got.Status)

	res, data = doJSON(t, http.MethodPost, srv.URL+"/api/router/users?secret="+testSecret, map[string]any{
		"users": []map[string]any{{"username": "alice", "speed": "1M", "ip": "10.5.50.2", "uptime": "3m"}},
		"stats": map[string]any{"cpu": 7, "memory": 41, "uptime": "2d"},
	}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	assert.JSONEq(t, `{"success":true,"usersCount":1}`, string(data))

	pending := e.Queue().Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, models.Speed4M, pending[0].Speed)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/api/users", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var users struct {
		Users     []map[string]any `json:"users"`
		Stats     map[string]any   `json:"stats"`
		UpdatedAt *time.Time       `json:"updatedAt"`
	}
	require.NoError(t, json.Unmarshal(data, &users))
	require.Len(t, users.Users, 1)
	assert.Equal(t, "10.5.50.2", users.Users[0]["ip"], "router fields pass through")
	assert.EqualValues(t, 7, users.Stats["cpu"])
	assert.NotNil(t, users.Stats["lastUpdate"])
	assert.NotNil(t, users.UpdatedAt)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/api/stats", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var stats struct {
		PendingCommands  int              `json:"pendingCommands"`
		ExecutedCommands int              `json:"executedCommands"`
		ActiveUsers      int              `json:"activeUsers"`
		RecentCommands   []models.Command `json:"recentCommands"`
	}
	require.NoError(t, json.Unmarshal(data, &stats))
	assert.Equal(t, 1, stats.PendingCommands)
	assert.Equal(t, 1, stats.ExecutedCommands)
	assert.Equal(t, 1, stats.ActiveUsers)
	require.Len(t, stats.RecentCommands, 1)
	assert.Equal(t, models.StatusCompleted, stats.RecentCommands[0].Status)
}

func TestRouterEndpointsRequireSecret(t *testing.T) {
	srv, e := newTestServer(t)
	_, err := e.SubmitSpeed(engine.SpeedIntent{Username: "alice", Speed: models.Speed4M})
	require.NoError(t, err)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/router/commands"},
		{http.MethodPost, "/api/router/confirm"},
		{http.MethodPost, "/api/router/users"},
	} {
		res, data := doJSON(t, tc.method, srv.URL+tc.path+"?secret=wrong", map[string]any{"users": []any{}}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, tc.path)
		assert.JSONEq(t, `{"error":"Unauthorized"}`, string(data))
	}
	assert.Equal(t, 1, e.Queue().PendingLen(), "rejected polls must not drain")
}

func TestSpeedRequestValidation(t *testing.T) {
	srv, e := newTestServer(t)

	res, data := doJSON(t, http.MethodPost, srv.URL+"/api/speed/request", map[string]string{"username": "alice"}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Missing username or speed"}`, string(data))
	assert.Equal(t, 0, e.Queue().PendingLen())

	res, data = doJSON(t, http.MethodPost, srv.URL+"/api/user/disconnect", map[string]string{}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"Missing username"}`, string(data))

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/speed/request", strings.NewReader("{not json"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	raw, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestBeaconAlwaysReturnsPixel(t *testing.T) {
	srv, e := newTestServer(t)

	for _, q := range []string{"u=alice&s=4M", "username=alice&speed=8M", "", "u=bob"} {
		res, data := doJSON(t, http.MethodGet, srv.URL+"/api/speed/set?"+q, nil, nil)
		assert.Equal(t, http.StatusOK, res.StatusCode, q)
		assert.Equal(t, "image/gif", res.Header.Get("Content-Type"))
		assert.Equal(t, "no-cache, no-store", res.Header.Get("Cache-Control"))
		assert.True(t, bytes.HasPrefix(data, []byte("GIF89a")), q)
	}

	// The second alice beacon lands inside the cooldown window.
	pending := e.Queue().Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "alice", pending[0].Username)
	assert.Equal(t, models.Speed4M, pending[0].Speed)
}

func TestGetSpeed(t *testing.T) {
	srv, e := newTestServer(t)
	_, err := e.SubmitSpeed(engine.SpeedIntent{Username: "alice", Speed: models.Speed8M})
	require.NoError(t, err)

	tests := []struct {
		query string
		want  string
	}{
		{"username=alice", "8M"},
		{"username=alice&secret=" + testSecret, "8M"},
		{"username=alice&secret=wrong", "2M"},
		{"username=nobody", "2M"},
		{"", "2M"},
	}
	for _, tt := range tests {
		res, data := doJSON(t, http.MethodGet, srv.URL+"/api/speed/get?"+tt.query, nil, nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, tt.want, string(data), tt.query)
	}
}

func TestPushUsersWithoutArrayKeepsSessions(t *testing.T) {
	srv, e := newTestServer(t)

	url := srv.URL + "/api/router/users?secret=" + testSecret
	res, _ := doJSON(t, http.MethodPost, url, map[string]any{"users": []map[string]any{{"username": "carol", "speed": "NoQueue"}}}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 1, e.Queue().PendingLen())

	res, data := doJSON(t, http.MethodPost, url, map[string]any{"users": "nope", "stats": map[string]any{"cpu": 3}}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"success":true,"usersCount":1}`, string(data))
	assert.Len(t, e.Sessions().Sessions, 1)
	assert.NotNil(t, e.Sessions().Stats.LastUpdate)
	assert.Equal(t, 1, e.Queue().PendingLen(), "no reconciliation without a session list")
}

func TestConfirmUnknownIDIsAcked(t *testing.T) {
	srv, _ := newTestServer(t)
	res, data := doJSON(t, http.MethodPost, srv.URL+"/api/router/confirm?secret="+testSecret,
		map[string]any{"commandId": 1700000000123, "success": false, "error": "no such user"}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"success":true}`, string(data))
}

func TestStatusPage(t *testing.T) {
	srv, e := newTestServer(t)
	_, err := e.SubmitSpeed(engine.SpeedIntent{Username: "<b>eve</b>", Speed: models.Speed1M})
	require.NoError(t, err)
	e.Poll()

	res, data := doJSON(t, http.MethodGet, srv.URL+"/", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Type"), "text/html")
	body := string(data)
	assert.Contains(t, body, "Executed Commands")
	assert.Contains(t, body, "&lt;b&gt;eve&lt;/b&gt;", "usernames are escaped")
	assert.Contains(t, body, "(sent)")
}

func TestHealthWithoutRedis(t *testing.T) {
	srv, _ := newTestServer(t)
	res, data := doJSON(t, http.MethodGet, srv.URL+"/health", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var health struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(data, &health))
	assert.Equal(t, "healthy", health.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	doJSON(t, http.MethodGet, srv.URL+"/api/stats", nil, nil)

	// The request counter is bumped after the response is written.
	require.Eventually(t, func() bool {
		res, err := http.Get(srv.URL + "/metrics")
		if err != nil {
			return false
		}
		defer res.Body.Close()
		data, err := io.ReadAll(res.Body)
		return err == nil && res.StatusCode == http.StatusOK &&
			strings.Contains(string(data), "speedq_pending_commands") &&
			strings.Contains(string(data), `path="/api/stats"`)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestBeaconWithRedirectURLQueuesIntent(t *testing.T) {
	srv, e := newTestServer(t)

	res, data := doJSON(t, http.MethodGet, srv.URL+"/api/speed/set?u=alice&s=4M&dst=http://example.com/", nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "image/gif", res.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(data, []byte("GIF89a")))

	pending := e.Queue().Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "alice", pending[0].Username)
}

func TestPlainTextPortalPost(t *testing.T) {
	srv, e := newTestServer(t)

	post := func(path, body string) map[string]any {
		req, err := http.NewRequest(http.MethodPost, srv.URL+path, strings.NewReader(body))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "text/plain;charset=UTF-8")
		res, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		var out map[string]any
		require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
		return out
	}

	out := post("/api/speed/request", `{"username":"alice","speed":"4M"}`)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, models.Speed4M, e.DesiredSpeed("alice"))

	out = post("/api/speed/request", "username=alice&speed=8M")
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "Missing username or speed", out["error"])

	out = post("/api/user/disconnect", "not json")
	assert.Equal(t, false, out["success"])
	assert.Equal(t, 1, e.Queue().PendingLen())
}

func TestLongUnicodeUsernameDriftCorrects(t *testing.T) {
	srv, e := newTestServer(t)
	router := map[string]string{"X-Router-Secret": testSecret}
	name := strings.Repeat("س", 60)

	res, data := doJSON(t, http.MethodPost, srv.URL+"/api/speed/request", map[string]string{"username": name, "speed": "4M"}, nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	res, _ = doJSON(t, http.MethodGet, srv.URL+"/api/router/commands", nil, router)
	require.Equal(t, http.StatusOK, res.StatusCode)

	push := map[string]any{"users": []map[string]string{{"username": name, "speed": "1M"}}}
	res, data = doJSON(t, http.MethodPost, srv.URL+"/api/router/users", push, router)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))

	pending := e.Queue().Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, name, pending[0].Username)
	assert.Equal(t, models.Speed4M, pending[0].Speed)

	res, data = doJSON(t, http.MethodGet, srv.URL+"/api/speed/get?username="+url.QueryEscape(name), nil, nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "4M", string(data))
}
