// Package speedq provides a client for the speed server, covering both the
// portal/dashboard endpoints and the router exchange.
package speedq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Command types and statuses as sent by the server.
const (
	TypeSetSpeed   = "set-speed"
	TypeDisconnect = "disconnect"
)

// Client is a speed server API client.
type Client struct {
	BaseURL    string
	Secret     string // router shared secret, sent as X-Router-Secret
	HTTPClient *http.Client
}

// NewClient creates a new client.
func NewClient(baseURL, secret string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Secret:     secret,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Error is a non-2xx response from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("speedq error %d: %s", e.Status, e.Message)
}

// doRequest performs an HTTP request and returns the raw body.
func (c *Client) doRequest(method, path string, body any, router bool) ([]byte, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if router {
		req.Header.Set("X-Router-Secret", c.Secret)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, &Error{Status: resp.StatusCode, Message: errResp.Error}
	}

	return respBody, nil
}

func (c *Client) doJSON(method, path string, body any, router bool, out any) error {
	respBody, err := c.doRequest(method, path, body, router)
	if err != nil {
		return err
	}
	return json.Unmarshal(respBody, out)
}

// Command is a queued instruction for the router.
type Command struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Username    string     `json:"username"`
	Speed       string     `json:"speed,omitempty"`
	IP          string     `json:"ip,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Source      string     `json:"source,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// QueuedResponse acknowledges a speed or disconnect request.
type QueuedResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	CommandID string `json:"commandId,omitempty"`
}

// RequestSpeed submits a speed change as the portal page would.
func (c *Client) RequestSpeed(username, speed, ip string) (*QueuedResponse, error) {
	var resp QueuedResponse
	err := c.doJSON("POST", "/api/speed/request", map[string]string{
		"username": username,
		"speed":    speed,
		"ip":       ip,
	}, false, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Disconnect asks the server to kick a user.
func (c *Client) Disconnect(username string) (*QueuedResponse, error) {
	var resp QueuedResponse
	if err := c.doJSON("POST", "/api/user/disconnect", map[string]string{"username": username}, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DesiredSpeed returns the speed the server wants for username.
func (c *Client) DesiredSpeed(username string) (string, error) {
	path := "/api/speed/get?username=" + url.QueryEscape(username)
	body, err := c.doRequest("GET", path, nil, true)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PollResponse is one batch of commands.
type PollResponse struct {
	Success   bool      `json:"success"`
	PollID    string    `json:"pollId"`
	Commands  []Command `json:"commands"`
	Timestamp time.Time `json:"timestamp"`
}

// Poll fetches and drains the pending commands.
func (c *Client) Poll() (*PollResponse, error) {
	var resp PollResponse
	if err := c.doJSON("GET", "/api/router/commands", nil, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Confirm reports a command's outcome. errText is sent only when non-empty.
func (c *Client) Confirm(commandID string, success bool, errText string) error {
	req := map[string]any{"commandId": commandID, "success": success}
	if errText != "" {
		req["error"] = errText
	}
	var resp struct {
		Success bool `json:"success"`
	}
	return c.doJSON("POST", "/api/router/confirm", req, true, &resp)
}

// Session is one connected user as reported by the router. Extra fields are
// merged into the JSON object.
type Session struct {
	Username string
	Speed    string
	Extra    map[string]any
}

// MarshalJSON flattens Extra next to username and speed.
func (s Session) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["username"] = s.Username
	out["speed"] = s.Speed
	return json.Marshal(out)
}

// PushUsers sends the session table and stats. It returns the number of
// sessions the server now holds.
func (c *Client) PushUsers(sessions []Session, stats map[string]any) (int, error) {
	req := map[string]any{"users": sessions}
	if stats != nil {
		req["stats"] = stats
	}
	var resp struct {
		Success    bool `json:"success"`
		UsersCount int  `json:"usersCount"`
	}
	if err := c.doJSON("POST", "/api/router/users", req, true, &resp); err != nil {
		return 0, err
	}
	return resp.UsersCount, nil
}

// StatsResponse is the dashboard aggregate.
type StatsResponse struct {
	Success          bool           `json:"success"`
	Stats            map[string]any `json:"stats"`
	PendingCommands  int            `json:"pendingCommands"`
	ExecutedCommands int            `json:"executedCommands"`
	TotalSent        int64          `json:"totalSent"`
	ActiveUsers      int            `json:"activeUsers"`
	RecentCommands   []Command      `json:"recentCommands"`
}

// Stats fetches dashboard counters.
func (c *Client) Stats() (*StatsResponse, error) {
	var resp StatsResponse
	if err := c.doJSON("GET", "/api/stats", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthResponse is the health check result.
type HealthResponse struct {
	Status    string         `json:"status"`
	Version   string         `json:"version"`
	Checks    map[string]any `json:"checks"`
	Pending   int            `json:"pending"`
	LastPush  string         `json:"last_push,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON("GET", "/health", nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
