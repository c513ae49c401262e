package speedq

import "sync"

// Router is an in-memory stand-in for the hotspot router: it applies polled
// commands to its session table and reports the table back. It is meant for
// bench testing the server without hardware.
type Router struct {
	client *Client

	mu       sync.Mutex
	sessions map[string]string // username -> speed
}

// NewRouter creates a simulated router with the given connected users and
// their current speeds.
func NewRouter(client *Client, sessions map[string]string) *Router {
	r := &Router{client: client, sessions: make(map[string]string, len(sessions))}
	for u, s := range sessions {
		r.sessions[u] = s
	}
	return r
}

// Connect adds or updates a session.
func (r *Router) Connect(username, speed string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[username] = speed
}

// Speed returns the current speed of a session.
func (r *Router) Speed(username string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[username]
	return s, ok
}

// CycleResult reports one poll/apply/push round.
type CycleResult struct {
	Applied  int
	Failed   int
	Sessions int
}

// Cycle polls for commands, applies and confirms each, then pushes the
// resulting session table.
func (r *Router) Cycle() (CycleResult, error) {
	var res CycleResult

	batch, err := r.client.Poll()
	if err != nil {
		return res, err
	}
	for _, cmd := range batch.Commands {
		errText := r.apply(cmd)
		if err := r.client.Confirm(cmd.ID, errText == "", errText); err != nil {
			return res, err
		}
		if errText == "" {
			res.Applied++
		} else {
			res.Failed++
		}
	}

	n, err := r.client.PushUsers(r.snapshot(), map[string]any{"cpu": 5, "memory": 30, "uptime": "1h"})
	if err != nil {
		return res, err
	}
	res.Sessions = n
	return res, nil
}

// apply executes a command and returns an error message on failure.
func (r *Router) apply(cmd Command) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[cmd.Username]; !ok {
		return "user not active"
	}
	switch cmd.Type {
	case TypeSetSpeed:
		r.sessions[cmd.Username] = cmd.Speed
	case TypeDisconnect:
		delete(r.sessions, cmd.Username)
	default:
		return "unknown command type " + cmd.Type
	}
	return ""
}

func (r *Router) snapshot() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Session, 0, len(r.sessions))
	for u, s := range r.sessions {
		out = append(out, Session{Username: u, Speed: s})
	}
	return out
}
