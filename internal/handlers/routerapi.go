package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eldtechnologies/speedq/internal/models"
)

// CommandsResponse is the batch returned to a polling router.
type CommandsResponse struct {
	Success   bool             `json:"success"`
	PollID    string           `json:"pollId"`
	Commands  []models.Command `json:"commands"`
	Timestamp time.Time        `json:"timestamp"`
}

// Commands handles GET /api/router/commands. Every returned command is
// marked sent and leaves the queue.
func (h *Handler) Commands(w http.ResponseWriter, r *http.Request) {
	res := h.engine.Poll()
	h.JSON(w, http.StatusOK, CommandsResponse{
		Success:   true,
		PollID:    res.ID,
		Commands:  res.Commands,
		Timestamp: res.Timestamp,
	})
}

// commandID accepts the id as a JSON string or a bare number, since router
// scripts are loose about quoting.
type commandID string

func (c *commandID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = commandID(s)
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = commandID(n.String())
	return nil
}

// ConfirmRequest reports a command's outcome.
type ConfirmRequest struct {
	CommandID commandID `json:"commandId"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// Confirm handles POST /api/router/confirm. Unknown or repeated ids are
// acknowledged like any other.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.engine.Confirm(string(req.CommandID), req.Success, req.Error)
	h.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// UsersPush is the router's session table and resource report.
type UsersPush struct {
	Users json.RawMessage `json:"users"`
	Stats json.RawMessage `json:"stats"`
}

// UsersPushResponse acknowledges a snapshot.
type UsersPushResponse struct {
	Success    bool `json:"success"`
	UsersCount int  `json:"usersCount"`
}

// PushUsers handles POST /api/router/users. A users field that is missing
// or not an array leaves the cached sessions alone; stats are applied
// whenever they are an object.
func (h *Handler) PushUsers(w http.ResponseWriter, r *http.Request) {
	var req UsersPush
	if err := decode(r, &req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var sessions []models.Session
	if isJSONKind(req.Users, '[') {
		sessions = []models.Session{}
		if err := json.Unmarshal(req.Users, &sessions); err != nil {
			h.Error(w, http.StatusBadRequest, "invalid users list")
			return
		}
	}

	var stats *models.RouterStats
	if isJSONKind(req.Stats, '{') {
		stats = &models.RouterStats{}
		if err := json.Unmarshal(req.Stats, stats); err != nil {
			h.Error(w, http.StatusBadRequest, "invalid stats")
			return
		}
	}

	res := h.engine.PushSnapshot(sessions, stats)
	h.JSON(w, http.StatusOK, UsersPushResponse{
		Success:    true,
		UsersCount: res.Sessions,
	})
}

func isJSONKind(raw json.RawMessage, open byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == open
}
