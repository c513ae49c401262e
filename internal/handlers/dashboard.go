package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/eldtechnologies/speedq/internal/engine"
	"github.com/eldtechnologies/speedq/internal/models"
)

// UsersResponse lists the router's active sessions.
type UsersResponse struct {
	Success   bool               `json:"success"`
	Users     []models.Session   `json:"users"`
	Stats     models.RouterStats `json:"stats"`
	UpdatedAt *time.Time         `json:"updatedAt"`
	Timestamp time.Time          `json:"timestamp"`
}

// Users handles GET /api/users.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	view := h.engine.Sessions()
	resp := UsersResponse{
		Success:   true,
		Users:     view.Sessions,
		Stats:     view.Stats,
		Timestamp: h.engine.Now(),
	}
	if !view.UpdatedAt.IsZero() {
		resp.UpdatedAt = &view.UpdatedAt
	}
	h.JSON(w, http.StatusOK, resp)
}

// DisconnectRequest asks for a user to be kicked off the hotspot.
type DisconnectRequest struct {
	Username string `json:"username"`
}

// Disconnect handles POST /api/user/disconnect.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	req, err := decodeIntake[DisconnectRequest](r)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cmd, err := h.engine.SubmitDisconnect(req.Username)
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		h.Rejected(w, verr.Message)
		return
	}
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to queue disconnect")
		return
	}

	h.JSON(w, http.StatusOK, SpeedResponse{
		Success:   true,
		Message:   "Disconnect command queued",
		CommandID: cmd.ID,
	})
}

// StatsResponse aggregates queue and router counters.
type StatsResponse struct {
	Success          bool               `json:"success"`
	Stats            models.RouterStats `json:"stats"`
	PendingCommands  int                `json:"pendingCommands"`
	ExecutedCommands int                `json:"executedCommands"`
	TotalSent        int64              `json:"totalSent"`
	ActiveUsers      int                `json:"activeUsers"`
	RecentCommands   []models.Command   `json:"recentCommands"`
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	view := h.engine.Stats(engine.RecentForAPI)
	h.JSON(w, http.StatusOK, StatsResponse{
		Success:          true,
		Stats:            view.Stats,
		PendingCommands:  view.Pending,
		ExecutedCommands: view.History,
		TotalSent:        view.TotalSent,
		ActiveUsers:      view.Sessions,
		RecentCommands:   view.Recent,
	})
}
