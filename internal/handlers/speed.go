package handlers

import (
	"errors"
	"net/http"

	"github.com/eldtechnologies/speedq/internal/api/middleware"
	"github.com/eldtechnologies/speedq/internal/engine"
	"github.com/eldtechnologies/speedq/internal/models"
)

// SpeedRequest is the portal page's speed change body.
type SpeedRequest struct {
	Username string       `json:"username"`
	Speed    models.Speed `json:"speed"`
	IP       string       `json:"ip,omitempty"`
}

// SpeedResponse acknowledges a queued intent.
type SpeedResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	CommandID string `json:"commandId"`
}

// RequestSpeed handles POST /api/speed/request.
func (h *Handler) RequestSpeed(w http.ResponseWriter, r *http.Request) {
	req, err := decodeIntake[SpeedRequest](r)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cmd, err := h.engine.SubmitSpeed(engine.SpeedIntent{
		Username: req.Username,
		Speed:    req.Speed,
		IP:       req.IP,
	})
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		h.Rejected(w, verr.Message)
		return
	}
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to queue speed request")
		return
	}

	h.JSON(w, http.StatusOK, SpeedResponse{
		Success:   true,
		Message:   "Speed request queued",
		CommandID: cmd.ID,
	})
}

// SetSpeedBeacon handles GET /api/speed/set, used as an <img> source by
// login pages that cannot make cross-origin or mixed-content requests. It
// always answers with the pixel, whatever happened to the intent.
func (h *Handler) SetSpeedBeacon(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := q.Get("username")
	if user == "" {
		user = q.Get("u")
	}
	speed := q.Get("speed")
	if speed == "" {
		speed = q.Get("s")
	}

	if _, _, err := h.engine.SubmitBeacon(engine.SpeedIntent{
		Username: user,
		Speed:    models.Speed(speed),
	}); err != nil {
		h.logger.Debug().Err(err).Msg("beacon ignored")
	}

	middleware.WritePixel(w)
}

// GetSpeed handles GET /api/speed/get and answers the user's desired speed
// as a bare token for router scripts. A wrong secret, or an unknown user,
// yields the default speed.
func (h *Handler) GetSpeed(w http.ResponseWriter, r *http.Request) {
	speed := models.DefaultSpeed
	secret, given := middleware.RouterSecret(r)
	if !given || middleware.SecretMatches(h.routerSecret, secret) {
		speed = h.engine.DesiredSpeed(r.URL.Query().Get("username"))
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(speed))
}
