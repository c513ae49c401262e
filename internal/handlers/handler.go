package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/eldtechnologies/speedq/internal/engine"
	"github.com/eldtechnologies/speedq/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	engine       *engine.Engine
	redis        *store.RedisStore
	routerSecret string
	logger       zerolog.Logger
}

// NewHandler creates a new Handler. redis may be nil.
func NewHandler(e *engine.Engine, redis *store.RedisStore, routerSecret string, logger zerolog.Logger) *Handler {
	return &Handler{engine: e, redis: redis, routerSecret: routerSecret, logger: logger}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// Rejected reports a validation failure the way the portal page expects:
// HTTP 200 with success=false.
func (h *Handler) Rejected(w http.ResponseWriter, message string) {
	h.JSON(w, http.StatusOK, map[string]any{"success": false, "error": message})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeIntake is decode for the portal endpoints, which may be posted as
// text/plain. A body that is not JSON there counts as empty, so the request
// fails validation instead of being refused.
func decodeIntake[T any](r *http.Request) (T, error) {
	var v T
	err := decode(r, &v)
	if err != nil && !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var zero T
		return zero, nil
	}
	return v, err
}
