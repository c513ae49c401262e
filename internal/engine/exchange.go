package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/eldtechnologies/speedq/internal/metrics"
	"github.com/eldtechnologies/speedq/internal/models"
	"github.com/eldtechnologies/speedq/internal/queue"
)

// PollResult is one batch handed to the router.
type PollResult struct {
	ID        string // UUIDv7, for correlating logs
	Commands  []models.Command
	Timestamp time.Time
}

// Poll drains the queue. Drained commands are marked sent and are never
// re-queued, whether or not the router confirms them.
func (e *Engine) Poll() PollResult {
	res := PollResult{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Commands:  e.queue.Drain(),
		Timestamp: e.now(),
	}
	if n := len(res.Commands); n > 0 {
		metrics.CommandsDrained.Add(float64(n))
		e.logger.Info().
			Str("poll_id", res.ID).
			Int("count", n).
			Msg("sent commands to router")
	}
	e.observe()
	return res
}

// Confirm records the router's outcome for a command. Unknown ids and
// repeated confirmations are logged but are not errors.
func (e *Engine) Confirm(id string, succeeded bool, errText string) queue.ConfirmResult {
	cmd, res := e.queue.Confirm(id, succeeded, errText)

	switch res {
	case queue.Confirmed:
		metrics.Confirmations.WithLabelValues(string(cmd.Status)).Inc()
		e.logger.Info().
			Str("command_id", id).
			Str("username", cmd.Username).
			Str("status", string(cmd.Status)).
			Str("error", errText).
			Msg("command confirmed")
	case queue.NotFound:
		metrics.Confirmations.WithLabelValues(res.String()).Inc()
		e.logger.Warn().
			Str("command_id", id).
			Bool("success", succeeded).
			Msg("confirmation for unknown command")
	case queue.AlreadyFinal:
		metrics.Confirmations.WithLabelValues(res.String()).Inc()
		e.logger.Warn().
			Str("command_id", id).
			Str("status", string(cmd.Status)).
			Bool("success", succeeded).
			Msg("command already confirmed, keeping first outcome")
	}
	return res
}
