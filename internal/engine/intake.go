package engine

import (
	"strings"

	"github.com/eldtechnologies/speedq/internal/metrics"
	"github.com/eldtechnologies/speedq/internal/models"
	"github.com/eldtechnologies/speedq/internal/queue"
)

// SpeedIntent is a request to move a user to a speed tier.
type SpeedIntent struct {
	Username string
	Speed    models.Speed
	IP       string
}

// Usernames are stored exactly as submitted so they match the names the
// router reports; only a blank one is rejected.
func (in SpeedIntent) validate() error {
	if blank(in.Username) {
		return &ValidationError{Field: "username", Message: "Missing username or speed"}
	}
	if in.Speed == "" {
		return &ValidationError{Field: "speed", Message: "Missing username or speed"}
	}
	return nil
}

// SubmitSpeed accepts a speed intent from the portal page. It is never
// suppressed.
func (e *Engine) SubmitSpeed(in SpeedIntent) (models.Command, error) {
	if err := in.validate(); err != nil {
		return models.Command{}, err
	}
	cmd := e.acceptSpeed(in, models.SourcePortal)
	e.logger.Info().
		Str("username", in.Username).
		Str("speed", string(in.Speed)).
		Str("command_id", cmd.ID).
		Msg("speed request queued")
	return cmd, nil
}

// SubmitBeacon accepts a speed intent from the image beacon. Repeats for the
// same user inside the cooldown window are dropped without touching any
// state; accepted is false in that case.
func (e *Engine) SubmitBeacon(in SpeedIntent) (cmd models.Command, accepted bool, err error) {
	if err := in.validate(); err != nil {
		return models.Command{}, false, err
	}
	if !e.gate.Allow(in.Username, e.now()) {
		metrics.BeaconsSuppressed.Inc()
		e.logger.Debug().
			Str("username", in.Username).
			Str("speed", string(in.Speed)).
			Msg("beacon suppressed")
		return models.Command{}, false, nil
	}
	cmd = e.acceptSpeed(in, models.SourceBeacon)
	e.logger.Info().
		Str("username", in.Username).
		Str("speed", string(in.Speed)).
		Str("command_id", cmd.ID).
		Msg("beacon speed request queued")
	return cmd, true, nil
}

func (e *Engine) acceptSpeed(in SpeedIntent, source string) models.Command {
	if !in.Speed.Known() {
		e.logger.Debug().Str("speed", string(in.Speed)).Msg("unrecognized speed token, passing through")
	}
	// Desired speed and command land together, so a concurrent push never
	// sees the new speed without its pending set-speed.
	var cmd models.Command
	e.queue.Update(func(tx *queue.Tx) {
		e.speeds.Set(in.Username, in.Speed)
		cmd = tx.Enqueue(models.Command{
			Type:     models.CommandSetSpeed,
			Username: in.Username,
			Speed:    in.Speed,
			IP:       in.IP,
			Source:   source,
		})
	})
	metrics.CommandsEnqueued.WithLabelValues(string(models.CommandSetSpeed), source).Inc()
	e.observe()
	return cmd
}

// SubmitDisconnect queues a disconnect requested from the dashboard.
func (e *Engine) SubmitDisconnect(username string) (models.Command, error) {
	if blank(username) {
		return models.Command{}, &ValidationError{Field: "username", Message: "Missing username"}
	}
	cmd := e.queue.Enqueue(models.Command{
		Type:     models.CommandDisconnect,
		Username: username,
		Source:   models.SourceDashboard,
	})
	metrics.CommandsEnqueued.WithLabelValues(string(models.CommandDisconnect), models.SourceDashboard).Inc()
	e.observe()
	e.logger.Info().
		Str("username", username).
		Str("command_id", cmd.ID).
		Msg("disconnect request queued")
	return cmd, nil
}

// DesiredSpeed returns the last speed requested for username, or
// models.DefaultSpeed when none is known.
func (e *Engine) DesiredSpeed(username string) models.Speed {
	if speed, ok := e.speeds.Get(username); ok {
		return speed
	}
	return models.DefaultSpeed
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
