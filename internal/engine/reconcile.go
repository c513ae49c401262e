package engine

import (
	"github.com/eldtechnologies/speedq/internal/metrics"
	"github.com/eldtechnologies/speedq/internal/models"
	"github.com/eldtechnologies/speedq/internal/queue"
)

// ReconcileResult summarizes one snapshot push.
type ReconcileResult struct {
	Sessions    int
	Corrections []models.Command
	Evictions   []models.Command
}

// PushSnapshot handles a router push. When sessions is non-nil each session
// is checked for drift against its desired speed and for a missing queue,
// then the cached session list is replaced. When stats is non-nil the
// cached stats are replaced. The whole pass over the queue is atomic with
// respect to polls and other pushes.
func (e *Engine) PushSnapshot(sessions []models.Session, stats *models.RouterStats) ReconcileResult {
	now := e.now()
	var res ReconcileResult

	if sessions != nil {
		e.queue.Update(func(tx *queue.Tx) {
			for _, s := range sessions {
				if s.Username == "" {
					continue
				}
				if c, ok := e.correctDrift(tx, s); ok {
					res.Corrections = append(res.Corrections, c)
				}
				if c, ok := e.evictUnqueued(tx, s); ok {
					res.Evictions = append(res.Evictions, c)
				}
			}
		})
		e.snapshot.ReplaceSessions(sessions, now)
		metrics.SnapshotsReceived.Inc()
		e.logger.Info().Int("users", len(sessions)).Msg("received active users from router")
	}
	if stats != nil {
		e.snapshot.ReplaceStats(*stats, now)
	}

	for _, c := range res.Corrections {
		metrics.DriftCorrections.Inc()
		metrics.CommandsEnqueued.WithLabelValues(string(c.Type), c.Source).Inc()
		e.logger.Info().
			Str("username", c.Username).
			Str("speed", string(c.Speed)).
			Str("command_id", c.ID).
			Msg("restoring desired speed")
	}
	for _, c := range res.Evictions {
		metrics.NoQueueEvictions.Inc()
		metrics.CommandsEnqueued.WithLabelValues(string(c.Type), c.Source).Inc()
		e.logger.Info().
			Str("username", c.Username).
			Str("command_id", c.ID).
			Msg("disconnecting session without queue")
	}

	res.Sessions = e.snapshot.Len()
	e.observe()
	return res
}

// correctDrift re-issues the desired speed when the router reports a
// different one and no set-speed is already waiting. Comparison is exact.
func (e *Engine) correctDrift(tx *queue.Tx, s models.Session) (models.Command, bool) {
	desired, ok := e.speeds.Get(s.Username)
	if !ok || desired == s.Speed {
		return models.Command{}, false
	}
	if tx.HasPending(models.CommandSetSpeed, s.Username) {
		return models.Command{}, false
	}
	return tx.Enqueue(models.Command{
		Type:     models.CommandSetSpeed,
		Username: s.Username,
		Speed:    desired,
		Source:   models.SourceReconcile,
	}), true
}

// evictUnqueued disconnects sessions the router reports without a rate
// limit so the client has to pick a tier again.
func (e *Engine) evictUnqueued(tx *queue.Tx, s models.Session) (models.Command, bool) {
	if !s.Speed.Unqueued() {
		return models.Command{}, false
	}
	if tx.HasPending(models.CommandDisconnect, s.Username) {
		return models.Command{}, false
	}
	return tx.Enqueue(models.Command{
		Type:     models.CommandDisconnect,
		Username: s.Username,
		Reason:   models.ReasonNoQueue,
		Source:   models.SourceReconcile,
	}), true
}
