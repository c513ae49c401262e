package models

import "time"

// CommandType identifies what the router should do with a command.
type CommandType string

const (
	CommandSetSpeed   CommandType = "set-speed"
	CommandDisconnect CommandType = "disconnect"
)

// CommandStatus tracks a command through the router exchange.
type CommandStatus string

const (
	StatusPending   CommandStatus = "pending"
	StatusSent      CommandStatus = "sent"
	StatusCompleted CommandStatus = "completed"
	StatusFailed    CommandStatus = "failed"
)

// Final reports whether no further transition is allowed from s.
func (s CommandStatus) Final() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Command sources, recorded for the dashboard and metrics.
const (
	SourcePortal    = "portal"
	SourceBeacon    = "beacon"
	SourceDashboard = "dashboard"
	SourceReconcile = "reconcile"
)

// ReasonNoQueue annotates disconnects issued for sessions without a rate limit.
const ReasonNoQueue = "NoQueue"

// Command is a unit of work destined for the router.
type Command struct {
	ID          string        `json:"id"` // ULID
	Type        CommandType   `json:"type"`
	Username    string        `json:"username"`
	Speed       Speed         `json:"speed,omitempty"`
	IP          string        `json:"ip,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Source      string        `json:"source,omitempty"`
	Status      CommandStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	SentAt      *time.Time    `json:"sentAt,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	Error       string        `json:"error,omitempty"`
}
