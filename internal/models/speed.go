package models

// Speed is a rate-limit tier token as understood by the router. Unknown
// tokens are carried through unchanged.
type Speed string

const (
	Speed1M        Speed = "1M"
	Speed2M        Speed = "2M"
	Speed4M        Speed = "4M"
	Speed8M        Speed = "8M"
	SpeedUnlimited Speed = "Unlimited"

	// SpeedNoQueue and SpeedAuto mean the router has no queue attached to the session.
	SpeedNoQueue Speed = "NoQueue"
	SpeedAuto    Speed = "2M-Auto"
)

// DefaultSpeed is answered when a user's desired speed is unknown.
const DefaultSpeed = Speed2M

// Unqueued reports whether s signals that no rate limit is currently applied.
func (s Speed) Unqueued() bool {
	return s == SpeedNoQueue || s == SpeedAuto
}

// Known reports whether s is one of the tokens the router is configured with.
func (s Speed) Known() bool {
	switch s {
	case Speed1M, Speed2M, Speed4M, Speed8M, SpeedUnlimited, SpeedNoQueue, SpeedAuto:
		return true
	}
	return false
}
