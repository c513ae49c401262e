package models

import (
	"encoding/json"
	"time"
)

// Session is one connected user as reported by the router. Only Username and
// Speed are interpreted; all other fields are kept verbatim in Extra.
type Session struct {
	Username string
	Speed    Speed
	Extra    map[string]json.RawMessage
}

// UnmarshalJSON keeps unknown router fields for pass-through.
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Session{}
	if v, ok := raw["username"]; ok {
		if err := json.Unmarshal(v, &s.Username); err != nil {
			return err
		}
		delete(raw, "username")
	}
	if v, ok := raw["speed"]; ok {
		if err := json.Unmarshal(v, &s.Speed); err != nil {
			return err
		}
		delete(raw, "speed")
	}
	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

// MarshalJSON writes the session back with its pass-through fields.
func (s Session) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	user, err := json.Marshal(s.Username)
	if err != nil {
		return nil, err
	}
	speed, err := json.Marshal(s.Speed)
	if err != nil {
		return nil, err
	}
	out["username"] = user
	out["speed"] = speed
	return json.Marshal(out)
}

// RouterStats holds the router's resource report. Fields are opaque to the
// server; LastUpdate is stamped on receipt.
type RouterStats struct {
	Fields     map[string]json.RawMessage
	LastUpdate *time.Time
}

// UnmarshalJSON reads an arbitrary stats object.
func (rs *RouterStats) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	delete(raw, "lastUpdate")
	rs.Fields = raw
	return nil
}

// MarshalJSON writes the stats with lastUpdate null until the first push.
func (rs RouterStats) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(rs.Fields)+1)
	for k, v := range rs.Fields {
		out[k] = v
	}
	out["lastUpdate"] = rs.LastUpdate
	return json.Marshal(out)
}

// DefaultRouterStats mirrors the zero report shown before the router's first push.
func DefaultRouterStats() RouterStats {
	return RouterStats{
		Fields: map[string]json.RawMessage{
			"cpu":    json.RawMessage(`0`),
			"memory": json.RawMessage(`0`),
			"uptime": json.RawMessage(`"0s"`),
		},
	}
}
