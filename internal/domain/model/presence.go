package model

import "time"

// PresenceStatus is the most recent presence payload a session broadcast.
// Status is an opaque string from the gateway's perspective; game clients
// put a JSON blob in it, but nothing here depends on that.
type PresenceStatus struct {
	Away   bool   `json:"away"`
	Status string `json:"status"`
}

// MirrorRecord is the presence snapshot published to the mirror store so
// sibling subsystems can answer liveness queries without a socket.
type MirrorRecord struct {
	AccountID string    `json:"account_id"`
	Online    bool      `json:"online"`
	Away      bool      `json:"away"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}
