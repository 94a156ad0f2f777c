package models

import "time"

// Member is a community member keyed by their external (Discord) ID.
// Rows created before the member finishes signup on the main site are
// provisional: they carry a synthesized internal ID and placeholder email.
type Member struct {
	ID             int64
	DiscordID      string
	InternalID     string
	Username       string
	Email          string
	SignupComplete bool
	Provisional    bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasEmail reports whether a real (non-placeholder) email is known.
func (m *Member) HasEmail() bool {
	return m.Email != "" && !m.Provisional
}
