package models

import "time"

// InviteLink associates a platform invite code with the inviter it was
// issued to. Created by the onboarding flow; read-only afterwards.
type InviteLink struct {
	ID              int64
	Code            string
	InviterID       string
	InviterUsername string
	ThreadID        *string
	ChannelID       string
	GuildID         string
	CreatedAt       time.Time
}

// HasThread reports whether notifications should go to a private thread
// rather than a direct message.
func (l *InviteLink) HasThread() bool {
	return l.ThreadID != nil && *l.ThreadID != ""
}

// URL returns the shareable invite URL for this link's code.
func (l *InviteLink) URL() string {
	return "https://discord.gg/" + l.Code
}
