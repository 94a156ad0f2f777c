package models

import "time"

// Attribution statuses. The service only ever creates pending rows;
// confirmation and expiry are driven by the upstream application.
const (
	AttributionPending   = "pending"
	AttributionConfirmed = "confirmed"
	AttributionExpired   = "expired"
)

// Attribution links a joining member to the inviter whose link they used.
// Append-only; at most one row per (inviter, member) pair.
type Attribution struct {
	ID             int64
	InviteLinkID   int64
	InviterID      string
	MemberID       string
	MemberUsername string
	Status         string
	CreatedAt      time.Time
}

// IsPending reports whether the attribution still awaits confirmation.
func (a *Attribution) IsPending() bool {
	return a.Status == AttributionPending
}

// InviteUsage is one row in the secondary audit ledger of invite
// consumption. Independent of Attribution; written in the same logical
// unit of work.
type InviteUsage struct {
	ID        int64
	InviterID string
	MemberID  string
	UsedAt    time.Time
}
