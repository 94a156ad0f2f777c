package repository

import (
	"context"
	"fmt"
	"time"

	"invitetrack/internal/database"
	"invitetrack/internal/models"
)

// UsageRepository handles the append-only invite usage ledger
type UsageRepository struct {
	db database.DBTX
}

// NewUsageRepository creates a new usage repository
func NewUsageRepository(db database.DBTX) *UsageRepository {
	return &UsageRepository{db: db}
}

// Exists reports whether a ledger row already exists for this pairing
func (r *UsageRepository) Exists(ctx context.Context, inviterID, memberID string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM invite_usages WHERE inviter_id = ? AND member_id = ?"
	if err := r.db.QueryRow(ctx, query, inviterID, memberID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check invite usage: %w", err)
	}
	return count > 0, nil
}

// Create appends a usage row to the ledger
func (r *UsageRepository) Create(ctx context.Context, inviterID, memberID string) (*models.InviteUsage, error) {
	query := "INSERT INTO invite_usages (inviter_id, member_id) VALUES (?, ?)"
	id, err := r.db.ExecReturningID(ctx, query, inviterID, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to create invite usage: %w", err)
	}

	return &models.InviteUsage{
		ID:        id,
		InviterID: inviterID,
		MemberID:  memberID,
		UsedAt:    time.Now(),
	}, nil
}
