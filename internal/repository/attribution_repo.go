package repository

import (
	"context"
	"fmt"
	"time"

	"invitetrack/internal/database"
	"invitetrack/internal/models"
)

// AttributionRepository handles database operations for attributions
type AttributionRepository struct {
	db database.DBTX
}

// NewAttributionRepository creates a new attribution repository
func NewAttributionRepository(db database.DBTX) *AttributionRepository {
	return &AttributionRepository{db: db}
}

// Exists reports whether an attribution already links this inviter and
// member. Used as the dedupe guard before Create so a retried recording
// cannot double-insert.
func (r *AttributionRepository) Exists(ctx context.Context, inviterID, memberID string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM attributions WHERE inviter_id = ? AND member_id = ?"
	if err := r.db.QueryRow(ctx, query, inviterID, memberID).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check attribution: %w", err)
	}
	return count > 0, nil
}

// Create inserts a pending attribution row
func (r *AttributionRepository) Create(ctx context.Context, inviteLinkID int64, inviterID, memberID, memberUsername string) (*models.Attribution, error) {
	query := `
		INSERT INTO attributions (invite_link_id, inviter_id, member_id, member_username, status)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, inviteLinkID, inviterID, memberID, memberUsername, models.AttributionPending)
	if err != nil {
		return nil, fmt.Errorf("failed to create attribution: %w", err)
	}

	return &models.Attribution{
		ID:             id,
		InviteLinkID:   inviteLinkID,
		InviterID:      inviterID,
		MemberID:       memberID,
		MemberUsername: memberUsername,
		Status:         models.AttributionPending,
		CreatedAt:      time.Now(),
	}, nil
}

// ListByInviter retrieves all attributions credited to an inviter
func (r *AttributionRepository) ListByInviter(ctx context.Context, inviterID string) ([]models.Attribution, error) {
	query := `
		SELECT id, invite_link_id, inviter_id, member_id, member_username, status, created_at
		FROM attributions
		WHERE inviter_id = ?
		ORDER BY created_at DESC
	`
	return r.list(ctx, query, inviterID)
}

// ListMissingUsage retrieves attributions that have no matching row in
// the usage ledger, i.e. recordings that failed partway through.
func (r *AttributionRepository) ListMissingUsage(ctx context.Context) ([]models.Attribution, error) {
	query := `
		SELECT a.id, a.invite_link_id, a.inviter_id, a.member_id, a.member_username, a.status, a.created_at
		FROM attributions a
		LEFT JOIN invite_usages u ON a.inviter_id = u.inviter_id AND a.member_id = u.member_id
		WHERE u.id IS NULL
		ORDER BY a.created_at
	`
	return r.list(ctx, query)
}

func (r *AttributionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Attribution, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributions: %w", err)
	}
	defer rows.Close()

	var attributions []models.Attribution
	for rows.Next() {
		var a models.Attribution
		if err := rows.Scan(
			&a.ID,
			&a.InviteLinkID,
			&a.InviterID,
			&a.MemberID,
			&a.MemberUsername,
			&a.Status,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attribution: %w", err)
		}
		attributions = append(attributions, a)
	}

	return attributions, rows.Err()
}
