package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"invitetrack/internal/database"
	"invitetrack/internal/models"
)

// MemberRepository handles database operations for community members
type MemberRepository struct {
	db database.DBTX
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db database.DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

// GetByDiscordID retrieves a member by their external Discord ID.
// Returns nil when no record exists.
func (r *MemberRepository) GetByDiscordID(ctx context.Context, discordID string) (*models.Member, error) {
	query := `
		SELECT id, discord_id, internal_id, username, email, signup_complete, provisional, created_at, updated_at
		FROM members
		WHERE discord_id = ?
	`
	member := &models.Member{}
	err := r.db.QueryRow(ctx, query, discordID).Scan(
		&member.ID,
		&member.DiscordID,
		&member.InternalID,
		&member.Username,
		&member.Email,
		&member.SignupComplete,
		&member.Provisional,
		&member.CreatedAt,
		&member.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

// CreateProvisional inserts a member record for someone who joined the
// community before completing signup on the main site. The internal ID
// is a synthesized placeholder replaced when signup completes.
func (r *MemberRepository) CreateProvisional(ctx context.Context, discordID, internalID, username, email string) (*models.Member, error) {
	query := `
		INSERT INTO members (discord_id, internal_id, username, email, signup_complete, provisional)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, discordID, internalID, username, email, false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return &models.Member{
		ID:          id,
		DiscordID:   discordID,
		InternalID:  internalID,
		Username:    username,
		Email:       email,
		Provisional: true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}, nil
}

// Update refreshes a member's mutable attributes. The signup flag is
// OR-ed with the stored value so a completed signup is never regressed.
func (r *MemberRepository) Update(ctx context.Context, id int64, username, email string, signupComplete bool) error {
	query := `
		UPDATE members
		SET username = ?, email = ?, signup_complete = (signup_complete OR ?), updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	_, err := r.db.Exec(ctx, query, username, email, signupComplete, id)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	return nil
}
