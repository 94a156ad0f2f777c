package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"invitetrack/internal/database"
	"invitetrack/internal/models"
)

// InviteLinkRepository handles database operations for invite links
type InviteLinkRepository struct {
	db database.DBTX
}

// NewInviteLinkRepository creates a new invite link repository
func NewInviteLinkRepository(db database.DBTX) *InviteLinkRepository {
	return &InviteLinkRepository{db: db}
}

// CreateInviteLink records an invite issued to an inviter, optionally
// with the private thread used for notifications
func (r *InviteLinkRepository) CreateInviteLink(ctx context.Context, code, inviterID, inviterUsername string, threadID *string, channelID, guildID string) (*models.InviteLink, error) {
	query := `
		INSERT INTO invite_links (code, inviter_id, inviter_username, thread_id, channel_id, guild_id)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, code, inviterID, inviterUsername, threadID, channelID, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to create invite link: %w", err)
	}

	return &models.InviteLink{
		ID:              id,
		Code:            code,
		InviterID:       inviterID,
		InviterUsername: inviterUsername,
		ThreadID:        threadID,
		ChannelID:       channelID,
		GuildID:         guildID,
		CreatedAt:       time.Now(),
	}, nil
}

// GetByCode retrieves an invite link by its invite code. Returns nil
// when the code was not issued through this system.
func (r *InviteLinkRepository) GetByCode(ctx context.Context, code string) (*models.InviteLink, error) {
	query := `
		SELECT id, code, inviter_id, inviter_username, thread_id, channel_id, guild_id, created_at
		FROM invite_links
		WHERE code = ?
	`
	link := &models.InviteLink{}
	var threadID sql.NullString
	err := r.db.QueryRow(ctx, query, code).Scan(
		&link.ID,
		&link.Code,
		&link.InviterID,
		&link.InviterUsername,
		&threadID,
		&link.ChannelID,
		&link.GuildID,
		&link.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invite link: %w", err)
	}

	if threadID.Valid {
		link.ThreadID = &threadID.String
	}

	return link, nil
}

// GetByInviter retrieves all invite links issued to an inviter
func (r *InviteLinkRepository) GetByInviter(ctx context.Context, inviterID string) ([]models.InviteLink, error) {
	query := `
		SELECT id, code, inviter_id, inviter_username, thread_id, channel_id, guild_id, created_at
		FROM invite_links
		WHERE inviter_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, inviterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invite links: %w", err)
	}
	defer rows.Close()

	var links []models.InviteLink
	for rows.Next() {
		var link models.InviteLink
		var threadID sql.NullString
		if err := rows.Scan(
			&link.ID,
			&link.Code,
			&link.InviterID,
			&link.InviterUsername,
			&threadID,
			&link.ChannelID,
			&link.GuildID,
			&link.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invite link: %w", err)
		}
		if threadID.Valid {
			link.ThreadID = &threadID.String
		}
		links = append(links, link)
	}

	return links, rows.Err()
}
