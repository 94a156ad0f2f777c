package service

import (
	"context"
	"fmt"
	"log"

	"invitetrack/internal/discord"
	"invitetrack/internal/models"
	"invitetrack/internal/repository"
)

// OnboardPlatform is the platform surface the onboarding flow needs.
type OnboardPlatform interface {
	CreateChannelInvite(ctx context.Context, channelID string, params discord.CreateInviteParams) (*discord.Invite, error)
	CreateThread(ctx context.Context, channelID string, params discord.CreateThreadParams) (*discord.Channel, error)
	AddThreadMember(ctx context.Context, threadID, userID string) error
	CreateMessage(ctx context.Context, channelID, content string) (*discord.Message, error)
}

// OnboardResult is returned to the upstream application after an invite
// has been generated for a prospective inviter.
type OnboardResult struct {
	InviteURL string `json:"inviteUrl"`
	ThreadID  string `json:"threadId"`
}

// OnboardService issues personal invite links: a unique non-expiring
// channel invite plus a private referral thread for the inviter, with
// the link persisted so later joins can be attributed.
type OnboardService struct {
	client    OnboardPlatform
	linkRepo  *repository.InviteLinkRepository
	email     *EmailService
	guildID   string
	channelID string
}

// NewOnboardService creates a new onboarding service
func NewOnboardService(client OnboardPlatform, linkRepo *repository.InviteLinkRepository, email *EmailService, guildID, channelID string) *OnboardService {
	return &OnboardService{
		client:    client,
		linkRepo:  linkRepo,
		email:     email,
		guildID:   guildID,
		channelID: channelID,
	}
}

// GenerateInvite creates the invite and referral thread for a member
// and records the invite link. The email, when provided, receives a
// best-effort copy of the link.
func (s *OnboardService) GenerateInvite(ctx context.Context, discordID, username, email string) (*OnboardResult, error) {
	invite, err := s.client.CreateChannelInvite(ctx, s.channelID, discord.CreateInviteParams{
		MaxAge:    0,
		MaxUses:   0,
		Temporary: false,
		Unique:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	inviteURL := "https://discord.gg/" + invite.Code

	thread, err := s.client.CreateThread(ctx, s.channelID, discord.CreateThreadParams{
		Name:                fmt.Sprintf("referral-%s-%s", username, discordID),
		Type:                discord.ChannelTypePrivateThread,
		AutoArchiveDuration: 1440,
		Invitable:           false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create referral thread: %w", err)
	}

	if err := s.client.AddThreadMember(ctx, thread.ID, discordID); err != nil {
		return nil, fmt.Errorf("failed to add member to thread: %w", err)
	}

	if _, err := s.client.CreateMessage(ctx, thread.ID, "Your invite link: "+inviteURL); err != nil {
		return nil, fmt.Errorf("failed to post invite link: %w", err)
	}

	threadID := thread.ID
	if _, err := s.linkRepo.CreateInviteLink(ctx, invite.Code, discordID, username, &threadID, s.channelID, s.guildID); err != nil {
		return nil, fmt.Errorf("failed to record invite link: %w", err)
	}

	if email != "" && s.email != nil {
		if err := s.email.SendInviteEmail(ctx, email, username, inviteURL); err != nil {
			log.Printf("Invite email failed (continuing): %v", err)
		}
	}

	log.Printf("Generated invite %s with thread %s for %s", invite.Code, thread.ID, username)

	return &OnboardResult{InviteURL: inviteURL, ThreadID: thread.ID}, nil
}

// InviterLinks lists the invite links issued to an inviter.
func (s *OnboardService) InviterLinks(ctx context.Context, inviterID string) ([]models.InviteLink, error) {
	links, err := s.linkRepo.GetByInviter(ctx, inviterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invite links: %w", err)
	}
	return links, nil
}
