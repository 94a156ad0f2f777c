package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"invitetrack/internal/discord"
	"invitetrack/internal/snapshot"
)

// JoinPlatform is the platform surface the join pipeline needs.
type JoinPlatform interface {
	CreateMessage(ctx context.Context, channelID, content string) (*discord.Message, error)
	GetUser(ctx context.Context, userID string) (*discord.User, error)
}

// JoinService handles member-joined events end to end: welcome message,
// invite reconciliation, attribution recording, inviter notification.
// Attribution is auxiliary enrichment: no failure in it may stop the
// welcome flow or lose the join.
type JoinService struct {
	client      JoinPlatform
	reconcile   *ReconcileService
	attribution *AttributionService
	notify      *NotifyService

	guildID      string
	channelID    string
	fetchTimeout time.Duration
}

// NewJoinService creates a new join service for the configured guild
// and welcome channel.
func NewJoinService(
	client JoinPlatform,
	reconcile *ReconcileService,
	attribution *AttributionService,
	notify *NotifyService,
	guildID, channelID string,
	fetchTimeout time.Duration,
) *JoinService {
	return &JoinService{
		client:       client,
		reconcile:    reconcile,
		attribution:  attribution,
		notify:       notify,
		guildID:      guildID,
		channelID:    channelID,
		fetchTimeout: fetchTimeout,
	}
}

// HandleMemberAdd processes a GUILD_MEMBER_ADD gateway event.
func (s *JoinService) HandleMemberAdd(ctx context.Context, event discord.MemberAddEvent) {
	if event.GuildID != s.guildID {
		return
	}

	log.Printf("Member joined: %s (%s)", event.User.Tag(), event.User.ID)

	resolveCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	code, err := s.reconcile.ResolveUsedInvite(resolveCtx, event.GuildID)
	cancel()
	if err != nil {
		var fetchErr *snapshot.FetchError
		if errors.As(err, &fetchErr) {
			// Stale-cache posture: the join proceeds unattributed
			log.Printf("Invite fetch failed, treating join as unattributed: %v", err)
		} else {
			log.Printf("Invite reconciliation failed: %v", err)
		}
		code = ""
	}

	s.sendWelcome(ctx, event.User, code)

	if code == "" {
		log.Printf("No used invite detected for member %s", event.User.ID)
		return
	}

	email := s.lookupEmail(ctx, event.User.ID)

	result, err := s.attribution.Record(ctx, event.User.ID, event.User.Username, code, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoLinkFound):
			log.Printf("Invite %s was not issued through this system, skipping attribution", code)
		default:
			// Partial state persists; repair is the reconcile job's task
			log.Printf("Attribution recording failed for member %s: %v", event.User.ID, err)
		}
		return
	}

	if !result.Duplicate {
		s.notify.NotifyAsync(result.Link, fmt.Sprintf(
			"Your invite was used! %s just joined the server.", event.User.Tag(),
		))
	}
}

// HandleThreadCreate processes a THREAD_CREATE gateway event.
func (s *JoinService) HandleThreadCreate(ctx context.Context, event discord.ThreadCreateEvent) {
	log.Printf("Thread created: %s (%s)", event.Name, event.ID)
}

func (s *JoinService) sendWelcome(ctx context.Context, user discord.User, inviteCode string) {
	message := fmt.Sprintf("Welcome %s to the server!", user.Tag())
	if inviteCode != "" {
		message += fmt.Sprintf(" Joined via invite code %s.", inviteCode)
	} else {
		message += " No invite details available."
	}

	if _, err := s.client.CreateMessage(ctx, s.channelID, message); err != nil {
		log.Printf("Failed to send welcome message for %s: %v", user.ID, err)
		return
	}
	log.Printf("Sent welcome message for %s", user.Tag())
}

// lookupEmail fetches the member's profile email when the platform
// exposes it. Optional: a failure never blocks attribution.
func (s *JoinService) lookupEmail(ctx context.Context, userID string) *string {
	profile, err := s.client.GetUser(ctx, userID)
	if err != nil {
		log.Printf("Profile lookup failed for %s (continuing without email): %v", userID, err)
		return nil
	}
	if profile.Email == "" {
		return nil
	}
	return &profile.Email
}
