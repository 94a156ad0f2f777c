package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"invitetrack/internal/models"
	"invitetrack/internal/repository"
)

// ErrNoLinkFound means the invite code was not issued through this
// system (e.g. a generic server invite). A valid terminal outcome, not
// a failure: no writes are performed.
var ErrNoLinkFound = errors.New("no invite link found for code")

// Recording step names reported in PersistenceError.
const (
	StepUpsertMember      = "upsert member"
	StepCreateAttribution = "create attribution"
	StepCreateUsage       = "create usage ledger row"
)

// PersistenceError reports which recording step failed. Steps already
// completed are not undone; the partially recorded state is resumable
// because every step is guarded to be idempotent on retry.
type PersistenceError struct {
	Step string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("recording failed at step %q: %v", e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// AttributionResult is the outcome of a successful recording.
type AttributionResult struct {
	Link        *models.InviteLink
	Member      *models.Member
	Attribution *models.Attribution

	// Duplicate is set when the (inviter, member) pair was already
	// recorded and the create steps were skipped.
	Duplicate bool
}

// AttributionService durably records which inviter a joining member is
// credited to.
type AttributionService struct {
	linkRepo        *repository.InviteLinkRepository
	memberRepo      *repository.MemberRepository
	attributionRepo *repository.AttributionRepository
	usageRepo       *repository.UsageRepository
}

// NewAttributionService creates a new attribution service
func NewAttributionService(
	linkRepo *repository.InviteLinkRepository,
	memberRepo *repository.MemberRepository,
	attributionRepo *repository.AttributionRepository,
	usageRepo *repository.UsageRepository,
) *AttributionService {
	return &AttributionService{
		linkRepo:        linkRepo,
		memberRepo:      memberRepo,
		attributionRepo: attributionRepo,
		usageRepo:       usageRepo,
	}
}

// Record persists the attribution of a join to the inviter who issued
// the invite code. Steps run in order with no rollback of completed
// steps; a failure reports the step name so operators can follow up.
func (s *AttributionService) Record(ctx context.Context, memberID, username, inviteCode string, email *string) (*AttributionResult, error) {
	link, err := s.linkRepo.GetByCode(ctx, inviteCode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invite link %s: %w", inviteCode, err)
	}
	if link == nil {
		return nil, ErrNoLinkFound
	}

	member, err := s.upsertMember(ctx, memberID, username, email)
	if err != nil {
		return nil, &PersistenceError{Step: StepUpsertMember, Err: err}
	}

	result := &AttributionResult{Link: link, Member: member}

	// Dedupe guard: a retried recording must not double-insert
	exists, err := s.attributionRepo.Exists(ctx, link.InviterID, memberID)
	if err != nil {
		return result, &PersistenceError{Step: StepCreateAttribution, Err: err}
	}
	if exists {
		log.Printf("Attribution already recorded for inviter %s and member %s", link.InviterID, memberID)
		result.Duplicate = true
	} else {
		attribution, err := s.attributionRepo.Create(ctx, link.ID, link.InviterID, memberID, username)
		if err != nil {
			return result, &PersistenceError{Step: StepCreateAttribution, Err: err}
		}
		result.Attribution = attribution
	}

	usageExists, err := s.usageRepo.Exists(ctx, link.InviterID, memberID)
	if err != nil {
		return result, &PersistenceError{Step: StepCreateUsage, Err: err}
	}
	if !usageExists {
		if _, err := s.usageRepo.Create(ctx, link.InviterID, memberID); err != nil {
			return result, &PersistenceError{Step: StepCreateUsage, Err: err}
		}
	}

	return result, nil
}

// upsertMember creates or refreshes the member record. A new record is
// provisional: the member joined the community before completing signup
// on the main site, so the internal ID and email are placeholders.
func (s *AttributionService) upsertMember(ctx context.Context, memberID, username string, email *string) (*models.Member, error) {
	member, err := s.memberRepo.GetByDiscordID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	if member == nil {
		internalID := "temp-" + uuid.New().String()
		placeholder := fmt.Sprintf("%s@placeholder.invitetrack", memberID)
		if email != nil && *email != "" {
			placeholder = *email
		}
		return s.memberRepo.CreateProvisional(ctx, memberID, internalID, username, placeholder)
	}

	newEmail := member.Email
	if email != nil && *email != "" {
		newEmail = *email
	}
	if err := s.memberRepo.Update(ctx, member.ID, username, newEmail, member.SignupComplete); err != nil {
		return nil, err
	}
	member.Username = username
	member.Email = newEmail
	return member, nil
}

// Referrals lists all attributions credited to an inviter.
func (s *AttributionService) Referrals(ctx context.Context, inviterID string) ([]models.Attribution, error) {
	attributions, err := s.attributionRepo.ListByInviter(ctx, inviterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return attributions, nil
}
