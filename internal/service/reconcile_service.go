package service

import (
	"context"
	"fmt"
	"log"

	"invitetrack/internal/snapshot"
)

// ReconcileService infers which invite was consumed when a member joins.
// Join events carry no "used invite" field, so the engine diffs the
// cached snapshot against a fresh fetch.
type ReconcileService struct {
	store *snapshot.Store
}

// NewReconcileService creates a new reconciliation service
func NewReconcileService(store *snapshot.Store) *ReconcileService {
	return &ReconcileService{store: store}
}

// ResolveUsedInvite returns the code of the invite that was just
// consumed in the guild, or "" when no invite could be resolved.
//
// The whole resolve runs under the guild's reconciliation lock: two
// concurrent joins diffing against the same pre-image snapshot would
// both claim the same invite. A fetch failure is returned as a
// *snapshot.FetchError without touching the cache; the caller should
// treat the join as unattributed rather than fail it.
func (s *ReconcileService) ResolveUsedInvite(ctx context.Context, guildID string) (string, error) {
	unlock := s.store.LockGuild(guildID)
	defer unlock()

	newSnap, err := s.store.Load(ctx, guildID)
	if err != nil {
		return "", err
	}

	oldSnap := s.store.Get(guildID)

	code := diffSnapshots(oldSnap, newSnap)
	if code == "" {
		log.Printf("No used invite resolved for guild %s (%d invites)", guildID, newSnap.Len())
		return "", nil
	}

	s.store.Put(guildID, newSnap)
	return code, nil
}

// Prime fetches and caches the initial snapshot for a guild. Called at
// startup so the first join has a pre-image to diff against.
func (s *ReconcileService) Prime(ctx context.Context, guildID string) error {
	snap, err := s.store.Load(ctx, guildID)
	if err != nil {
		return fmt.Errorf("failed to prime invite snapshot: %w", err)
	}
	s.store.Put(guildID, snap)
	log.Printf("Cached %d invites for guild %s", snap.Len(), guildID)
	return nil
}

// diffSnapshots selects the invite consumed between two snapshots.
// Candidates are visited in ascending code order so the result does not
// depend on fetch order.
//
// First pass: a code absent from the old snapshot, or whose uses count
// grew, was just consumed. Fallback pass: the first code with any uses
// at all — this tolerates the join event racing ahead of a stale cache,
// at the cost of possible misattribution when two joins land on the
// same invite in quick succession.
func diffSnapshots(oldSnap, newSnap snapshot.Snapshot) string {
	codes := newSnap.Codes()

	for _, code := range codes {
		newUses, _ := newSnap.Get(code)
		oldUses, known := oldSnap.Get(code)
		if !known || newUses > oldUses {
			return code
		}
	}

	for _, code := range codes {
		if uses, _ := newSnap.Get(code); uses > 0 {
			return code
		}
	}

	return ""
}
