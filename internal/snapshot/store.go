package snapshot

import (
	"context"
	"fmt"
	"sync"

	"invitetrack/internal/discord"
)

// FetchError reports a failed snapshot fetch from the platform. Callers
// are expected to keep working from the stale cached snapshot rather
// than abort join handling.
type FetchError struct {
	GuildID string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch invites for guild %s: %v", e.GuildID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// InviteLister is the platform operation the store depends on.
type InviteLister interface {
	ListGuildInvites(ctx context.Context, guildID string) ([]discord.Invite, error)
}

// Store holds the current invite snapshot per guild. Load is a pure
// fetch; callers decide whether to Put the result. Replacement is
// atomic with respect to concurrent Get calls.
type Store struct {
	lister InviteLister

	mu        sync.RWMutex
	snapshots map[string]Snapshot

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewStore creates an empty snapshot store backed by the given platform
// client.
func NewStore(lister InviteLister) *Store {
	return &Store{
		lister:    lister,
		snapshots: make(map[string]Snapshot),
		locks:     make(map[string]*sync.Mutex),
	}
}

// Load fetches the current invites for a guild and returns them as a
// snapshot. The cache is not touched; a failure yields a FetchError.
func (s *Store) Load(ctx context.Context, guildID string) (Snapshot, error) {
	invites, err := s.lister.ListGuildInvites(ctx, guildID)
	if err != nil {
		return Empty(), &FetchError{GuildID: guildID, Err: err}
	}

	uses := make(map[string]int, len(invites))
	for _, invite := range invites {
		uses[invite.Code] = invite.Uses
	}
	return New(uses), nil
}

// Get returns the last stored snapshot for a guild, or an empty
// snapshot if none exists yet. Never blocks on the network, never fails.
func (s *Store) Get(guildID string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[guildID]
	if !ok {
		return Empty()
	}
	return snap
}

// Put atomically replaces the stored snapshot for a guild.
func (s *Store) Put(guildID string, snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[guildID] = snap
}

// LockGuild acquires the per-guild reconciliation lock and returns the
// release function. Two joins on the same guild must not interleave, or
// both would diff against the same pre-image snapshot and attribute the
// same invite twice.
func (s *Store) LockGuild(guildID string) func() {
	s.locksMu.Lock()
	lock, ok := s.locks[guildID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[guildID] = lock
	}
	s.locksMu.Unlock()

	lock.Lock()
	return lock.Unlock
}
