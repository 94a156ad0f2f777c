package snapshot

import (
	"sort"
	"time"
)

// Snapshot is a point-in-time mapping of invite code to usage count for
// one guild. Snapshots are value types: built once, never mutated, and
// replaced wholesale in the store.
type Snapshot struct {
	Uses    map[string]int
	TakenAt time.Time
}

// New builds a snapshot from a code→uses mapping, stamped with the
// current time.
func New(uses map[string]int) Snapshot {
	return Snapshot{Uses: uses, TakenAt: time.Now()}
}

// Empty returns a snapshot with no invites.
func Empty() Snapshot {
	return Snapshot{Uses: map[string]int{}}
}

// Get returns the usage count for a code and whether the code is present.
func (s Snapshot) Get(code string) (int, bool) {
	uses, ok := s.Uses[code]
	return uses, ok
}

// Codes returns all invite codes in ascending order. Reconciliation
// iterates in this order so results do not depend on map or fetch order.
func (s Snapshot) Codes() []string {
	codes := make([]string, 0, len(s.Uses))
	for code := range s.Uses {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Len returns the number of invites in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Uses)
}
