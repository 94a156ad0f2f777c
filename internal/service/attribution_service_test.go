package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"invitetrack/internal/database"
	"invitetrack/internal/repository"
)

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func newTestAttributionService(db *database.DB) *AttributionService {
	return NewAttributionService(
		repository.NewInviteLinkRepository(db),
		repository.NewMemberRepository(db),
		repository.NewAttributionRepository(db),
		repository.NewUsageRepository(db),
	)
}

func seedInviteLink(t *testing.T, db *database.DB, code, inviterID string) {
	t.Helper()
	linkRepo := repository.NewInviteLinkRepository(db)
	threadID := "thread-1"
	if _, err := linkRepo.CreateInviteLink(context.Background(), code, inviterID, "inviter", &threadID, "chan-1", "guild-1"); err != nil {
		t.Fatalf("Failed to seed invite link: %v", err)
	}
}

func TestRecordUnknownCode(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestAttributionService(db)
	ctx := context.Background()

	_, err := svc.Record(ctx, "member-1", "newbie", "not-ours", nil)
	if !errors.Is(err, ErrNoLinkFound) {
		t.Fatalf("Record = %v, want ErrNoLinkFound", err)
	}

	// A vanity or generic invite must leave no trace.
	var count int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM members").Scan(&count); err != nil {
		t.Fatalf("Failed to count members: %v", err)
	}
	if count != 0 {
		t.Errorf("unknown code created %d member rows, want 0", count)
	}
}

func TestRecordCreatesFullChain(t *testing.T) {
	db := setupTestDB(t)
	seedInviteLink(t, db, "abc123", "inviter-1")
	svc := newTestAttributionService(db)
	ctx := context.Background()

	result, err := svc.Record(ctx, "member-1", "newbie", "abc123", nil)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if result.Duplicate {
		t.Error("first recording flagged as duplicate")
	}
	if result.Link == nil || result.Link.InviterID != "inviter-1" {
		t.Fatalf("result link = %+v, want inviter-1", result.Link)
	}
	if result.Attribution == nil || result.Attribution.Status != "pending" {
		t.Errorf("attribution = %+v, want pending status", result.Attribution)
	}

	if result.Member == nil {
		t.Fatal("result member is nil")
	}
	if !result.Member.Provisional {
		t.Error("new member not marked provisional")
	}
	if !strings.HasPrefix(result.Member.InternalID, "temp-") {
		t.Errorf("internal ID %q missing temp- prefix", result.Member.InternalID)
	}

	var usages int
	if err := db.QueryRow(ctx, "SELECT COUNT(*) FROM invite_usages WHERE inviter_id = ? AND member_id = ?", "inviter-1", "member-1").Scan(&usages); err != nil {
		t.Fatalf("Failed to count usages: %v", err)
	}
	if usages != 1 {
		t.Errorf("usage rows = %d, want 1", usages)
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	seedInviteLink(t, db, "abc123", "inviter-1")
	svc := newTestAttributionService(db)
	ctx := context.Background()

	if _, err := svc.Record(ctx, "member-1", "newbie", "abc123", nil); err != nil {
		t.Fatalf("first Record failed: %v", err)
	}
	result, err := svc.Record(ctx, "member-1", "newbie", "abc123", nil)
	if err != nil {
		t.Fatalf("second Record failed: %v", err)
	}
	if !result.Duplicate {
		t.Error("second recording not flagged as duplicate")
	}

	counts := map[string]string{
		"members":       "SELECT COUNT(*) FROM members",
		"attributions":  "SELECT COUNT(*) FROM attributions",
		"invite_usages": "SELECT COUNT(*) FROM invite_usages",
	}
	for table, query := range counts {
		var count int
		if err := db.QueryRow(ctx, query).Scan(&count); err != nil {
			t.Fatalf("Failed to count %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("%s rows = %d, want 1", table, count)
		}
	}
}

func TestRecordRefreshesExistingMember(t *testing.T) {
	db := setupTestDB(t)
	seedInviteLink(t, db, "abc123", "inviter-1")
	memberRepo := repository.NewMemberRepository(db)
	svc := newTestAttributionService(db)
	ctx := context.Background()

	created, err := memberRepo.CreateProvisional(ctx, "member-1", "real-id-9", "oldname", "old@example.com")
	if err != nil {
		t.Fatalf("Failed to seed member: %v", err)
	}
	// Simulate signup completed on the main site.
	if _, err := db.Exec(ctx, "UPDATE members SET signup_complete = ? WHERE id = ?", true, created.ID); err != nil {
		t.Fatalf("Failed to flag signup: %v", err)
	}

	email := "new@example.com"
	result, err := svc.Record(ctx, "member-1", "newname", "abc123", &email)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if result.Member.Username != "newname" {
		t.Errorf("username = %q, want newname", result.Member.Username)
	}
	if result.Member.Email != "new@example.com" {
		t.Errorf("email = %q, want new@example.com", result.Member.Email)
	}

	refreshed, err := memberRepo.GetByDiscordID(ctx, "member-1")
	if err != nil {
		t.Fatalf("Failed to reload member: %v", err)
	}
	if !refreshed.SignupComplete {
		t.Error("signup flag regressed by refresh")
	}
	if refreshed.InternalID != "real-id-9" {
		t.Errorf("internal ID = %q, want real-id-9", refreshed.InternalID)
	}
}

func TestRecordUsesProvidedEmail(t *testing.T) {
	db := setupTestDB(t)
	seedInviteLink(t, db, "abc123", "inviter-1")
	svc := newTestAttributionService(db)
	ctx := context.Background()

	email := "known@example.com"
	result, err := svc.Record(ctx, "member-1", "newbie", "abc123", &email)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if result.Member.Email != "known@example.com" {
		t.Errorf("email = %q, want known@example.com", result.Member.Email)
	}
}

func TestReferrals(t *testing.T) {
	db := setupTestDB(t)
	seedInviteLink(t, db, "abc123", "inviter-1")
	seedInviteLink(t, db, "def456", "inviter-2")
	svc := newTestAttributionService(db)
	ctx := context.Background()

	if _, err := svc.Record(ctx, "member-1", "first", "abc123", nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := svc.Record(ctx, "member-2", "second", "abc123", nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if _, err := svc.Record(ctx, "member-3", "other", "def456", nil); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	referrals, err := svc.Referrals(ctx, "inviter-1")
	if err != nil {
		t.Fatalf("Referrals failed: %v", err)
	}
	if len(referrals) != 2 {
		t.Fatalf("got %d referrals, want 2", len(referrals))
	}
	for _, a := range referrals {
		if a.InviterID != "inviter-1" {
			t.Errorf("referral credited to %q, want inviter-1", a.InviterID)
		}
	}
}
