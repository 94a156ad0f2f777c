package models

import "testing"

func TestInviteLinkHasThread(t *testing.T) {
	emptyID := ""
	threadID := "thread-1"

	tests := []struct {
		name     string
		threadID *string
		want     bool
	}{
		{"nil thread", nil, false},
		{"empty thread id", &emptyID, false},
		{"thread set", &threadID, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := &InviteLink{ThreadID: tt.threadID}
			if got := link.HasThread(); got != tt.want {
				t.Errorf("HasThread() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInviteLinkURL(t *testing.T) {
	link := &InviteLink{Code: "abc123"}
	if got := link.URL(); got != "https://discord.gg/abc123" {
		t.Errorf("URL() = %q, want https://discord.gg/abc123", got)
	}
}

func TestMemberHasEmail(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		provisional bool
		want        bool
	}{
		{"real email on completed member", "m@example.com", false, true},
		{"provisional placeholder", "123@placeholder.invitetrack", true, false},
		{"no email", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Member{Email: tt.email, Provisional: tt.provisional}
			if got := m.HasEmail(); got != tt.want {
				t.Errorf("HasEmail() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttributionIsPending(t *testing.T) {
	pending := &Attribution{Status: AttributionPending}
	if !pending.IsPending() {
		t.Error("pending attribution reported not pending")
	}
	confirmed := &Attribution{Status: AttributionConfirmed}
	if confirmed.IsPending() {
		t.Error("confirmed attribution reported pending")
	}
}
