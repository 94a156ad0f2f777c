package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	return NewClient(server.URL, "test-token", 5*time.Second), server
}

func TestListGuildInvites(t *testing.T) {
	var gotAuth, gotPath string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]Invite{
			{Code: "abc", Uses: 3},
			{Code: "xyz", Uses: 0},
		})
	}))
	defer server.Close()

	invites, err := client.ListGuildInvites(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("ListGuildInvites failed: %v", err)
	}

	if gotAuth != "Bot test-token" {
		t.Errorf("Authorization = %q, want Bot test-token", gotAuth)
	}
	if gotPath != "/guilds/guild-1/invites" {
		t.Errorf("path = %q, want /guilds/guild-1/invites", gotPath)
	}
	if len(invites) != 2 || invites[0].Code != "abc" || invites[0].Uses != 3 {
		t.Errorf("invites = %+v, want abc with 3 uses first", invites)
	}
}

func TestCreateChannelInvite(t *testing.T) {
	var gotParams CreateInviteParams
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotParams); err != nil {
			t.Errorf("failed to decode params: %v", err)
		}
		json.NewEncoder(w).Encode(Invite{Code: "fresh1"})
	}))
	defer server.Close()

	invite, err := client.CreateChannelInvite(context.Background(), "chan-1", CreateInviteParams{Unique: true})
	if err != nil {
		t.Fatalf("CreateChannelInvite failed: %v", err)
	}
	if invite.Code != "fresh1" {
		t.Errorf("code = %q, want fresh1", invite.Code)
	}
	if !gotParams.Unique {
		t.Error("unique flag not forwarded")
	}
}

func TestAddThreadMemberNoContent(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := client.AddThreadMember(context.Background(), "thread-1", "user-1"); err != nil {
		t.Fatalf("AddThreadMember failed: %v", err)
	}
}

func TestAPIErrorDecoding(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":    50013,
			"message": "Missing Permissions",
		})
	}))
	defer server.Close()

	_, err := client.ListGuildInvites(context.Background(), "guild-1")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is %T, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", apiErr.StatusCode)
	}
	if apiErr.Code != 50013 {
		t.Errorf("code = %d, want 50013", apiErr.Code)
	}
	if apiErr.Message != "Missing Permissions" {
		t.Errorf("message = %q, want Missing Permissions", apiErr.Message)
	}
}

func TestCreateDM(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		if body["recipient_id"] != "user-1" {
			t.Errorf("recipient_id = %q, want user-1", body["recipient_id"])
		}
		json.NewEncoder(w).Encode(Channel{ID: "dm-1", Type: 1})
	}))
	defer server.Close()

	channel, err := client.CreateDM(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("CreateDM failed: %v", err)
	}
	if channel.ID != "dm-1" {
		t.Errorf("channel ID = %q, want dm-1", channel.ID)
	}
}

func TestCreateMessage(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/chan-1/messages" {
			t.Errorf("path = %q, want /channels/chan-1/messages", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(Message{ID: "msg-1", ChannelID: "chan-1", Content: body["content"]})
	}))
	defer server.Close()

	msg, err := client.CreateMessage(context.Background(), "chan-1", "hello there")
	if err != nil {
		t.Fatalf("CreateMessage failed: %v", err)
	}
	if msg.Content != "hello there" {
		t.Errorf("content = %q, want hello there", msg.Content)
	}
}

func TestUserTag(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"prefers global name", User{Username: "plain", GlobalName: "Fancy"}, "Fancy"},
		{"falls back to username", User{Username: "plain"}, "plain"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.Tag(); got != tt.want {
				t.Errorf("Tag() = %q, want %q", got, tt.want)
			}
		})
	}
}
