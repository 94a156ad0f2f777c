package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIError is a structured error response from the Discord REST API.
type APIError struct {
	StatusCode int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

// Client is a minimal Discord REST client covering the operations this
// service consumes. All calls are context-bounded; the HTTP client also
// carries a hard timeout so no platform call can stall indefinitely.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient creates a REST client authenticated with the given bot token.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      token,
	}
}

// ListGuildInvites fetches all active invites for a guild.
func (c *Client) ListGuildInvites(ctx context.Context, guildID string) ([]Invite, error) {
	var invites []Invite
	path := fmt.Sprintf("/guilds/%s/invites", guildID)
	if err := c.do(ctx, http.MethodGet, path, nil, &invites); err != nil {
		return nil, err
	}
	return invites, nil
}

// CreateChannelInvite creates a new invite for a channel.
func (c *Client) CreateChannelInvite(ctx context.Context, channelID string, params CreateInviteParams) (*Invite, error) {
	var invite Invite
	path := fmt.Sprintf("/channels/%s/invites", channelID)
	if err := c.do(ctx, http.MethodPost, path, params, &invite); err != nil {
		return nil, err
	}
	return &invite, nil
}

// CreateThread creates a thread in a channel without a parent message.
func (c *Client) CreateThread(ctx context.Context, channelID string, params CreateThreadParams) (*Channel, error) {
	var thread Channel
	path := fmt.Sprintf("/channels/%s/threads", channelID)
	if err := c.do(ctx, http.MethodPost, path, params, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

// AddThreadMember adds a guild member to a thread.
func (c *Client) AddThreadMember(ctx context.Context, threadID, userID string) error {
	path := fmt.Sprintf("/channels/%s/thread-members/%s", threadID, userID)
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

// CreateMessage posts a message to a channel or thread.
func (c *Client) CreateMessage(ctx context.Context, channelID, content string) (*Message, error) {
	var msg Message
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	body := map[string]string{"content": content}
	if err := c.do(ctx, http.MethodPost, path, body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// CreateDM opens (or returns the existing) direct message channel with
// a user.
func (c *Client) CreateDM(ctx context.Context, recipientID string) (*Channel, error) {
	var channel Channel
	body := map[string]string{"recipient_id": recipientID}
	if err := c.do(ctx, http.MethodPost, "/users/@me/channels", body, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// GetUser fetches a user profile.
func (c *Client) GetUser(ctx context.Context, userID string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/"+userID, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		respBody, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			apiErr.Message = string(respBody)
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
