package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"invitetrack/internal/discord"
	"invitetrack/internal/models"
)

// NotifyError reports a failed notification delivery. Notifications are
// best-effort: callers log and move on, never retry or fail the join.
type NotifyError struct {
	Target string
	Err    error
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("failed to notify %s: %v", e.Target, e.Err)
}

func (e *NotifyError) Unwrap() error {
	return e.Err
}

// Messenger is the platform surface used for delivering notifications.
type Messenger interface {
	CreateMessage(ctx context.Context, channelID, content string) (*discord.Message, error)
	CreateDM(ctx context.Context, recipientID string) (*discord.Channel, error)
}

// NotifyService informs inviters that their invite was used.
type NotifyService struct {
	client  Messenger
	timeout time.Duration
}

// NewNotifyService creates a new notify service
func NewNotifyService(client Messenger, timeout time.Duration) *NotifyService {
	return &NotifyService{client: client, timeout: timeout}
}

// Notify delivers a message to the inviter behind a link: into the
// link's private thread when one exists, otherwise as a direct message.
func (s *NotifyService) Notify(ctx context.Context, link *models.InviteLink, message string) error {
	if link.HasThread() {
		if _, err := s.client.CreateMessage(ctx, *link.ThreadID, message); err != nil {
			return &NotifyError{Target: "thread " + *link.ThreadID, Err: err}
		}
		return nil
	}

	dm, err := s.client.CreateDM(ctx, link.InviterID)
	if err != nil {
		return &NotifyError{Target: "user " + link.InviterID, Err: err}
	}
	if _, err := s.client.CreateMessage(ctx, dm.ID, message); err != nil {
		return &NotifyError{Target: "user " + link.InviterID, Err: err}
	}
	return nil
}

// NotifyAsync fires the notification in the background with a bounded
// timeout. Failures are logged and swallowed so the join pipeline never
// blocks or fails on notification delivery.
func (s *NotifyService) NotifyAsync(link *models.InviteLink, message string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.Notify(ctx, link, message); err != nil {
			log.Printf("Notification dropped: %v", err)
		}
	}()
}
