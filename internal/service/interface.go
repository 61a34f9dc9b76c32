package service

import (
	"context"
	"time"

	"airbnmail/internal/model"
)

// MailClient is the mail-transport collaborator.
type MailClient interface {
	ListNotifications(ctx context.Context, query string, maxResults int64) ([]*model.Email, error)
	MarkAsRead(ctx context.Context, messageID string) error
	Archive(ctx context.Context, messageID string) error
}

// EventInput carries everything needed to create one calendar event.
type EventInput struct {
	CalendarID  string
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// CalendarClient is the calendar collaborator.
type CalendarClient interface {
	CreateEvent(ctx context.Context, event *EventInput) (string, error)
	DeleteEvent(ctx context.Context, eventID, calendarID string) error
}

// EmailParser turns raw emails into notification records.
type EmailParser interface {
	ParseEmail(ctx context.Context, email *model.Email) (*model.Notification, error)
}

// Reconciler decides whether a notification is new, an update, or a
// duplicate of an already-materialized booking, and performs the resulting
// persistence and calendar side effects. Returns the linked event ID, or
// "" when no event applies.
type Reconciler interface {
	Process(ctx context.Context, n *model.Notification) (string, error)
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	RunID     string `json:"run_id"`
	Fetched   int    `json:"fetched"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Events    int    `json:"events"`
}

// SyncService drives the fetch -> parse -> reconcile pipeline.
type SyncService interface {
	SyncOnce(ctx context.Context) (*SyncResult, error)
	Notifications(ctx context.Context, limit, offset int) ([]*model.Notification, error)
	Notification(ctx context.Context, notificationID string) (*model.Notification, error)
	Materialize(ctx context.Context, notificationID string) (string, error)
}
