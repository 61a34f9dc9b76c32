package repository

import (
	"context"
	"errors"

	"airbnmail/internal/model"
)

// ErrNotFound is returned when a notification or event link does not exist.
var ErrNotFound = errors.New("not found")

// NotificationRepository defines the persistence contract consumed by the
// reconciliation engine.
type NotificationRepository interface {
	// Get returns the stored notification for the given ID, or ErrNotFound.
	Get(ctx context.Context, notificationID string) (*model.Notification, error)

	// Upsert inserts the notification or overwrites the stored record with
	// the same notification ID.
	Upsert(ctx context.Context, n *model.Notification) error

	// FindBySimilarity returns stored notifications matching the booking
	// similarity key exactly.
	FindBySimilarity(ctx context.Context, propertyName, checkIn, checkOut, guestName string) ([]*model.Notification, error)

	// FindAll returns stored notifications ordered by received time,
	// newest first.
	FindAll(ctx context.Context, limit, offset int) ([]*model.Notification, error)

	// GetEventLink returns the calendar event link for a notification, or
	// ErrNotFound.
	GetEventLink(ctx context.Context, notificationID string) (*model.CalendarEventLink, error)

	// SaveEventLink inserts or updates the event link for the link's
	// notification ID.
	SaveEventLink(ctx context.Context, link *model.CalendarEventLink) error

	// DeleteEventLink removes the event link for a notification. Deleting
	// a missing link is not an error.
	DeleteEventLink(ctx context.Context, notificationID string) error
}
