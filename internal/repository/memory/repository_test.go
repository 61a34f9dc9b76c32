package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"airbnmail/internal/model"
	"airbnmail/internal/repository"
)

func storedNotification(id string, receivedAt time.Time) *model.Notification {
	return &model.Notification{
		NotificationID:   id,
		NotificationType: model.BookingConfirmation,
		ReceivedAt:       receivedAt,
		PropertyName:     "Sakura House Tokyo",
		GuestName:        "Taro Yamada",
		CheckIn:          "2025-06-15",
		CheckOut:         "2025-06-20",
	}
}

func TestUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryNotificationRepository()

	n := storedNotification("n-1", time.Now())
	assert.NoError(t, repo.Upsert(ctx, n))

	got, err := repo.Get(ctx, "n-1")
	assert.NoError(t, err)
	assert.Equal(t, "Taro Yamada", got.GuestName)

	n.GuestName = "Hanako Sato"
	assert.NoError(t, repo.Upsert(ctx, n))

	got, err = repo.Get(ctx, "n-1")
	assert.NoError(t, err)
	assert.Equal(t, "Hanako Sato", got.GuestName)
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	repo := NewInMemoryNotificationRepository()

	_, err := repo.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestFindBySimilarity(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryNotificationRepository()

	assert.NoError(t, repo.Upsert(ctx, storedNotification("n-1", time.Now())))
	assert.NoError(t, repo.Upsert(ctx, storedNotification("n-2", time.Now())))

	other := storedNotification("n-3", time.Now())
	other.GuestName = "Hanako Sato"
	assert.NoError(t, repo.Upsert(ctx, other))

	matches, err := repo.FindBySimilarity(ctx, "Sakura House Tokyo", "2025-06-15", "2025-06-20", "Taro Yamada")
	assert.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = repo.FindBySimilarity(ctx, "Sakura House Tokyo", "2025-06-15", "2025-06-20", "Hanako Sato")
	assert.NoError(t, err)
	assert.Len(t, matches, 1)

	matches, err = repo.FindBySimilarity(ctx, "Somewhere Else", "2025-06-15", "2025-06-20", "Taro Yamada")
	assert.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindAllOrdersNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryNotificationRepository()

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, repo.Upsert(ctx, storedNotification("old", base)))
	assert.NoError(t, repo.Upsert(ctx, storedNotification("mid", base.Add(24*time.Hour))))
	assert.NoError(t, repo.Upsert(ctx, storedNotification("new", base.Add(48*time.Hour))))

	all, err := repo.FindAll(ctx, 10, 0)
	assert.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "new", all[0].NotificationID)
	assert.Equal(t, "old", all[2].NotificationID)

	page, err := repo.FindAll(ctx, 1, 1)
	assert.NoError(t, err)
	assert.Len(t, page, 1)
	assert.Equal(t, "mid", page[0].NotificationID)

	empty, err := repo.FindAll(ctx, 10, 5)
	assert.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEventLinks(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryNotificationRepository()

	_, err := repo.GetEventLink(ctx, "n-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	link := &model.CalendarEventLink{
		NotificationID: "n-1",
		EventID:        "event-1",
		CalendarID:     "primary",
		CreatedAt:      time.Now(),
	}
	assert.NoError(t, repo.SaveEventLink(ctx, link))

	got, err := repo.GetEventLink(ctx, "n-1")
	assert.NoError(t, err)
	assert.Equal(t, "event-1", got.EventID)

	// Saving again replaces the linked event.
	link.EventID = "event-2"
	assert.NoError(t, repo.SaveEventLink(ctx, link))

	got, err = repo.GetEventLink(ctx, "n-1")
	assert.NoError(t, err)
	assert.Equal(t, "event-2", got.EventID)

	assert.NoError(t, repo.DeleteEventLink(ctx, "n-1"))
	_, err = repo.GetEventLink(ctx, "n-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// Deleting a missing link is not an error.
	assert.NoError(t, repo.DeleteEventLink(ctx, "n-1"))
}
