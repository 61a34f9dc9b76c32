package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"airbnmail/internal/ai"
	"airbnmail/internal/calendar"
	"airbnmail/internal/gmail"
	"airbnmail/internal/logger"
	"airbnmail/internal/model"
	"airbnmail/internal/parser"
	"airbnmail/internal/repository/memory"
	"airbnmail/internal/service"
)

const confirmationResponse = `{
  "notification_type": "booking_confirmation",
  "check_in_date": "2025-06-15",
  "check_out_date": "2025-06-20",
  "guest_name": "Taro Yamada",
  "num_guests": 2,
  "property_name": "Sakura House Tokyo",
  "confidence": "high"
}`

const messageResponse = `{
  "notification_type": "message",
  "confidence": "high"
}`

type syncFixture struct {
	mail     *gmail.MockMailClient
	cal      *calendar.MockCalendarClient
	repo     *memory.InMemoryNotificationRepository
	webhooks *service.WebhookDispatcher
	sync     service.SyncService
}

func newSyncFixture() *syncFixture {
	log := logger.New()

	analyzer := ai.NewMockAnalyzer()
	analyzer.AnalyzeFunc = func(ctx context.Context, emailSummary, systemPrompt string) (string, error) {
		if strings.Contains(emailSummary, "confirmed") {
			return confirmationResponse, nil
		}
		return messageResponse, nil
	}

	mail := gmail.NewMockMailClient()
	cal := calendar.NewMockCalendarClient()
	repo := memory.NewInMemoryNotificationRepository()

	reconciler := service.NewReconcilerService(repo, cal, "primary", "Asia/Tokyo", log)
	webhooks := service.NewWebhookDispatcher(log)

	sync := service.NewSyncService(
		mail,
		parser.New(analyzer, log),
		reconciler,
		repo,
		webhooks,
		nil,
		"from:airbnb.com is:unread",
		log,
	)

	return &syncFixture{mail: mail, cal: cal, repo: repo, webhooks: webhooks, sync: sync}
}

func TestSyncOncePipeline(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()

	f.mail.ListNotificationsFunc = func(ctx context.Context, query string, maxResults int64) ([]*model.Email, error) {
		assert.Equal(t, "from:airbnb.com is:unread", query)
		return []*model.Email{
			{ID: "msg-1", Subject: "Reservation confirmed", Date: "Sun, 1 Jun 2025 09:00:00 +0900"},
			{ID: "msg-2", Subject: "Hanako sent you a message", Date: "Sun, 1 Jun 2025 10:00:00 +0900"},
		}, nil
	}

	var markedRead []string
	f.mail.MarkAsReadFunc = func(ctx context.Context, messageID string) error {
		markedRead = append(markedRead, messageID)
		return nil
	}

	var dispatched []string
	f.webhooks.Register("recorder", func(ctx context.Context, n *model.Notification, eventID string) error {
		dispatched = append(dispatched, n.NotificationID)
		return nil
	})

	result, err := f.sync.SyncOnce(ctx)

	assert.NoError(t, err)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, result.Events)

	assert.Equal(t, []string{"msg-1", "msg-2"}, markedRead)
	assert.Equal(t, []string{"msg-1", "msg-2"}, dispatched)
	assert.Len(t, f.cal.CreatedEvents, 1)

	stored, err := f.repo.Get(ctx, "msg-1")
	assert.NoError(t, err)
	assert.Equal(t, model.BookingConfirmation, stored.NotificationType)
}

func TestSyncOnceHonorsMaxFetchEmails(t *testing.T) {
	t.Setenv("MAX_FETCH_EMAILS", "7")

	ctx := context.Background()
	f := newSyncFixture()

	var gotMax int64
	f.mail.ListNotificationsFunc = func(ctx context.Context, query string, maxResults int64) ([]*model.Email, error) {
		gotMax = maxResults
		return nil, nil
	}

	_, err := f.sync.SyncOnce(ctx)

	assert.NoError(t, err)
	assert.Equal(t, int64(7), gotMax)
}

func TestSyncOnceDefaultsFetchCapOnBadValue(t *testing.T) {
	t.Setenv("MAX_FETCH_EMAILS", "not-a-number")

	ctx := context.Background()
	f := newSyncFixture()

	var gotMax int64
	f.mail.ListNotificationsFunc = func(ctx context.Context, query string, maxResults int64) ([]*model.Email, error) {
		gotMax = maxResults
		return nil, nil
	}

	_, err := f.sync.SyncOnce(ctx)

	assert.NoError(t, err)
	assert.Equal(t, int64(50), gotMax)
}

func TestSyncOnceArchivesWhenConfigured(t *testing.T) {
	t.Setenv("ARCHIVE_PROCESSED", "true")

	ctx := context.Background()
	f := newSyncFixture()

	f.mail.ListNotificationsFunc = func(ctx context.Context, query string, maxResults int64) ([]*model.Email, error) {
		return []*model.Email{
			{ID: "msg-1", Subject: "Reservation confirmed", Date: "Sun, 1 Jun 2025 09:00:00 +0900"},
		}, nil
	}

	var archived []string
	f.mail.ArchiveFunc = func(ctx context.Context, messageID string) error {
		archived = append(archived, messageID)
		return nil
	}

	result, err := f.sync.SyncOnce(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, []string{"msg-1"}, archived)
}

func TestSyncOnceDoesNotArchiveByDefault(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()

	f.mail.ListNotificationsFunc = func(ctx context.Context, query string, maxResults int64) ([]*model.Email, error) {
		return []*model.Email{
			{ID: "msg-1", Subject: "Reservation confirmed", Date: "Sun, 1 Jun 2025 09:00:00 +0900"},
		}, nil
	}

	var archived []string
	f.mail.ArchiveFunc = func(ctx context.Context, messageID string) error {
		archived = append(archived, messageID)
		return nil
	}

	_, err := f.sync.SyncOnce(ctx)

	assert.NoError(t, err)
	assert.Empty(t, archived)
}

func TestSyncOnceIsolatesPerEmailFailures(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()

	f.mail.ListNotificationsFunc = func(ctx context.Context, query string, maxResults int64) ([]*model.Email, error) {
		return []*model.Email{
			{ID: "", Subject: "Broken message with no ID"},
			{ID: "msg-2", Subject: "Reservation confirmed", Date: "Sun, 1 Jun 2025 09:00:00 +0900"},
		}, nil
	}

	result, err := f.sync.SyncOnce(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Events)

	_, err = f.repo.Get(ctx, "msg-2")
	assert.NoError(t, err)
}

func TestSyncOnceRunsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()

	f.mail.ListNotificationsFunc = func(ctx context.Context, query string, maxResults int64) ([]*model.Email, error) {
		return []*model.Email{
			{ID: "msg-1", Subject: "Reservation confirmed", Date: "Sun, 1 Jun 2025 09:00:00 +0900"},
		}, nil
	}

	_, err := f.sync.SyncOnce(ctx)
	assert.NoError(t, err)

	// The same message arrives again: no second event, no second row.
	_, err = f.sync.SyncOnce(ctx)
	assert.NoError(t, err)

	assert.Len(t, f.cal.CreatedEvents, 1)

	all, err := f.repo.FindAll(ctx, 10, 0)
	assert.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSyncOnceWebhookFailureDoesNotFailRun(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()

	f.mail.ListNotificationsFunc = func(ctx context.Context, query string, maxResults int64) ([]*model.Email, error) {
		return []*model.Email{
			{ID: "msg-1", Subject: "Reservation confirmed", Date: "Sun, 1 Jun 2025 09:00:00 +0900"},
		}, nil
	}

	f.webhooks.Register("flaky", func(ctx context.Context, n *model.Notification, eventID string) error {
		return assert.AnError
	})

	result, err := f.sync.SyncOnce(ctx)

	assert.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Failed)
}

func TestMaterializeCreatesMissingEvent(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()

	n := newConfirmation("n-1")
	assert.NoError(t, f.repo.Upsert(ctx, n))

	eventID, err := f.sync.Materialize(ctx, "n-1")

	assert.NoError(t, err)
	assert.NotEmpty(t, eventID)
	assert.Len(t, f.cal.CreatedEvents, 1)

	link, err := f.repo.GetEventLink(ctx, "n-1")
	assert.NoError(t, err)
	assert.Equal(t, eventID, link.EventID)
}

func TestNotificationsPagination(t *testing.T) {
	ctx := context.Background()
	f := newSyncFixture()

	for _, id := range []string{"n-1", "n-2", "n-3"} {
		n := newConfirmation(id)
		assert.NoError(t, f.repo.Upsert(ctx, n))
	}

	page, err := f.sync.Notifications(ctx, 2, 0)
	assert.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := f.sync.Notifications(ctx, 2, 2)
	assert.NoError(t, err)
	assert.Len(t, rest, 1)
}
