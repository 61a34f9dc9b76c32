package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"airbnmail/internal/config"
	"airbnmail/internal/logger"
	"airbnmail/internal/model"
	"airbnmail/internal/repository"
)

const (
	seenKeyPrefix = "airbnmail:processed:"
	seenKeyTTL    = 7 * 24 * time.Hour
)

type syncService struct {
	mail       MailClient
	parser     EmailParser
	reconciler Reconciler
	repo       repository.NotificationRepository
	webhooks   *WebhookDispatcher
	cache      *redis.Client
	query      string
	logger     *logger.Logger
}

// NewSyncService wires the sync pipeline. cache may be nil, in which case
// the seen-message shortcut is disabled and dedup relies on the store alone.
func NewSyncService(
	mail MailClient,
	parser EmailParser,
	reconciler Reconciler,
	repo repository.NotificationRepository,
	webhooks *WebhookDispatcher,
	cache *redis.Client,
	query string,
	logger *logger.Logger,
) SyncService {
	return &syncService{
		mail:       mail,
		parser:     parser,
		reconciler: reconciler,
		repo:       repo,
		webhooks:   webhooks,
		cache:      cache,
		query:      query,
		logger:     logger,
	}
}

// SyncOnce runs one fetch -> parse -> reconcile pass. A failure on one
// email never aborts the run; it is counted and the loop moves on.
func (s *syncService) SyncOnce(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{RunID: uuid.New().String()}
	s.logger.Info("Starting sync run", result.RunID, "with query", s.query)

	maxFetchEmails := config.GetEnv("MAX_FETCH_EMAILS", "50")
	maxFetch, err := strconv.Atoi(maxFetchEmails)
	if err != nil || maxFetch <= 0 {
		maxFetch = 50
	}

	emails, err := s.mail.ListNotifications(ctx, s.query, int64(maxFetch))
	if err != nil {
		return nil, fmt.Errorf("failed to list notification emails: %w", err)
	}
	result.Fetched = len(emails)

	for _, email := range emails {
		if s.alreadySeen(ctx, email.ID) {
			result.Skipped++
			continue
		}

		eventID, err := s.processEmail(ctx, email)
		if err != nil {
			s.logger.Error("Failed to process email", email.ID, ":", err)
			result.Failed++
			continue
		}

		result.Processed++
		if eventID != "" {
			result.Events++
		}
		s.markSeen(ctx, email.ID)
	}

	s.logger.Info("Sync run", result.RunID, "finished:",
		result.Processed, "processed,", result.Skipped, "skipped,", result.Failed, "failed,",
		result.Events, "events")
	return result, nil
}

func (s *syncService) processEmail(ctx context.Context, email *model.Email) (string, error) {
	notification, err := s.parser.ParseEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("parse: %w", err)
	}

	eventID, err := s.reconciler.Process(ctx, notification)
	if err != nil {
		return "", fmt.Errorf("reconcile: %w", err)
	}

	s.logger.Info("Processed notification", notification.NotificationID, "|", notification.Summary())

	s.webhooks.Dispatch(ctx, notification, eventID)

	if err := s.mail.MarkAsRead(ctx, email.ID); err != nil {
		// The record is already persisted; an unread flag only means the
		// message is re-fetched and deduped next run.
		s.logger.Warn("Failed to mark email", email.ID, "as read:", err)
	}

	if config.GetEnv("ARCHIVE_PROCESSED", "false") == "true" {
		if err := s.mail.Archive(ctx, email.ID); err != nil {
			s.logger.Warn("Failed to archive email", email.ID, ":", err)
		}
	}

	return eventID, nil
}

func (s *syncService) alreadySeen(ctx context.Context, messageID string) bool {
	if s.cache == nil {
		return false
	}
	exists, err := s.cache.Exists(ctx, seenKeyPrefix+messageID).Result()
	if err != nil {
		s.logger.Warn("Seen-cache lookup failed for", messageID, ":", err)
		return false
	}
	return exists > 0
}

func (s *syncService) markSeen(ctx context.Context, messageID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, seenKeyPrefix+messageID, "1", seenKeyTTL).Err(); err != nil {
		s.logger.Warn("Failed to record seen key for", messageID, ":", err)
	}
}

func (s *syncService) Notifications(ctx context.Context, limit, offset int) ([]*model.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.FindAll(ctx, limit, offset)
}

func (s *syncService) Notification(ctx context.Context, notificationID string) (*model.Notification, error) {
	return s.repo.Get(ctx, notificationID)
}

// Materialize re-runs reconciliation for a stored notification, creating its
// calendar event if one is still missing.
func (s *syncService) Materialize(ctx context.Context, notificationID string) (string, error) {
	notification, err := s.repo.Get(ctx, notificationID)
	if err != nil {
		return "", err
	}
	return s.reconciler.Process(ctx, notification)
}
