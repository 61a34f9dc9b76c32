package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"airbnmail/internal/model"
	"airbnmail/internal/repository"

	_ "github.com/lib/pq"
)

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

const notificationColumns = `notification_id, notification_type, subject, received_at, sender,
	raw_text, raw_html, reservation_id, property_name, guest_name, check_in, check_out,
	num_guests, amount, currency, cancellation_reason, sender_name, message_content,
	reviewer_name, rating, review_content, llm_analysis, llm_confidence`

func (r *PostgresNotificationRepository) Upsert(ctx context.Context, n *model.Notification) error {
	analysisJSON, err := marshalAnalysis(n.LLMAnalysis)
	if err != nil {
		return fmt.Errorf("failed to encode llm analysis: %w", err)
	}

	query := `
		INSERT INTO airbnb_notifications (` + notificationColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, NOW())
		ON CONFLICT (notification_id) DO UPDATE SET
			notification_type = EXCLUDED.notification_type,
			subject = EXCLUDED.subject,
			received_at = EXCLUDED.received_at,
			sender = EXCLUDED.sender,
			raw_text = EXCLUDED.raw_text,
			raw_html = EXCLUDED.raw_html,
			reservation_id = EXCLUDED.reservation_id,
			property_name = EXCLUDED.property_name,
			guest_name = EXCLUDED.guest_name,
			check_in = EXCLUDED.check_in,
			check_out = EXCLUDED.check_out,
			num_guests = EXCLUDED.num_guests,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			cancellation_reason = EXCLUDED.cancellation_reason,
			sender_name = EXCLUDED.sender_name,
			message_content = EXCLUDED.message_content,
			reviewer_name = EXCLUDED.reviewer_name,
			rating = EXCLUDED.rating,
			review_content = EXCLUDED.review_content,
			llm_analysis = EXCLUDED.llm_analysis,
			llm_confidence = EXCLUDED.llm_confidence,
			updated_at = NOW()`

	_, err = r.db.ExecContext(ctx, query,
		n.NotificationID, string(n.NotificationType), n.Subject, nullableTime(n.ReceivedAt), n.Sender,
		n.RawText, n.RawHTML, n.ReservationID, n.PropertyName, n.GuestName, n.CheckIn, n.CheckOut,
		n.NumGuests, n.Amount, n.Currency, n.CancellationReason, n.SenderName, n.MessageContent,
		n.ReviewerName, n.Rating, n.ReviewContent, analysisJSON, n.LLMConfidence)
	return err
}

func (r *PostgresNotificationRepository) Get(ctx context.Context, notificationID string) (*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM airbnb_notifications WHERE notification_id = $1`
	row := r.db.QueryRowContext(ctx, query, notificationID)

	n, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return n, nil
}

func (r *PostgresNotificationRepository) FindBySimilarity(ctx context.Context, propertyName, checkIn, checkOut, guestName string) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM airbnb_notifications
		WHERE property_name = $1 AND check_in = $2 AND check_out = $3 AND guest_name = $4`
	rows, err := r.db.QueryContext(ctx, query, propertyName, checkIn, checkOut, guestName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *PostgresNotificationRepository) FindAll(ctx context.Context, limit, offset int) ([]*model.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM airbnb_notifications
		ORDER BY received_at DESC NULLS LAST LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *PostgresNotificationRepository) GetEventLink(ctx context.Context, notificationID string) (*model.CalendarEventLink, error) {
	query := `SELECT notification_id, event_id, calendar_id, created_at FROM calendar_events WHERE notification_id = $1`
	row := r.db.QueryRowContext(ctx, query, notificationID)

	link := &model.CalendarEventLink{}
	err := row.Scan(&link.NotificationID, &link.EventID, &link.CalendarID, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return link, nil
}

func (r *PostgresNotificationRepository) SaveEventLink(ctx context.Context, link *model.CalendarEventLink) error {
	query := `
		INSERT INTO calendar_events (notification_id, event_id, calendar_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (notification_id) DO UPDATE SET
			event_id = EXCLUDED.event_id,
			calendar_id = EXCLUDED.calendar_id,
			created_at = EXCLUDED.created_at`
	createdAt := link.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, query, link.NotificationID, link.EventID, link.CalendarID, createdAt)
	return err
}

func (r *PostgresNotificationRepository) DeleteEventLink(ctx context.Context, notificationID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE notification_id = $1`, notificationID)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	n := &model.Notification{}
	var notificationType string
	var receivedAt sql.NullTime
	var analysisJSON sql.NullString

	err := row.Scan(
		&n.NotificationID, &notificationType, &n.Subject, &receivedAt, &n.Sender,
		&n.RawText, &n.RawHTML, &n.ReservationID, &n.PropertyName, &n.GuestName, &n.CheckIn, &n.CheckOut,
		&n.NumGuests, &n.Amount, &n.Currency, &n.CancellationReason, &n.SenderName, &n.MessageContent,
		&n.ReviewerName, &n.Rating, &n.ReviewContent, &analysisJSON, &n.LLMConfidence)
	if err != nil {
		return nil, err
	}

	n.NotificationType = model.NotificationType(notificationType)
	if receivedAt.Valid {
		n.ReceivedAt = receivedAt.Time
	}
	if analysisJSON.Valid && analysisJSON.String != "" {
		analysis := &model.Analysis{}
		if err := json.Unmarshal([]byte(analysisJSON.String), analysis); err == nil {
			n.LLMAnalysis = analysis
		}
	}
	return n, nil
}

func collectNotifications(rows *sql.Rows) ([]*model.Notification, error) {
	var notifications []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func marshalAnalysis(a *model.Analysis) (sql.NullString, error) {
	if a == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullableTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// InitializeDatabase creates the necessary tables
func InitializeDatabase(db *sql.DB) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS airbnb_notifications (
			notification_id VARCHAR(255) PRIMARY KEY,
			notification_type VARCHAR(64) NOT NULL,
			subject TEXT NOT NULL,
			received_at TIMESTAMP,
			sender TEXT,
			raw_text TEXT,
			raw_html TEXT,
			reservation_id VARCHAR(255),
			property_name TEXT,
			guest_name TEXT,
			check_in VARCHAR(32),
			check_out VARCHAR(32),
			num_guests INTEGER DEFAULT 0,
			amount DOUBLE PRECISION DEFAULT 0,
			currency VARCHAR(8),
			cancellation_reason TEXT,
			sender_name TEXT,
			message_content TEXT,
			reviewer_name TEXT,
			rating INTEGER DEFAULT 0,
			review_content TEXT,
			llm_analysis TEXT,
			llm_confidence VARCHAR(16),
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS calendar_events (
			notification_id VARCHAR(255) PRIMARY KEY REFERENCES airbnb_notifications(notification_id),
			event_id VARCHAR(255) NOT NULL,
			calendar_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_similarity
			ON airbnb_notifications (property_name, check_in, check_out, guest_name)`,
	}

	for _, table := range tables {
		_, err := db.Exec(table)
		if err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}
