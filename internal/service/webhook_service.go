package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"airbnmail/internal/logger"
	"airbnmail/internal/model"
)

// WebhookHandler receives a notification after it has been reconciled.
// eventID is "" when no calendar event applies.
type WebhookHandler func(ctx context.Context, n *model.Notification, eventID string) error

// WebhookDispatcher fans a processed notification out to a fixed set of
// named handlers. Handlers are registered at startup; there is no runtime
// discovery.
type WebhookDispatcher struct {
	mu       sync.RWMutex
	handlers map[string]WebhookHandler
	logger   *logger.Logger
}

func NewWebhookDispatcher(logger *logger.Logger) *WebhookDispatcher {
	return &WebhookDispatcher{
		handlers: make(map[string]WebhookHandler),
		logger:   logger,
	}
}

// Register adds a handler under a name, replacing any previous handler with
// the same name.
func (d *WebhookDispatcher) Register(name string, handler WebhookHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = handler
}

// Dispatch invokes every registered handler. Handler failures are logged and
// do not stop delivery to the remaining handlers.
func (d *WebhookDispatcher) Dispatch(ctx context.Context, n *model.Notification, eventID string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for name, handler := range d.handlers {
		if err := handler(ctx, n, eventID); err != nil {
			d.logger.Error("Webhook", name, "failed for notification", n.NotificationID, ":", err)
		}
	}
}

type webhookPayload struct {
	NotificationID   string          `json:"notification_id"`
	NotificationType string          `json:"notification_type"`
	Subject          string          `json:"subject"`
	ReceivedAt       time.Time       `json:"received_at"`
	ReservationID    string          `json:"reservation_id,omitempty"`
	PropertyName     string          `json:"property_name,omitempty"`
	GuestName        string          `json:"guest_name,omitempty"`
	CheckIn          string          `json:"check_in,omitempty"`
	CheckOut         string          `json:"check_out,omitempty"`
	NumGuests        int             `json:"num_guests,omitempty"`
	Amount           float64         `json:"amount,omitempty"`
	Currency         string          `json:"currency,omitempty"`
	Confidence       string          `json:"confidence,omitempty"`
	Analysis         *model.Analysis `json:"analysis,omitempty"`
	EventID          string          `json:"event_id,omitempty"`
}

// NewHTTPWebhook returns a handler that POSTs the notification as JSON to
// url. Raw email bodies are not included in the payload.
func NewHTTPWebhook(url string, timeout time.Duration) WebhookHandler {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context, n *model.Notification, eventID string) error {
		payload := webhookPayload{
			NotificationID:   n.NotificationID,
			NotificationType: string(n.NotificationType),
			Subject:          n.Subject,
			ReceivedAt:       n.ReceivedAt,
			ReservationID:    n.ReservationID,
			PropertyName:     n.PropertyName,
			GuestName:        n.GuestName,
			CheckIn:          n.CheckIn,
			CheckOut:         n.CheckOut,
			NumGuests:        n.NumGuests,
			Amount:           n.Amount,
			Currency:         n.Currency,
			Confidence:       n.LLMConfidence,
			Analysis:         n.LLMAnalysis,
			EventID:          eventID,
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode webhook payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to build webhook request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook delivery failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return nil
	}
}
