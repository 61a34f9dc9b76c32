package model

import (
	"fmt"
	"strings"
	"time"
)

// NotificationType classifies an Airbnb notification email.
type NotificationType string

const (
	BookingRequest      NotificationType = "booking_request"
	BookingConfirmation NotificationType = "booking_confirmation"
	Cancellation        NotificationType = "cancellation"
	Message             NotificationType = "message"
	Review              NotificationType = "review"
	Reminder            NotificationType = "reminder"
	Payment             NotificationType = "payment"
	Unknown             NotificationType = "unknown"
)

// Confidence levels attached to an extraction result.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Notification is the structured record built from one parsed notification
// email. The notification ID is assigned by the mail provider and is unique
// per email; the same physical booking may appear under several IDs.
type Notification struct {
	NotificationID   string           `json:"notification_id"`
	NotificationType NotificationType `json:"notification_type"`
	Subject          string           `json:"subject"`
	ReceivedAt       time.Time        `json:"received_at"`
	Sender           string           `json:"sender"`
	RawText          string           `json:"raw_text"`
	RawHTML          string           `json:"raw_html"`

	// Booking fields. Empty string / zero means the value could not be
	// extracted. CheckIn and CheckOut are YYYY-MM-DD strings when the
	// normalizer recognized the source format, verbatim otherwise.
	ReservationID string  `json:"reservation_id"`
	PropertyName  string  `json:"property_name"`
	GuestName     string  `json:"guest_name"`
	CheckIn       string  `json:"check_in"`
	CheckOut      string  `json:"check_out"`
	NumGuests     int     `json:"num_guests"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`

	// Cancellation fields.
	CancellationReason string `json:"cancellation_reason"`

	// Message fields.
	SenderName     string `json:"sender_name"`
	MessageContent string `json:"message_content"`

	// Review fields.
	ReviewerName  string `json:"reviewer_name"`
	Rating        int    `json:"rating"`
	ReviewContent string `json:"review_content"`

	// Extraction metadata, kept for audit.
	LLMAnalysis   *Analysis `json:"llm_analysis,omitempty"`
	LLMConfidence string    `json:"llm_confidence"`
}

// Summary returns a one-line human-readable description of the notification.
func (n *Notification) Summary() string {
	parts := []string{fmt.Sprintf("Type: %s", n.NotificationType)}

	if n.ReservationID != "" {
		parts = append(parts, fmt.Sprintf("Reservation: %s", n.ReservationID))
	}
	if n.PropertyName != "" {
		parts = append(parts, fmt.Sprintf("Property: %s", n.PropertyName))
	}
	if n.GuestName != "" {
		parts = append(parts, fmt.Sprintf("Guest: %s", n.GuestName))
	}
	if n.CheckIn != "" && n.CheckOut != "" {
		parts = append(parts, fmt.Sprintf("Stay: %s to %s", n.CheckIn, n.CheckOut))
	}
	if n.NumGuests > 0 {
		parts = append(parts, fmt.Sprintf("Guests: %d", n.NumGuests))
	}
	if n.Amount > 0 && n.Currency != "" {
		parts = append(parts, fmt.Sprintf("Amount: %s%.2f", n.Currency, n.Amount))
	}
	if n.MessageContent != "" {
		message := n.MessageContent
		if len(message) > 100 {
			message = message[:100] + "..."
		}
		parts = append(parts, fmt.Sprintf("Message: %s", message))
	}

	return strings.Join(parts, " | ")
}

// HasBookingIdentity reports whether all four similarity-key fields are
// present, which is the precondition for the duplicate-booking check.
func (n *Notification) HasBookingIdentity() bool {
	return n.PropertyName != "" && n.CheckIn != "" && n.CheckOut != "" && n.GuestName != ""
}

// CalendarEventLink associates a notification with an external calendar
// event. Several notification IDs may point at the same event, which is how
// duplicate bookings are linked without creating a second event.
type CalendarEventLink struct {
	NotificationID string    `json:"notification_id"`
	EventID        string    `json:"event_id"`
	CalendarID     string    `json:"calendar_id"`
	CreatedAt      time.Time `json:"created_at"`
}
