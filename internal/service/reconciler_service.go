package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"airbnmail/internal/logger"
	"airbnmail/internal/model"
	"airbnmail/internal/parser"
	"airbnmail/internal/repository"
)

// Event times composed onto the extracted dates: guests arrive at 16:00 and
// leave by 12:00.
const (
	checkInHour  = 16
	checkOutHour = 12
)

type reconcilerService struct {
	repo       repository.NotificationRepository
	calendar   CalendarClient
	calendarID string
	location   *time.Location
	logger     *logger.Logger
}

func NewReconcilerService(
	repo repository.NotificationRepository,
	calendar CalendarClient,
	calendarID string,
	timezone string,
	logger *logger.Logger,
) Reconciler {
	// Event times must carry the calendar zone's offset, not the host's.
	location, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("Unknown calendar timezone", timezone, ", using host local time")
		location = time.Local
	}

	return &reconcilerService{
		repo:       repo,
		calendar:   calendar,
		calendarID: calendarID,
		location:   location,
		logger:     logger,
	}
}

// Process reconciles one notification against the store and the calendar.
// Re-ingesting an unchanged notification is a no-op that returns the
// already-linked event ID; a changed one replaces its event; a duplicate of
// another notification's booking reuses that notification's event without
// calling the calendar API.
func (s *reconcilerService) Process(ctx context.Context, n *model.Notification) (string, error) {
	existing, err := s.repo.Get(ctx, n.NotificationID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("failed to look up notification %s: %w", n.NotificationID, err)
	}

	if existing != nil {
		link := s.eventLink(ctx, n.NotificationID)

		if !bookingChanged(existing, n) {
			if link != nil {
				s.logger.Info("Notification", n.NotificationID, "unchanged, keeping event", link.EventID)
				return link.EventID, nil
			}
			// Unchanged but never materialized: fall through and retry the
			// event below.
		} else if link != nil {
			s.logger.Info("Notification", n.NotificationID, "changed, replacing event", link.EventID)
			if err := s.calendar.DeleteEvent(ctx, link.EventID, link.CalendarID); err != nil {
				s.logger.Error("Failed to delete stale event", link.EventID, ":", err)
			} else if err := s.repo.DeleteEventLink(ctx, n.NotificationID); err != nil {
				// Clearing the link keeps a failed recreate retryable instead
				// of no-opping on a deleted event next pass.
				s.logger.Error("Failed to clear event link for", n.NotificationID, ":", err)
			}
		}
	}

	if err := s.repo.Upsert(ctx, n); err != nil {
		return "", fmt.Errorf("failed to save notification %s: %w", n.NotificationID, err)
	}

	// Only confirmed bookings with a complete stay window become events.
	if n.NotificationType != model.BookingConfirmation || n.CheckIn == "" || n.CheckOut == "" {
		return "", nil
	}

	if eventID := s.reuseDuplicateEvent(ctx, n); eventID != "" {
		return eventID, nil
	}

	return s.createEvent(ctx, n)
}

// eventLink fetches a link, treating lookup failures as absence.
func (s *reconcilerService) eventLink(ctx context.Context, notificationID string) *model.CalendarEventLink {
	link, err := s.repo.GetEventLink(ctx, notificationID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("Failed to look up event link for", notificationID, ":", err)
		}
		return nil
	}
	return link
}

// reuseDuplicateEvent looks for another notification describing the same
// physical stay that already has an event. When found, the current
// notification is linked to that event and no create call is made.
func (s *reconcilerService) reuseDuplicateEvent(ctx context.Context, n *model.Notification) string {
	if !n.HasBookingIdentity() {
		return ""
	}

	duplicates, err := s.repo.FindBySimilarity(ctx, n.PropertyName, n.CheckIn, n.CheckOut, n.GuestName)
	if err != nil {
		s.logger.Error("Duplicate-booking lookup failed for", n.NotificationID, ":", err)
		return ""
	}

	for _, dup := range duplicates {
		if dup.NotificationID == n.NotificationID {
			continue
		}
		dupLink := s.eventLink(ctx, dup.NotificationID)
		if dupLink == nil {
			continue
		}

		s.logger.Info("Duplicate booking", n.NotificationID, "reuses event", dupLink.EventID, "from", dup.NotificationID)
		if err := s.repo.SaveEventLink(ctx, &model.CalendarEventLink{
			NotificationID: n.NotificationID,
			EventID:        dupLink.EventID,
			CalendarID:     dupLink.CalendarID,
			CreatedAt:      time.Now(),
		}); err != nil {
			s.logger.Error("Failed to link duplicate", n.NotificationID, "to event", dupLink.EventID, ":", err)
		}
		return dupLink.EventID
	}

	return ""
}

func (s *reconcilerService) createEvent(ctx context.Context, n *model.Notification) (string, error) {
	checkIn, checkOut, ok := s.chooseDates(n)
	if !ok {
		s.logger.Warn("Could not parse stay dates for notification", n.NotificationID)
		return "", nil
	}

	start := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), checkInHour, 0, 0, 0, s.location)
	end := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), checkOutHour, 0, 0, 0, s.location)

	eventID, err := s.calendar.CreateEvent(ctx, &EventInput{
		CalendarID:  s.calendarID,
		Title:       eventTitle(n),
		Description: eventDescription(n),
		Start:       start,
		End:         end,
	})
	if err != nil {
		// Non-fatal: the record stays persisted without a link and the next
		// pass retries it.
		s.logger.Error("Failed to create calendar event for", n.NotificationID, ":", err)
		return "", nil
	}

	if err := s.repo.SaveEventLink(ctx, &model.CalendarEventLink{
		NotificationID: n.NotificationID,
		EventID:        eventID,
		CalendarID:     s.calendarID,
		CreatedAt:      time.Now(),
	}); err != nil {
		s.logger.Error("Failed to save event link for", n.NotificationID, ":", err)
	}

	s.logger.Info("Created calendar event", eventID, "for notification", n.NotificationID)
	return eventID, nil
}

// chooseDates prefers the extractor's dates when confidence is high or
// medium and falls back to the record's own date strings through the
// normalizer.
func (s *reconcilerService) chooseDates(n *model.Notification) (time.Time, time.Time, bool) {
	if n.LLMAnalysis != nil && n.LLMAnalysis.CheckInDate != "" && n.LLMAnalysis.CheckOutDate != "" &&
		(n.LLMConfidence == model.ConfidenceHigh || n.LLMConfidence == model.ConfidenceMedium) {
		in, errIn := time.Parse("2006-01-02", n.LLMAnalysis.CheckInDate)
		out, errOut := time.Parse("2006-01-02", n.LLMAnalysis.CheckOutDate)
		if errIn == nil && errOut == nil {
			return in, out, true
		}
		s.logger.Warn("Extracted dates unparsable for", n.NotificationID, ", falling back to record dates")
	}

	in, errIn := time.Parse("2006-01-02", parser.NormalizeDate(n.CheckIn, ""))
	out, errOut := time.Parse("2006-01-02", parser.NormalizeDate(n.CheckOut, ""))
	if errIn != nil || errOut != nil {
		return time.Time{}, time.Time{}, false
	}
	return in, out, true
}

// bookingChanged compares the booking fields of the stored and incoming
// records. A new zero value is not a change; anything else that differs is.
func bookingChanged(old, incoming *model.Notification) bool {
	stringChanged := func(o, n string) bool { return n != "" && n != o }

	if incoming.NotificationType != model.Unknown && incoming.NotificationType != old.NotificationType {
		return true
	}
	if stringChanged(old.PropertyName, incoming.PropertyName) ||
		stringChanged(old.GuestName, incoming.GuestName) ||
		stringChanged(old.CheckIn, incoming.CheckIn) ||
		stringChanged(old.CheckOut, incoming.CheckOut) ||
		stringChanged(old.Currency, incoming.Currency) ||
		stringChanged(old.ReservationID, incoming.ReservationID) {
		return true
	}
	if incoming.NumGuests != 0 && incoming.NumGuests != old.NumGuests {
		return true
	}
	if incoming.Amount != 0 && incoming.Amount != old.Amount {
		return true
	}

	// Extracted stay dates changing also force an event refresh.
	if old.LLMAnalysis != nil && incoming.LLMAnalysis != nil {
		if old.LLMAnalysis.CheckInDate != incoming.LLMAnalysis.CheckInDate ||
			old.LLMAnalysis.CheckOutDate != incoming.LLMAnalysis.CheckOutDate {
			return true
		}
	}

	return false
}

func eventTitle(n *model.Notification) string {
	guestName := n.GuestName
	if guestName == "" {
		guestName = "Guest"
	}
	propertyName := n.PropertyName
	if propertyName == "" {
		propertyName = "Airbnb Booking"
	}
	numGuests := "?"
	if n.NumGuests > 0 {
		numGuests = fmt.Sprintf("%d", n.NumGuests)
	}
	return fmt.Sprintf("%s (%s名) at %s", guestName, numGuests, propertyName)
}

func eventDescription(n *model.Notification) string {
	var b strings.Builder
	b.WriteString("Airbnb Booking Confirmation\n\n")

	guestName := n.GuestName
	if guestName == "" {
		guestName = "Guest"
	}
	propertyName := n.PropertyName
	if propertyName == "" {
		propertyName = "Airbnb Booking"
	}
	fmt.Fprintf(&b, "Guest: %s\n", guestName)
	fmt.Fprintf(&b, "Property: %s\n", propertyName)

	if n.ReservationID != "" {
		fmt.Fprintf(&b, "Reservation ID: %s\n", n.ReservationID)
	}
	if n.NumGuests > 0 {
		fmt.Fprintf(&b, "Number of Guests: %d\n", n.NumGuests)
	}
	if n.Amount > 0 && n.Currency != "" {
		fmt.Fprintf(&b, "Amount: %s%.2f\n", n.Currency, n.Amount)
	}

	return b.String()
}
