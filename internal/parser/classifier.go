package parser

import (
	"strings"

	"airbnmail/internal/model"
)

// Subject keyword table, checked in order; the first category whose keywords
// match wins. Booking requests are listed before confirmations so that a
// subject mentioning both resolves to the request.
var subjectKeywords = []struct {
	notificationType model.NotificationType
	keywords         []string
}{
	{model.BookingRequest, []string{"booking request", "reservation request"}},
	{model.BookingConfirmation, []string{"confirmed", "confirmation", "booked"}},
	{model.Cancellation, []string{"cancelled", "canceled", "cancellation"}},
	{model.Message, []string{"message", "sent you"}},
	{model.Review, []string{"review", "feedback"}},
	{model.Reminder, []string{"reminder", "checkout", "checkin"}},
	{model.Payment, []string{"payout", "payment"}},
}

var knownTypes = map[string]model.NotificationType{
	string(model.BookingRequest):      model.BookingRequest,
	string(model.BookingConfirmation): model.BookingConfirmation,
	string(model.Cancellation):        model.Cancellation,
	string(model.Message):             model.Message,
	string(model.Review):              model.Review,
	string(model.Reminder):            model.Reminder,
	string(model.Payment):             model.Payment,
	string(model.Unknown):             model.Unknown,
}

// Classify maps the extractor's notification_type onto the fixed enum,
// falling back to subject keyword matching when the value is absent or
// unrecognized. Always returns a type; no match means model.Unknown.
func Classify(llmType, subject string) model.NotificationType {
	if t, ok := knownTypes[strings.ToLower(strings.TrimSpace(llmType))]; ok && t != model.Unknown {
		return t
	}

	subjectLower := strings.ToLower(subject)
	for _, entry := range subjectKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(subjectLower, keyword) {
				return entry.notificationType
			}
		}
	}

	return model.Unknown
}
