package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"airbnmail/internal/model"
)

const sampleAnalysisJSON = `{
  "notification_type": "booking_confirmation",
  "check_in_date": "2025-06-15",
  "check_out_date": "2025-06-20",
  "received_date": "2025-06-01",
  "guest_name": "Taro Yamada",
  "num_guests": 2,
  "property_name": "Sakura House Tokyo",
  "confidence": "high"
}`

func TestParseAnalysisPlainJSON(t *testing.T) {
	a := ParseAnalysis(sampleAnalysisJSON)

	assert.Equal(t, "booking_confirmation", a.NotificationType)
	assert.Equal(t, "2025-06-15", a.CheckInDate)
	assert.Equal(t, "2025-06-20", a.CheckOutDate)
	assert.Equal(t, "2025-06-01", a.ReceivedDate)
	assert.Equal(t, "Taro Yamada", a.GuestName)
	assert.Equal(t, 2, a.NumGuests)
	assert.Equal(t, "Sakura House Tokyo", a.PropertyName)
	assert.Equal(t, model.ConfidenceHigh, a.Confidence)
}

func TestParseAnalysisFencedBlockEqualsPlainJSON(t *testing.T) {
	fenced := "Here is the extraction:\n```json\n" + sampleAnalysisJSON + "\n```\nLet me know if you need anything else."

	plain := ParseAnalysis(sampleAnalysisJSON)
	wrapped := ParseAnalysis(fenced)

	assert.Equal(t, plain.NotificationType, wrapped.NotificationType)
	assert.Equal(t, plain.CheckInDate, wrapped.CheckInDate)
	assert.Equal(t, plain.CheckOutDate, wrapped.CheckOutDate)
	assert.Equal(t, plain.GuestName, wrapped.GuestName)
	assert.Equal(t, plain.NumGuests, wrapped.NumGuests)
	assert.Equal(t, plain.PropertyName, wrapped.PropertyName)
	assert.Equal(t, plain.Confidence, wrapped.Confidence)
}

func TestParseAnalysisBraceWindow(t *testing.T) {
	raw := "Sure! The extracted fields are " + sampleAnalysisJSON + " as requested."

	a := ParseAnalysis(raw)

	assert.Equal(t, "booking_confirmation", a.NotificationType)
	assert.Equal(t, "2025-06-15", a.CheckInDate)
	assert.Equal(t, "Taro Yamada", a.GuestName)
}

func TestParseAnalysisGuestCountAsString(t *testing.T) {
	raw := `{"notification_type": "booking_confirmation", "num_guests": "3", "confidence": "high"}`

	a := ParseAnalysis(raw)

	assert.Equal(t, 3, a.NumGuests)
}

func TestParseAnalysisNullFields(t *testing.T) {
	raw := `{"notification_type": "unknown", "check_in_date": null, "guest_name": null, "num_guests": null, "confidence": "low"}`

	a := ParseAnalysis(raw)

	assert.Equal(t, string(model.Unknown), a.NotificationType)
	assert.Empty(t, a.CheckInDate)
	assert.Empty(t, a.GuestName)
	assert.Zero(t, a.NumGuests)
	assert.Equal(t, model.ConfidenceLow, a.Confidence)
}

func TestParseAnalysisFreeTextSweep(t *testing.T) {
	raw := `Booking confirmation received.
Check-in date: 2025-06-15
Check-out date: 2025-06-20
Guest: Taro Yamada
Number of guests: 2
Property: Sakura House Tokyo`

	a := ParseAnalysis(raw)

	assert.Equal(t, "booking_confirmation", a.NotificationType)
	assert.Equal(t, "2025-06-15", a.CheckInDate)
	assert.Equal(t, "2025-06-20", a.CheckOutDate)
	assert.Equal(t, model.ConfidenceHigh, a.Confidence)
	assert.Equal(t, "Taro Yamada", a.GuestName)
	assert.Equal(t, 2, a.NumGuests)
	assert.Equal(t, "Sakura House Tokyo", a.PropertyName)
}

func TestParseAnalysisFreeTextISOFallback(t *testing.T) {
	// No labeled dates, so the first two ISO dates are taken in order at
	// reduced confidence.
	raw := "The stay runs from 2025-06-15 until 2025-06-20 at the usual place."

	a := ParseAnalysis(raw)

	assert.Equal(t, "2025-06-15", a.CheckInDate)
	assert.Equal(t, "2025-06-20", a.CheckOutDate)
	assert.Equal(t, model.ConfidenceMedium, a.Confidence)
}

func TestParseAnalysisSwappedDatesCorrected(t *testing.T) {
	raw := `{"notification_type": "booking_confirmation", "check_in_date": "2025-06-20", "check_out_date": "2025-06-15", "confidence": "high"}`

	a := ParseAnalysis(raw)

	assert.Equal(t, "2025-06-15", a.CheckInDate)
	assert.Equal(t, "2025-06-20", a.CheckOutDate)
}

func TestParseAnalysisGarbageDefaults(t *testing.T) {
	a := ParseAnalysis("complete nonsense with no structure at all")

	assert.Equal(t, string(model.Unknown), a.NotificationType)
	assert.Equal(t, model.ConfidenceLow, a.Confidence)
	assert.Empty(t, a.CheckInDate)
	assert.Empty(t, a.CheckOutDate)
}

func TestParseAnalysisKeepsRawResponse(t *testing.T) {
	a := ParseAnalysis(sampleAnalysisJSON)
	assert.Equal(t, sampleAnalysisJSON, a.Raw)
}
