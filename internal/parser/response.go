package parser

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"airbnmail/internal/model"
)

var (
	fencedBlockPattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	isoDateSweep       = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
)

// Ordered keyword table for the regex-fallback type match. Slice, not map:
// earlier entries win when a response matches several categories.
var typeKeywords = []struct {
	notificationType model.NotificationType
	keywords         []string
}{
	{model.BookingRequest, []string{"booking request", "reservation request"}},
	{model.BookingConfirmation, []string{"booking confirmation", "reservation confirmation", "confirmed", "booked"}},
	{model.Cancellation, []string{"cancelled", "canceled", "cancellation"}},
	{model.Message, []string{"message", "sent you"}},
	{model.Review, []string{"review", "feedback"}},
	{model.Reminder, []string{"reminder", "checkout", "checkin"}},
	{model.Payment, []string{"payout", "payment"}},
}

var receivedDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)received date.*?(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(?i)email date.*?(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(?i)date.*?(\d{4}-\d{2}-\d{2})`),
}

var checkInPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)check[ -]?in date.*?(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(?i)check[ -]?in.*?(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(?i)check[ -]?in.*?(\d{1,2}/\d{1,2}/\d{4})`),
	regexp.MustCompile(`(?i)check[ -]?in.*?(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})`),
	regexp.MustCompile(`(?i)(\d{4}-\d{2}-\d{2}).*?check[ -]?in`),
}

var checkOutPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)check[ -]?out date.*?(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(?i)check[ -]?out.*?(\d{4}-\d{2}-\d{2})`),
	regexp.MustCompile(`(?i)check[ -]?out.*?(\d{1,2}/\d{1,2}/\d{4})`),
	regexp.MustCompile(`(?i)check[ -]?out.*?(\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4})`),
	regexp.MustCompile(`(?i)(\d{4}-\d{2}-\d{2}).*?check[ -]?out`),
}

var guestNamePatterns = []*regexp.Regexp{
	// English: labels are matched case-insensitively, the captured name is not.
	regexp.MustCompile(`(?i:guest name).*?([A-Z][a-z]+(?: [A-Z][a-z]+)+)`),
	regexp.MustCompile(`(?i:guest.*?name).*?([A-Z][a-z]+(?: [A-Z][a-z]+)+)`),
	regexp.MustCompile(`(?i:guest):?\s+([A-Z][a-z]+(?: [A-Z][a-z]+)+)`),
	regexp.MustCompile(`(?i:name of guest).*?([A-Z][a-z]+(?: [A-Z][a-z]+)+)`),
	// Japanese labeled fields.
	regexp.MustCompile(`ゲスト名:?\s*([\p{Hiragana}\p{Katakana}\p{Han}A-Za-z]+(?:\s+[\p{Hiragana}\p{Katakana}\p{Han}A-Za-z]+)*)`),
	regexp.MustCompile(`お客様:?\s*([\p{Hiragana}\p{Katakana}\p{Han}A-Za-z]+(?:\s+[\p{Hiragana}\p{Katakana}\p{Han}A-Za-z]+)*)`),
	regexp.MustCompile(`予約者:?\s*([\p{Hiragana}\p{Katakana}\p{Han}A-Za-z]+(?:\s+[\p{Hiragana}\p{Katakana}\p{Han}A-Za-z]+)*)`),
}

var guestCountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)number of guests:?\s*(\d+)`),
	regexp.MustCompile(`(?i)guests?:?\s*(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s+guests?`),
	regexp.MustCompile(`(?i)party of\s*(\d+)`),
	regexp.MustCompile(`(?i)(\d+)\s+people`),
	regexp.MustCompile(`(?i)(\d+)\s+persons?`),
	regexp.MustCompile(`ゲスト人数\s*(?:大人)?(\d+)(?:人|名)`),
	regexp.MustCompile(`大人(\d+)(?:人|名)`),
	regexp.MustCompile(`成人(\d+)(?:人|名)`),
	regexp.MustCompile(`(\d+)(?:人|名)(?:の大人|のゲスト)?`),
	regexp.MustCompile(`(?i)num_guests:?\s*(\d+)`),
}

var propertyNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i:property name).*?([A-Za-z0-9].*?)(?:\n|$)`),
	regexp.MustCompile(`(?i:property):?\s+([A-Za-z0-9].*?)(?:\n|$)`),
	regexp.MustCompile(`(?i:listing):?\s+([A-Za-z0-9].*?)(?:\n|$)`),
	regexp.MustCompile(`(?i:name of property).*?([A-Za-z0-9].*?)(?:\n|$)`),
	regexp.MustCompile(`物件名:?\s*([\p{Hiragana}\p{Katakana}\p{Han}A-Za-z0-9].*?)(?:\n|$)`),
	regexp.MustCompile(`宿泊先:?\s*([\p{Hiragana}\p{Katakana}\p{Han}A-Za-z0-9].*?)(?:\n|$)`),
	regexp.MustCompile(`リスティング:?\s*([\p{Hiragana}\p{Katakana}\p{Han}A-Za-z0-9].*?)(?:\n|$)`),
}

// analysisPayload decodes untrusted extractor JSON. num_guests arrives as a
// number or a numeric string depending on how literally the model followed
// the schema.
type analysisPayload struct {
	NotificationType string      `json:"notification_type"`
	CheckInDate      string      `json:"check_in_date"`
	CheckOutDate     string      `json:"check_out_date"`
	ReceivedDate     string      `json:"received_date"`
	GuestName        string      `json:"guest_name"`
	NumGuests        interface{} `json:"num_guests"`
	PropertyName     string      `json:"property_name"`
	Confidence       string      `json:"confidence"`
}

// ParseAnalysis turns a raw extraction response into a typed field map. It
// tries, in order: the whole trimmed text as JSON, the interior of a fenced
// code block, the first-to-last brace window, and finally a per-field regex
// sweep over the free text. A malformed response never aborts the pipeline;
// missing fields stay zero.
func ParseAnalysis(raw string) *model.Analysis {
	trimmed := strings.TrimSpace(raw)

	if a, ok := decodeAnalysis(trimmed); ok {
		a.Raw = raw
		return finalize(a)
	}

	if m := fencedBlockPattern.FindStringSubmatch(trimmed); m != nil {
		if a, ok := decodeAnalysis(strings.TrimSpace(m[1])); ok {
			a.Raw = raw
			return finalize(a)
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start != -1 && end > start {
		if a, ok := decodeAnalysis(trimmed[start : end+1]); ok {
			a.Raw = raw
			return finalize(a)
		}
	}

	return finalize(sweepFreeText(raw))
}

func decodeAnalysis(text string) (*model.Analysis, bool) {
	var payload analysisPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, false
	}

	return &model.Analysis{
		NotificationType: payload.NotificationType,
		CheckInDate:      payload.CheckInDate,
		CheckOutDate:     payload.CheckOutDate,
		ReceivedDate:     payload.ReceivedDate,
		GuestName:        payload.GuestName,
		NumGuests:        coerceGuestCount(payload.NumGuests),
		PropertyName:     payload.PropertyName,
		Confidence:       payload.Confidence,
	}, true
}

// coerceGuestCount accepts a JSON number or a numeric string.
func coerceGuestCount(v interface{}) int {
	switch value := v.(type) {
	case float64:
		return int(value)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return 0
}

// sweepFreeText is the last rung of the ladder: independent best-effort
// regex extraction per field family over the raw response text.
func sweepFreeText(raw string) *model.Analysis {
	a := model.NewAnalysis(raw)
	lower := strings.ToLower(raw)

	for _, entry := range typeKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lower, keyword) {
				a.NotificationType = string(entry.notificationType)
				break
			}
		}
		if a.NotificationType != string(model.Unknown) {
			break
		}
	}

	for _, p := range receivedDatePatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			a.ReceivedDate = m[1]
			break
		}
	}

	for _, p := range checkInPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			a.CheckInDate = NormalizeDate(m[1], "")
			a.Confidence = model.ConfidenceHigh
			break
		}
	}
	for _, p := range checkOutPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			a.CheckOutDate = NormalizeDate(m[1], "")
			a.Confidence = model.ConfidenceHigh
			break
		}
	}

	// Anchored patterns missed: fall back to the first two ISO dates found,
	// in order, at reduced confidence.
	if a.CheckInDate == "" || a.CheckOutDate == "" {
		if dates := isoDateSweep.FindAllString(raw, -1); len(dates) >= 2 {
			a.CheckInDate = dates[0]
			a.CheckOutDate = dates[1]
			a.Confidence = model.ConfidenceMedium
		}
	}

	for _, p := range guestNamePatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			a.GuestName = strings.TrimSpace(m[1])
			break
		}
	}

	for _, p := range guestCountPatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				a.NumGuests = n
				break
			}
		}
	}

	for _, p := range propertyNamePatterns {
		if m := p.FindStringSubmatch(raw); m != nil {
			a.PropertyName = strings.TrimSpace(m[1])
			break
		}
	}

	return a
}

// finalize applies the post-processing shared by every ladder rung.
func finalize(a *model.Analysis) *model.Analysis {
	if a.NotificationType == "" {
		a.NotificationType = string(model.Unknown)
	}
	if a.Confidence == "" {
		a.Confidence = model.ConfidenceLow
	}
	if a.CheckInDate != "" && a.CheckOutDate != "" {
		a.CheckInDate, a.CheckOutDate = ValidateDatePair(a.CheckInDate, a.CheckOutDate)
	}
	return a
}
