package parser

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"airbnmail/internal/logger"
	"airbnmail/internal/model"
)

// Analyzer is the extraction-call collaborator. Implementations send the
// email summary to a language model and return its raw text response.
type Analyzer interface {
	Analyze(ctx context.Context, emailSummary, systemPrompt string) (string, error)
}

// Layouts for the transport Date header, tried in order.
var emailDateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC3339,
}

var headerDateSweep = regexp.MustCompile(`(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{4})`)

var monthNumbers = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// Parser builds Notification records from raw emails using the extraction
// model with regex/heuristic fallbacks.
type Parser struct {
	analyzer Analyzer
	logger   *logger.Logger
}

func New(analyzer Analyzer, logger *logger.Logger) *Parser {
	return &Parser{
		analyzer: analyzer,
		logger:   logger,
	}
}

// ParseEmail extracts a Notification from one email. An extraction-call
// failure degrades to a low-confidence empty analysis rather than failing
// the email; only a missing notification ID is an error, in which case the
// caller must skip the email.
func (p *Parser) ParseEmail(ctx context.Context, email *model.Email) (*model.Notification, error) {
	if email == nil || email.ID == "" {
		return nil, errors.New("email has no notification id")
	}

	body := email.BodyText
	if body == "" {
		body = email.BodyHTML
	}
	if containsHTML(body) {
		body = cleanHTML(body)
	}

	summary := buildEmailSummary(email, body)

	var analysis *model.Analysis
	raw, err := p.analyzer.Analyze(ctx, summary, SystemPrompt)
	if err != nil {
		p.logger.Error("Extraction call failed for email", email.ID, ":", err)
		analysis = model.NewAnalysis(fmt.Sprintf("analysis failed: %v", err))
	} else {
		analysis = ParseAnalysis(raw)
	}

	receivedAt := p.resolveReceivedAt(analysis, email)

	receivedYear := ""
	if !receivedAt.IsZero() {
		receivedYear = receivedAt.Format("2006")
	}

	checkIn := analysis.CheckInDate
	checkOut := analysis.CheckOutDate
	if checkIn != "" {
		checkIn = NormalizeDate(checkIn, receivedYear)
	}
	if checkOut != "" {
		checkOut = NormalizeDate(checkOut, receivedYear)
	}
	if checkIn != "" && checkOut != "" {
		checkIn, checkOut = ValidateDatePair(checkIn, checkOut)
	}

	numGuests := analysis.NumGuests
	if numGuests == 0 {
		numGuests = scanGuestCount(body)
	}

	confidence := analysis.Confidence
	if confidence == "" {
		confidence = model.ConfidenceLow
	}

	return &model.Notification{
		NotificationID:   email.ID,
		NotificationType: Classify(analysis.NotificationType, email.Subject),
		Subject:          email.Subject,
		ReceivedAt:       receivedAt,
		Sender:           email.From,
		RawText:          email.BodyText,
		RawHTML:          email.BodyHTML,
		PropertyName:     analysis.PropertyName,
		GuestName:        analysis.GuestName,
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		NumGuests:        numGuests,
		LLMAnalysis:      analysis,
		LLMConfidence:    confidence,
	}, nil
}

func buildEmailSummary(email *model.Email, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", email.Subject)
	fmt.Fprintf(&b, "Date: %s\n", email.Date)
	fmt.Fprintf(&b, "From: %s\n", email.From)
	fmt.Fprintf(&b, "To: %s\n\n", email.To)
	fmt.Fprintf(&b, "Email Body:\n%s", body)
	return b.String()
}

// resolveReceivedAt prefers the extractor's received_date, then the
// transport Date header, then a date sweep over the raw header.
func (p *Parser) resolveReceivedAt(analysis *model.Analysis, email *model.Email) time.Time {
	if analysis.ReceivedDate != "" {
		if t, err := time.Parse("2006-01-02", analysis.ReceivedDate); err == nil {
			return t
		}
	}

	header := strings.TrimSpace(email.Date)
	if header == "" {
		return time.Time{}
	}

	for _, layout := range emailDateLayouts {
		if t, err := time.Parse(layout, header); err == nil {
			return t
		}
	}

	if m := headerDateSweep.FindStringSubmatch(header); m != nil {
		day, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[3])
		return time.Date(year, monthNumbers[m[2]], day, 0, 0, 0, 0, time.UTC)
	}

	p.logger.Warn("Could not parse email date header:", header)
	return time.Time{}
}

// scanGuestCount is the text fallback for num_guests: find a line that
// mentions guests and pull the integer next to the word.
func scanGuestCount(body string) int {
	for _, line := range strings.Split(body, "\n") {
		if !strings.Contains(strings.ToLower(line), "guest") {
			continue
		}
		parts := strings.Fields(line)
		for i, part := range parts {
			n, err := strconv.Atoi(strings.Trim(part, ".,:;"))
			if err != nil || n <= 0 {
				continue
			}
			if i+1 < len(parts) && strings.Contains(strings.ToLower(parts[i+1]), "guest") {
				return n
			}
		}
	}
	return 0
}
