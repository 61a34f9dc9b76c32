package parser_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"airbnmail/internal/ai"
	"airbnmail/internal/logger"
	"airbnmail/internal/model"
	"airbnmail/internal/parser"
)

func newTestParser(analyzer parser.Analyzer) *parser.Parser {
	return parser.New(analyzer, logger.New())
}

func TestParseEmailRequiresID(t *testing.T) {
	p := newTestParser(ai.NewMockAnalyzer())

	_, err := p.ParseEmail(context.Background(), nil)
	assert.Error(t, err)

	_, err = p.ParseEmail(context.Background(), &model.Email{Subject: "Reservation confirmed"})
	assert.Error(t, err)
}

func TestParseEmailFullExtraction(t *testing.T) {
	mock := ai.NewMockAnalyzer()
	mock.AnalyzeFunc = func(ctx context.Context, emailSummary, systemPrompt string) (string, error) {
		return `{
  "notification_type": "booking_confirmation",
  "check_in_date": "2025-06-15",
  "check_out_date": "2025-06-20",
  "received_date": "2025-06-01",
  "guest_name": "Taro Yamada",
  "num_guests": 2,
  "property_name": "Sakura House Tokyo",
  "confidence": "high"
}`, nil
	}

	p := newTestParser(mock)
	n, err := p.ParseEmail(context.Background(), &model.Email{
		ID:       "msg-1",
		Subject:  "Reservation confirmed - Taro Yamada arrives Jun 15",
		From:     "automated@airbnb.com",
		Date:     "Sun, 1 Jun 2025 09:30:00 +0900",
		BodyText: "Taro Yamada is arriving on June 15.",
	})

	assert.NoError(t, err)
	assert.Equal(t, "msg-1", n.NotificationID)
	assert.Equal(t, model.BookingConfirmation, n.NotificationType)
	assert.Equal(t, "2025-06-15", n.CheckIn)
	assert.Equal(t, "2025-06-20", n.CheckOut)
	assert.Equal(t, "Taro Yamada", n.GuestName)
	assert.Equal(t, 2, n.NumGuests)
	assert.Equal(t, "Sakura House Tokyo", n.PropertyName)
	assert.Equal(t, model.ConfidenceHigh, n.LLMConfidence)
	assert.Equal(t, "2025-06-01", n.ReceivedAt.Format("2006-01-02"))
	assert.NotNil(t, n.LLMAnalysis)
}

func TestParseEmailJapaneseShortDatesGetHeaderYear(t *testing.T) {
	mock := ai.NewMockAnalyzer()
	mock.AnalyzeFunc = func(ctx context.Context, emailSummary, systemPrompt string) (string, error) {
		return `{
  "notification_type": "booking_confirmation",
  "check_in_date": "4月28日(月)",
  "check_out_date": "4月30日(水)",
  "guest_name": "山田太郎",
  "confidence": "high"
}`, nil
	}

	p := newTestParser(mock)
	n, err := p.ParseEmail(context.Background(), &model.Email{
		ID:      "msg-2",
		Subject: "予約が確定しました",
		Date:    "Mon, 14 Apr 2025 18:00:00 +0900",
	})

	assert.NoError(t, err)
	assert.Equal(t, "2025-04-28", n.CheckIn)
	assert.Equal(t, "2025-04-30", n.CheckOut)
	assert.Equal(t, "山田太郎", n.GuestName)
}

func TestParseEmailAnalyzerFailureDegrades(t *testing.T) {
	mock := ai.NewMockAnalyzer()
	mock.AnalyzeFunc = func(ctx context.Context, emailSummary, systemPrompt string) (string, error) {
		return "", errors.New("rate limited")
	}

	p := newTestParser(mock)
	n, err := p.ParseEmail(context.Background(), &model.Email{
		ID:      "msg-3",
		Subject: "Your reservation was cancelled",
		Date:    "Tue, 3 Jun 2025 12:00:00 +0900",
	})

	assert.NoError(t, err)
	// Classification still works from the subject line.
	assert.Equal(t, model.Cancellation, n.NotificationType)
	assert.Equal(t, model.ConfidenceLow, n.LLMConfidence)
	assert.Empty(t, n.CheckIn)
}

func TestParseEmailGuestCountTextFallback(t *testing.T) {
	mock := ai.NewMockAnalyzer()
	mock.AnalyzeFunc = func(ctx context.Context, emailSummary, systemPrompt string) (string, error) {
		return `{"notification_type": "booking_confirmation", "num_guests": null, "confidence": "high"}`, nil
	}

	p := newTestParser(mock)
	n, err := p.ParseEmail(context.Background(), &model.Email{
		ID:       "msg-4",
		Subject:  "Reservation confirmed",
		Date:     "Wed, 4 Jun 2025 12:00:00 +0900",
		BodyText: "Booking details\n2 guests, 3 nights\nSee you soon",
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, n.NumGuests)
}

func TestParseEmailSwappedDatesCorrected(t *testing.T) {
	mock := ai.NewMockAnalyzer()
	mock.AnalyzeFunc = func(ctx context.Context, emailSummary, systemPrompt string) (string, error) {
		return `{"notification_type": "booking_confirmation", "check_in_date": "2025-06-20", "check_out_date": "2025-06-15", "confidence": "high"}`, nil
	}

	p := newTestParser(mock)
	n, err := p.ParseEmail(context.Background(), &model.Email{
		ID:      "msg-5",
		Subject: "Reservation confirmed",
		Date:    "Thu, 5 Jun 2025 12:00:00 +0900",
	})

	assert.NoError(t, err)
	assert.Equal(t, "2025-06-15", n.CheckIn)
	assert.Equal(t, "2025-06-20", n.CheckOut)
}
