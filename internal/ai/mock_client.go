package ai

import (
	"context"
)

// MockAnalyzer is a mock implementation of parser.Analyzer for testing.
type MockAnalyzer struct {
	AnalyzeFunc func(ctx context.Context, emailSummary, systemPrompt string) (string, error)
}

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{}
}

func (m *MockAnalyzer) Analyze(ctx context.Context, emailSummary, systemPrompt string) (string, error) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, emailSummary, systemPrompt)
	}

	// Default mock behavior: a well-formed response with nothing extracted.
	return `{
  "notification_type": "unknown",
  "check_in_date": null,
  "check_out_date": null,
  "received_date": null,
  "guest_name": null,
  "num_guests": null,
  "property_name": null,
  "confidence": "low"
}`, nil
}
