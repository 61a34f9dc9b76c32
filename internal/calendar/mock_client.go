package calendar

import (
	"context"

	"airbnmail/internal/service"
)

// MockCalendarClient is a mock implementation of service.CalendarClient for testing
type MockCalendarClient struct {
	CreateEventFunc func(ctx context.Context, input *service.EventInput) (string, error)
	DeleteEventFunc func(ctx context.Context, eventID, calendarID string) error

	CreatedEvents []*service.EventInput
	DeletedEvents []string
}

func NewMockCalendarClient() *MockCalendarClient {
	return &MockCalendarClient{}
}

func (m *MockCalendarClient) CreateEvent(ctx context.Context, input *service.EventInput) (string, error) {
	m.CreatedEvents = append(m.CreatedEvents, input)
	if m.CreateEventFunc != nil {
		return m.CreateEventFunc(ctx, input)
	}

	// Default mock behavior: deterministic event ID
	return "mock-event-1", nil
}

func (m *MockCalendarClient) DeleteEvent(ctx context.Context, eventID, calendarID string) error {
	m.DeletedEvents = append(m.DeletedEvents, eventID)
	if m.DeleteEventFunc != nil {
		return m.DeleteEventFunc(ctx, eventID, calendarID)
	}

	// Default mock behavior: success
	return nil
}
