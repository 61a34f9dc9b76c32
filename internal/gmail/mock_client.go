package gmail

import (
	"context"

	"airbnmail/internal/model"
)

// MockMailClient is a mock implementation of service.MailClient for testing
type MockMailClient struct {
	ListNotificationsFunc func(ctx context.Context, query string, maxResults int64) ([]*model.Email, error)
	MarkAsReadFunc        func(ctx context.Context, messageID string) error
	ArchiveFunc           func(ctx context.Context, messageID string) error
}

func NewMockMailClient() *MockMailClient {
	return &MockMailClient{}
}

func (m *MockMailClient) ListNotifications(ctx context.Context, query string, maxResults int64) ([]*model.Email, error) {
	if m.ListNotificationsFunc != nil {
		return m.ListNotificationsFunc(ctx, query, maxResults)
	}

	// Default mock behavior: return an empty list
	return []*model.Email{}, nil
}

func (m *MockMailClient) MarkAsRead(ctx context.Context, messageID string) error {
	if m.MarkAsReadFunc != nil {
		return m.MarkAsReadFunc(ctx, messageID)
	}

	// Default mock behavior: success
	return nil
}

func (m *MockMailClient) Archive(ctx context.Context, messageID string) error {
	if m.ArchiveFunc != nil {
		return m.ArchiveFunc(ctx, messageID)
	}

	// Default mock behavior: success
	return nil
}
