package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"airbnmail/internal/logger"
	"airbnmail/internal/service"
)

// One-day lead time for both reminder channels.
const reminderMinutes = 24 * 60

// Orange, so bookings stand out against regular events.
const bookingColorID = "6"

type calendarClient struct {
	client   *calendar.Service
	timezone string
	logger   *logger.Logger
}

func NewCalendarClient(accessToken, timezone string, logger *logger.Logger) (service.CalendarClient, error) {
	httpClient := &http.Client{
		Transport: &oauth2Transport{token: accessToken},
	}

	calendarService, err := calendar.NewService(context.Background(), option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &calendarClient{
		client:   calendarService,
		timezone: timezone,
		logger:   logger,
	}, nil
}

type oauth2Transport struct {
	token string
}

func (t *oauth2Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(req)
}

func (c *calendarClient) CreateEvent(ctx context.Context, input *service.EventInput) (string, error) {
	event := &calendar.Event{
		Summary:     input.Title,
		Description: input.Description,
		ColorId:     bookingColorID,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "popup", Minutes: reminderMinutes},
				{Method: "email", Minutes: reminderMinutes},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := c.client.Events.Insert(input.CalendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create calendar event: %w", err)
	}

	c.logger.Info("Created calendar event:", created.Id)
	return created.Id, nil
}

func (c *calendarClient) DeleteEvent(ctx context.Context, eventID, calendarID string) error {
	if err := c.client.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete calendar event: %w", err)
	}

	c.logger.Info("Deleted calendar event:", eventID)
	return nil
}
