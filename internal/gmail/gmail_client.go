package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"airbnmail/internal/logger"
	"airbnmail/internal/model"
	"airbnmail/internal/service"
)

type gmailClient struct {
	client *gmail.Service
	logger *logger.Logger
}

func NewGmailClient(accessToken string, logger *logger.Logger) (service.MailClient, error) {
	httpClient := &http.Client{
		Transport: &oauth2Transport{token: accessToken},
	}

	gmailService, err := gmail.NewService(context.Background(), option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &gmailClient{
		client: gmailService,
		logger: logger,
	}, nil
}

type oauth2Transport struct {
	token string
}

func (t *oauth2Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+t.token)
	return http.DefaultTransport.RoundTrip(req)
}

func (g *gmailClient) ListNotifications(ctx context.Context, query string, maxResults int64) ([]*model.Email, error) {
	user := "me" // Use 'me' to refer to the authenticated user
	list, err := g.client.Users.Messages.List(user).Q(query).MaxResults(maxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	var emails []*model.Email

	for _, msg := range list.Messages {
		// Get the full message
		message, err := g.client.Users.Messages.Get(user, msg.Id).Format("full").Context(ctx).Do()
		if err != nil {
			g.logger.Error("Failed to get message:", err)
			continue
		}

		email := &model.Email{
			ID:       msg.Id,
			ThreadID: message.ThreadId,
			Subject:  message.Snippet,
		}

		for _, header := range message.Payload.Headers {
			switch header.Name {
			case "Subject":
				email.Subject = header.Value
			case "From":
				email.From = header.Value
			case "To":
				email.To = header.Value
			case "Date":
				email.Date = header.Value
			}
		}

		email.BodyText, email.BodyHTML = g.extractBodies(message.Payload)
		emails = append(emails, email)
	}

	g.logger.Info("Fetched", len(emails), "emails from Gmail for query", query)
	return emails, nil
}

// extractBodies walks the message parts and collects the plain-text and HTML
// bodies. Nested multipart parts are descended into; the first non-empty body
// of each kind wins.
func (g *gmailClient) extractBodies(payload *gmail.MessagePart) (string, string) {
	if len(payload.Parts) > 0 {
		return g.extractMultipartBodies(payload.Parts)
	}

	body := g.decodePart(payload)
	if payload.MimeType == "text/html" {
		return "", body
	}
	return body, ""
}

func (g *gmailClient) extractMultipartBodies(parts []*gmail.MessagePart) (string, string) {
	var textBody, htmlBody string

	for _, part := range parts {
		switch {
		case part.MimeType == "text/plain" && part.Body != nil && part.Body.Data != "":
			if textBody == "" {
				textBody = g.decodePart(part)
			}
		case part.MimeType == "text/html" && part.Body != nil && part.Body.Data != "":
			if htmlBody == "" {
				htmlBody = g.decodePart(part)
			}
		case len(part.Parts) > 0:
			nestedText, nestedHTML := g.extractMultipartBodies(part.Parts)
			if textBody == "" {
				textBody = nestedText
			}
			if htmlBody == "" {
				htmlBody = nestedHTML
			}
		}
	}

	return textBody, htmlBody
}

func (g *gmailClient) decodePart(part *gmail.MessagePart) string {
	if part.Body == nil || part.Body.Data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
	if err != nil {
		g.logger.Error("Failed to decode email body:", err)
		return ""
	}
	return string(decoded)
}

func (g *gmailClient) MarkAsRead(ctx context.Context, messageID string) error {
	user := "me"

	// Modify the message to remove the 'UNREAD' label
	modifyRequest := &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
		AddLabelIds:    []string{},
	}

	_, err := g.client.Users.Messages.Modify(user, messageID, modifyRequest).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to mark email as read: %w", err)
	}

	g.logger.Info("Marked email as read:", messageID)
	return nil
}

func (g *gmailClient) Archive(ctx context.Context, messageID string) error {
	user := "me"

	// Modify the message to remove the 'INBOX' and 'UNREAD' labels (which archives it)
	modifyRequest := &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"INBOX", "UNREAD"},
		AddLabelIds:    []string{},
	}

	_, err := g.client.Users.Messages.Modify(user, messageID, modifyRequest).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to archive email: %w", err)
	}

	g.logger.Info("Archived email:", messageID)
	return nil
}
