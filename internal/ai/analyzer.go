package ai

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"airbnmail/internal/logger"
	"airbnmail/internal/parser"
)

const maxAttempts = 3

type analyzerClient struct {
	client *openai.Client
	model  string
	logger *logger.Logger
}

// NewAnalyzer returns an extraction client backed by the OpenAI chat
// completions API.
func NewAnalyzer(apiKey, model string, logger *logger.Logger) parser.Analyzer {
	return &analyzerClient{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Analyze sends the email summary to the model and returns the raw text
// response. Transient API failures are retried with backoff; the final
// error is returned to the caller, which treats the email as unparsable
// for this pass.
func (a *analyzerClient) Analyze(ctx context.Context, emailSummary, systemPrompt string) (string, error) {
	var resp openai.ChatCompletionResponse
	var err error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err = a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: a.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: "Extract information from this Airbnb email:\n\n" + emailSummary,
				},
			},
			Temperature: 0.1,
		})

		if err == nil && len(resp.Choices) > 0 {
			return strings.TrimSpace(resp.Choices[0].Message.Content), nil
		}

		a.logger.Warnf("Extraction API attempt %d failed: %v", attempt, err)

		if attempt < maxAttempts {
			backoff := time.Duration(attempt)*time.Second + time.Duration(rand.Intn(1000))*time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}

	if err != nil {
		return "", fmt.Errorf("extraction API failed after %d attempts: %w", maxAttempts, err)
	}
	return "", fmt.Errorf("extraction API returned no choices")
}
