package llm

import (
	"context"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// deterministic stands in for temperature 0: go-openai omits a zero
// Temperature from the request body, which would fall back to the API
// default of 1.
const deterministic = math.SmallestNonzeroFloat32

const (
	narrationMaxTokens = 800
	visionMaxTokens    = 300
)

// Client wraps the OpenAI chat completion API with the three request
// shapes the pipeline needs: free-form text, strict-JSON, and
// multimodal vision.
type Client struct {
	client     *openai.Client
	textModel  string
	imageModel string
}

// NewClient creates a new completion client.
func NewClient(apiKey, textModel, imageModel string) *Client {
	return &Client{
		client:     openai.NewClient(apiKey),
		textModel:  textModel,
		imageModel: imageModel,
	}
}

// NewClientWithBaseURL points the client at an alternate endpoint.
// Used by tests to target a local fake.
func NewClientWithBaseURL(apiKey, baseURL, textModel, imageModel string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{
		client:     openai.NewClientWithConfig(cfg),
		textModel:  textModel,
		imageModel: imageModel,
	}
}

// Complete sends a free-form text completion request.
// Includes retry logic with exponential backoff (up to 3 attempts).
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.textModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.7,
		MaxTokens:   narrationMaxTokens,
	}
	return c.completeWithRetry(ctx, req)
}

// CompleteJSON sends a completion request in strict JSON response mode
// with deterministic sampling, for structured-output calls.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.textModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: deterministic,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}
	return c.completeWithRetry(ctx, req)
}

// CompleteVision sends a multimodal prompt + image request with
// deterministic sampling so identical inputs are reproducible.
func (c *Client) CompleteVision(ctx context.Context, prompt, imageURL string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.imageModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
		Temperature: deterministic,
		MaxTokens:   visionMaxTokens,
	}
	return c.completeWithRetry(ctx, req)
}

func (c *Client) completeWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		response, err := c.doComplete(ctx, req)
		if err == nil {
			return response, nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("after 3 attempts: %w", lastErr)
}

func (c *Client) doComplete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("completion returned empty content")
	}
	return content, nil
}

// HealthCheck checks whether the completion API is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.client.ListModels(ctx); err != nil {
		return fmt.Errorf("connecting to openai: %w", err)
	}
	return nil
}
