package textgen

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"eduscan/internal/notify"
)

// ErrDisabled is returned when no API key is configured.
var ErrDisabled = errors.New("text generation disabled")

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// Client generates notification text with the Gemini API.
type Client struct {
	Model       string
	Temperature float32
	MaxTokens   int32

	client *genai.Client
}

// New creates a client. An empty apiKey yields a client whose calls fail with
// ErrDisabled. baseURL overrides the API endpoint when set. The HTTP timeout
// is a backstop; callers bound each call with their own context deadline.
func New(ctx context.Context, baseURL, apiKey, model string) (*Client, error) {
	if model == "" {
		model = DefaultModel
	}
	c := &Client{Model: model, Temperature: 0.7, MaxTokens: 150}
	if apiKey == "" {
		return c, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
	if baseURL != "" {
		cfg.HTTPOptions.BaseURL = strings.TrimRight(baseURL, "/") + "/"
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("text service client: %w", err)
	}
	c.client = client
	return c, nil
}

// Generate sends the notification prompt for req and returns the text of the
// first candidate.
func (c *Client) Generate(ctx context.Context, req notify.Request) (string, error) {
	if c.client == nil {
		return "", ErrDisabled
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.Model, genai.Text(notify.Prompt(req)), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(c.Temperature),
		MaxOutputTokens: c.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("text service request failed: %w", err)
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("no candidates in response")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty candidate text")
	}
	return text, nil
}
