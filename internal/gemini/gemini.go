// Package gemini wraps the Gemini generative model behind a single
// text-in, text-out call.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned no text")

// ErrNoAPIKey is returned by New when no key is configured.
var ErrNoAPIKey = errors.New("GEMINI_API_KEY is not set")

// Client generates text with one Gemini model.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
	log    *zap.Logger
}

// New connects to Gemini with apiKey and selects modelName.
func New(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client: client,
		model:  client.GenerativeModel(modelName),
		name:   modelName,
		log:    logger.With(zap.String("component", "gemini"), zap.String("model", modelName)),
	}, nil
}

// Generate sends prompt and returns the concatenated text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	c.log.Debug("generating", zap.Int("promptBytes", len(prompt)))

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.log.Error("generation failed", zap.Error(err))
		return "", fmt.Errorf("gemini %s: %w", c.name, err)
	}
	return responseText(resp)
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("prompt blocked: %s", fb.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return b.String(), nil
}
