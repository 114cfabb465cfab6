package googleai

import (
	"call-server/internal/observability"
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-2.0-flash"

// Client generates text with the Gemini API.
type Client struct {
	apiKey string
	model  string
	logger *observability.Logger
}

func NewClient(apiKey string, logger *observability.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Google AI API key is required")
	}
	return &Client{
		apiKey: apiKey,
		model:  defaultModel,
		logger: logger,
	}, nil
}

// GenerateText sends a prompt to Gemini and returns the generated text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		c.logger.Error(ctx, "Gemini content generation failed", err)
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content returned from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	result := strings.TrimSpace(sb.String())
	if result == "" {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}
	return result, nil
}
