package openai

import (
	"call-server/internal/observability"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Client generates text with the OpenAI chat completions API. It is the
// alternate summary backend selected with SUMMARY_PROVIDER=openai.
type Client struct {
	client openai.Client
	model  string
	logger *observability.Logger
}

func NewClient(apiKey string, logger *observability.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
		logger: logger,
	}, nil
}

// GenerateText sends a prompt as a single user message and returns the reply.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		c.logger.Error(ctx, "OpenAI chat completion failed", err)
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no content returned from OpenAI")
	}

	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	if result == "" {
		return "", fmt.Errorf("unexpected response format from OpenAI")
	}
	return result, nil
}
