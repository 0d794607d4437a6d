// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assess

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/pdiddy/research-radar/pkg/types"
)

// DefaultModel is used when the configuration names none.
const DefaultModel = "claude-sonnet-4-5-20250929"

const defaultMaxTokens = 2000

// ErrMissingAPIKey is returned when no Anthropic credential is configured.
var ErrMissingAPIKey = errors.New("anthropic API key not configured")

// ClaudeClient sends evaluation prompts to the Anthropic Messages API. It
// makes exactly one request per call; the SDK's own retries are disabled.
type ClaudeClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewClaudeClient builds a client from cfg. httpClient may be nil.
func NewClaudeClient(cfg types.EvaluatorConfig, httpClient *http.Client) (*ClaudeClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &ClaudeClient{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Complete returns the text of the model's reply to prompt.
func (c *ClaudeClient) Complete(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}
