// Package counselor connects the counselor use case to an OpenAI-compatible
// chat completion endpoint.
package counselor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Model implements ports.ChatModel.
type Model struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewModel creates a chat model talking to baseURL. An empty baseURL keeps the
// library default.
func NewModel(apiKey, baseURL, model string, maxTokens int) *Model {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &Model{client: openai.NewClientWithConfig(cfg), model: model, maxTokens: maxTokens}
}

// Complete sends prompt as a single user message and returns the first choice.
func (m *Model) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: m.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   m.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion: no choices returned")
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", errors.New("chat completion: empty reply")
	}
	return text, nil
}
