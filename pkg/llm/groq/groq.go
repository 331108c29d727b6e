// Package groq implements llm.Client against the Groq OpenAI-compatible
// chat completions API.
package groq

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// Client implements llm.Client using the Groq API.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a client for the Groq API. Model defaults to
// "llama-3.3-70b-versatile" if empty.
func New(apiKey, model string) *Client {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = defaultBaseURL
	return &Client{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// GetCompletion sends one system+user exchange and returns the assistant text.
func (c *Client) GetCompletion(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	}
	if maxTokens > 0 {
		req.MaxTokens = maxTokens
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("groq API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq API: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
