// Package ai provides a thin wrapper around the OpenAI API used by the
// classifier, the reply drafter and the knowledge embeddings.
package ai

import (
	"context"
	"fmt"
	"time"

	"maildesk/internal/config"

	"github.com/sashabaranov/go-openai"
)

// Client wraps the OpenAI client with the configured models and a bounded
// per-call timeout.
type Client struct {
	api        *openai.Client
	gptModel   string
	embedModel openai.EmbeddingModel
	timeout    time.Duration
}

// NewClient creates an OpenAI client from configuration
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("no OpenAI provider configured: set OPENAI_API_KEY")
	}

	gptModel := cfg.GPTModel
	if gptModel == "" {
		gptModel = string(openai.GPT4oMini)
	}
	embedModel := openai.SmallEmbedding3
	if cfg.EmbeddingModel != "" {
		embedModel = openai.EmbeddingModel(cfg.EmbeddingModel)
	}

	timeout := time.Duration(cfg.OpenAITimeout) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		api:        openai.NewClient(cfg.OpenAIKey),
		gptModel:   gptModel,
		embedModel: embedModel,
		timeout:    timeout,
	}, nil
}

// ChatJSON runs a chat completion constrained to a JSON object response and
// returns the raw JSON text.
func (c *Client) ChatJSON(ctx context.Context, system, user string, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.gptModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:      maxTokens,
		Temperature:    0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// CreateEmbedding generates an embedding vector for the given text
func (c *Client) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: c.embedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return resp.Data[0].Embedding, nil
}

// GPTModel returns the chat model in use
func (c *Client) GPTModel() string {
	return c.gptModel
}
