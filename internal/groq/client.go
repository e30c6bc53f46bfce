// Package groq wraps Groq's OpenAI-compatible chat completion API for
// narrative generation.
package groq

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultBaseURL is Groq's OpenAI-compatible endpoint
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	// DefaultModel is the Groq model used for narrative generation
	DefaultModel = "llama-3.3-70b-versatile"
	// DefaultTemperature keeps generation conservative for clinical text
	DefaultTemperature = 0.3
	// DefaultMaxTokens bounds the generated narrative length
	DefaultMaxTokens = 4000
)

// ErrNoAPIKey is returned when the Groq API key is not set
var ErrNoAPIKey = errors.New("GROQ_API_KEY not set")

// CompletionAPI defines the interface for chat completion generation
type CompletionAPI interface {
	CreateCompletion(ctx context.Context, system, prompt string, temperature float32, maxTokens int) (string, error)
}

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
}

// Client wraps the Groq chat completion API
type Client struct {
	api         CompletionAPI
	temperature float32
	maxTokens   int
}

type GroqAdapter struct {
	client *openai.Client
	model  string
}

func NewGroqAdapter(apiKey, baseURL, model string) *GroqAdapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &GroqAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// CreateCompletion calls the Groq chat completion endpoint
func (a *GroqAdapter) CreateCompletion(ctx context.Context, system, prompt string, temperature float32, maxTokens int) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}

	return resp.Choices[0].Message.Content, nil
}

// NewClient creates a new Groq client with explicit configuration.
func NewClient(cfg Config) *Client {
	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Client{
		api:         NewGroqAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model),
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

// GenerateCompletion generates text from a system instruction and user prompt
func (c *Client) GenerateCompletion(ctx context.Context, system, prompt string) (string, error) {
	if prompt == "" {
		return "", errors.New("prompt cannot be empty")
	}

	text, err := c.api.CreateCompletion(ctx, system, prompt, c.temperature, c.maxTokens)
	if err != nil {
		return "", fmt.Errorf("failed to create completion: %w", err)
	}

	return text, nil
}
