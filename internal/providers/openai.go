package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pulseai/pulseai/internal/config"
	"github.com/pulseai/pulseai/internal/domain/airequest"
)

// OpenAICompleter answers questions with a chat completion model
type OpenAICompleter struct {
	client       *openai.Client
	model        string
	maxTokens    int
	systemPrompt string
}

// NewOpenAICompleter builds a completer from config. BaseURL may point at
// any OpenAI-compatible endpoint.
func NewOpenAICompleter(cfg config.AIConfig) *OpenAICompleter {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAICompleter{
		client:       openai.NewClientWithConfig(oc),
		model:        cfg.Model,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
	}
}

// Complete sends the system prompt and question and returns the first choice
func (c *OpenAICompleter) Complete(ctx context.Context, question string) (*airequest.Completion, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: question,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		Messages:  messages,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return &airequest.Completion{
		Answer:     resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
