package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/catan-labs/catan/internal/domain"
	"github.com/catan-labs/catan/internal/domain/generation"
)

// ChatModel is a chat completion provider using the OpenAI-compatible API.
// Sampling parameters are fixed at construction.
type ChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
	topP        float32
	maxTokens   int
	provider    string
	logger      *zap.Logger
}

// ChatConfig holds the chat provider settings.
// TopK is accepted for parity with native Gemini settings; the OpenAI wire format has no field for it.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	TopP        float32
	TopK        int
	MaxTokens   int
	Provider    string
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// NewChatModel creates an OpenAI-compatible chat completion provider.
func NewChatModel(cfg *ChatConfig) *ChatModel {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TopK > 0 {
		logger.Debug("top_k is not sent over the OpenAI-compatible API", zap.Int("top_k", cfg.TopK))
	}
	return &ChatModel{
		client:      newClient(cfg.APIKey, cfg.BaseURL, cfg.HTTPClient),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		topP:        cfg.TopP,
		maxTokens:   cfg.MaxTokens,
		provider:    cfg.Provider,
		logger:      logger,
	}
}

// Model returns the configured model name.
func (c *ChatModel) Model() string { return c.model }

// Complete sends a single-turn prompt and returns the first choice.
func (c *ChatModel) Complete(ctx context.Context, msgs []generation.Message) (generation.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(msgs),
		Temperature: c.temperature,
		TopP:        c.topP,
		MaxTokens:   c.maxTokens,
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)

	duration := time.Since(start)

	if err != nil {
		chatRequestsTotal(c.provider, c.model, "error")
		chatErrorsTotal(c.provider, c.model, errorType(err))
		return generation.Completion{}, parseAPIError("chat", err, domain.ErrChatProviderError)
	}

	if len(resp.Choices) == 0 {
		chatRequestsTotal(c.provider, c.model, "error")
		chatErrorsTotal(c.provider, c.model, "empty_response")
		return generation.Completion{}, fmt.Errorf("chat response has no choices: %w", domain.ErrChatProviderError)
	}

	chatRequestsTotal(c.provider, c.model, "success")
	observeChat(c.provider, c.model, duration, resp.Usage)

	c.logger.Debug("Chat completion completed",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Duration("duration", duration),
		zap.String("finish_reason", string(resp.Choices[0].FinishReason)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	model := resp.Model
	if model == "" {
		model = c.model
	}

	return generation.Completion{
		Text:  resp.Choices[0].Message.Content,
		Model: model,
		Usage: generation.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func toOpenAIMessages(msgs []generation.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(msgs))
	for i, m := range msgs {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case generation.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case generation.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case generation.RoleUser:
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}
