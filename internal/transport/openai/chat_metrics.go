package openai

import (
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/catan-labs/catan/internal/metrics"
)

func chatRequestsTotal(provider, model, status string) {
	metrics.ChatRequestsTotal.WithLabelValues(provider, model, status).Inc()
}

func chatErrorsTotal(provider, model, errType string) {
	metrics.ChatErrorsTotal.WithLabelValues(provider, model, errType).Inc()
}

func observeChat(provider, model string, d time.Duration, u openai.Usage) {
	metrics.ChatRequestDuration.WithLabelValues(provider, model).Observe(d.Seconds())
	if u.TotalTokens > 0 {
		metrics.ChatTokensTotal.WithLabelValues(provider, model, "prompt").Add(float64(u.PromptTokens))
		metrics.ChatTokensTotal.WithLabelValues(provider, model, "completion").Add(float64(u.CompletionTokens))
		metrics.ChatTokensTotal.WithLabelValues(provider, model, "total").Add(float64(u.TotalTokens))
	}
}
