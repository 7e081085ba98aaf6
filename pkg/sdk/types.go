package catan

import "context"

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single call.
// Optional: if the provided Embedder also implements it, Index embeds a
// whole document in one call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// EmbeddingResult carries the embedding vector and token counts.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// Role is the author of a chat message.
type Role string

// Chat roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat prompt.
type Message struct {
	Role    Role
	Content string
}

// Completion is a chat model reply.
type Completion struct {
	Text             string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatModel produces single-turn completions. Required only for Answer.
type ChatModel interface {
	Complete(ctx context.Context, msgs []Message) (Completion, error)
}

// Hit is one retrieved chunk.
type Hit struct {
	Content  string
	Metadata map[string]any
	Score    float64
}

// Answer is a generated reply together with the chunks it was grounded on.
type Answer struct {
	Text   string
	Model  string
	Tokens map[string]int
	Hits   []Hit
}

// IndexResult reports how many chunks a document produced.
type IndexResult struct {
	Collection      string
	ChunksProcessed int
}
