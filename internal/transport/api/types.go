// Package api declares the HTTP contract: wire types, the ServerInterface the
// transport implements, and chi routing with typed query-parameter binding.
package api

// Query defaults applied when a parameter is omitted.
const (
	DefaultCollection = "documents"
	DefaultLimit      = 5
	DefaultUseLLM     = true
)

// SearchParams are the query parameters of GET /api/v1/search/.
type SearchParams struct {
	Q          string  `form:"q" json:"q"`
	UseLLM     *bool   `form:"use_llm,omitempty" json:"use_llm,omitempty"`
	Collection *string `form:"collection,omitempty" json:"collection,omitempty"`
	Limit      *int    `form:"limit,omitempty" json:"limit,omitempty"`
}

// UseLLMOrDefault returns use_llm or DefaultUseLLM.
func (p SearchParams) UseLLMOrDefault() bool {
	if p.UseLLM == nil {
		return DefaultUseLLM
	}
	return *p.UseLLM
}

// CollectionOrDefault returns collection or DefaultCollection.
func (p SearchParams) CollectionOrDefault() string {
	if p.Collection == nil {
		return DefaultCollection
	}
	return *p.Collection
}

// LimitOrDefault returns limit or DefaultLimit. The value is not clamped.
func (p SearchParams) LimitOrDefault() int {
	if p.Limit == nil {
		return DefaultLimit
	}
	return *p.Limit
}

// AnalyzeParams are the query parameters of POST /api/v1/search/analyze.
type AnalyzeParams struct {
	Collection *string `form:"collection,omitempty" json:"collection,omitempty"`
}

// CollectionOrDefault returns collection or DefaultCollection.
func (p AnalyzeParams) CollectionOrDefault() string {
	if p.Collection == nil {
		return DefaultCollection
	}
	return *p.Collection
}

// AnalyzeRequest is the body of POST /api/v1/search/analyze.
type AnalyzeRequest struct {
	Content  *string        `json:"content"`
	Metadata map[string]any `json:"metadata"`
}

// SearchResult is one retrieved chunk.
type SearchResult struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// GenerationMetadata describes how an answer was produced.
type GenerationMetadata struct {
	Model      string         `json:"model"`
	TokensUsed map[string]int `json:"tokens_used"`
}

// GenerationResult is the generated answer.
type GenerationResult struct {
	Response string             `json:"response"`
	Metadata GenerationMetadata `json:"metadata"`
}

// SearchResponse is the body of a successful search. LLMResponse is null when
// generation was not requested.
type SearchResponse struct {
	Results     []SearchResult    `json:"results"`
	LLMResponse *GenerationResult `json:"llm_response"`
}

// IndexResponse is the body of a successful analyze call.
type IndexResponse struct {
	Status          string `json:"status"`
	ChunksProcessed int    `json:"chunks_processed"`
	Collection      string `json:"collection"`
}

// StatusResponse is the body of GET /.
type StatusResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is the body of GET /ready.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
