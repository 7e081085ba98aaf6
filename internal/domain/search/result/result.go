package result

// Result is a single similarity search hit.
type Result struct {
	content  string
	metadata map[string]any
	score    float64
}

// New creates a search result.
func New(content string, metadata map[string]any, score float64) Result {
	return Result{content: content, metadata: metadata, score: score}
}

// Content returns the chunk text.
func (r *Result) Content() string { return r.content }

// Metadata returns the metadata stored with the chunk.
func (r *Result) Metadata() map[string]any { return r.metadata }

// Score returns the similarity score, higher is closer.
func (r *Result) Score() float64 { return r.score }
