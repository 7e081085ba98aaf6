package domain

// StatusSuccess is the only status an IndexResult carries.
const StatusSuccess = "success"

// Document is a piece of text submitted for indexing.
type Document struct {
	Content    string
	Metadata   map[string]any
	Collection string
}

// Chunk is one fragment of a Document, ready for the vector store.
// ID is the store point id and never appears in Metadata.
type Chunk struct {
	ID       string
	Content  string
	Metadata map[string]any
	Vector   []float32
}

// IndexResult reports how many chunks a document was split into and stored.
type IndexResult struct {
	Status          string `json:"status"`
	ChunksProcessed int    `json:"chunks_processed"`
	Collection      string `json:"collection"`
}

// CloneMetadata deep-copies decoded JSON metadata so chunks never share nested maps or slices.
// A nil map stays nil.
func CloneMetadata(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneMetadata(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
