// Package generation holds chat completion request and response shapes.
package generation

// Role is the author of a chat message.
type Role string

const (
	// RoleSystem carries instructions and retrieved context.
	RoleSystem Role = "system"
	// RoleUser carries the question.
	RoleUser Role = "user"
	// RoleAssistant carries model output.
	RoleAssistant Role = "assistant"
)

// Message is one turn of a chat prompt.
type Message struct {
	Role    Role
	Content string
}

// Usage is token accounting as reported by the provider.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Map returns usage keyed the way it is reported to clients.
func (u Usage) Map() map[string]int {
	return map[string]int{
		"prompt_tokens":     u.PromptTokens,
		"completion_tokens": u.CompletionTokens,
		"total_tokens":      u.TotalTokens,
	}
}

// Completion is the first choice of a chat completion.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// Result is a generated answer together with the model that produced it.
type Result struct {
	Response string
	Model    string
	Usage    Usage
}
