package generation

import "testing"

func TestUsage_Map(t *testing.T) {
	u := Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}
	m := u.Map()

	if len(m) != 3 {
		t.Fatalf("expected 3 keys, got %d", len(m))
	}
	if m["prompt_tokens"] != 10 || m["completion_tokens"] != 5 || m["total_tokens"] != 15 {
		t.Errorf("unexpected map: %v", m)
	}
}
