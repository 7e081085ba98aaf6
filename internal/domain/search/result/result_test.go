package result

import "testing"

func TestNew(t *testing.T) {
	r := New("hello", map[string]any{"source": "wiki"}, 0.87)

	if r.Content() != "hello" {
		t.Errorf("expected content 'hello', got %q", r.Content())
	}
	if r.Metadata()["source"] != "wiki" {
		t.Errorf("unexpected metadata: %v", r.Metadata())
	}
	if r.Score() != 0.87 {
		t.Errorf("expected score 0.87, got %f", r.Score())
	}
}
