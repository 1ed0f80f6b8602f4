package topic

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultTopicsOrdered(t *testing.T) {
	topics := Default()
	if len(topics) != 12 {
		t.Fatalf("expected 12 topics, got %d", len(topics))
	}
	for i, item := range topics {
		if item.ID != i+1 {
			t.Fatalf("expected topic %d at position %d, got %d", i+1, i, item.ID)
		}
	}
}

func TestSortedDoesNotMutateInput(t *testing.T) {
	input := []Topic{{ID: 3}, {ID: 1}, {ID: 2}}
	sorted := Sorted(input)
	if sorted[0].ID != 1 || sorted[2].ID != 3 {
		t.Fatalf("unexpected order: %+v", sorted)
	}
	if input[0].ID != 3 {
		t.Fatalf("input was mutated: %+v", input)
	}
}

func TestParseID(t *testing.T) {
	if _, err := ParseID("13"); err == nil {
		t.Fatalf("expected error for unknown topic")
	}
	if _, err := ParseID("abc"); err == nil {
		t.Fatalf("expected error for non-numeric topic")
	}
	got, err := ParseID(" 10 ")
	if err != nil {
		t.Fatalf("parse id: %v", err)
	}
	if got.ShortLabel() != "Công nghệ" {
		t.Fatalf("unexpected short label %q", got.ShortLabel())
	}
}

func TestSelectDeduplicatesAndSorts(t *testing.T) {
	topics, err := Select([]int{5, 2, 5})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if len(topics) != 2 || topics[0].ID != 2 || topics[1].ID != 5 {
		t.Fatalf("unexpected selection: %+v", topics)
	}
}

func TestRenderPrompt(t *testing.T) {
	item, _ := Lookup(1)
	rendered := RenderPrompt("{count} cặp về {topic} (#{topic_id})", item, 30)
	if !strings.HasPrefix(rendered, "30 cặp về Nhắc nhở hằng ngày") {
		t.Fatalf("unexpected prompt %q", rendered)
	}
	if !strings.HasSuffix(rendered, "(#1)") {
		t.Fatalf("expected topic id substitution, got %q", rendered)
	}

	fallback := RenderPrompt("", Topic{ID: 99}, 0)
	if !strings.Contains(fallback, FallbackLabel) || !strings.Contains(fallback, "tạo 10 cặp") {
		t.Fatalf("expected fallback label and count in default template")
	}
}

func TestResolvePromptTemplateFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	if err := os.WriteFile(path, []byte("custom {topic}"), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	t.Setenv("QAGEN_PROMPT_TEMPLATE_FILE", "")

	got, err := ResolvePromptTemplate("", path)
	if err != nil {
		t.Fatalf("resolve template: %v", err)
	}
	if got != "custom {topic}" {
		t.Fatalf("unexpected template %q", got)
	}

	got, err = ResolvePromptTemplate("", "")
	if err != nil || got != DefaultPromptTemplate {
		t.Fatalf("expected default template")
	}
}
