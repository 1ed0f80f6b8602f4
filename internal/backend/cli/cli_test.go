package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/goosewin/qagen/internal/backend"
)

func TestParseStreamResultExtractsResult(t *testing.T) {
	contents := "{\"type\":\"assistant\",\"message\":{\"content\":[{\"type\":\"text\",\"text\":\"Hello\"}]}}\n" +
		"{\"type\":\"result\",\"result\":\"final result\"}\n"

	if got := parseStreamResult(strings.NewReader(contents)); got != "final result" {
		t.Fatalf("expected result %q, got %q", "final result", got)
	}
}

func TestParseStreamResultFallsBackToAssistantText(t *testing.T) {
	contents := "not json\n{\"type\":\"assistant\",\"message\":{\"content\":[{\"type\":\"text\",\"text\":\"INPUT: a\\nOUTPUT: b\"}]}}\n"

	if got := parseStreamResult(strings.NewReader(contents)); got != "INPUT: a\nOUTPUT: b" {
		t.Fatalf("unexpected assistant text %q", got)
	}
}

func TestGenerateCapturesStdout(t *testing.T) {
	b := &Backend{
		name:     "echo",
		execPath: "echo",
		args:     func(prompt, _ string) []string { return []string{prompt} },
		parse:    func(stdout []byte) string { return string(stdout) },
	}
	if err := b.CheckInstalled(); err != nil {
		t.Skipf("echo not available: %v", err)
	}

	text, err := b.Generate(context.Background(), backend.Request{Prompt: "INPUT: a"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.TrimSpace(text) != "INPUT: a" {
		t.Fatalf("unexpected output %q", text)
	}
}

func TestCheckInstalledMissingExecutable(t *testing.T) {
	b, err := NewGemini(backend.Settings{ExecPath: "qagen-definitely-missing-binary"})
	if err != nil {
		t.Fatalf("new gemini: %v", err)
	}
	if err := b.CheckInstalled(); err == nil {
		t.Fatalf("expected missing executable error")
	}
}
