package backend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goosewin/qagen/internal/backend"
	_ "github.com/goosewin/qagen/internal/backend/anthropic"
	_ "github.com/goosewin/qagen/internal/backend/cli"
	_ "github.com/goosewin/qagen/internal/backend/mock"
	_ "github.com/goosewin/qagen/internal/backend/openai"
	"github.com/goosewin/qagen/internal/qa"
)

func TestRegistryLoadsBackends(t *testing.T) {
	backends := []string{"gemini", "openai", "anthropic", "gemini-cli", "claude-cli", "mock"}
	for _, name := range backends {
		instance, err := backend.New(name, backend.Settings{APIKey: "test"})
		if err != nil {
			t.Fatalf("expected %s backend to be registered: %v", name, err)
		}
		if instance == nil {
			t.Fatalf("expected backend instance for %s", name)
		}
		if len(instance.GetModels()) == 0 {
			t.Fatalf("expected %s models", name)
		}
	}
}

func TestRegistryUnknownBackend(t *testing.T) {
	_, err := backend.New("nope", backend.Settings{})
	if !errors.Is(err, backend.ErrBackendNotFound) {
		t.Fatalf("expected ErrBackendNotFound, got %v", err)
	}
	if err := backend.Register("mock", func(backend.Settings) (backend.Backend, error) { return nil, nil }); !errors.Is(err, backend.ErrBackendRegistered) {
		t.Fatalf("expected ErrBackendRegistered, got %v", err)
	}
}

func TestAPIBackendsRequireKey(t *testing.T) {
	for _, name := range []string{"gemini", "openai", "anthropic"} {
		instance, err := backend.New(name, backend.Settings{})
		if err != nil {
			t.Fatalf("new %s: %v", name, err)
		}
		if err := instance.CheckInstalled(); err == nil {
			t.Fatalf("expected %s to report missing api key", name)
		}
	}
}

func TestMockBackendProducesParsableBlocks(t *testing.T) {
	instance, err := backend.New("mock", backend.Settings{})
	if err != nil {
		t.Fatalf("new mock: %v", err)
	}
	text, err := instance.Generate(context.Background(), backend.Request{Prompt: "Hãy tạo 4 cặp dữ liệu"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := len(qa.Parse(text)); got != 4 {
		t.Fatalf("expected 4 records, got %d", got)
	}
}
