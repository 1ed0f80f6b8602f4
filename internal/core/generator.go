package core

import (
	"context"
	"errors"
	"strings"

	"github.com/goosewin/qagen/internal/backend"
	"github.com/goosewin/qagen/internal/topic"
)

// Generator renders the prompt for a topic and asks a backend for raw text.
type Generator struct {
	backend  backend.Backend
	template string
	model    string
}

func NewGenerator(b backend.Backend, template, model string) *Generator {
	return &Generator{backend: b, template: template, model: model}
}

// Generate satisfies GenerateFunc.
func (g *Generator) Generate(ctx context.Context, t topic.Topic, count int) (string, error) {
	if g == nil || g.backend == nil {
		return "", errors.New("backend is not configured")
	}
	prompt := topic.RenderPrompt(g.template, t, count)
	text, err := g.backend.Generate(ctx, backend.Request{Prompt: prompt, Model: g.model})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("backend returned an empty response")
	}
	return text, nil
}
