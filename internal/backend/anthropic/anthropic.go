// Package anthropic provides a backend for the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/goosewin/qagen/internal/backend"
)

const DefaultModel = "claude-3-5-haiku-latest"

type Backend struct {
	client    *anthropic.Client
	model     string
	apiKey    string
	maxTokens int64
	timeout   time.Duration
}

var _ backend.Backend = (*Backend)(nil)

func init() {
	if err := backend.Register("anthropic", New); err != nil {
		panic(err)
	}
}

func New(settings backend.Settings) (backend.Backend, error) {
	model := strings.TrimSpace(settings.Model)
	if model == "" {
		model = DefaultModel
	}

	var clientOpts []option.RequestOption
	if settings.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(settings.APIKey))
	}
	if settings.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(settings.BaseURL))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Backend{
		client:    &client,
		model:     model,
		apiKey:    settings.APIKey,
		maxTokens: 8192,
		timeout:   settings.Timeout,
	}, nil
}

func (b *Backend) CheckInstalled() error {
	if strings.TrimSpace(b.apiKey) == "" {
		return errors.New("anthropic api key missing")
	}
	return nil
}

func (b *Backend) GetModels() []string {
	return []string{DefaultModel, "claude-3-5-sonnet-latest"}
}

func (b *Backend) Generate(ctx context.Context, req backend.Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", errors.New("prompt is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	model := b.model
	if strings.TrimSpace(req.Model) != "" {
		model = req.Model
	}

	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: b.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var builder strings.Builder
	for _, block := range resp.Content {
		if block.Type != "text" {
			continue
		}
		builder.WriteString(block.AsText().Text)
	}
	if builder.Len() == 0 {
		return "", errors.New("anthropic: empty response")
	}
	return builder.String(), nil
}
