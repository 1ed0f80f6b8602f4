// Package openai provides backends for the OpenAI Chat Completions API and
// for Google Gemini through its OpenAI-compatible endpoint.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goosewin/qagen/internal/backend"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultGeminiModel = "gemini-1.5-flash"
	GeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai/"
)

// Backend wraps a chat completion client.
type Backend struct {
	name    string
	client  *openai.Client
	model   string
	apiKey  string
	timeout time.Duration
	models  []string
}

var _ backend.Backend = (*Backend)(nil)

func init() {
	if err := backend.Register("openai", NewOpenAI); err != nil {
		panic(err)
	}
	if err := backend.Register("gemini", NewGemini); err != nil {
		panic(err)
	}
}

// NewOpenAI builds a backend against api.openai.com or settings.BaseURL.
func NewOpenAI(settings backend.Settings) (backend.Backend, error) {
	return newBackend("openai", settings, DefaultOpenAIModel, "", []string{DefaultOpenAIModel, "gpt-4o", "gpt-4.1-mini"})
}

// NewGemini builds a backend against the Gemini OpenAI-compatible endpoint.
func NewGemini(settings backend.Settings) (backend.Backend, error) {
	return newBackend("gemini", settings, DefaultGeminiModel, GeminiBaseURL, []string{DefaultGeminiModel, "gemini-1.5-pro", "gemini-2.0-flash"})
}

func newBackend(name string, settings backend.Settings, defaultModel, defaultBaseURL string, models []string) (*Backend, error) {
	model := strings.TrimSpace(settings.Model)
	if model == "" {
		model = defaultModel
	}
	baseURL := strings.TrimSpace(settings.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	opts := []option.RequestOption{option.WithAPIKey(settings.APIKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &Backend{
		name:    name,
		client:  &client,
		model:   model,
		apiKey:  settings.APIKey,
		timeout: settings.Timeout,
		models:  models,
	}, nil
}

func (b *Backend) CheckInstalled() error {
	if strings.TrimSpace(b.apiKey) == "" {
		return fmt.Errorf("%s api key missing", b.name)
	}
	return nil
}

func (b *Backend) GetModels() []string {
	return b.models
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

	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s completion: %w", b.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: empty choices", b.name)
	}
	return resp.Choices[0].Message.Content, nil
}
