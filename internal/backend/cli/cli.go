// Package cli runs locally installed AI command line tools in headless mode
// and returns their text output.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/goosewin/qagen/internal/backend"
)

type Backend struct {
	name     string
	execPath string
	model    string
	timeout  time.Duration
	models   []string
	args     func(prompt, model string) []string
	parse    func(stdout []byte) string
}

type streamEvent struct {
	Type    string `json:"type"`
	Result  string `json:"result"`
	Message struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"message"`
}

var _ backend.Backend = (*Backend)(nil)

func init() {
	if err := backend.Register("gemini-cli", NewGemini); err != nil {
		panic(err)
	}
	if err := backend.Register("claude-cli", NewClaude); err != nil {
		panic(err)
	}
}

// NewGemini wraps the `gemini` CLI.
func NewGemini(settings backend.Settings) (backend.Backend, error) {
	return &Backend{
		name:     "gemini",
		execPath: defaultString(settings.ExecPath, "gemini"),
		model:    settings.Model,
		timeout:  settings.Timeout,
		models:   []string{"gemini-1.5-pro"},
		args: func(prompt, model string) []string {
			args := []string{"--headless"}
			if strings.TrimSpace(model) != "" {
				args = append(args, "--model", model)
			}
			return append(args, prompt)
		},
		parse: func(stdout []byte) string { return string(stdout) },
	}, nil
}

// NewClaude wraps the `claude` CLI in print mode with stream-json output.
func NewClaude(settings backend.Settings) (backend.Backend, error) {
	return &Backend{
		name:     "claude",
		execPath: defaultString(settings.ExecPath, "claude"),
		model:    settings.Model,
		timeout:  settings.Timeout,
		models:   []string{"claude-opus-4-5"},
		args: func(prompt, model string) []string {
			args := []string{"--verbose", "--print", "--output-format", "stream-json"}
			if strings.TrimSpace(model) != "" {
				args = append(args, "--model", model)
			}
			return append(args, "-p", prompt)
		},
		parse: func(stdout []byte) string {
			if result := parseStreamResult(bytes.NewReader(stdout)); result != "" {
				return result
			}
			return string(stdout)
		},
	}, nil
}

func (b *Backend) CheckInstalled() error {
	if strings.TrimSpace(b.execPath) == "" {
		return fmt.Errorf("%s executable path is empty", b.name)
	}
	if _, err := exec.LookPath(b.execPath); err != nil {
		return fmt.Errorf("%s not installed: %w", b.name, err)
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

	cmd := exec.CommandContext(ctx, b.execPath, b.args(req.Prompt, model)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	detachFromTerminal(cmd)

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%s failed: %w: %s", b.name, err, strings.TrimSpace(stderr.String()))
		}
		return "", fmt.Errorf("%s failed: %w", b.name, err)
	}

	text := b.parse(stdout.Bytes())
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s produced no output", b.name)
	}
	return text, nil
}

func parseStreamResult(reader io.Reader) string {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	result := ""
	var assistant strings.Builder
	for scanner.Scan() {
		var event streamEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		switch event.Type {
		case "result":
			if event.Result != "" {
				result = event.Result
			}
		case "assistant":
			for _, part := range event.Message.Content {
				if part.Type == "text" && part.Text != "" {
					assistant.WriteString(part.Text)
				}
			}
		}
	}
	if result != "" {
		return result
	}
	return assistant.String()
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
