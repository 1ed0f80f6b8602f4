package backend

import (
	"context"
	"time"
)

// Request is a single prompt sent to a backend.
type Request struct {
	Prompt string
	Model  string
}

// Settings carries what a factory needs to build a backend instance.
type Settings struct {
	Model    string
	APIKey   string
	BaseURL  string
	ExecPath string
	Timeout  time.Duration
}

// Backend defines the interface for text generation backends.
type Backend interface {
	// CheckInstalled reports whether the backend can be used at all
	// (credentials present, executable on PATH).
	CheckInstalled() error
	GetModels() []string
	Generate(ctx context.Context, req Request) (string, error)
}

// Factory builds a configured backend.
type Factory func(settings Settings) (Backend, error)
