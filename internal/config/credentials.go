package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/subosito/gotenv"
)

// Credentials are read from the environment only, never from YAML.
type Credentials struct {
	GoogleAPIKey    string `envconfig:"GOOGLE_API_KEY"`
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `envconfig:"OPENAI_BASE_URL"`
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
}

// LoadDotEnv loads KEY=VALUE pairs from path without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if strings.TrimSpace(path) == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func LoadCredentials() (Credentials, error) {
	var c Credentials
	if err := envconfig.Process("", &c); err != nil {
		return c, fmt.Errorf("parsing environment variables: %w", err)
	}
	return c, nil
}

// KeyFor returns the API key a backend authenticates with.
func (c Credentials) KeyFor(backendName string) string {
	switch strings.ToLower(strings.TrimSpace(backendName)) {
	case "gemini":
		return c.GoogleAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	default:
		return ""
	}
}

// BaseURLFor returns an endpoint override for OpenAI-compatible backends.
func (c Credentials) BaseURLFor(backendName string) string {
	if strings.EqualFold(strings.TrimSpace(backendName), "openai") {
		return c.OpenAIBaseURL
	}
	return ""
}

// KeyEnvFor names the variable KeyFor reads, for error messages.
func KeyEnvFor(backendName string) string {
	switch strings.ToLower(strings.TrimSpace(backendName)) {
	case "gemini":
		return "GOOGLE_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}
