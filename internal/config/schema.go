package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownKey is returned by SetConfig for keys qagen never reads.
var ErrUnknownKey = errors.New("unknown config key")

type Kind int

const (
	KindString Kind = iota
	KindInt
	KindDuration
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDuration:
		return "duration"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

// Setting describes one config key. Default is nil for keys without a
// built-in value.
type Setting struct {
	Key     string
	Kind    Kind
	Default interface{}
	Choices []string
	Usage   string
}

var settings = []Setting{
	{Key: "defaults.backend", Default: "gemini", Usage: "generation backend"},
	{Key: "defaults.model", Default: "", Usage: "model override"},
	{Key: "defaults.exec_path", Default: "", Usage: "executable for gemini-cli/claude-cli"},
	{Key: "defaults.timeout", Kind: KindDuration, Usage: "per-call timeout (0 = none)"},
	{Key: "generation.per_topic_count", Kind: KindInt, Default: 30, Usage: "records per topic per round"},
	{Key: "generation.topic_delay", Kind: KindDuration, Default: "2s", Usage: "pause between topics"},
	{Key: "generation.round_delay", Kind: KindDuration, Default: "5s", Usage: "pause between rounds"},
	{Key: "generation.clear_after_checkpoint", Kind: KindBool, Default: false, Usage: "final file keeps only unsaved records"},
	{Key: "generation.prompt_template_file", Default: "", Usage: "custom prompt template"},
	{Key: "dataset.total", Kind: KindInt, Default: 1000, Usage: "records to generate"},
	{Key: "dataset.batch_size", Kind: KindInt, Default: 10, Usage: "records per call"},
	{Key: "dataset.backup_interval", Kind: KindInt, Default: 500, Usage: "records per backup file"},
	{Key: "dataset.step_delay", Kind: KindDuration, Default: "1s", Usage: "pause between calls"},
	{Key: "dataset.retry_delay", Kind: KindDuration, Default: "2s", Usage: "pause before retrying an empty call"},
	{Key: "dataset.picker", Default: "random", Choices: []string{"random", "sequential"}, Usage: "topic selection"},
	{Key: "output.dir", Default: ".", Usage: "output directory"},
	{Key: "logging.level", Default: "info", Choices: []string{"debug", "info", "warn", "error"}, Usage: "log level"},
	{Key: "logging.format", Default: "text", Choices: []string{"text", "json"}, Usage: "log format"},
	{Key: "logging.retain_days", Kind: KindInt, Default: 7, Usage: "days to keep session logs"},
	{Key: "s3.bucket", Usage: "mirror artifacts to this bucket"},
	{Key: "s3.prefix", Usage: "key prefix in the bucket"},
	{Key: "s3.region", Usage: "bucket region"},
	{Key: "notify.webhook", Usage: "webhook called when a run ends"},
	{Key: "server.host", Default: "127.0.0.1", Usage: "status server address"},
	{Key: "server.port", Kind: KindInt, Default: 8080, Usage: "status server port"},
	{Key: "server.token", Usage: "status server bearer token"},
	{Key: "server.open", Kind: KindBool, Default: false, Usage: "allow remote access without a token"},
}

// Settings returns every known key sorted by name.
func Settings() []Setting {
	out := make([]Setting, len(settings))
	copy(out, settings)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// LookupSetting finds the schema entry for key.
func LookupSetting(key string) (Setting, bool) {
	for _, s := range settings {
		if s.Key == key {
			return s, true
		}
	}
	return Setting{}, false
}

// ParseValue checks value against the schema for key and returns it typed
// for storage: int, bool, or a string (durations in time.Duration form).
func ParseValue(key, value string) (interface{}, error) {
	setting, ok := LookupSetting(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	value = strings.TrimSpace(value)
	switch setting.Kind {
	case KindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s expects a non-negative integer, got %q", key, value)
		}
		return n, nil
	case KindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		return b, nil
	case KindDuration:
		d, ok := parseDuration(value)
		if !ok || d < 0 {
			return nil, fmt.Errorf("%s expects a duration such as 2s or 1m30s, got %q", key, value)
		}
		return d.String(), nil
	}
	if len(setting.Choices) > 0 {
		for _, choice := range setting.Choices {
			if strings.EqualFold(choice, value) {
				return choice, nil
			}
		}
		return nil, fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(setting.Choices, ", "), value)
	}
	return value, nil
}

// DisplayValue renders a stored value the way the getters read it. Duration
// keys written as bare seconds show up as "2s".
func DisplayValue(key, value string) string {
	setting, ok := LookupSetting(key)
	if !ok || setting.Kind != KindDuration {
		return value
	}
	if d, ok := parseDuration(value); ok {
		return d.String()
	}
	return value
}

// parseDuration accepts Go durations ("2s") or bare seconds ("2").
func parseDuration(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed, true
	}
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(seconds * float64(time.Second)), true
	}
	return 0, false
}

// builtinDefaults apply when no default.yaml is found next to the binary.
func builtinDefaults() map[string]interface{} {
	defaults := make(map[string]interface{}, len(settings))
	for _, s := range settings {
		if s.Default != nil {
			defaults[s.Key] = s.Default
		}
	}
	return defaults
}
