// Package notify posts a summary to a Discord, Slack or generic JSON webhook
// when a generation session ends.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

type WebhookType string

const (
	WebhookDiscord WebhookType = "discord"
	WebhookSlack   WebhookType = "slack"
	WebhookGeneric WebhookType = "generic"
)

// FinishedOptions describes a session that has stopped. Status is one of
// finished, cancelled or failed.
type FinishedOptions struct {
	SessionName string
	Mode        string
	WebhookURL  string
	OutputDir   string
	Status      string
	Rounds      int
	Records     int
	FinalPath   string
	Error       string
	Duration    time.Duration
	Timeout     time.Duration
}

func DetectWebhookType(url string) WebhookType {
	lower := strings.ToLower(url)
	if strings.Contains(lower, "discord.com/api/webhooks") || strings.Contains(lower, "discordapp.com/api/webhooks") {
		return WebhookDiscord
	}
	if strings.Contains(lower, "hooks.slack.com") {
		return WebhookSlack
	}
	return WebhookGeneric
}

func NotifyFinished(ctx context.Context, opts FinishedOptions) error {
	if strings.TrimSpace(opts.SessionName) == "" {
		return errors.New("session name is required")
	}
	if strings.TrimSpace(opts.WebhookURL) == "" {
		return errors.New("webhook URL is required")
	}
	payload, err := buildFinishedPayload(opts, time.Now())
	if err != nil {
		return err
	}
	return SendWebhook(ctx, opts.WebhookURL, payload, opts.Timeout)
}

func SendWebhook(ctx context.Context, url string, payload []byte, timeout time.Duration) error {
	if strings.TrimSpace(url) == "" {
		return errors.New("webhook URL is required")
	}
	if len(payload) == 0 {
		return errors.New("payload is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

type presentation struct {
	title        string
	color        int
	slackColor   string
	eventStatus  string
	descDiscord  string
	descSlack    string
	plainMessage string
}

func present(opts FinishedOptions) presentation {
	mode := defaultString(opts.Mode, "generation")
	records := strconv.Itoa(opts.Records)
	switch opts.Status {
	case "failed":
		reason := defaultString(opts.Error, "unknown error")
		return presentation{
			title:        "❌ qagen failed",
			color:        15548997,
			slackColor:   "#ED4245",
			eventStatus:  "failure",
			descDiscord:  fmt.Sprintf("Session **%s** (%s) stopped with an error: %s", opts.SessionName, mode, reason),
			descSlack:    fmt.Sprintf("Session *%s* (%s) stopped with an error: %s", opts.SessionName, mode, reason),
			plainMessage: fmt.Sprintf("qagen session '%s' failed after %s records: %s", opts.SessionName, records, reason),
		}
	case "cancelled":
		return presentation{
			title:        "⏹ qagen stopped",
			color:        16705372,
			slackColor:   "#FEE75C",
			eventStatus:  "stopped",
			descDiscord:  fmt.Sprintf("Session **%s** (%s) was stopped and saved its results.", opts.SessionName, mode),
			descSlack:    fmt.Sprintf("Session *%s* (%s) was stopped and saved its results.", opts.SessionName, mode),
			plainMessage: fmt.Sprintf("qagen session '%s' was stopped after %s records", opts.SessionName, records),
		}
	default:
		return presentation{
			title:        "✅ qagen finished",
			color:        5763719,
			slackColor:   "#57F287",
			eventStatus:  "success",
			descDiscord:  fmt.Sprintf("Session **%s** (%s) reached its target.", opts.SessionName, mode),
			descSlack:    fmt.Sprintf("Session *%s* (%s) reached its target.", opts.SessionName, mode),
			plainMessage: fmt.Sprintf("qagen session '%s' finished with %s records", opts.SessionName, records),
		}
	}
}

func buildFinishedPayload(opts FinishedOptions, now time.Time) ([]byte, error) {
	output := defaultString(opts.OutputDir, "unknown")
	finalPath := defaultString(opts.FinalPath, "nothing saved")
	rounds := numberString(opts.Rounds)
	records := strconv.Itoa(opts.Records)
	duration := formatDuration(opts.Duration)
	timestamp := now.Format(time.RFC3339)
	p := present(opts)

	switch DetectWebhookType(opts.WebhookURL) {
	case WebhookDiscord:
		payload := map[string]interface{}{
			"embeds": []map[string]interface{}{
				{
					"title":       p.title,
					"description": p.descDiscord,
					"color":       p.color,
					"fields": []map[string]interface{}{
						{"name": "Output", "value": fmt.Sprintf("`%s`", output), "inline": false},
						{"name": "Records", "value": records, "inline": true},
						{"name": "Rounds", "value": rounds, "inline": true},
						{"name": "Duration", "value": duration, "inline": true},
						{"name": "Final file", "value": fmt.Sprintf("`%s`", finalPath), "inline": false},
					},
					"footer":    map[string]interface{}{"text": "qagen"},
					"timestamp": timestamp,
				},
			},
		}
		return json.Marshal(payload)
	case WebhookSlack:
		payload := map[string]interface{}{
			"attachments": []map[string]interface{}{
				{
					"color": p.slackColor,
					"blocks": []map[string]interface{}{
						{
							"type": "header",
							"text": map[string]interface{}{"type": "plain_text", "text": p.title, "emoji": true},
						},
						{
							"type": "section",
							"text": map[string]interface{}{"type": "mrkdwn", "text": p.descSlack},
						},
						{
							"type": "section",
							"fields": []map[string]interface{}{
								{"type": "mrkdwn", "text": fmt.Sprintf("*Output:*\n`%s`", output)},
								{"type": "mrkdwn", "text": fmt.Sprintf("*Records:*\n%s", records)},
								{"type": "mrkdwn", "text": fmt.Sprintf("*Rounds:*\n%s", rounds)},
								{"type": "mrkdwn", "text": fmt.Sprintf("*Duration:*\n%s", duration)},
							},
						},
						{
							"type": "context",
							"elements": []map[string]interface{}{
								{"type": "mrkdwn", "text": fmt.Sprintf("qagen • %s", timestamp)},
							},
						},
					},
				},
			},
		}
		return json.Marshal(payload)
	default:
		payload := map[string]interface{}{
			"event":      "finished",
			"status":     p.eventStatus,
			"session":    opts.SessionName,
			"mode":       defaultString(opts.Mode, "generation"),
			"output":     output,
			"records":    opts.Records,
			"rounds":     rounds,
			"final_path": opts.FinalPath,
			"duration":   duration,
			"timestamp":  timestamp,
			"message":    p.plainMessage,
		}
		if opts.Error != "" {
			payload["error"] = opts.Error
		}
		return json.Marshal(payload)
	}
}

func formatDuration(duration time.Duration) string {
	if duration <= 0 {
		return "unknown"
	}
	total := int(duration.Seconds())
	if total <= 0 {
		return "unknown"
	}
	hours := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, mins, secs)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

func numberString(value int) string {
	if value <= 0 {
		return "n/a"
	}
	return strconv.Itoa(value)
}

func defaultString(value, fallback string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
