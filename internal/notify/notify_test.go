package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var testNow = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func TestDetectWebhookType(t *testing.T) {
	cases := []struct {
		name string
		url  string
		want WebhookType
	}{
		{name: "discord", url: "https://discord.com/api/webhooks/123", want: WebhookDiscord},
		{name: "discordapp", url: "https://discordapp.com/api/webhooks/123", want: WebhookDiscord},
		{name: "slack", url: "https://hooks.slack.com/services/abc", want: WebhookSlack},
		{name: "generic", url: "https://example.com/webhook", want: WebhookGeneric},
	}

	for _, tc := range cases {
		if got := DetectWebhookType(tc.url); got != tc.want {
			t.Fatalf("%s: expected %s got %s", tc.name, tc.want, got)
		}
	}
}

func TestBuildFinishedPayloadDiscord(t *testing.T) {
	opts := FinishedOptions{
		SessionName: "marathon-1",
		Mode:        "marathon",
		WebhookURL:  "https://discord.com/api/webhooks/123",
		OutputDir:   "/data/qa",
		Status:      "cancelled",
		Rounds:      3,
		Records:     240,
		FinalPath:   "/data/qa/marathon_finals/marathon_final_20261017_120000.csv",
		Duration:    3661 * time.Second,
	}
	payload, err := buildFinishedPayload(opts, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	embed := decoded["embeds"].([]interface{})[0].(map[string]interface{})
	if embed["title"].(string) != "⏹ qagen stopped" {
		t.Fatalf("unexpected title: %v", embed["title"])
	}
	fields := embed["fields"].([]interface{})
	if len(fields) != 5 {
		t.Fatalf("expected 5 fields, got %d", len(fields))
	}
	if value := fields[1].(map[string]interface{})["value"].(string); value != "240" {
		t.Fatalf("unexpected records: %v", value)
	}
	if value := fields[3].(map[string]interface{})["value"].(string); value != "1h 1m 1s" {
		t.Fatalf("unexpected duration: %v", value)
	}
}

func TestBuildFinishedPayloadSlackFailed(t *testing.T) {
	opts := FinishedOptions{
		SessionName: "dataset-1",
		Mode:        "dataset",
		WebhookURL:  "https://hooks.slack.com/services/abc",
		Status:      "failed",
		Error:       "disk full",
		Duration:    70 * time.Second,
	}
	payload, err := buildFinishedPayload(opts, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	attachment := decoded["attachments"].([]interface{})[0].(map[string]interface{})
	if attachment["color"].(string) != "#ED4245" {
		t.Fatalf("unexpected color: %v", attachment["color"])
	}
	blocks := attachment["blocks"].([]interface{})
	text := blocks[1].(map[string]interface{})["text"].(map[string]interface{})
	if text["text"].(string) != "Session *dataset-1* (dataset) stopped with an error: disk full" {
		t.Fatalf("unexpected slack description: %v", text["text"])
	}
}

func TestBuildFinishedPayloadGeneric(t *testing.T) {
	opts := FinishedOptions{
		SessionName: "dataset-2",
		WebhookURL:  "https://example.com/webhook",
		Status:      "finished",
		Records:     1000,
		Duration:    65 * time.Second,
	}
	payload, err := buildFinishedPayload(opts, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if decoded["status"].(string) != "success" {
		t.Fatalf("unexpected status: %v", decoded["status"])
	}
	if decoded["message"].(string) != "qagen session 'dataset-2' finished with 1000 records" {
		t.Fatalf("unexpected message: %v", decoded["message"])
	}
	if decoded["duration"].(string) != "1m 5s" {
		t.Fatalf("unexpected duration: %v", decoded["duration"])
	}
}

func TestNotifyFinishedPostsJSON(t *testing.T) {
	var received map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	err := NotifyFinished(context.Background(), FinishedOptions{
		SessionName: "s",
		WebhookURL:  server.URL,
		Status:      "finished",
		Records:     5,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if received["session"] != "s" {
		t.Fatalf("unexpected payload %v", received)
	}
}

func TestSendWebhookReportsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	if err := SendWebhook(context.Background(), server.URL, []byte(`{}`), time.Second); err == nil {
		t.Fatalf("expected error for HTTP 502")
	}
}
