package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewWritesToStdoutAndFile(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "logs", "session.log")
	var stdout bytes.Buffer

	logger, err := New(Options{Level: "info", Stdout: &stdout, LogFile: logFile})
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("round finished", "round", 2)
	if err := logger.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for name, out := range map[string]string{"stdout": stdout.String(), "file": string(data)} {
		if !strings.Contains(out, "round finished") || !strings.Contains(out, "round=2") {
			t.Fatalf("%s missing entry: %q", name, out)
		}
		if strings.Contains(out, "hidden") {
			t.Fatalf("%s contains debug entry: %q", name, out)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if _, err := ParseLevel("WARN"); err != nil {
		t.Fatalf("expected warn to parse: %v", err)
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestCleanupOldLogs(t *testing.T) {
	tempDir := t.TempDir()
	oldLog := filepath.Join(tempDir, "old.log")
	newLog := filepath.Join(tempDir, "new.log")
	other := filepath.Join(tempDir, "old.txt")
	for _, path := range []string{oldLog, newLog, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().Add(-10 * 24 * time.Hour)
	for _, path := range []string{oldLog, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	CleanupOldLogs(tempDir, 7)

	if _, err := os.Stat(oldLog); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed")
	}
	if _, err := os.Stat(newLog); err != nil {
		t.Fatalf("expected new log kept: %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatalf("expected non-log file kept: %v", err)
	}
}
