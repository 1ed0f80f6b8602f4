//go:build unix

package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/goosewin/qagen/internal/backend"
)

func TestGenerateSurvivesTerminalInterrupt(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	script := filepath.Join(t.TempDir(), "gemini")
	body := "#!/bin/sh\nsleep 1\necho 'INPUT: bác ăn cơm chưa'\necho 'OUTPUT: dạ rồi'\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	// Lead a private process group so the interrupt below hits only this
	// test binary and children that did not detach.
	original := syscall.Getpgrp()
	if err := syscall.Setpgid(0, 0); err != nil {
		t.Skipf("cannot create process group: %v", err)
	}
	defer syscall.Setpgid(0, original)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b, err := NewGemini(backend.Settings{ExecPath: script})
	if err != nil {
		t.Fatalf("new gemini: %v", err)
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := b.Generate(context.WithoutCancel(ctx), backend.Request{Prompt: "hỏi"})
		done <- result{text, err}
	}()

	time.Sleep(300 * time.Millisecond)
	if err := syscall.Kill(-syscall.Getpgrp(), syscall.SIGINT); err != nil {
		t.Fatalf("send interrupt: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("interrupt was not delivered")
	}

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("in-flight call was interrupted: %v", res.err)
		}
		if !strings.Contains(res.text, "OUTPUT: dạ rồi") {
			t.Fatalf("unexpected output %q", res.text)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("generate did not finish")
	}
}
