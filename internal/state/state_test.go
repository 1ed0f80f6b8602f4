package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestInitStateCreatesAndRepairsFile(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("QAGEN_STATE_DIR", tempDir)
	t.Setenv("QAGEN_STATE_FILE", filepath.Join(tempDir, "state.json"))

	if err := InitState(); err != nil {
		t.Fatalf("init state: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tempDir, "state.json"))
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("unmarshal state: %v", err)
	}

	if len(state.Sessions) != 0 {
		t.Fatalf("expected empty sessions, got %d", len(state.Sessions))
	}

	if err := os.WriteFile(filepath.Join(tempDir, "state.json"), []byte("{invalid"), 0o644); err != nil {
		t.Fatalf("write invalid state: %v", err)
	}

	if err := InitState(); err != nil {
		t.Fatalf("reinit state: %v", err)
	}

	data, err = os.ReadFile(filepath.Join(tempDir, "state.json"))
	if err != nil {
		t.Fatalf("read state file after repair: %v", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		t.Fatalf("unmarshal repaired state: %v", err)
	}

	if len(state.Sessions) != 0 {
		t.Fatalf("expected empty sessions after repair, got %d", len(state.Sessions))
	}
}

func TestSaveGetUpdateListDeleteSession(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("QAGEN_STATE_DIR", tempDir)
	t.Setenv("QAGEN_STATE_FILE", filepath.Join(tempDir, "state.json"))

	started := time.Date(2026, 10, 17, 10, 15, 0, 0, time.UTC)
	if err := SaveSession(Session{Name: "marathon", ID: "abc", Mode: "marathon", Status: StatusRunning, PID: 123, StartedAt: started}); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := SaveSession(Session{Name: "dataset", Status: StatusRunning}); err != nil {
		t.Fatalf("save second session: %v", err)
	}

	session, found, err := GetSession("marathon")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if !found {
		t.Fatalf("expected session to exist")
	}
	if session.Status != StatusRunning || session.PID != 123 || !session.StartedAt.Equal(started) {
		t.Fatalf("unexpected session %+v", session)
	}

	if err := UpdateSession("marathon", func(s *Session) {
		s.Round = 3
		s.TotalRecords = 120
		s.Status = StatusCancelled
	}); err != nil {
		t.Fatalf("update session: %v", err)
	}
	session, _, _ = GetSession("marathon")
	if session.Round != 3 || session.TotalRecords != 120 || session.Status != StatusCancelled || session.ID != "abc" {
		t.Fatalf("update not applied: %+v", session)
	}

	if err := UpdateSession("missing", func(*Session) {}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	sessions, err := ListSessions()
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].Name != "dataset" || sessions[1].Name != "marathon" {
		t.Fatalf("expected sorted sessions, got %+v", sessions)
	}

	if err := DeleteSession("marathon"); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	_, found, err = GetSession("marathon")
	if err != nil {
		t.Fatalf("get session after delete: %v", err)
	}
	if found {
		t.Fatalf("expected session to be deleted")
	}
}

func TestCleanupStaleSessions(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("QAGEN_STATE_DIR", tempDir)
	t.Setenv("QAGEN_STATE_FILE", filepath.Join(tempDir, "state.json"))

	stalePID := findUnusedPID(t)
	if stalePID == 0 {
		t.Skip("unable to find unused PID")
	}

	if err := SaveSession(Session{Name: "alive", Status: StatusRunning, PID: os.Getpid()}); err != nil {
		t.Fatalf("set alive session: %v", err)
	}
	if err := SaveSession(Session{Name: "stale", Status: StatusRunning, PID: stalePID}); err != nil {
		t.Fatalf("set stale session: %v", err)
	}

	cleaned, err := CleanupStale("")
	if err != nil {
		t.Fatalf("cleanup stale: %v", err)
	}
	if len(cleaned) != 1 || cleaned[0] != "stale" {
		t.Fatalf("expected stale cleaned, got %v", cleaned)
	}

	session, found, err := GetSession("stale")
	if err != nil {
		t.Fatalf("get stale session: %v", err)
	}
	if !found {
		t.Fatalf("expected stale session to remain")
	}
	if session.Status != StatusStale {
		t.Fatalf("expected status stale, got %v", session.Status)
	}

	if err := SaveSession(Session{Name: "stale-remove", Status: StatusRunning, PID: stalePID}); err != nil {
		t.Fatalf("set stale-remove session: %v", err)
	}

	cleaned, err = CleanupStale(CleanupRemove)
	if err != nil {
		t.Fatalf("cleanup remove: %v", err)
	}
	if len(cleaned) != 1 || cleaned[0] != "stale-remove" {
		t.Fatalf("expected stale-remove cleaned, got %v", cleaned)
	}

	_, found, err = GetSession("stale-remove")
	if err != nil {
		t.Fatalf("get stale-remove session: %v", err)
	}
	if found {
		t.Fatalf("expected stale-remove session to be deleted")
	}
}

func findUnusedPID(t *testing.T) int {
	t.Helper()
	for pid := 50000; pid < 60000; pid++ {
		err := syscall.Kill(pid, 0)
		if err == syscall.ESRCH {
			return pid
		}
	}
	return 0
}
