// Package state keeps the registry of generation sessions in a JSON file
// guarded by a file lock, so status, stop and server can see runs started
// from other terminals.
package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"
	"time"
)

const (
	StatusRunning   = "running"
	StatusFinished  = "finished"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
	StatusStale     = "stale"
)

// Session is one generation run as recorded in the registry.
type Session struct {
	Name         string    `json:"name"`
	ID           string    `json:"id"`
	Mode         string    `json:"mode"`
	Dir          string    `json:"dir"`
	PID          int       `json:"pid"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitzero"`
	Round        int       `json:"round"`
	TotalRecords int       `json:"total_records"`
	Target       int       `json:"target,omitempty"`
	Status       string    `json:"status"`
	LogFile      string    `json:"log_file,omitempty"`
	Backend      string    `json:"backend,omitempty"`
	Model        string    `json:"model,omitempty"`
	FinalPath    string    `json:"final_path,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Alive reports whether the owning process still exists.
func (s Session) Alive() bool {
	return processAlive(s.PID)
}

// CleanupMode controls how stale sessions are handled.
type CleanupMode string

const (
	CleanupMark   CleanupMode = "mark"
	CleanupRemove CleanupMode = "remove"
)

var (
	ErrLockTimeout     = errors.New("state lock timeout")
	ErrSessionNotFound = errors.New("session not found")
)

type stateFile struct {
	Sessions map[string]Session `json:"sessions"`
}

type lockHandle struct {
	method string
	file   *os.File
	dir    string
}

// InitState initializes the state file and directory.
func InitState() error {
	return withLock(func() error {
		return initStateUnlocked()
	})
}

// GetSession returns a session by name.
func GetSession(name string) (Session, bool, error) {
	if name == "" {
		return Session{}, false, errors.New("session name is required")
	}

	var session Session
	var found bool
	err := withLock(func() error {
		state, err := loadUnlocked()
		if err != nil {
			return err
		}
		session, found = state.Sessions[name]
		return nil
	})

	return session, found, err
}

// SaveSession inserts or replaces a session.
func SaveSession(session Session) error {
	if session.Name == "" {
		return errors.New("session name is required")
	}

	return withLock(func() error {
		state, err := loadUnlocked()
		if err != nil {
			return err
		}
		state.Sessions[session.Name] = session
		return writeStateFile(state)
	})
}

// UpdateSession applies fn to a stored session under the lock.
func UpdateSession(name string, fn func(*Session)) error {
	if name == "" {
		return errors.New("session name is required")
	}

	return withLock(func() error {
		state, err := loadUnlocked()
		if err != nil {
			return err
		}
		session, ok := state.Sessions[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, name)
		}
		fn(&session)
		session.Name = name
		state.Sessions[name] = session
		return writeStateFile(state)
	})
}

// DeleteSession removes a session by name.
func DeleteSession(name string) error {
	if name == "" {
		return errors.New("session name is required")
	}

	return withLock(func() error {
		state, err := loadUnlocked()
		if err != nil {
			return err
		}

		if _, ok := state.Sessions[name]; !ok {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, name)
		}

		delete(state.Sessions, name)
		return writeStateFile(state)
	})
}

// ListSessions returns all sessions ordered by name.
func ListSessions() ([]Session, error) {
	var sessions []Session
	err := withLock(func() error {
		state, err := loadUnlocked()
		if err != nil {
			return err
		}

		sessions = make([]Session, 0, len(state.Sessions))
		for _, session := range state.Sessions {
			sessions = append(sessions, session)
		}
		return nil
	})

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].Name < sessions[j].Name
	})
	return sessions, err
}

// CleanupStale marks or removes running sessions with dead PIDs.
func CleanupStale(mode CleanupMode) ([]string, error) {
	if mode == "" {
		mode = CleanupMark
	}
	if mode != CleanupMark && mode != CleanupRemove {
		return nil, fmt.Errorf("invalid cleanup mode %q", mode)
	}

	cleaned := []string{}
	err := withLock(func() error {
		state, err := loadUnlocked()
		if err != nil {
			return err
		}

		changed := false
		for name, session := range state.Sessions {
			if session.Status != StatusRunning || session.PID <= 0 {
				continue
			}
			if processAlive(session.PID) {
				continue
			}

			cleaned = append(cleaned, name)
			changed = true

			if mode == CleanupRemove {
				delete(state.Sessions, name)
				continue
			}

			session.Status = StatusStale
			state.Sessions[name] = session
		}

		if !changed {
			return nil
		}

		return writeStateFile(state)
	})

	sort.Strings(cleaned)
	return cleaned, err
}

func withLock(fn func() error) error {
	handle, err := acquireLock()
	if err != nil {
		return err
	}
	defer handle.release()
	return fn()
}

func acquireLock() (*lockHandle, error) {
	dir := stateDir()
	if dir == "" {
		return nil, errors.New("state directory unavailable")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	timeout := lockTimeout()
	lockFile := lockFilePath()
	file, err := os.OpenFile(lockFile, os.O_CREATE|os.O_RDWR, 0o644)
	if err == nil {
		err = tryFlock(file, timeout)
		if err == nil {
			return &lockHandle{method: "flock", file: file}, nil
		}

		if !isFlockUnsupported(err) {
			file.Close()
			return nil, err
		}

		file.Close()
	}

	return acquireDirLock(timeout)
}

func (handle *lockHandle) release() {
	if handle == nil {
		return
	}

	if handle.method == "flock" {
		if handle.file != nil {
			_ = syscall.Flock(int(handle.file.Fd()), syscall.LOCK_UN)
			_ = handle.file.Close()
		}
		return
	}

	if handle.method == "mkdir" {
		if handle.dir != "" {
			_ = os.RemoveAll(handle.dir)
		}
	}
}

func tryFlock(file *os.File, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
		if err == nil {
			return nil
		}

		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
			if time.Now().After(deadline) {
				return ErrLockTimeout
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}

		return err
	}
}

func acquireDirLock(timeout time.Duration) (*lockHandle, error) {
	lockDir := lockDirPath()
	if lockDir == "" {
		return nil, errors.New("lock directory unavailable")
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := os.Mkdir(lockDir, 0o755); err == nil {
			_ = os.WriteFile(filepath.Join(lockDir, "pid"), []byte(strconv.Itoa(os.Getpid())), 0o644)
			return &lockHandle{method: "mkdir", dir: lockDir}, nil
		}

		if info, err := os.Stat(lockDir); err == nil && info.IsDir() {
			pid := readPid(filepath.Join(lockDir, "pid"))
			if pid == 0 || !processAlive(pid) {
				_ = os.RemoveAll(lockDir)
			}
		}

		if time.Now().After(deadline) {
			return nil, ErrLockTimeout
		}

		time.Sleep(100 * time.Millisecond)
	}
}

func initStateUnlocked() error {
	dir := stateDir()
	if dir == "" {
		return errors.New("state directory unavailable")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	path := stateFilePath()
	if path == "" {
		return errors.New("state file path unavailable")
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return writeStateFile(stateFile{Sessions: map[string]Session{}})
		}
		return fmt.Errorf("stat state file: %w", err)
	}

	if _, err := readStateUnlocked(); err != nil {
		return writeStateFile(stateFile{Sessions: map[string]Session{}})
	}

	return nil
}

func loadUnlocked() (stateFile, error) {
	if err := initStateUnlocked(); err != nil {
		return stateFile{}, err
	}
	return readStateUnlocked()
}

func readStateUnlocked() (stateFile, error) {
	path := stateFilePath()
	data, err := os.ReadFile(path)
	if err != nil {
		return stateFile{}, fmt.Errorf("read state file: %w", err)
	}

	var state stateFile
	if err := json.Unmarshal(data, &state); err != nil {
		return stateFile{}, fmt.Errorf("decode state file: %w", err)
	}

	if state.Sessions == nil {
		state.Sessions = map[string]Session{}
	}

	return state, nil
}

func writeStateFile(state stateFile) error {
	if state.Sessions == nil {
		state.Sessions = map[string]Session{}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if len(data) == 0 {
		return errors.New("refusing to write empty state")
	}

	path := stateFilePath()
	if path == "" {
		return errors.New("state file path unavailable")
	}

	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	tmpName := tmpFile.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil
}

func readPid(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	parsed, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return 0
	}
	return parsed
}

func lockTimeout() time.Duration {
	if value := os.Getenv("QAGEN_LOCK_TIMEOUT"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * time.Second
		}
	}
	return 10 * time.Second
}

func stateDir() string {
	if value := os.Getenv("QAGEN_STATE_DIR"); value != "" {
		return value
	}

	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}

	return filepath.Join(home, ".config", "qagen")
}

func stateFilePath() string {
	if value := os.Getenv("QAGEN_STATE_FILE"); value != "" {
		return value
	}

	dir := stateDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, "state.json")
}

func lockFilePath() string {
	if value := os.Getenv("QAGEN_LOCK_FILE"); value != "" {
		return value
	}

	dir := stateDir()
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, "state.lock")
}

func lockDirPath() string {
	if value := os.Getenv("QAGEN_LOCK_DIR"); value != "" {
		return value
	}

	lockFile := lockFilePath()
	if lockFile == "" {
		return ""
	}

	return lockFile + ".dir"
}

func isFlockUnsupported(err error) bool {
	return errors.Is(err, syscall.ENOSYS) || errors.Is(err, syscall.EOPNOTSUPP) || errors.Is(err, syscall.ENOTSUP)
}

// RequestStop sends SIGINT to a running session so it can save its final
// artifact before exiting. A session whose process is gone is marked stale.
func RequestStop(name string) (Session, error) {
	session, found, err := GetSession(name)
	if err != nil {
		return Session{}, err
	}
	if !found {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, name)
	}
	if session.Status != StatusRunning {
		return session, nil
	}

	if session.PID > 0 && processAlive(session.PID) {
		if err := syscall.Kill(session.PID, syscall.SIGINT); err != nil {
			return session, fmt.Errorf("signal pid %d: %w", session.PID, err)
		}
		return session, nil
	}

	err = UpdateSession(name, func(s *Session) {
		s.Status = StatusStale
		s.PID = 0
	})
	session.Status = StatusStale
	return session, err
}
