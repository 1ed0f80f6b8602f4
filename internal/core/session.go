package core

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/goosewin/qagen/internal/qa"
)

const (
	ModeMarathon = "marathon"
	ModeDataset  = "dataset"
)

// RoundResult describes one pass over every topic.
type RoundResult struct {
	Round     int
	Records   []qa.Record
	Elapsed   time.Duration
	Succeeded int
	Failed    int
	Path      string
	Cancelled bool
}

// Session holds the cumulative counters and buffers of one run. It is owned
// by a single loop and is not safe for concurrent use.
type Session struct {
	ID           string
	Round        int
	TotalRecords int

	// records feeds the final artifact; pending feeds the next checkpoint.
	records []qa.Record
	pending []qa.Record

	clearAfterCheckpoint bool
}

// NewSession starts a session at round 1. An empty id gets a random one.
func NewSession(id string, clearAfterCheckpoint bool) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{ID: id, Round: 1, clearAfterCheckpoint: clearAfterCheckpoint}
}

// Add appends freshly parsed records to both buffers.
func (s *Session) Add(records []qa.Record) {
	if len(records) == 0 {
		return
	}
	s.records = append(s.records, records...)
	s.pending = append(s.pending, records...)
	s.TotalRecords += len(records)
}

// Records returns the session buffer.
func (s *Session) Records() []qa.Record {
	return s.records
}

// Pending returns the records not yet written by a checkpoint.
func (s *Session) Pending() []qa.Record {
	return s.pending
}

// Checkpoint persists the pending buffer and clears it only after persist
// succeeded. A failed checkpoint leaves both buffers untouched.
func (s *Session) Checkpoint(ctx context.Context, persist PersistFunc, label Label) (string, error) {
	if len(s.pending) == 0 {
		return "", nil
	}
	label.Count = len(s.pending)
	path, err := safePersist(ctx, persist, s.pending, label)
	if err != nil {
		return "", err
	}
	s.pending = nil
	if s.clearAfterCheckpoint {
		s.records = nil
	}
	return path, nil
}
