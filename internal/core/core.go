package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/goosewin/qagen/internal/qa"
	"github.com/goosewin/qagen/internal/topic"
)

const timestampLayout = "20060102_150405"

// GenerateFunc asks a backend for count records about t and returns the
// raw model text. Any error counts as zero records.
type GenerateFunc func(ctx context.Context, t topic.Topic, count int) (string, error)

// PersistFunc writes records under label and returns where they went.
type PersistFunc func(ctx context.Context, records []qa.Record, label Label) (string, error)

// SleepFunc waits for d and reports false if ctx was cancelled first.
type SleepFunc func(ctx context.Context, d time.Duration) bool

// StateCallback receives progress updates for the session registry.
type StateCallback func(update StateUpdate)

type StateUpdate struct {
	Mode         string
	Round        int
	TotalRecords int
	Status       string
}

type Kind string

const (
	KindRound  Kind = "round"
	KindBackup Kind = "backup"
	KindFinal  Kind = "final"
)

// Label identifies one persisted artifact.
type Label struct {
	Kind   Kind
	Prefix string
	Round  int
	Count  int
	Time   time.Time
}

// Name returns the artifact file stem.
func (l Label) Name() string {
	stamp := l.Time.Format(timestampLayout)
	prefix := l.Prefix
	if prefix == "" {
		prefix = "qa"
	}
	switch l.Kind {
	case KindRound:
		return fmt.Sprintf("%s_round_%d_%s", prefix, l.Round, stamp)
	case KindBackup:
		return fmt.Sprintf("backup_%d_%s", l.Count, stamp)
	default:
		return fmt.Sprintf("%s_final_%s", prefix, stamp)
	}
}

// Layout maps artifact kinds to directories relative to the output dir.
type Layout struct {
	RoundsDir string
	FinalsDir string
}

// Path returns the relative file stem for label.
func (l Layout) Path(label Label) string {
	switch label.Kind {
	case KindRound, KindBackup:
		if l.RoundsDir != "" {
			return filepath.Join(l.RoundsDir, label.Name())
		}
	case KindFinal:
		if l.FinalsDir != "" {
			return filepath.Join(l.FinalsDir, label.Name())
		}
	}
	return label.Name()
}

// Summary is what a run reports once it has stopped.
type Summary struct {
	Mode            string
	Rounds          int
	TotalRecords    int
	Artifacts       []string
	FinalPath       string
	NothingToSave   bool
	Cancelled       bool
	PersistFailures int
	Duration        time.Duration
	// Err is set only when the final persist failed.
	Err error
}

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func cancelled(ctx context.Context) bool {
	return ctx.Err() != nil
}

// callGenerate runs one generation call detached from cancellation so an
// in-flight request always completes.
func callGenerate(ctx context.Context, fn GenerateFunc, t topic.Topic, count int) (records []qa.Record, stats qa.Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generate panicked: %v", r)
		}
	}()
	raw, err := fn(context.WithoutCancel(ctx), t, count)
	if err != nil {
		return nil, qa.Stats{}, err
	}
	records, stats = qa.ParseStats(raw)
	return records, stats, nil
}

func safePersist(ctx context.Context, persist PersistFunc, records []qa.Record, label Label) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("persist panicked: %v", r)
		}
	}()
	return persist(context.WithoutCancel(ctx), records, label)
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

func nowOrDefault(now func() time.Time) func() time.Time {
	if now == nil {
		return time.Now
	}
	return now
}

func sleepOrDefault(sleep SleepFunc) SleepFunc {
	if sleep == nil {
		return Sleep
	}
	return sleep
}

// persistFinal writes the session buffer once. An empty buffer is reported
// as nothing to save.
func persistFinal(ctx context.Context, persist PersistFunc, logger *slog.Logger, records []qa.Record, label Label, summary *Summary) {
	if len(records) == 0 {
		summary.NothingToSave = true
		logger.Info("nothing to save")
		return
	}
	path, err := safePersist(ctx, persist, records, label)
	if err != nil {
		summary.Err = fmt.Errorf("save final artifact: %w", err)
		logger.Error("final save failed", "records", len(records), "error", err)
		return
	}
	summary.FinalPath = path
	summary.Artifacts = append(summary.Artifacts, path)
	logger.Info("final dataset saved", "records", len(records), "path", path)
}

// abortRun ends a run that failed validation. The final step still runs once
// and, with an empty buffer, only reports nothing to save.
func abortRun(ctx context.Context, persist PersistFunc, logger *slog.Logger, label Label, summary Summary, err error) Summary {
	persistFinal(ctx, persist, logger, nil, label, &summary)
	summary.Err = err
	logger.Error("run not started", "mode", summary.Mode, "error", err)
	return summary
}
