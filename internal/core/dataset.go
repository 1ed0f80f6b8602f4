package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/goosewin/qagen/internal/topic"
)

// Picker chooses the topic for the next bounded-mode step.
type Picker interface {
	Next(topics []topic.Topic) topic.Topic
}

type randomPicker struct {
	rng *rand.Rand
}

// RandomPicker picks uniformly. A nil rng uses a time-seeded source.
func RandomPicker(rng *rand.Rand) Picker {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &randomPicker{rng: rng}
}

func (p *randomPicker) Next(topics []topic.Topic) topic.Topic {
	return topics[p.rng.Intn(len(topics))]
}

type sequentialPicker struct {
	next int
}

// SequentialPicker cycles through topics in order.
func SequentialPicker() Picker {
	return &sequentialPicker{}
}

func (p *sequentialPicker) Next(topics []topic.Topic) topic.Topic {
	item := topics[p.next%len(topics)]
	p.next++
	return item
}

// PickerByName maps the dataset.picker setting to a Picker.
func PickerByName(name string) (Picker, error) {
	switch name {
	case "", "random":
		return RandomPicker(nil), nil
	case "sequential":
		return SequentialPicker(), nil
	default:
		return nil, fmt.Errorf("unknown picker %q (expected random or sequential)", name)
	}
}

type DatasetOptions struct {
	SessionID      string
	Topics         []topic.Topic
	Generate       GenerateFunc
	Persist        PersistFunc
	Target         int
	BatchSize      int
	BackupInterval int
	Picker         Picker
	StepDelay      time.Duration
	RetryDelay     time.Duration
	Prefix         string
	Logger         *slog.Logger
	StateCallback  StateCallback
	Now            func() time.Time
	Sleep          SleepFunc
}

// RunDataset generates records until Target is reached or ctx is cancelled.
// The buffer is flushed to a backup artifact every BackupInterval records and
// whatever remains is written once as the final artifact.
func RunDataset(ctx context.Context, opts DatasetOptions) Summary {
	logger := loggerOrDefault(opts.Logger)
	now := nowOrDefault(opts.Now)
	sleep := sleepOrDefault(opts.Sleep)
	if opts.Target <= 0 {
		opts.Target = 1000
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.BackupInterval <= 0 {
		opts.BackupInterval = 500
	}
	if opts.Picker == nil {
		opts.Picker = RandomPicker(nil)
	}
	if opts.Prefix == "" {
		opts.Prefix = "elderly_care_qa"
	}

	start := now()
	summary := Summary{Mode: ModeDataset}
	final := Label{Kind: KindFinal, Prefix: opts.Prefix, Time: now()}
	if opts.Generate == nil || opts.Persist == nil {
		return abortRun(ctx, opts.Persist, logger, final, summary, errors.New("generate and persist functions are required"))
	}
	topics := topic.Sorted(opts.Topics)
	if len(topics) == 0 {
		return abortRun(ctx, opts.Persist, logger, final, summary, errors.New("no topics to generate"))
	}

	session := NewSession(opts.SessionID, true)
	logger = logger.With("session", session.ID)
	logger.Info("dataset generation started", "target", opts.Target, "backup_interval", opts.BackupInterval)

	status := "finished"
	if err := runSteps(ctx, opts, session, topics, logger, now, sleep, &summary); err != nil {
		logger.Error("generation aborted, shutting down", "error", err)
		status = "failed"
	}
	if summary.Cancelled {
		status = "cancelled"
		logger.Info("stop requested, saving remaining records")
	}

	summary.Rounds = session.Round - 1
	summary.TotalRecords = session.TotalRecords
	persistFinal(ctx, opts.Persist, logger, session.Records(), Label{Kind: KindFinal, Prefix: opts.Prefix, Time: now()}, &summary)
	summary.Duration = now().Sub(start)
	if summary.Err != nil {
		status = "failed"
	}
	notifyState(opts.StateCallback, ModeDataset, session, status)
	logger.Info("dataset generation finished",
		"records", summary.TotalRecords,
		"target", opts.Target,
		"duration", summary.Duration.Round(time.Second).String(),
	)
	return summary
}

// runSteps is the bounded loop body. session.Round counts successful steps.
func runSteps(ctx context.Context, opts DatasetOptions, session *Session, topics []topic.Topic, logger *slog.Logger, now func() time.Time, sleep SleepFunc, summary *Summary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("step %d panicked: %v", session.Round, r)
		}
	}()

	for session.TotalRecords < opts.Target {
		if cancelled(ctx) {
			summary.Cancelled = true
			return nil
		}
		item := opts.Picker.Next(topics)
		count := min(opts.BatchSize, opts.Target-session.TotalRecords)
		logger.Info("generating", "step", session.Round, "topic", item.ID, "count", count)

		records, stats, genErr := callGenerate(ctx, opts.Generate, item, count)
		if genErr != nil || len(records) == 0 {
			logger.Warn("step produced no records, retrying",
				"topic", item.ID,
				"blocks", stats.Blocks,
				"error", genErr,
				"delay", opts.RetryDelay.String(),
			)
			if !sleep(ctx, opts.RetryDelay) {
				summary.Cancelled = true
				return nil
			}
			continue
		}

		session.Add(records)
		logger.Info("step done", "records", len(records), "progress", fmt.Sprintf("%d/%d", session.TotalRecords, opts.Target))
		notifyState(opts.StateCallback, ModeDataset, session, "running")
		session.Round++

		if len(session.Pending()) >= opts.BackupInterval {
			label := Label{Kind: KindBackup, Prefix: opts.Prefix, Time: now()}
			path, persistErr := session.Checkpoint(ctx, opts.Persist, label)
			if persistErr != nil {
				summary.PersistFailures++
				logger.Warn("backup failed, records kept in memory", "pending", len(session.Pending()), "error", persistErr)
			} else {
				summary.Artifacts = append(summary.Artifacts, path)
				logger.Info("backup saved", "path", path)
			}
		}

		if session.TotalRecords < opts.Target && !sleep(ctx, opts.StepDelay) {
			summary.Cancelled = true
			return nil
		}
	}
	return nil
}
