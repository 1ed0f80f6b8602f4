package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goosewin/qagen/internal/topic"
)

type MarathonOptions struct {
	SessionID     string
	Topics        []topic.Topic
	Generate      GenerateFunc
	Persist       PersistFunc
	PerTopicCount int
	TopicDelay    time.Duration
	RoundDelay    time.Duration
	// ClearAfterCheckpoint drops checkpointed records from the session
	// buffer, so the final artifact holds only the unflushed residue.
	ClearAfterCheckpoint bool
	Prefix               string
	Logger               *slog.Logger
	StateCallback        StateCallback
	OnRound              func(RoundResult)
	Now                  func() time.Time
	Sleep                SleepFunc
}

// RunMarathon generates rounds over every topic until ctx is cancelled or
// a round body panics, then writes the final artifact exactly once.
func RunMarathon(ctx context.Context, opts MarathonOptions) Summary {
	logger := loggerOrDefault(opts.Logger)
	now := nowOrDefault(opts.Now)
	sleep := sleepOrDefault(opts.Sleep)
	if opts.PerTopicCount <= 0 {
		opts.PerTopicCount = 30
	}
	if opts.Prefix == "" {
		opts.Prefix = ModeMarathon
	}

	start := now()
	summary := Summary{Mode: ModeMarathon}
	final := Label{Kind: KindFinal, Prefix: opts.Prefix, Time: now()}
	if opts.Generate == nil || opts.Persist == nil {
		return abortRun(ctx, opts.Persist, logger, final, summary, errors.New("generate and persist functions are required"))
	}
	topics := topic.Sorted(opts.Topics)
	if len(topics) == 0 {
		return abortRun(ctx, opts.Persist, logger, final, summary, errors.New("no topics to generate"))
	}

	session := NewSession(opts.SessionID, opts.ClearAfterCheckpoint)
	logger = logger.With("session", session.ID)
	logger.Info("marathon started", "topics", len(topics), "per_topic", opts.PerTopicCount)

	status := "finished"
	for {
		if cancelled(ctx) {
			summary.Cancelled = true
			break
		}
		notifyState(opts.StateCallback, ModeMarathon, session, "running")

		result, err := runRound(ctx, opts, session, topics, logger, now, sleep)
		summary.Rounds = session.Round
		if result.Path != "" {
			summary.Artifacts = append(summary.Artifacts, result.Path)
		}
		if err != nil {
			if errors.Is(err, errCheckpoint) {
				summary.PersistFailures++
			} else {
				logger.Error("round aborted, shutting down", "round", session.Round, "error", err)
				status = "failed"
				break
			}
		}
		if opts.OnRound != nil {
			opts.OnRound(result)
		}
		if result.Cancelled || cancelled(ctx) {
			summary.Cancelled = true
			break
		}

		logger.Info("waiting before next round", "delay", opts.RoundDelay.String())
		if !sleep(ctx, opts.RoundDelay) {
			summary.Cancelled = true
			break
		}
		session.Round++
	}

	if summary.Cancelled {
		status = "cancelled"
		logger.Info("stop requested, saving final results")
	}
	summary.TotalRecords = session.TotalRecords
	persistFinal(ctx, opts.Persist, logger, session.Records(), Label{Kind: KindFinal, Prefix: opts.Prefix, Time: now()}, &summary)
	summary.Duration = now().Sub(start)
	if summary.Err != nil {
		status = "failed"
	}
	notifyState(opts.StateCallback, ModeMarathon, session, status)
	logger.Info("marathon finished",
		"rounds", summary.Rounds,
		"records", summary.TotalRecords,
		"duration", summary.Duration.Round(time.Second).String(),
	)
	return summary
}

var errCheckpoint = errors.New("checkpoint failed")

// runRound executes one pass over topics. A panic in the body is returned as
// an error so the caller can shut down gracefully.
func runRound(ctx context.Context, opts MarathonOptions, session *Session, topics []topic.Topic, logger *slog.Logger, now func() time.Time, sleep SleepFunc) (result RoundResult, err error) {
	result.Round = session.Round
	roundStart := now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("round %d panicked: %v", session.Round, r)
		}
		result.Elapsed = now().Sub(roundStart)
	}()

	logger.Info("round started", "round", session.Round)
	for i, item := range topics {
		if cancelled(ctx) {
			result.Cancelled = true
			break
		}
		logger.Info("generating", "round", session.Round, "topic", item.ID, "label", item.ShortLabel(), "progress", fmt.Sprintf("%d/%d", i+1, len(topics)))

		records, stats, genErr := callGenerate(ctx, opts.Generate, item, opts.PerTopicCount)
		switch {
		case genErr != nil:
			result.Failed++
			logger.Warn("topic failed", "topic", item.ID, "error", genErr)
		case len(records) == 0:
			result.Failed++
			logger.Warn("topic produced no records", "topic", item.ID, "blocks", stats.Blocks)
		default:
			result.Succeeded++
			result.Records = append(result.Records, records...)
			session.Add(records)
			logger.Info("topic done", "topic", item.ID, "records", len(records), "dropped", stats.Dropped, "total", session.TotalRecords)
		}

		if i < len(topics)-1 && !sleep(ctx, opts.TopicDelay) {
			result.Cancelled = true
			break
		}
	}

	if len(session.Pending()) == 0 {
		logger.Warn("round produced no records", "round", session.Round)
		return result, nil
	}
	label := Label{Kind: KindRound, Prefix: opts.Prefix, Round: session.Round, Time: now()}
	path, persistErr := session.Checkpoint(ctx, opts.Persist, label)
	if persistErr != nil {
		logger.Warn("round checkpoint failed, records kept for next checkpoint",
			"round", session.Round,
			"pending", len(session.Pending()),
			"error", persistErr,
		)
		return result, fmt.Errorf("%w: %v", errCheckpoint, persistErr)
	}
	result.Path = path
	logger.Info("round finished",
		"round", session.Round,
		"records", len(result.Records),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
		"path", path,
	)
	return result, nil
}

func notifyState(callback StateCallback, mode string, session *Session, status string) {
	if callback == nil {
		return
	}
	callback(StateUpdate{Mode: mode, Round: session.Round, TotalRecords: session.TotalRecords, Status: status})
}
