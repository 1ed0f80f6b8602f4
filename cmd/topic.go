package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/qa"
	"github.com/goosewin/qagen/internal/store"
	"github.com/goosewin/qagen/internal/topic"
)

var (
	topicFlags generationFlags
	topicCount int
)

var topicCmd = &cobra.Command{
	Use:   "topic <id>",
	Short: "Generate records for a single topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runTopic,
}

func init() {
	topicFlags.register(topicCmd)
	topicCmd.Flags().IntVarP(&topicCount, "count", "c", 0, "Records to request")
	rootCmd.AddCommand(topicCmd)
}

func runTopic(cmd *cobra.Command, args []string) error {
	if err := loadEnvironment(); err != nil {
		return err
	}
	t, err := topic.ParseID(args[0])
	if err != nil {
		return err
	}
	count := intSetting(cmd, "count", topicCount, "generation.per_topic_count", 30)
	if count <= 0 {
		return errors.New("count must be a positive integer")
	}

	result, err := generateOnce(cmd, &topicFlags, t, count, func(now time.Time) string {
		return store.TopicName(t, now)
	})
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d records for topic %d to %s\n", len(result.records), t.ID, result.path)
	return nil
}

type onceResult struct {
	records []qa.Record
	stats   qa.Stats
	path    string
}

// generateOnce makes a single backend call outside any session and saves the
// parsed records under the name returned by nameFor.
func generateOnce(cmd *cobra.Command, flags *generationFlags, t topic.Topic, count int, nameFor func(time.Time) string) (onceResult, error) {
	dir, err := outputDir(cmd, flags)
	if err != nil {
		return onceResult{}, err
	}
	gen, err := resolveGeneration(cmd, flags)
	if err != nil {
		return onceResult{}, err
	}
	artifacts, err := newArtifacts(dir, nil)
	if err != nil {
		return onceResult{}, err
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Printf("Generating %d records for %s (%s)...\n", count, t.ShortLabel(), gen.backendName)
	raw, err := gen.generator.Generate(ctx, t, count)
	if err != nil {
		return onceResult{}, fmt.Errorf("generate: %w", err)
	}
	records, stats := qa.ParseStats(raw)
	if len(records) == 0 {
		return onceResult{stats: stats}, fmt.Errorf("no records parsed from response (%d blocks)", stats.Blocks)
	}
	path, err := artifacts.Save(records, nameFor(time.Now()))
	if err != nil {
		return onceResult{}, err
	}
	return onceResult{records: records, stats: stats, path: path}, nil
}
