package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/core"
)

var (
	marathonFlags        generationFlags
	marathonName         string
	marathonTopics       string
	marathonPerTopic     int
	marathonTopicDelay   time.Duration
	marathonRoundDelay   time.Duration
	marathonClearBuffers bool
	marathonWebhook      string
)

var marathonCmd = &cobra.Command{
	Use:   "marathon",
	Short: "Generate rounds over every topic until interrupted",
	Long: `Generate rounds over every topic until interrupted.

Each round is saved to marathon_rounds_<session>/ as it completes. On Ctrl+C
(or qagen stop) the current topic finishes, the round is saved and all
records are written once to marathon_finals/.`,
	Args: cobra.NoArgs,
	RunE: runMarathon,
}

func init() {
	marathonFlags.register(marathonCmd)
	marathonCmd.Flags().StringVarP(&marathonName, "name", "n", "", "Session name (default: marathon)")
	marathonCmd.Flags().StringVar(&marathonTopics, "topics", "", "Comma-separated topic IDs (default: all)")
	marathonCmd.Flags().IntVarP(&marathonPerTopic, "per-topic", "c", 0, "Records requested per topic per round")
	marathonCmd.Flags().DurationVar(&marathonTopicDelay, "topic-delay", 0, "Pause between topics")
	marathonCmd.Flags().DurationVar(&marathonRoundDelay, "round-delay", 0, "Pause between rounds")
	marathonCmd.Flags().BoolVar(&marathonClearBuffers, "clear-after-checkpoint", false, "Keep only unsaved records in memory; the final file then holds the residue")
	marathonCmd.Flags().StringVar(&marathonWebhook, "webhook", "", "Notification webhook URL")
	rootCmd.AddCommand(marathonCmd)
}

func runMarathon(cmd *cobra.Command, args []string) error {
	if err := loadEnvironment(); err != nil {
		return err
	}

	perTopic := intSetting(cmd, "per-topic", marathonPerTopic, "generation.per_topic_count", 30)
	if perTopic <= 0 {
		return errors.New("per-topic must be a positive integer")
	}
	topics, err := parseTopicIDs(marathonTopics)
	if err != nil {
		return err
	}
	dir, err := outputDir(cmd, &marathonFlags)
	if err != nil {
		return err
	}
	gen, err := resolveGeneration(cmd, &marathonFlags)
	if err != nil {
		return err
	}

	webhook := stringSetting(cmd, "webhook", marathonWebhook, "notify.webhook", "")
	run, err := openSession(marathonName, core.ModeMarathon, dir, gen, 0, webhook)
	if err != nil {
		return err
	}
	artifacts, err := newArtifacts(dir, run.logger)
	if err != nil {
		run.logger.Close()
		return err
	}

	layout := core.Layout{
		RoundsDir: fmt.Sprintf("marathon_rounds_%s", run.shortID()),
		FinalsDir: "marathon_finals",
	}
	fmt.Printf("Output: %s\n", dir)
	fmt.Printf("Rounds: %s\n", layout.RoundsDir)
	fmt.Printf("Finals: %s\n", layout.FinalsDir)
	fmt.Println("Press Ctrl+C to stop and save.")

	ctx, stop := signalContext()
	defer stop()

	summary := core.RunMarathon(ctx, core.MarathonOptions{
		SessionID:            run.ID,
		Topics:               topics,
		Generate:             gen.generator.Generate,
		Persist:              persistTo(artifacts, layout),
		PerTopicCount:        perTopic,
		TopicDelay:           durationSetting(cmd, "topic-delay", marathonTopicDelay, "generation.topic_delay", 2*time.Second),
		RoundDelay:           durationSetting(cmd, "round-delay", marathonRoundDelay, "generation.round_delay", 5*time.Second),
		ClearAfterCheckpoint: boolSetting(cmd, "clear-after-checkpoint", marathonClearBuffers, "generation.clear_after_checkpoint", false),
		Logger:               run.logger.Logger,
		StateCallback:        run.onState,
	})
	run.finish(summary)
	printSummary(summary)
	return summary.Err
}
