package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/config"
	"github.com/goosewin/qagen/internal/core"
)

var (
	generateFlags          generationFlags
	generateName           string
	generateTopics         string
	generateTotal          int
	generateBatchSize      int
	generateBackupInterval int
	generatePicker         string
	generateStepDelay      time.Duration
	generateRetryDelay     time.Duration
	generateWebhook        string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a dataset of a fixed size",
	Long: `Generate a dataset of a fixed size.

Records are requested in small batches from randomly or sequentially chosen
topics. Every --backup-interval records the buffer is flushed to a
backup_<n>_<ts>.csv file; the rest is written to the final file. Steps that
yield no records are retried after --retry-delay.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	generateFlags.register(generateCmd)
	generateCmd.Flags().StringVarP(&generateName, "name", "n", "", "Session name (default: dataset)")
	generateCmd.Flags().StringVar(&generateTopics, "topics", "", "Comma-separated topic IDs (default: all)")
	generateCmd.Flags().IntVarP(&generateTotal, "total", "t", 0, "Number of records to generate")
	generateCmd.Flags().IntVar(&generateBatchSize, "batch-size", 0, "Records requested per call")
	generateCmd.Flags().IntVar(&generateBackupInterval, "backup-interval", 0, "Flush a backup file every N records")
	generateCmd.Flags().StringVar(&generatePicker, "picker", "", "Topic selection: random or sequential")
	generateCmd.Flags().DurationVar(&generateStepDelay, "step-delay", 0, "Pause between calls")
	generateCmd.Flags().DurationVar(&generateRetryDelay, "retry-delay", 0, "Pause before retrying an empty call")
	generateCmd.Flags().StringVar(&generateWebhook, "webhook", "", "Notification webhook URL")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := loadEnvironment(); err != nil {
		return err
	}

	total := intSetting(cmd, "total", generateTotal, "dataset.total", 1000)
	if total <= 0 {
		return errors.New("total must be a positive integer")
	}
	batchSize := intSetting(cmd, "batch-size", generateBatchSize, "dataset.batch_size", 10)
	backupInterval := intSetting(cmd, "backup-interval", generateBackupInterval, "dataset.backup_interval", 500)
	if batchSize <= 0 || backupInterval <= 0 {
		return errors.New("batch-size and backup-interval must be positive integers")
	}
	picker, err := core.PickerByName(stringSetting(cmd, "picker", generatePicker, "dataset.picker", "random"))
	if err != nil {
		return err
	}
	topics, err := parseTopicIDs(generateTopics)
	if err != nil {
		return err
	}
	dir, err := outputDir(cmd, &generateFlags)
	if err != nil {
		return err
	}
	gen, err := resolveGeneration(cmd, &generateFlags)
	if err != nil {
		return err
	}

	webhook := stringSetting(cmd, "webhook", generateWebhook, "notify.webhook", "")
	run, err := openSession(generateName, core.ModeDataset, dir, gen, total, webhook)
	if err != nil {
		return err
	}
	artifacts, err := newArtifacts(dir, run.logger)
	if err != nil {
		run.logger.Close()
		return err
	}

	fmt.Printf("Target: %d records, backup every %d\n", total, backupInterval)
	fmt.Printf("Output: %s\n", dir)

	ctx, stop := signalContext()
	defer stop()

	summary := core.RunDataset(ctx, core.DatasetOptions{
		SessionID:      run.ID,
		Topics:         topics,
		Generate:       gen.generator.Generate,
		Persist:        persistTo(artifacts, core.Layout{}),
		Target:         total,
		BatchSize:      batchSize,
		BackupInterval: backupInterval,
		Picker:         picker,
		StepDelay:      durationSetting(cmd, "step-delay", generateStepDelay, "dataset.step_delay", time.Second),
		RetryDelay:     config.GetDuration("dataset.retry_delay", 2*time.Second),
		Logger:         run.logger.Logger,
		StateCallback:  run.onState,
	})
	run.finish(summary)
	printSummary(summary)
	return summary.Err
}
