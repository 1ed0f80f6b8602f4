package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/dataset"
	"github.com/goosewin/qagen/internal/store"
	"github.com/goosewin/qagen/internal/topic"
)

const demoPreviewRows = 3

var (
	demoFlags   generationFlags
	demoTopic   int
	demoCount   int
	demoPreview bool
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Generate a small sample file",
	Args:  cobra.NoArgs,
	RunE:  runDemo,
}

func init() {
	demoFlags.register(demoCmd)
	demoCmd.Flags().IntVar(&demoTopic, "topic", 1, "Topic ID")
	demoCmd.Flags().IntVarP(&demoCount, "count", "c", 5, "Records to request")
	demoCmd.Flags().BoolVar(&demoPreview, "preview", true, "Print the first records")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	if err := loadEnvironment(); err != nil {
		return err
	}
	if demoCount <= 0 {
		return errors.New("count must be a positive integer")
	}
	t, ok := topic.Lookup(demoTopic)
	if !ok {
		return fmt.Errorf("topic %d not found", demoTopic)
	}

	result, err := generateOnce(cmd, &demoFlags, t, demoCount, func(now time.Time) string {
		return "demo_" + now.Format(store.TimestampLayout)
	})
	if err != nil {
		return err
	}
	fmt.Printf("Saved %d records to %s\n", len(result.records), result.path)
	if result.stats.Dropped > 0 {
		fmt.Printf("Dropped %d incomplete blocks\n", result.stats.Dropped)
	}

	if !demoPreview {
		return nil
	}
	for i, record := range result.records[:min(demoPreviewRows, len(result.records))] {
		fmt.Printf("\n%d. INPUT:  %s\n", i+1, dataset.Truncate(record.Input, 100))
		fmt.Printf("   OUTPUT: %s\n", dataset.Truncate(record.Output, 160))
	}
	return nil
}
