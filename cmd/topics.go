package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/topic"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List generation topics",
	Args:  cobra.NoArgs,
	RunE:  runTopics,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}

func runTopics(cmd *cobra.Command, args []string) error {
	fmt.Println("Topics:")
	fmt.Println("")
	for _, t := range topic.Default() {
		fmt.Printf("  %2d. %s\n", t.ID, t.Label)
	}
	fmt.Println("")
	fmt.Println("Usage: qagen topic <id> --count 20")
	return nil
}
