package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/dataset"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Show statistics for a CSV dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	report, err := dataset.Analyze(args[0])
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

func printReport(report dataset.Report) {
	fmt.Printf("Analysis of %s\n", report.Path)
	fmt.Printf("Rows:    %d\n", report.Rows)
	fmt.Printf("Columns: %v\n", report.Columns)
	if report.Rows > 0 {
		printLengths("INPUT", report.Input)
		printLengths("OUTPUT", report.Output)
		fmt.Println("")
		fmt.Println("Samples:")
		for i, record := range report.Samples {
			fmt.Printf("  %d. INPUT:  %s\n", i+1, dataset.Truncate(record.Input, 50))
			fmt.Printf("     OUTPUT: %s\n", dataset.Truncate(record.Output, 50))
		}
	}
	fmt.Println("")
	fmt.Printf("Size:    %.2f MB\n", float64(report.Size)/(1024*1024))
}

func printLengths(label string, stats dataset.LengthStats) {
	fmt.Println("")
	fmt.Printf("%s length (characters):\n", label)
	fmt.Printf("  avg %.1f  min %d  max %d\n", stats.Mean, stats.Min, stats.Max)
}

// pickCSV lists the CSVs under dir and reads a 1-based choice from the menu.
func pickCSV(dir string, choose func(prompt string) (string, error)) (string, error) {
	files, err := dataset.FindCSV(dir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", errors.New("no CSV files found")
	}
	for i, file := range files {
		fmt.Printf("%2d. %s (%.1f KB)\n", i+1, file.Path, float64(file.Size)/1024)
	}
	answer, err := choose("Select file: ")
	if err != nil {
		return "", err
	}
	var index int
	if _, err := fmt.Sscanf(answer, "%d", &index); err != nil || index < 1 || index > len(files) {
		return "", fmt.Errorf("invalid selection %q", answer)
	}
	return files[index-1].Path, nil
}
