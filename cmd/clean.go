package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/dataset"
)

var (
	cleanYes bool
	cleanDir string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete round directories, finals and CSV files",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Delete without asking")
	cleanCmd.Flags().StringVarP(&cleanDir, "dir", "d", ".", "Directory to clean")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	items, err := dataset.FindCleanable(cleanDir)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("Nothing to clean.")
		return nil
	}

	fmt.Println("Items found:")
	for _, item := range items {
		if item.IsDir {
			fmt.Printf("  %s/ (%d files)\n", item.Path, item.Files)
		} else {
			fmt.Printf("  %s (%.1f KB)\n", item.Path, float64(item.Size)/1024)
		}
	}

	if !cleanYes {
		answer, err := prompt(stdinReader, "\nDelete these items? (y/n): ")
		if err != nil {
			return err
		}
		if !strings.EqualFold(answer, "y") {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	removed, errs := dataset.Remove(items)
	for _, err := range errs {
		fmt.Fprintf(os.Stderr, "  %v\n", err)
	}
	fmt.Printf("Cleaned %d items\n", removed)
	return nil
}

var stdinReader = bufio.NewReader(os.Stdin)

// prompt prints label and reads one trimmed line.
func prompt(reader *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
