package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/dataset"
	"github.com/goosewin/qagen/internal/store"
)

var (
	mergePattern string
	mergeOutput  string
	mergeDir     string
)

var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Merge CSV datasets and drop duplicate rows",
	Long: `Merge CSV datasets and drop duplicate rows.

With no arguments every CSV under --dir is merged. --pattern selects files by
glob instead. The result is written to merged_dataset_<ts>.csv.`,
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVarP(&mergePattern, "pattern", "p", "", "Glob pattern relative to --dir")
	mergeCmd.Flags().StringVarP(&mergeOutput, "output", "o", "", "Output file name (without .csv)")
	mergeCmd.Flags().StringVarP(&mergeDir, "dir", "d", ".", "Directory to search")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	paths, err := mergeInputs(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no CSV files to merge")
	}

	fmt.Printf("Merging %d files...\n", len(paths))
	result := dataset.Merge(paths)
	for _, file := range result.Files {
		if file.Err != nil {
			fmt.Printf("  skip %s: %v\n", file.Path, file.Err)
			continue
		}
		fmt.Printf("  %s: %d rows\n", file.Path, file.Rows)
	}
	if len(result.Records) == 0 {
		return errors.New("no records to merge")
	}

	name := mergeOutput
	if name == "" {
		name = "merged_dataset_" + time.Now().Format(store.TimestampLayout)
	}
	path, err := (&store.Artifacts{Store: &store.CSVStore{Dir: mergeDir}}).Save(result.Records, name)
	if err != nil {
		return err
	}

	fmt.Println("")
	fmt.Printf("Original:   %d rows\n", result.Original)
	fmt.Printf("Duplicates: %d rows\n", result.Duplicates())
	fmt.Printf("Merged:     %d rows\n", len(result.Records))
	fmt.Printf("Saved:      %s\n", path)
	return nil
}

func mergeInputs(args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if mergePattern != "" {
		return dataset.Match(mergeDir, mergePattern)
	}
	files, err := dataset.FindCSV(mergeDir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(files))
	for _, file := range files {
		paths = append(paths, file.Path)
	}
	return paths, nil
}
