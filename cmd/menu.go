package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/topic"
)

type menuEntry struct {
	key   string
	label string
	run   func() error
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive menu",
	Args:  cobra.NoArgs,
	RunE:  runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

func menuEntries() []menuEntry {
	return []menuEntry{
		{"1", "Check backend connection", func() error { return runCheck(checkCmd, nil) }},
		{"2", "Generate demo dataset", menuDemo},
		{"3", "Generate dataset for one topic", menuTopic},
		{"4", "Marathon mode (until Ctrl+C)", func() error { return runMarathon(marathonCmd, nil) }},
		{"5", "Merge CSV files", menuMerge},
		{"6", "Analyze a dataset", menuAnalyze},
		{"7", "Clean output", func() error { return runClean(cleanCmd, nil) }},
		{"8", "System information", func() error { return runInfo(infoCmd, nil) }},
		{"9", "Generate fixed-size dataset", menuGenerate},
	}
}

func runMenu(cmd *cobra.Command, args []string) error {
	entries := menuEntries()
	byKey := make(map[string]menuEntry, len(entries))
	for _, entry := range entries {
		byKey[entry.key] = entry
	}

	fmt.Printf("qagen %s: elderly-care Q&A dataset generator\n", Version)
	for {
		fmt.Println("")
		for _, entry := range entries {
			fmt.Printf("%s. %s\n", entry.key, entry.label)
		}
		fmt.Println("0. Exit")

		choice, err := prompt(stdinReader, "\nChoose an option: ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice == "0" {
			return nil
		}
		entry, ok := byKey[choice]
		if !ok {
			fmt.Printf("Unknown option %q\n", choice)
			continue
		}
		if err := entry.run(); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

// askFlag prompts for a value and sets it on cmd so the run function treats
// it as explicitly given. An empty answer keeps the current value.
func askFlag(cmd *cobra.Command, flag, label string) error {
	current := cmd.Flags().Lookup(flag)
	if current == nil {
		return fmt.Errorf("unknown flag %s", flag)
	}
	answer, err := prompt(stdinReader, fmt.Sprintf("%s [%s]: ", label, current.Value.String()))
	if err != nil {
		return err
	}
	if answer == "" {
		return nil
	}
	return cmd.Flags().Set(flag, answer)
}

func menuDemo() error {
	if err := askFlag(demoCmd, "topic", "Topic ID"); err != nil {
		return err
	}
	if err := askFlag(demoCmd, "count", "Number of pairs"); err != nil {
		return err
	}
	return runDemo(demoCmd, nil)
}

func menuTopic() error {
	for _, t := range topic.Default() {
		fmt.Printf("%2d. %s\n", t.ID, t.Label)
	}
	answer, err := prompt(stdinReader, "Topic ID: ")
	if err != nil {
		return err
	}
	if _, err := strconv.Atoi(answer); err != nil {
		return fmt.Errorf("invalid topic number %q", answer)
	}
	if err := askFlag(topicCmd, "count", "Number of pairs"); err != nil {
		return err
	}
	return runTopic(topicCmd, []string{answer})
}

func menuMerge() error {
	fmt.Println("1. Merge all CSV files")
	fmt.Println("2. Merge files matching a pattern")
	choice, err := prompt(stdinReader, "Choose: ")
	if err != nil {
		return err
	}
	mergePattern = ""
	switch choice {
	case "1":
	case "2":
		pattern, err := prompt(stdinReader, "Pattern (e.g. topic_*.csv): ")
		if err != nil {
			return err
		}
		if strings.TrimSpace(pattern) == "" {
			return errors.New("pattern is required")
		}
		mergePattern = pattern
	default:
		return fmt.Errorf("unknown option %q", choice)
	}
	return runMerge(mergeCmd, nil)
}

func menuAnalyze() error {
	path, err := pickCSV(".", func(label string) (string, error) {
		return prompt(stdinReader, label)
	})
	if err != nil {
		return err
	}
	return runAnalyze(analyzeCmd, []string{path})
}

func menuGenerate() error {
	if err := askFlag(generateCmd, "total", "Number of records"); err != nil {
		return err
	}
	return runGenerate(generateCmd, nil)
}
