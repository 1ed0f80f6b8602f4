package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is overridden at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "qagen",
	Short:   "Elderly-care Q&A dataset generator",
	Long:    "qagen prompts a language model for Vietnamese elderly-care conversations and collects the INPUT/OUTPUT pairs into CSV datasets.",
	Version: Version,
	RunE:    runMenu,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
