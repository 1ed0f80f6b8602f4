package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/backend"
	"github.com/goosewin/qagen/internal/config"
	"github.com/goosewin/qagen/internal/dataset"
)

const (
	checkPrompt  = "Xin chào! Bạn có khỏe không?"
	checkTimeout = 60 * time.Second
)

var checkFlags generationFlags

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify backend credentials with a short prompt",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func init() {
	checkFlags.register(checkCmd)
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := loadEnvironment(); err != nil {
		return err
	}

	backendName := stringSetting(cmd, "backend", checkFlags.backend, "defaults.backend", backend.DefaultName())
	fmt.Printf("Checking backend %s...\n", backendName)
	if envName := config.KeyEnvFor(backendName); envName != "" {
		creds, err := config.LoadCredentials()
		if err != nil {
			return err
		}
		key := creds.KeyFor(backendName)
		if key == "" {
			return fmt.Errorf("%s is not set (environment or .env)", envName)
		}
		fmt.Printf("Found %s: %s\n", envName, maskSecret(key))
	}

	gen, err := resolveGeneration(cmd, &checkFlags)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	reply, err := gen.backend.Generate(ctx, backend.Request{Prompt: checkPrompt, Model: gen.model})
	if err != nil {
		return fmt.Errorf("backend %s is not reachable: %w", backendName, err)
	}

	fmt.Println("Connection OK.")
	fmt.Printf("Reply: %s\n", dataset.Truncate(strings.TrimSpace(reply), 100))
	return nil
}

func maskSecret(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:6] + strings.Repeat("*", 6) + value[len(value)-2:]
}
