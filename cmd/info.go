package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/backend"
	"github.com/goosewin/qagen/internal/config"
	"github.com/goosewin/qagen/internal/dataset"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show version, configuration and credential status",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	if err := loadEnvironment(); err != nil {
		return err
	}
	cwd, _ := os.Getwd()

	fmt.Printf("qagen:             %s (%s, %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Printf("Working directory: %s\n", cwd)

	paths := config.CurrentPaths()
	fmt.Println("")
	fmt.Println("Config files:")
	printConfigPath("default", paths.Default)
	printConfigPath("global", paths.Global)
	printConfigPath("project", paths.Project)

	outDir := config.GetString("output.dir", ".")
	fmt.Println("")
	fmt.Printf("Backend:    %s\n", config.GetString("defaults.backend", backend.DefaultName()))
	fmt.Printf("Output dir: %s\n", outDir)
	if bucket := config.GetString("s3.bucket", ""); bucket != "" {
		fmt.Printf("S3 mirror:  s3://%s/%s\n", bucket, config.GetString("s3.prefix", ""))
	}

	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}
	fmt.Println("")
	fmt.Println("Credentials:")
	for _, name := range backend.Names() {
		envName := config.KeyEnvFor(name)
		if envName == "" {
			continue
		}
		status := "not set"
		if key := creds.KeyFor(name); key != "" {
			status = maskSecret(key)
		}
		fmt.Printf("  %-12s %s: %s\n", name, envName, status)
	}

	files, err := dataset.FindCSV(outDir)
	if err == nil {
		var size int64
		for _, file := range files {
			size += file.Size
		}
		fmt.Println("")
		fmt.Printf("CSV files:  %d (%.1f KB)\n", len(files), float64(size)/1024)
	}
	return nil
}

func printConfigPath(label, path string) {
	if path == "" {
		path = "(none)"
	}
	fmt.Printf("  %-8s %s\n", label, path)
}
