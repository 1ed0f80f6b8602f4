package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/backend"
	"github.com/goosewin/qagen/internal/config"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List available generation backends",
	RunE:  runBackends,
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}

func runBackends(cmd *cobra.Command, args []string) error {
	if err := loadEnvironment(); err != nil {
		return err
	}
	names := backend.Names()
	if len(names) == 0 {
		fmt.Println("No backends registered")
		return nil
	}
	creds, err := config.LoadCredentials()
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "NAME\tREADY\tMODELS")
	fmt.Fprintln(writer, "----\t-----\t------")

	configured := config.GetString("defaults.backend", backend.DefaultName())
	for _, name := range names {
		execPath := ""
		if name == configured {
			execPath = config.GetString("defaults.exec_path", "")
		}
		ready := "no"
		models := ""
		instance, err := backend.New(name, backend.Settings{
			APIKey:   creds.KeyFor(name),
			BaseURL:  creds.BaseURLFor(name),
			ExecPath: execPath,
		})
		if err == nil {
			if instance.CheckInstalled() == nil {
				ready = "yes"
			}
			if list := instance.GetModels(); len(list) > 0 {
				models = list[0]
				if len(list) > 1 {
					models = fmt.Sprintf("%s (+%d)", list[0], len(list)-1)
				}
			}
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", name, ready, models)
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Println("")
	fmt.Println("Usage: qagen marathon --backend <name>")
	return nil
}
