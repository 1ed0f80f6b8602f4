package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goosewin/qagen/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change qagen settings",
	Long: `Show or change qagen settings.

Settings are layered: built-in defaults, config/default.yaml,
~/.config/qagen/config.yaml, then .qagen.yaml in the working directory.
QAGEN_<SECTION>_<KEY> environment variables override all of them.
"config set" writes the global file.`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Save a setting to the global config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List effective settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigList,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every setting qagen reads",
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	key := strings.TrimSpace(args[0])
	if _, known := config.LookupSetting(key); !known {
		return fmt.Errorf("%w: %s (see qagen config keys)", config.ErrUnknownKey, key)
	}
	value, ok := config.GetConfig(key)
	if !ok {
		return fmt.Errorf("%s is not set", key)
	}

	fmt.Fprintln(cmd.OutOrStdout(), config.DisplayValue(key, value))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.TrimSpace(args[0])
	if key == "" {
		return errors.New("config key is required")
	}

	if err := config.SetConfig(key, args[1]); err != nil {
		if errors.Is(err, config.ErrUnknownKey) {
			return fmt.Errorf("%w (see qagen config keys)", err)
		}
		return err
	}

	typed, _ := config.ParseValue(key, args[1])
	fmt.Fprintf(cmd.OutOrStdout(), "%s=%v\n", key, typed)
	return nil
}

func runConfigList(cmd *cobra.Command, args []string) error {
	if err := loadConfigForCwd(); err != nil {
		return err
	}

	items, err := config.ListConfig()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	for _, key := range keys {
		value, ok := config.GetConfig(key)
		if !ok {
			value = items[key]
		}
		line := fmt.Sprintf("%s=%s", key, config.DisplayValue(key, value))
		if _, known := config.LookupSetting(key); !known {
			line += "  (unused)"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runConfigKeys(cmd *cobra.Command, args []string) error {
	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "KEY\tTYPE\tDEFAULT\tDESCRIPTION")
	for _, setting := range config.Settings() {
		def := ""
		if setting.Default != nil {
			def = fmt.Sprint(setting.Default)
		}
		usage := setting.Usage
		if len(setting.Choices) > 0 {
			usage += " (" + strings.Join(setting.Choices, "|") + ")"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\n", setting.Key, setting.Kind, def, usage)
	}
	return writer.Flush()
}

func loadConfigForCwd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve current directory: %w", err)
	}
	_, err = config.LoadConfig(cwd)
	return err
}
