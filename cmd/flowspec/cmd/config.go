package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mur-run/flowspec/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage flowspec configuration",
	Long:  `View and edit flowspec configuration (~/.flowspec/config.yaml).`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPath()
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n", path)
		for _, key := range config.Keys {
			value, err := appConfig.Get(key)
			if err != nil {
				return err
			}
			fmt.Printf("%-28s %s\n", key, value)
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := appConfig.Get(args[0])
		if err != nil {
			return fmt.Errorf("%w. Supported: %s", err, strings.Join(config.Keys, ", "))
		}
		fmt.Println(value)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Examples:
  flowspec config set editor.default_owner team@example.com
  flowspec config set editor.step_ids lenient
  flowspec config set journal.enabled false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := appConfig.Set(key, value); err != nil {
			return err
		}
		if err := appConfig.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("✓ Set %s = %s\n", key, value)
		return nil
	},
}

var configMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade the config file to the current schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		changes, err := config.MigrateFile()
		if err != nil {
			return err
		}
		for _, c := range changes {
			fmt.Printf("  + %s (%s)\n", c.Field, c.Description)
		}
		fmt.Printf("✓ Config is at schema version %d\n", config.CurrentSchemaVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configMigrateCmd)
}
