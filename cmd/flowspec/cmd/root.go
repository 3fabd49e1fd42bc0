package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mur-run/flowspec/internal/config"
	"github.com/mur-run/flowspec/internal/document"
	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/logging"
)

// Version is the CLI version.
var Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "flowspec",
	Short: "Edit and validate flowspec.v1 workflow documents",
	Long: `flowspec works with flowspec.v1 workflow documents: YAML files that
describe a workflow as ordered steps joined by labelled transitions.

Features:
  • Validate documents with path-addressed errors and warnings
  • Edit steps and transitions without breaking the graph
  • Undo/redo in an interactive editing session
  • Keep revision snapshots and an edit journal

Documents live in a flows directory as *.flow.yaml files.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if flagVerbose {
			cfg.Log.Level = "debug"
		}
		logging.Setup(cfg.Log.Level)
		appConfig = cfg
		return nil
	},
}

var (
	flagVerbose bool
	flagDir     string
	flagStrict  bool
	flagStepIDs string

	appConfig = config.Default()
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate("flowspec version {{.Version}}\n")

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&flagDir, "dir", "d", "", "flows directory (default: flows_dir from config)")
	rootCmd.PersistentFlags().BoolVar(&flagStrict, "strict", false, "treat warnings as errors")
	rootCmd.PersistentFlags().StringVar(&flagStepIDs, "step-ids", "", "step id pattern: strict or lenient (default: from config)")
}

// validationOptions merges config and flags.
func validationOptions() (document.Options, error) {
	opts := document.Options{
		Strict:  appConfig.Editor.Strict || flagStrict,
		StepIDs: appConfig.Editor.StepIDMode(),
		Schema:  appConfig.Editor.IsSchemaLint(),
	}
	if flagStepIDs != "" {
		mode, err := flowspec.ParseStepIDMode(flagStepIDs)
		if err != nil {
			return opts, err
		}
		opts.StepIDs = mode
	}
	return opts, nil
}

// flowsDir returns the directory commands read documents from.
func flowsDir() (string, error) {
	dir := flagDir
	if dir == "" {
		dir = appConfig.FlowsDir
	}
	return config.ExpandPath(dir)
}

func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
	os.Exit(1)
}
