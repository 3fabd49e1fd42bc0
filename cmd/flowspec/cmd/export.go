package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mur-run/flowspec/internal/document"
	"github.com/mur-run/flowspec/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Render a document as a Markdown runbook",
	Long: `Export renders a workflow as Markdown: header, parameters, one section
per step with instructions and acceptance checks, and a mermaid diagram of
the transitions.

Examples:
  flowspec export release.flow.yaml
  flowspec export release.flow.yaml -o docs/release.md`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := validationOptions()
		if err != nil {
			return err
		}
		text, err := readDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		flow, _, err := document.Load(text, opts)
		if err != nil {
			return err
		}

		if exportOut == "" {
			fmt.Print(export.Markdown(flow))
			return nil
		}
		if err := export.WriteMarkdown(flow, exportOut); err != nil {
			return err
		}
		fmt.Printf("✓ Exported to %s\n", exportOut)
		return nil
	},
}

var exportOut string

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Write to file instead of stdout")
}
