package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mur-run/flowspec/internal/document"
	"github.com/mur-run/flowspec/internal/graph"
)

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Show the step graph of a document",
	Long: `Graph prints the nodes and edges a visual editor would draw: explicit
transitions with their labels, plus implicit fall-through edges for steps
without any.

Examples:
  flowspec graph release.flow.yaml
  flowspec graph release.flow.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

var graphJSON bool

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().BoolVar(&graphJSON, "json", false, "Output nodes and edges as JSON")
}

func runGraph(cmd *cobra.Command, args []string) error {
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

	data := graph.Build(flow)
	if graphJSON {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize output: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("🔀 %s (%d nodes, %d edges)\n\n", flow.ID, len(data.Nodes), len(data.Edges))
	for _, n := range data.Nodes {
		token := ""
		if n.Data.HasToken {
			token = "  🔑"
		}
		fmt.Printf("  %-20s (%4d,%4d)  %d instructions, %d checks%s\n",
			n.ID, n.Position.X, n.Position.Y, n.Data.InstructionCount, n.Data.CheckCount, token)
	}
	fmt.Println()
	for _, e := range data.Edges {
		label := e.Label
		if e.Implicit {
			label = "(next)"
		}
		fmt.Printf("  %s ──%s──▶ %s\n", e.Source, label, e.Target)
	}
	if graph.FromFlow(flow).HasCycle() {
		fmt.Println("\n⚠️  The transitions contain a cycle")
	}
	return nil
}
