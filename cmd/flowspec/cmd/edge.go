package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/history"
	"github.com/mur-run/flowspec/internal/mutation"
)

var edgeCmd = &cobra.Command{
	Use:   "edge",
	Short: "Add, change and remove transitions",
	Long: `Edit the labelled transitions (next edges) between steps. A transition
that would close a cycle through other steps is refused; a step may loop
back to itself.

Commands:
  flowspec edge add <file> <from> <to> <when>
  flowspec edge update <file> <from> <index> [--when c] [--to id]
  flowspec edge remove <file> <from> <index>`,
}

var edgeAddCmd = &cobra.Command{
	Use:   "add <file> <from> <to> <when>",
	Short: "Add a transition",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, to, when := args[1], args[2], args[3]
		return editDocument(cmd.Context(), args[0], history.ActionAddEdge, history.Details{StepID: from, Condition: when},
			func(f *flowspec.Flow) (*flowspec.Flow, error) {
				return mutation.AddEdge(f, from, to, when)
			})
	},
}

var (
	edgeWhen string
	edgeTo   string
)

var edgeUpdateCmd = &cobra.Command{
	Use:   "update <file> <from> <index>",
	Short: "Change a transition's condition or target",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from := args[1]
		index, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		return editDocument(cmd.Context(), args[0], history.ActionUpdateEdge, history.Details{StepID: from, Condition: edgeWhen},
			func(f *flowspec.Flow) (*flowspec.Flow, error) {
				when := edgeWhen
				if when == "" {
					if s, ok := f.Step(from); ok && index >= 0 && index < len(s.Next) {
						when = s.Next[index].When
					}
				}
				return mutation.UpdateEdge(f, from, index, when, edgeTo)
			})
	},
}

var edgeRemoveCmd = &cobra.Command{
	Use:   "remove <file> <from> <index>",
	Short: "Remove a transition",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		from := args[1]
		index, err := strconv.Atoi(args[2])
		if err != nil {
			return err
		}
		return editDocument(cmd.Context(), args[0], history.ActionRemoveEdge, history.Details{StepID: from, Condition: "#" + args[2]},
			func(f *flowspec.Flow) (*flowspec.Flow, error) {
				return mutation.RemoveEdge(f, from, index)
			})
	},
}

func init() {
	rootCmd.AddCommand(edgeCmd)
	edgeCmd.AddCommand(edgeAddCmd)
	edgeCmd.AddCommand(edgeUpdateCmd)
	edgeCmd.AddCommand(edgeRemoveCmd)

	edgeUpdateCmd.Flags().StringVar(&edgeWhen, "when", "", "New condition (default: keep)")
	edgeUpdateCmd.Flags().StringVar(&edgeTo, "to", "", "New target step (default: keep)")
}
