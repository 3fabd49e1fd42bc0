package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mur-run/flowspec/internal/document"
	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/history"
	"github.com/mur-run/flowspec/internal/mutation"
	"github.com/mur-run/flowspec/internal/templates"
)

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Add, change and remove steps",
	Long: `Edit the steps of a workflow document. Every change is validated and
saved as a new revision.

Commands:
  flowspec step list <file>                        List steps and transitions
  flowspec step add <file> <id>                    Add a step from a template
  flowspec step update <file> <id> [flags]         Change step fields
  flowspec step duplicate <file> <id> <new-id>     Copy a step
  flowspec step remove <file> <id>                 Remove a step and its inbound edges`,
}

var stepListCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List steps and transitions",
	Args:  cobra.ExactArgs(1),
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

		fmt.Printf("Workflow: %s\n", flow.Title)
		fmt.Printf("ID:       %s\n", flow.ID)
		fmt.Printf("Owner:    %s\n", flow.Owner)
		if flow.Policy != nil {
			fmt.Printf("Policy:   %s\n", flow.Policy.Enforcement)
		}
		fmt.Printf("\nSteps:\n")
		for i, s := range flow.Steps {
			title := ""
			if s.Title != "" {
				title = "  " + s.Title
			}
			fmt.Printf("  %d. %-20s [%s]%s\n", i+1, s.ID, s.Role, title)
			for _, e := range s.Next {
				fmt.Printf("       └─ %s → %s\n", e.When, e.To)
			}
		}
		fmt.Printf("\nTotal: %d steps\n", len(flow.Steps))
		return nil
	},
}

var (
	stepTemplate string
	stepPosition int
	stepTitle    string
)

var stepAddCmd = &cobra.Command{
	Use:   "add <file> <step-id>",
	Short: "Add a step from a template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := templates.ParseKind(stepTemplate)
		if err != nil {
			return err
		}
		s := templates.NewStep(kind, args[1])
		if stepTitle != "" {
			s.Title = stepTitle
		}
		var pos *int
		if cmd.Flags().Changed("position") {
			pos = &stepPosition
		}
		return editDocument(cmd.Context(), args[0], history.ActionAddStep, history.Details{StepID: args[1]},
			func(f *flowspec.Flow) (*flowspec.Flow, error) {
				return mutation.AddStep(f, s, pos)
			})
	},
}

var stepRemoveCmd = &cobra.Command{
	Use:   "remove <file> <step-id>",
	Short: "Remove a step and every edge pointing at it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editDocument(cmd.Context(), args[0], history.ActionRemoveStep, history.Details{StepID: args[1]},
			func(f *flowspec.Flow) (*flowspec.Flow, error) {
				return mutation.RemoveStep(f, args[1])
			})
	},
}

var stepDuplicateCmd = &cobra.Command{
	Use:   "duplicate <file> <step-id> <new-id>",
	Short: "Copy a step under a new id",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editDocument(cmd.Context(), args[0], history.ActionDuplicateStep, history.Details{StepID: args[1]},
			func(f *flowspec.Flow) (*flowspec.Flow, error) {
				return mutation.DuplicateStep(f, args[1], args[2])
			})
	},
}

var (
	updTitle        string
	updDesc         string
	updRole         string
	updWhen         string
	updInstructions []string
	updChecks       []string
	updTimeoutMs    int64
	updMaxAttempts  int
)

var stepUpdateCmd = &cobra.Command{
	Use:   "update <file> <step-id>",
	Short: "Change step fields",
	Long: `Change the fields of a step. Only flags that are given are applied;
--instruction and --check replace the whole list.

Examples:
  flowspec step update release.flow.yaml review --title "Peer review" --role human
  flowspec step update release.flow.yaml review --instruction "Read the diff" --instruction "Approve or reject"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, fields := stepPatchFromFlags(cmd)
		if len(fields) == 0 {
			return fmt.Errorf("nothing to update: pass at least one field flag")
		}
		d := history.Details{StepID: args[1], Field: strings.Join(fields, ", ")}
		return editDocument(cmd.Context(), args[0], history.ActionUpdateStep, d,
			func(f *flowspec.Flow) (*flowspec.Flow, error) {
				return mutation.UpdateStep(f, args[1], patch)
			})
	},
}

// stepPatchFromFlags builds a patch from the flags that were set and names
// the fields it touches.
func stepPatchFromFlags(cmd *cobra.Command) (mutation.StepPatch, []string) {
	var p mutation.StepPatch
	var fields []string
	changed := cmd.Flags().Changed

	if changed("title") {
		p.Title = &updTitle
		fields = append(fields, "title")
	}
	if changed("desc") {
		p.Desc = &updDesc
		fields = append(fields, "desc")
	}
	if changed("role") {
		p.Role = &updRole
		fields = append(fields, "role")
	}
	if changed("when") {
		p.When = &updWhen
		fields = append(fields, "when")
	}
	if changed("instruction") {
		ins := flowspec.Strings(updInstructions)
		p.Instructions = &ins
		fields = append(fields, "instructions")
	}
	if changed("check") {
		a := &flowspec.Acceptance{Checks: flowspec.Checks{}}
		for _, c := range updChecks {
			a.Checks = append(a.Checks, flowspec.Check{Description: c})
		}
		p.Acceptance = a
		fields = append(fields, "acceptance")
	}
	if changed("timeout-ms") {
		p.TimeoutMs = &updTimeoutMs
		fields = append(fields, "timeoutMs")
	}
	if changed("max-attempts") {
		p.MaxAttempts = &updMaxAttempts
		fields = append(fields, "maxAttempts")
	}
	return p, fields
}

func init() {
	rootCmd.AddCommand(stepCmd)
	stepCmd.AddCommand(stepListCmd)
	stepCmd.AddCommand(stepAddCmd)
	stepCmd.AddCommand(stepRemoveCmd)
	stepCmd.AddCommand(stepDuplicateCmd)
	stepCmd.AddCommand(stepUpdateCmd)

	stepAddCmd.Flags().StringVarP(&stepTemplate, "template", "t", "blank", "Step template: blank, human_review, ai_analysis, system_check")
	stepAddCmd.Flags().IntVarP(&stepPosition, "position", "p", 0, "Insert position (default: append)")
	stepAddCmd.Flags().StringVar(&stepTitle, "title", "", "Step title (default: from template)")

	f := stepUpdateCmd.Flags()
	f.StringVar(&updTitle, "title", "", "Step title")
	f.StringVar(&updDesc, "desc", "", "Step description")
	f.StringVar(&updRole, "role", "", "Step role: human, human_ai, ai, automation, system")
	f.StringVar(&updWhen, "when", "", "Step entry condition")
	f.StringArrayVar(&updInstructions, "instruction", nil, "Instruction (repeatable, replaces the list)")
	f.StringArrayVar(&updChecks, "check", nil, "Acceptance check description (repeatable, replaces the list)")
	f.Int64Var(&updTimeoutMs, "timeout-ms", 0, "Step timeout in milliseconds")
	f.IntVar(&updMaxAttempts, "max-attempts", 0, "Maximum attempts")
}
