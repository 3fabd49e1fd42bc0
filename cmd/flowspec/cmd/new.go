package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mur-run/flowspec/internal/document"
	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/mutation"
	"github.com/mur-run/flowspec/internal/store"
	"github.com/mur-run/flowspec/internal/templates"
)

var newCmd = &cobra.Command{
	Use:   "new <flow-id>",
	Short: "Create a new workflow document",
	Long: `Create a new workflow document in the flows directory.

The id must look like <domain>.<name>.v<major>. The document starts with
one step built from a template; on a terminal you are asked to pick one.

Examples:
  flowspec new ops.release.v1 --title "Release" --owner ops@example.com
  flowspec new ops.triage.v1 --template ai_analysis`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

var (
	newTitle       string
	newOwner       string
	newEnforcement string
	newTemplate    string
)

func init() {
	rootCmd.AddCommand(newCmd)
	newCmd.Flags().StringVar(&newTitle, "title", "", "Workflow title")
	newCmd.Flags().StringVar(&newOwner, "owner", "", "Owner email (default: editor.default_owner)")
	newCmd.Flags().StringVar(&newEnforcement, "enforcement", "", "Policy enforcement: none, advice, guard, hard")
	newCmd.Flags().StringVar(&newTemplate, "template", "", "First step template: blank, human_review, ai_analysis, system_check")
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func runNew(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]
	interactive := isInteractive()

	owner := newOwner
	if owner == "" {
		owner = appConfig.Editor.DefaultOwner
	}
	enforcement := newEnforcement
	if enforcement == "" {
		enforcement = appConfig.Editor.DefaultEnforcement
	}

	title := newTitle
	if title == "" && interactive {
		if err := survey.AskOne(&survey.Input{Message: "Title:"}, &title, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}
	if owner == "" && interactive {
		if err := survey.AskOne(&survey.Input{Message: "Owner email:"}, &owner, survey.WithValidator(survey.Required)); err != nil {
			return err
		}
	}

	kind, err := pickTemplate(newTemplate, interactive)
	if err != nil {
		return err
	}

	flow, err := document.Create(id, title, owner, &flowspec.Policy{Enforcement: flowspec.Enforcement(enforcement)})
	if err != nil {
		return err
	}
	prefix := kind.String()
	if kind == templates.Blank {
		prefix = "step"
	}
	first := templates.NewStep(kind, templates.GenerateStepID(prefix, nil))
	flow, err = mutation.AddStep(flow, first, nil)
	if err != nil {
		return err
	}

	text, err := document.Save(flow)
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	name := store.FileName(id)
	if err := st.Create(ctx, name, text); err != nil {
		return err
	}

	fmt.Printf("✨ Created workflow: %s\n", id)
	fmt.Printf("   File: %s\n", name)
	fmt.Printf("   First step: %s (%s)\n", first.ID, kind)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Printf("  1. flowspec step add %s <step-id>\n", name)
	fmt.Printf("  2. flowspec edge add %s <from> <to> <when>\n", name)
	fmt.Printf("  3. flowspec validate %s\n", name)
	return nil
}

// pickTemplate resolves the template flag, asking on a terminal when it is
// empty.
func pickTemplate(value string, interactive bool) (templates.Kind, error) {
	if value != "" {
		return templates.ParseKind(value)
	}
	if !interactive {
		return templates.Blank, nil
	}

	opts := templates.All()
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.Label
	}
	var choice int
	prompt := &survey.Select{
		Message: "Start with which step template?",
		Options: labels,
		Description: func(_ string, i int) string {
			return opts[i].Description
		},
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return templates.Blank, err
	}
	return opts[choice].Kind, nil
}
