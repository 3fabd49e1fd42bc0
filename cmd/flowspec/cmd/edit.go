package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"github.com/mur-run/flowspec/internal/editor"
	"github.com/mur-run/flowspec/internal/flowspec"
	"github.com/mur-run/flowspec/internal/history"
	"github.com/mur-run/flowspec/internal/mutation"
	"github.com/mur-run/flowspec/internal/templates"
	"github.com/mur-run/flowspec/internal/validator"
)

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Edit a document interactively with undo/redo",
	Long: `Edit opens a document in an interactive session. Changes are kept in
memory with a bounded undo history and written only when you save.

Non-interactive edits: see 'flowspec step' and 'flowspec edge'.`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

const (
	actAddStep    = "Add step"
	actEditStep   = "Edit step"
	actDupStep    = "Duplicate step"
	actRemoveStep = "Remove step"
	actAddEdge    = "Add transition"
	actRemoveEdge = "Remove transition"
	actProblems   = "Show problems"
	actUndo       = "Undo"
	actRedo       = "Redo"
	actReset      = "Reset changes"
	actSave       = "Save"
	actQuit       = "Quit"
)

func runEdit(cmd *cobra.Command, args []string) error {
	if !isInteractive() {
		return errors.New("edit needs an interactive terminal; use 'flowspec step' or 'flowspec edge' instead")
	}
	ctx := cmd.Context()

	st, name, err := resolveDoc(args[0])
	if err != nil {
		return err
	}
	j, err := openJournal()
	if err != nil {
		return err
	}
	if j != nil {
		defer j.Close()
	}
	sess, err := newSession(j)
	if err != nil {
		return err
	}
	if err := sess.Open(ctx, st, name); err != nil {
		return err
	}
	sess.SetEditMode(true)

	for {
		printSessionHeader(sess)

		var action string
		prompt := &survey.Select{
			Message:  "Action:",
			Options:  []string{actAddStep, actEditStep, actDupStep, actRemoveStep, actAddEdge, actRemoveEdge, actProblems, actUndo, actRedo, actReset, actSave, actQuit},
			PageSize: 12,
		}
		if err := survey.AskOne(prompt, &action); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				action = actQuit
			} else {
				return err
			}
		}

		var actErr error
		switch action {
		case actAddStep:
			actErr = editAddStep(ctx, sess)
		case actEditStep:
			actErr = editUpdateStep(ctx, sess)
		case actDupStep:
			actErr = editDuplicateStep(ctx, sess)
		case actRemoveStep:
			actErr = editRemoveStep(ctx, sess)
		case actAddEdge:
			actErr = editAddEdge(ctx, sess)
		case actRemoveEdge:
			actErr = editRemoveEdge(ctx, sess)
		case actProblems:
			printIssues(name, sess.Errors())
		case actUndo:
			if !sess.Undo() {
				fmt.Println("Nothing to undo")
			}
		case actRedo:
			if !sess.Redo() {
				fmt.Println("Nothing to redo")
			}
		case actReset:
			actErr = sess.Reset(ctx)
		case actSave:
			rev, err := sess.Save(ctx, st, "")
			if err == nil {
				fmt.Printf("✓ Saved %s (revision %d)\n", name, rev)
			}
			actErr = err
		case actQuit:
			if sess.IsDirty() {
				discard := false
				if err := survey.AskOne(&survey.Confirm{Message: "Discard unsaved changes?"}, &discard); err != nil || !discard {
					continue
				}
			}
			sess.SetEditMode(false)
			return nil
		}

		if actErr != nil && !errors.Is(actErr, terminal.InterruptErr) {
			fmt.Printf("❌ %v\n", actErr)
		}
	}
}

func printSessionHeader(sess *editor.Session) {
	flow := sess.Flow()
	dirty := ""
	if sess.IsDirty() {
		dirty = " *"
	}
	status := "✅ valid"
	if !sess.IsValid() {
		status = fmt.Sprintf("❌ %d errors", len(validator.Blocking(sess.Errors())))
	} else if w := len(validator.Warnings(sess.Errors())); w > 0 {
		status = fmt.Sprintf("⚠️  %d warnings", w)
	}

	info := sess.History()
	fmt.Println()
	fmt.Printf("📝 %s%s  %s  [%d/%d]\n", flow.ID, dirty, status, info.Current, info.Total)
	for i, s := range flow.Steps {
		marker := "  "
		if sel, ok := sess.SelectedStep(); ok && sel.ID == s.ID {
			marker = "▸ "
		}
		fmt.Printf("  %s%d. %s [%s]\n", marker, i+1, s.ID, s.Role)
		for _, e := range s.Next {
			fmt.Printf("        └─ %s → %s\n", e.When, e.To)
		}
	}
	fmt.Println()
}

// askStep asks for one of the flow's steps and selects it.
func askStep(sess *editor.Session, message string) (string, error) {
	ids := sess.Flow().StepIDs()
	if len(ids) == 0 {
		return "", errors.New("workflow has no steps")
	}
	var id string
	if err := survey.AskOne(&survey.Select{Message: message, Options: ids}, &id); err != nil {
		return "", err
	}
	return id, sess.Select(id)
}

func editAddStep(ctx context.Context, sess *editor.Session) error {
	opts := templates.All()
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.Label
	}
	var choice int
	if err := survey.AskOne(&survey.Select{Message: "Template:", Options: labels}, &choice); err != nil {
		return err
	}
	kind := opts[choice].Kind
	prefix := kind.String()
	if kind == templates.Blank {
		prefix = "step"
	}

	id := templates.GenerateStepID(prefix, sess.Flow().StepIDs())
	if err := survey.AskOne(&survey.Input{Message: "Step id:", Default: id}, &id); err != nil {
		return err
	}
	step := templates.NewStep(kind, id)
	if err := sess.Apply(ctx, history.ActionAddStep, history.Details{StepID: id}, func(f *flowspec.Flow) (*flowspec.Flow, error) {
		return mutation.AddStep(f, step, nil)
	}); err != nil {
		return err
	}
	return sess.Select(id)
}

func editUpdateStep(ctx context.Context, sess *editor.Session) error {
	id, err := askStep(sess, "Step:")
	if err != nil {
		return err
	}
	step, _ := sess.SelectedStep()

	var field string
	if err := survey.AskOne(&survey.Select{
		Message: "Field:",
		Options: []string{"title", "desc", "role", "instructions", "acceptance"},
	}, &field); err != nil {
		return err
	}

	var patch mutation.StepPatch
	switch field {
	case "title":
		v := step.Title
		if err := survey.AskOne(&survey.Input{Message: "Title:", Default: v}, &v); err != nil {
			return err
		}
		patch.Title = &v
	case "desc":
		v := step.Desc
		if err := survey.AskOne(&survey.Input{Message: "Description:", Default: v}, &v); err != nil {
			return err
		}
		patch.Desc = &v
	case "role":
		v := step.Role
		if v == "" {
			v = flowspec.RoleHuman
		}
		if err := survey.AskOne(&survey.Select{Message: "Role:", Options: flowspec.Roles, Default: v}, &v); err != nil {
			return err
		}
		patch.Role = &v
	case "instructions":
		lines, err := askLines("Instructions (one per line):", step.Instructions)
		if err != nil {
			return err
		}
		ins := flowspec.Strings(lines)
		patch.Instructions = &ins
	case "acceptance":
		var current []string
		if step.Acceptance != nil {
			for _, c := range step.Acceptance.Checks {
				current = append(current, c.Description)
			}
		}
		lines, err := askLines("Acceptance checks (one per line):", current)
		if err != nil {
			return err
		}
		a := &flowspec.Acceptance{Checks: flowspec.Checks{}}
		for _, l := range lines {
			a.Checks = append(a.Checks, flowspec.Check{Description: l})
		}
		patch.Acceptance = a
	}

	return sess.Apply(ctx, history.ActionUpdateField, history.Details{StepID: id, Field: id + "." + field},
		func(f *flowspec.Flow) (*flowspec.Flow, error) {
			return mutation.UpdateStep(f, id, patch)
		})
}

func askLines(message string, current []string) ([]string, error) {
	text := strings.Join(current, "\n")
	if err := survey.AskOne(&survey.Multiline{Message: message, Default: text}, &text); err != nil {
		return nil, err
	}
	lines := []string{}
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func editDuplicateStep(ctx context.Context, sess *editor.Session) error {
	id, err := askStep(sess, "Duplicate which step?")
	if err != nil {
		return err
	}
	newID := templates.GenerateStepID(id+"_copy", sess.Flow().StepIDs())
	if err := survey.AskOne(&survey.Input{Message: "New step id:", Default: newID}, &newID); err != nil {
		return err
	}
	if err := sess.Apply(ctx, history.ActionDuplicateStep, history.Details{StepID: id}, func(f *flowspec.Flow) (*flowspec.Flow, error) {
		return mutation.DuplicateStep(f, id, newID)
	}); err != nil {
		return err
	}
	return sess.Select(newID)
}

func editRemoveStep(ctx context.Context, sess *editor.Session) error {
	id, err := askStep(sess, "Remove which step?")
	if err != nil {
		return err
	}
	ok := false
	if err := survey.AskOne(&survey.Confirm{Message: fmt.Sprintf("Remove %s and every transition into it?", id)}, &ok); err != nil || !ok {
		return err
	}
	return sess.Apply(ctx, history.ActionRemoveStep, history.Details{StepID: id}, func(f *flowspec.Flow) (*flowspec.Flow, error) {
		return mutation.RemoveStep(f, id)
	})
}

func editAddEdge(ctx context.Context, sess *editor.Session) error {
	from, err := askStep(sess, "From step:")
	if err != nil {
		return err
	}
	var to string
	if err := survey.AskOne(&survey.Select{Message: "To step:", Options: sess.Flow().StepIDs()}, &to); err != nil {
		return err
	}
	var when string
	if err := survey.AskOne(&survey.Input{Message: "Condition (e.g. approved):"}, &when, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	return sess.Apply(ctx, history.ActionAddEdge, history.Details{StepID: from, Condition: when}, func(f *flowspec.Flow) (*flowspec.Flow, error) {
		return mutation.AddEdge(f, from, to, when)
	})
}

func editRemoveEdge(ctx context.Context, sess *editor.Session) error {
	from, err := askStep(sess, "From step:")
	if err != nil {
		return err
	}
	step, _ := sess.SelectedStep()
	if len(step.Next) == 0 {
		return fmt.Errorf("step %q has no transitions", from)
	}
	labels := make([]string, len(step.Next))
	for i, e := range step.Next {
		labels[i] = fmt.Sprintf("%s → %s", e.When, e.To)
	}
	var index int
	if err := survey.AskOne(&survey.Select{Message: "Transition:", Options: labels}, &index); err != nil {
		return err
	}
	when := step.Next[index].When
	return sess.Apply(ctx, history.ActionRemoveEdge, history.Details{StepID: from, Condition: when}, func(f *flowspec.Flow) (*flowspec.Flow, error) {
		return mutation.RemoveEdge(f, from, index)
	})
}
