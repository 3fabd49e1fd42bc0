package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mur-run/flowspec/internal/config"
	"github.com/mur-run/flowspec/internal/editor"
	"github.com/mur-run/flowspec/internal/history"
	"github.com/mur-run/flowspec/internal/journal"
	"github.com/mur-run/flowspec/internal/logging"
	"github.com/mur-run/flowspec/internal/store"
	"github.com/mur-run/flowspec/internal/validator"
)

// openStore opens the store for the flows directory.
func openStore() (*store.Store, error) {
	dir, err := flowsDir()
	if err != nil {
		return nil, err
	}
	return store.Open(dir, logging.WithModule("store"))
}

// resolveDoc maps a document argument to a store and a file name. An
// existing path opens a store rooted at its directory; anything else is
// looked up in the flows directory. The extension may be omitted.
func resolveDoc(arg string) (*store.Store, string, error) {
	name := filepath.Base(arg)
	if !strings.HasSuffix(name, store.Extension) {
		name += store.Extension
	}
	dir := filepath.Dir(arg)
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil && dir == "." {
		st, err := openStore()
		return st, name, err
	}
	st, err := store.Open(dir, logging.WithModule("store"))
	return st, name, err
}

// openJournal returns nil when the journal is disabled.
func openJournal() (*journal.Store, error) {
	if !appConfig.Journal.IsEnabled() {
		return nil, nil
	}
	dir, err := config.ExpandPath(appConfig.Journal.Dir)
	if err != nil {
		return nil, err
	}
	return journal.NewStore(dir)
}

// newSession builds an editor session wired to config and the journal.
func newSession(j *journal.Store) (*editor.Session, error) {
	opts, err := validationOptions()
	if err != nil {
		return nil, err
	}
	sessOpts := []editor.Option{
		editor.WithValidation(opts),
		editor.WithHistorySize(appConfig.Editor.HistorySize),
		editor.WithLogger(logging.WithModule("editor")),
	}
	if j != nil {
		sessOpts = append(sessOpts, editor.WithRecorder(j))
	}
	return editor.New(sessOpts...), nil
}

// editDocument opens arg, applies one edit and saves the result.
func editDocument(ctx context.Context, arg string, action history.Action, d history.Details, fn editor.EditFunc) error {
	st, name, err := resolveDoc(arg)
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
	if err := sess.Apply(ctx, action, d, fn); err != nil {
		return err
	}
	rev, err := sess.Save(ctx, st, "")
	if err != nil {
		return err
	}

	fmt.Printf("✓ %s (%s, revision %d)\n", history.Describe(action, d), name, rev)
	printWarnings(validator.Warnings(sess.Errors()))
	return nil
}

// printIssues lists findings under a heading.
func printIssues(name string, errs []validator.ValidationError) {
	fmt.Printf("📄 %s\n", name)
	for _, e := range errs {
		icon := "⚠️"
		if e.Severity == validator.SeverityError {
			icon = "❌"
		}
		loc := ""
		if e.Line > 0 {
			loc = fmt.Sprintf(" (line %d)", e.Line)
		}
		fmt.Printf("   %s %s%s\n", icon, e.String(), loc)
	}
	fmt.Println()
}

func printWarnings(warns []validator.ValidationError) {
	for _, w := range warns {
		fmt.Printf("   ⚠️  %s\n", w.String())
	}
}
