package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mur-run/flowspec/internal/document"
	"github.com/mur-run/flowspec/internal/parser"
	"github.com/mur-run/flowspec/internal/validator"
)

var lintCmd = &cobra.Command{
	Use:   "lint [file...]",
	Short: "Check documents against the flowspec.v1 JSON Schema",
	Long: `Lint runs validation plus a JSON Schema conformance check that also
covers fields the validator does not look at:

  - Step roles outside human, human_ai, ai, automation, system
  - Transition conditions that are not lowercase identifiers
  - Non-numeric or negative timeoutMs and maxAttempts
  - Transitions to missing steps

Schema findings are warnings. Without arguments every document in the
flows directory is linted.

Examples:
  flowspec lint
  flowspec lint release.flow.yaml --errors-only`,
	RunE: runLint,
}

var lintErrorsOnly bool

func init() {
	rootCmd.AddCommand(lintCmd)
	lintCmd.Flags().BoolVar(&lintErrorsOnly, "errors-only", false, "Show only errors, hide warnings")
}

type lintSummary struct {
	checked  int
	clean    int
	errors   int
	warnings int
}

func runLint(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, err := validationOptions()
	if err != nil {
		return err
	}
	opts.Schema = true

	files := args
	if len(files) == 0 {
		files, err = allDocuments(ctx)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		fmt.Println("No workflow documents found")
		return nil
	}

	fmt.Printf("\n🔍 Linting %d documents...\n\n", len(files))

	var sum lintSummary
	for _, f := range files {
		issues, err := lintOne(ctx, f, opts)
		sum.checked++
		if err != nil {
			fmt.Printf("📄 %s\n   ❌ %v\n\n", f, err)
			sum.errors++
			continue
		}
		if lintErrorsOnly {
			issues = validator.Blocking(issues)
		}
		if len(issues) == 0 {
			sum.clean++
			continue
		}
		sum.errors += len(validator.Blocking(issues))
		sum.warnings += len(validator.Warnings(issues))
		printIssues(f, issues)
	}

	fmt.Println("─────────────────────────────────────")
	fmt.Printf("📊 Summary: %d documents checked\n", sum.checked)
	fmt.Printf("   ✅ Clean: %d\n", sum.clean)
	if sum.errors > 0 {
		fmt.Printf("   ❌ Errors: %d\n", sum.errors)
	}
	if sum.warnings > 0 {
		fmt.Printf("   ⚠️  Warnings: %d\n", sum.warnings)
	}

	switch {
	case sum.errors > 0:
		exitWithError("Found errors that should be fixed")
	case sum.warnings > 0:
		fmt.Println("\n⚠️  Found warnings - consider reviewing")
	default:
		fmt.Println("\n✅ All documents are clean!")
	}
	return nil
}

// lintOne returns every finding, blocking or not. Only unparseable text is
// an error.
func lintOne(ctx context.Context, file string, opts document.Options) ([]validator.ValidationError, error) {
	text, err := readDocument(ctx, file)
	if err != nil {
		return nil, err
	}
	node, err := parser.ParseText(text)
	if err != nil {
		return nil, &document.StructureError{Err: err}
	}
	return validator.Validate(node, opts), nil
}
