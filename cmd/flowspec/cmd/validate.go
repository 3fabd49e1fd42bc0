package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mur-run/flowspec/internal/document"
	"github.com/mur-run/flowspec/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Validate workflow documents",
	Long: `Validate checks documents against the flowspec.v1 rules:

  - Required fields (schema, id, title, owner, policy, steps)
  - ID, owner and enforcement formats
  - Step fields and step id uniqueness
  - Transition targets and conditions

Without arguments every *.flow.yaml in the flows directory is checked.

Examples:
  flowspec validate
  flowspec validate onboarding.flow.yaml
  flowspec validate --strict --json ./flows/release.flow.yaml`,
	RunE: runValidate,
}

var validateJSON bool

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
}

// validateResult is the JSON form of one document's outcome.
type validateResult struct {
	File   string                      `json:"file"`
	Valid  bool                        `json:"valid"`
	Error  string                      `json:"error,omitempty"`
	Issues []validator.ValidationError `json:"issues"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, err := validationOptions()
	if err != nil {
		return err
	}

	files := args
	if len(files) == 0 {
		files, err = allDocuments(ctx)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No workflow documents found")
			return nil
		}
	}

	results := make([]validateResult, 0, len(files))
	for _, f := range files {
		results = append(results, validateOne(ctx, f, opts))
	}

	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}

	if validateJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize output: %w", err)
		}
		fmt.Println(string(data))
	} else {
		for _, r := range results {
			switch {
			case r.Error != "" && len(r.Issues) == 0:
				fmt.Printf("❌ %s: %s\n", r.File, r.Error)
			case len(r.Issues) == 0:
				fmt.Printf("✅ %s: valid\n", r.File)
			default:
				printIssues(r.File, r.Issues)
			}
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d documents failed validation", invalid, len(results))
	}
	return nil
}

func validateOne(ctx context.Context, file string, opts document.Options) validateResult {
	res := validateResult{File: file, Issues: []validator.ValidationError{}}

	text, err := readDocument(ctx, file)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	_, warns, err := document.Load(text, opts)
	if err != nil {
		res.Error = err.Error()
		var verr *document.ValidationFailedError
		if errors.As(err, &verr) {
			res.Issues = verr.Errors
		}
		return res
	}
	res.Valid = true
	res.Issues = append(res.Issues, warns...)
	return res
}

// readDocument reads arg as a path, falling back to the flows directory.
func readDocument(ctx context.Context, arg string) (string, error) {
	data, err := os.ReadFile(arg)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}
	st, name, err := resolveDoc(arg)
	if err != nil {
		return "", err
	}
	return st.Read(ctx, name)
}

// allDocuments lists every document path in the flows directory.
func allDocuments(ctx context.Context) ([]string, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	files, err := st.List(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	return paths, nil
}
