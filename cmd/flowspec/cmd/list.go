package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mur-run/flowspec/internal/store"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List workflow documents in the flows directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		files, err := st.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list workflows: %w", err)
		}
		index, err := st.Index()
		if err != nil {
			return err
		}
		byName := make(map[string]store.IndexEntry, len(index))
		for _, e := range index {
			byName[e.Name] = e
		}

		if listJSON {
			data, err := json.MarshalIndent(files, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to serialize output: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(files) == 0 {
			fmt.Println("No workflows found.")
			fmt.Println("\nCreate one with: flowspec new <domain>.<name>.v1")
			return nil
		}

		fmt.Println("Workflows")
		fmt.Println("=========")
		fmt.Println()
		for _, f := range files {
			e, ok := byName[f.Name]
			if !ok {
				fmt.Printf("  %-32s  %s\n", f.Name, f.ModTime.Format("2006-01-02 15:04"))
				continue
			}
			fmt.Printf("  %-32s  %-28s  %2d steps  rev %-3d  %s\n",
				f.Name, e.FlowID, e.Steps, e.Revisions, f.ModTime.Format("2006-01-02 15:04"))
		}
		fmt.Printf("\nTotal: %d workflows\n", len(files))
		return nil
	},
}

var listJSON bool

var revisionsCmd = &cobra.Command{
	Use:   "revisions <file> [number]",
	Short: "List saved revisions of a document, or print one",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, name, err := resolveDoc(args[0])
		if err != nil {
			return err
		}
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid revision number %q", args[1])
			}
			text, err := st.ReadRevision(name, n)
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		}

		revs, err := st.Revisions(name)
		if err != nil {
			return err
		}
		if len(revs) == 0 {
			fmt.Printf("No revisions saved for %s\n", name)
			return nil
		}
		fmt.Printf("Revisions of %s\n\n", name)
		for _, r := range revs {
			fmt.Printf("  #%-4d %s\n", r.Number, r.SavedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(revisionsCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
