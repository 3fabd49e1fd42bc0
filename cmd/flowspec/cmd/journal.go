package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the edit journal",
	Long: `The journal records every accepted edit made through flowspec:
which session made it, to which workflow, and whether the document was
valid afterwards.

Commands:
  flowspec journal list [flow-id]       Recent edits
  flowspec journal sessions             Editing sessions
  flowspec journal prune --days 90      Drop old entries`,
}

var journalLimit int

var journalListCmd = &cobra.Command{
	Use:   "list [flow-id]",
	Short: "Show recent edits",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		if j == nil {
			fmt.Println("Journal is disabled (journal.enabled: false)")
			return nil
		}
		defer j.Close()

		flowID := ""
		if len(args) == 1 {
			flowID = args[0]
		}
		entries, err := j.List(cmd.Context(), flowID, journalLimit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No edits recorded.")
			return nil
		}

		for _, e := range entries {
			status := "✓"
			if !e.Valid {
				status = "✗"
			}
			fmt.Printf("  %s  %s  %-24s  %s  %s\n",
				e.RecordedAt.Format("2006-01-02 15:04"), status, e.FlowID, shortID(e.SessionID), e.Description)
		}
		return nil
	},
}

var journalSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List editing sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := openJournal()
		if err != nil {
			return err
		}
		if j == nil {
			fmt.Println("Journal is disabled (journal.enabled: false)")
			return nil
		}
		defer j.Close()

		sessions, err := j.Sessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions recorded.")
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("  %s  %-24s  %3d edits  %s → %s\n",
				shortID(s.SessionID), s.FlowID, s.Edits,
				s.FirstAt.Format("2006-01-02 15:04"), s.LastAt.Format("15:04"))
		}
		fmt.Printf("\nTotal: %d sessions\n", len(sessions))
		return nil
	},
}

var journalDays int

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete journal entries older than --days",
	RunE: func(cmd *cobra.Command, args []string) error {
		if journalDays < 1 {
			return fmt.Errorf("--days must be at least 1")
		}
		j, err := openJournal()
		if err != nil {
			return err
		}
		if j == nil {
			fmt.Println("Journal is disabled (journal.enabled: false)")
			return nil
		}
		defer j.Close()

		n, err := j.Prune(cmd.Context(), time.Now().AddDate(0, 0, -journalDays))
		if err != nil {
			return err
		}
		fmt.Printf("✓ Removed %d entries older than %d days\n", n, journalDays)
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalSessionsCmd)
	journalCmd.AddCommand(journalPruneCmd)

	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "Maximum entries to show")
	journalPruneCmd.Flags().IntVar(&journalDays, "days", 90, "Keep entries from the last N days")
}
