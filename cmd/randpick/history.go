package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/randpick/pkg/exporter"
	"github.com/cuemby/randpick/pkg/log"
	"github.com/cuemby/randpick/pkg/types"
)

// History commands
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect past draws",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List past draws, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		mode, _ := cmd.Flags().GetString("mode")
		search, _ := cmd.Flags().GetString("search")
		since, _ := cmd.Flags().GetString("since")

		entries, err := filteredEntries(mode, search, since)
		if err != nil {
			return err
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}

		if len(entries) == 0 {
			fmt.Println("No history")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tMODE\tNAME\tID\tNOTE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.Time.Format(types.TimeLayout), e.Mode, e.Subject.Name, e.Subject.ID, e.Note)
		}
		return w.Flush()
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how often each student was drawn",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats := app.History.Stats()

		fmt.Printf("Total draws: %d\n", stats.Total)
		for _, m := range []types.Mode{types.ModePerson, types.ModeWeighted, types.ModeGroup, types.ModeOther} {
			if n := stats.ByMode[m]; n > 0 {
				fmt.Printf("  %-9s %d\n", m, n)
			}
		}
		if len(stats.People) == 0 {
			return nil
		}

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tID\tDRAWS")
		for _, p := range stats.People {
			fmt.Fprintf(w, "%s\t%s\t%d\n", p.Name, p.ID, p.Count)
		}
		return w.Flush()
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every history entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Picker.ClearHistory(); err != nil {
			return err
		}
		log.Info("History cleared from the command line")
		fmt.Println("✓ History cleared")
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export the history as CSV, XLSX or JSON",
	Long: `Export the history. The format follows the file extension:
.csv, .xlsx or .json. The filters of "history list" apply.

Examples:
  randpick history export results.xlsx
  randpick history export today.csv --since "2024-06-03 00:00:00"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, _ := cmd.Flags().GetString("mode")
		search, _ := cmd.Flags().GetString("search")
		since, _ := cmd.Flags().GetString("since")

		entries, err := filteredEntries(mode, search, since)
		if err != nil {
			return err
		}

		students := app.Roster.Students()
		names := make([]string, len(students))
		for i, s := range students {
			names[i] = s.Name
		}

		if err := exporter.WriteFile(args[0], entries, names); err != nil {
			return err
		}
		fmt.Printf("✓ Exported %d entries to %s\n", len(entries), args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)

	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd} {
		c.Flags().String("mode", "", "Only entries of this mode (person, weighted, group, other)")
		c.Flags().String("search", "", "Only entries whose name, id or note contains this text")
		c.Flags().String("since", "", "Only entries at or after this time (YYYY-MM-DD HH:MM:SS)")
	}
	historyListCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show (0 for all)")
}

// filteredEntries applies the list filters in turn
func filteredEntries(mode, search, since string) ([]types.HistoryEntry, error) {
	var from time.Time
	if since != "" {
		t, err := time.ParseInLocation(types.TimeLayout, since, time.Local)
		if err != nil {
			return nil, fmt.Errorf("invalid --since %q, expected %s", since, types.TimeLayout)
		}
		from = t
	}

	var want types.Mode
	if mode != "" {
		want = types.ParseMode(mode)
	}

	entries := app.History.Search(search)
	kept := entries[:0]
	for _, e := range entries {
		if want != "" && e.Mode != want {
			continue
		}
		if e.Time.Before(from) {
			continue
		}
		kept = append(kept, e)
	}
	return kept, nil
}
