package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/randpick/pkg/health"
	"github.com/cuemby/randpick/pkg/storage"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the data directory for problems",
	Long: `Check that every stored document parses and that the roster can
produce a draw. Exits non-zero when a check fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		hcfg := health.DefaultConfig()
		if timeout > 0 {
			hcfg.Timeout = timeout
		}

		// Document checks run first: loading a corrupt roster backs it up
		reports := health.Run(cmd.Context(), hcfg,
			health.NewJSONChecker(app.Backend, storage.RosterDocument),
			health.NewINIChecker(app.Backend, storage.ConfigDocument),
			health.NewJSONChecker(app.Backend, storage.HistoryDocument),
			health.NewRosterChecker(app.Roster),
		)

		for _, r := range reports {
			mark := "✓"
			if !r.Result.Healthy {
				mark = "✗"
			}
			fmt.Printf("%s %-18s %s\n", mark, r.Name, r.Result.Message)
		}

		if !health.Healthy(reports) {
			return fmt.Errorf("some checks failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().Duration("timeout", 0, "Per-check timeout (default 10s)")
}
