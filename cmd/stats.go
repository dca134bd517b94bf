package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikhilv/trailz/internal/progress"
	"github.com/nikhilv/trailz/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		raw, _, err := st.ProgressRepo().LoadRaw(ctx, cfg.LearnerID)
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}
		rec := progress.Sanitize(raw)
		if rec == nil {
			fmt.Println("No progress yet. Run `trailz play` to get going.")
			return nil
		}

		fmt.Printf("Points: %d\n", rec.TotalPoints)
		fmt.Printf("Streak: %d (best %d)\n", rec.ConsecutiveCorrect, rec.HighestConsecutiveCorrect)
		for _, t := range rec.Trails {
			done := 0
			for _, p := range t.Phases {
				if p.Completed {
					done++
				}
			}
			fmt.Printf("  %-24s %d/%d phases\n", t.ID, done, len(t.Phases))
		}

		events, err := st.EventRepo()
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		totals, err := events.Totals(ctx, cfg.LearnerID)
		if err != nil {
			return fmt.Errorf("event totals: %w", err)
		}
		if totals.AnswersTotal > 0 {
			fmt.Printf("Answers: %d (%d correct)  Time played: %ds\n",
				totals.AnswersTotal, totals.AnswersCorrect, totals.TimeSpentSecs)
		}
		return nil
	},
}
