package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikhilv/trailz/internal/catalog"
	"github.com/nikhilv/trailz/internal/store"
	"github.com/nikhilv/trailz/internal/tracker"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile stored progress against the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("create")
		prune, _ := cmd.Flags().GetBool("prune-completed")

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		provider := catalog.NewCachedProvider(cfg.CatalogPath)
		trk := tracker.New(cfg.LearnerID, st.ProgressRepo(), provider, nil)
		defer trk.Close()

		rec, err := trk.SyncProgress(ctx, force, !prune)
		if err != nil {
			return fmt.Errorf("sync progress: %w", err)
		}
		if rec == nil {
			fmt.Println("No stored progress and nothing to create (use --create).")
			return nil
		}

		questions := 0
		correct := 0
		completed := 0
		phases := 0
		for _, t := range rec.Trails {
			for _, p := range t.Phases {
				phases++
				if p.Completed {
					completed++
				}
				for _, q := range p.Questions {
					questions++
					if q.Answered && q.Correct {
						correct++
					}
				}
			}
		}
		fmt.Printf("Synced %d trails, %d phases (%d complete), %d/%d questions correct.\n",
			len(rec.Trails), phases, completed, correct, questions)
		fmt.Printf("Points: %d  Streak: %d (best %d)\n",
			rec.TotalPoints, rec.ConsecutiveCorrect, rec.HighestConsecutiveCorrect)
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("create", false, "Create a fresh record when none is stored")
	syncCmd.Flags().Bool("prune-completed", false, "Also prune completed entries no longer in the catalog")
}
