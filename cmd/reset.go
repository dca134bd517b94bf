package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nikhilv/trailz/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the learner's stored progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Printf("This deletes all progress for learner %q. Re-run with --yes to confirm.\n", cfg.LearnerID)
			return nil
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		if err := st.ProgressRepo().Delete(cmd.Context(), cfg.LearnerID); err != nil {
			return err
		}
		fmt.Println("Progress reset.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Skip the confirmation")
}
