package cmd

import (
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/nikhilv/trailz/internal/catalog"
	"github.com/nikhilv/trailz/internal/store"
	"github.com/nikhilv/trailz/internal/tracker"
	"github.com/nikhilv/trailz/internal/tui"
)

var playCmd = &cobra.Command{
	Use:   "play [phase-id]",
	Short: "Play a phase",
	Long:  "Play the named phase, or the first phase with unfinished questions when none is given.",
	Args:  cobra.MaximumNArgs(1),
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

		events, err := st.EventRepo()
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}

		provider := catalog.NewCachedProvider(cfg.CatalogPath)
		trk := tracker.New(cfg.LearnerID, st.ProgressRepo(), provider, events)
		defer trk.Close()

		rec, err := trk.SyncProgress(ctx, true, true)
		if err != nil {
			// A failed sync never blocks gameplay.
			fmt.Fprintln(os.Stderr, "sync progress:", err)
		}

		trails := trk.Trails()
		if len(trails) == 0 {
			return fmt.Errorf("no catalog available at %s", cfg.CatalogPath)
		}

		var phaseID string
		switch {
		case len(args) == 1:
			phaseID = args[0]
		case rec != nil && rec.CurrentPhaseID != "" && inCatalog(trails, rec.CurrentPhaseID):
			// Resume the phase that was in flight.
			phaseID = rec.CurrentPhaseID
		default:
			phaseID = firstOpenPhase(trails, trk)
		}
		phase, trailID := catalog.FindPhase(trails, phaseID)
		if phase == nil {
			return fmt.Errorf("phase %q not found in catalog", phaseID)
		}

		trailTitle := trailID
		for _, t := range trails {
			if t.ID == trailID && t.Title != "" {
				trailTitle = t.Title
			}
		}
		if err := trk.StartPhase(trailID, phase.ID); err != nil {
			return fmt.Errorf("start phase: %w", err)
		}

		p := tea.NewProgram(tui.New(trailTitle, *phase, trk))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run program: %w", err)
		}
		return nil
	},
}

func inCatalog(trails []catalog.Trail, phaseID string) bool {
	ph, _ := catalog.FindPhase(trails, phaseID)
	return ph != nil
}

// firstOpenPhase picks the first catalog phase that isn't fully
// answered yet, falling back to the very first phase.
func firstOpenPhase(trails []catalog.Trail, trk *tracker.Tracker) string {
	for _, t := range trails {
		for _, p := range t.Phases {
			if trk.GetPhaseCompletionPercentage(p.ID) < 100 {
				return p.ID
			}
		}
	}
	for _, t := range trails {
		if len(t.Phases) > 0 {
			return t.Phases[0].ID
		}
	}
	return ""
}
