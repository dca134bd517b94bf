package catalog

import (
	"fmt"
	"strings"
)

// validateTrails performs all structural checks on a loaded catalog.
// Returns a combined error describing all problems found, or nil if valid.
func validateTrails(trails []Trail) error {
	var errs []string

	trailIDs := make(map[string]bool, len(trails))
	phaseIDs := make(map[string]bool)
	questionIDs := make(map[string]bool)

	for _, t := range trails {
		if trailIDs[t.ID] {
			errs = append(errs, fmt.Sprintf("duplicate trail ID: %q", t.ID))
		}
		trailIDs[t.ID] = true

		for _, p := range t.Phases {
			if phaseIDs[p.ID] {
				errs = append(errs, fmt.Sprintf("duplicate phase ID: %q", p.ID))
			}
			phaseIDs[p.ID] = true

			for _, st := range p.Stages {
				for _, q := range st.Questions {
					if questionIDs[q.ID] {
						errs = append(errs, fmt.Sprintf("duplicate question ID: %q", q.ID))
					}
					questionIDs[q.ID] = true

					if err := validateQuestion(q); err != nil {
						errs = append(errs, fmt.Sprintf("question %q: %v", q.ID, err))
					}
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid catalog:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

// validateQuestion checks the type-specific correctness data.
func validateQuestion(q Question) error {
	switch q.Type {
	case TypeBoolean:
		return nil

	case TypeChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("choice question needs at least 2 options, got %d", len(q.Options))
		}
		if len(q.Correct) == 0 {
			return fmt.Errorf("choice question has no correct options")
		}
		seen := make(map[int]bool, len(q.Correct))
		for _, idx := range q.Correct {
			if idx < 0 || idx >= len(q.Options) {
				return fmt.Errorf("correct index %d out of range [0,%d)", idx, len(q.Options))
			}
			if seen[idx] {
				return fmt.Errorf("correct index %d listed twice", idx)
			}
			seen[idx] = true
		}
		return nil

	case TypeOrdering:
		if len(q.Items) < 2 {
			return fmt.Errorf("ordering question needs at least 2 items, got %d", len(q.Items))
		}
		return nil

	case TypeMatching:
		if len(q.Pairs) < 2 {
			return fmt.Errorf("matching question needs at least 2 pairs, got %d", len(q.Pairs))
		}
		lefts := make(map[string]bool, len(q.Pairs))
		for _, p := range q.Pairs {
			if lefts[p.Left] {
				return fmt.Errorf("left entry %q listed twice", p.Left)
			}
			lefts[p.Left] = true
		}
		return nil
	}
	return fmt.Errorf("unknown question type %q", q.Type)
}
