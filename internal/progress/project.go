package progress

// MinimalProjection strips a record down to identity fields and the
// learner-authored scalars, dropping resume markers and anything else
// a damaged payload might carry. Used as the reduced retry payload
// when a full save fails on a structural or serialization error; the
// result still satisfies the protected-entry invariant because every
// entry and all four completion scalars survive the projection.
func MinimalProjection(r *Record) *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		TotalPoints:               r.TotalPoints,
		ConsecutiveCorrect:        r.ConsecutiveCorrect,
		HighestConsecutiveCorrect: r.HighestConsecutiveCorrect,
		LastSync:                  r.LastSync,
	}
	for _, t := range r.Trails {
		if t.ID == "" {
			continue
		}
		mt := TrailProgress{ID: t.ID}
		for _, p := range t.Phases {
			if p.ID == "" {
				continue
			}
			mp := PhaseProgress{
				ID:        p.ID,
				Started:   p.Started,
				Completed: p.Completed,
				TimeSpent: p.TimeSpent,
			}
			for _, q := range p.Questions {
				if q.ID == "" {
					continue
				}
				mp.Questions = append(mp.Questions, QuestionProgress{
					ID:       q.ID,
					Answered: q.Answered,
					Correct:  q.Correct,
				})
			}
			mt.Phases = append(mt.Phases, mp)
		}
		out.Trails = append(out.Trails, mt)
	}
	return out
}
