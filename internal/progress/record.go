// Package progress holds the learner's progress record and the merge
// engine that reconciles it against the content catalog.
package progress

import "time"

// Record is the root progress document, one per learner. It mirrors the
// catalog's identity structure (trails, phases, questions) plus the
// learner-authored answer and completion state.
type Record struct {
	TotalPoints               int             `json:"totalPoints"`
	ConsecutiveCorrect        int             `json:"consecutiveCorrect"`
	HighestConsecutiveCorrect int             `json:"highestConsecutiveCorrect"`
	Trails                    []TrailProgress `json:"trails"`

	// CurrentPhaseID and CurrentQuestionIndex track where an
	// abandoned session left off, so the host can offer a resume.
	CurrentPhaseID       string `json:"currentPhaseId,omitempty"`
	CurrentQuestionIndex int    `json:"currentQuestionIndex,omitempty"`

	LastSync time.Time `json:"lastSyncTimestamp"`
}

// TrailProgress mirrors one catalog trail.
type TrailProgress struct {
	ID     string          `json:"id"`
	Phases []PhaseProgress `json:"phases"`
}

// PhaseProgress mirrors one catalog phase. Questions are flat across
// stages: stage grouping is a catalog-only concept.
type PhaseProgress struct {
	ID        string             `json:"id"`
	Started   bool               `json:"started"`
	Completed bool               `json:"completed"`
	TimeSpent int                `json:"timeSpent"`
	Questions []QuestionProgress `json:"questionsProgress"`
}

// QuestionProgress records the learner's standing on one question.
type QuestionProgress struct {
	ID       string `json:"id"`
	Answered bool   `json:"answered"`
	Correct  bool   `json:"correct"`
}

// NewRecord returns an empty record with no trails.
func NewRecord() *Record {
	return &Record{}
}

// FindTrail returns the trail entry with the given id, or nil.
func (r *Record) FindTrail(id string) *TrailProgress {
	for i := range r.Trails {
		if r.Trails[i].ID == id {
			return &r.Trails[i]
		}
	}
	return nil
}

// FindPhase returns the phase entry with the given id across all
// trails, or nil.
func (r *Record) FindPhase(id string) *PhaseProgress {
	for i := range r.Trails {
		for j := range r.Trails[i].Phases {
			if r.Trails[i].Phases[j].ID == id {
				return &r.Trails[i].Phases[j]
			}
		}
	}
	return nil
}

// FindQuestion returns the question entry with the given id across all
// trails and phases, along with its owning phase. Returns nil, nil if
// not tracked.
func (r *Record) FindQuestion(id string) (*QuestionProgress, *PhaseProgress) {
	for i := range r.Trails {
		for j := range r.Trails[i].Phases {
			ph := &r.Trails[i].Phases[j]
			for k := range ph.Questions {
				if ph.Questions[k].ID == id {
					return &ph.Questions[k], ph
				}
			}
		}
	}
	return nil, nil
}

// FindQuestionInPhase returns the question entry inside one phase, or nil.
func (p *PhaseProgress) FindQuestionInPhase(id string) *QuestionProgress {
	for i := range p.Questions {
		if p.Questions[i].ID == id {
			return &p.Questions[i]
		}
	}
	return nil
}

// CompletionPercent returns how much of the phase is answered correctly,
// 0..100. An empty question list reports 0.
func (p *PhaseProgress) CompletionPercent() int {
	if len(p.Questions) == 0 {
		return 0
	}
	done := 0
	for _, q := range p.Questions {
		if q.Answered && q.Correct {
			done++
		}
	}
	return done * 100 / len(p.Questions)
}

// Protected reports whether a question entry must survive pruning: it
// represents earned completion.
func (q QuestionProgress) Protected() bool {
	return q.Answered && q.Correct
}

// Protected reports whether a phase entry must survive pruning.
func (p PhaseProgress) Protected() bool {
	return p.Completed
}

// Protected reports whether a trail entry must survive pruning: any of
// its phases carries earned completion.
func (t TrailProgress) Protected() bool {
	for _, p := range t.Phases {
		if p.Protected() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Trails = make([]TrailProgress, len(r.Trails))
	for i, t := range r.Trails {
		ct := t
		ct.Phases = make([]PhaseProgress, len(t.Phases))
		for j, p := range t.Phases {
			cp := p
			cp.Questions = append([]QuestionProgress(nil), p.Questions...)
			ct.Phases[j] = cp
		}
		out.Trails[i] = ct
	}
	return &out
}
