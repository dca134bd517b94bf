package catalog

// QuestionType identifies one of the four supported question variants.
type QuestionType string

const (
	TypeBoolean  QuestionType = "boolean"  // true/false statement
	TypeChoice   QuestionType = "choice"   // multiple choice, single or multi correct
	TypeOrdering QuestionType = "ordering" // arrange items into the correct sequence
	TypeMatching QuestionType = "matching" // match left column entries to right column entries
)

// Trail is a top-level learning track in the content catalog.
// The catalog tree is immutable once loaded; it is shared read-only
// by every session.
type Trail struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Phases []Phase `json:"phases"`
}

// Phase is one playable unit inside a trail. A learner completes a
// phase by answering all of its questions correctly.
type Phase struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Stages []Stage `json:"stages"`
}

// Stage groups questions within a phase for presentation. Stage
// membership is a catalog-only concept: progress tracking is flat
// per-question and never records which stage a question came from.
type Stage struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// Pair is one left/right association in a matching question.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Question holds the prompt plus the type-specific correctness data.
// Only the fields for the question's Type are meaningful.
type Question struct {
	ID     string       `json:"id"`
	Type   QuestionType `json:"type"`
	Prompt string       `json:"prompt"`

	// Truth is the correct value for boolean questions.
	Truth bool `json:"answer,omitempty"`

	// Options and Correct drive choice questions. Correct holds the
	// indexes of all correct options; a single-correct question simply
	// has one entry.
	Options []string `json:"options,omitempty"`
	Correct []int    `json:"correct,omitempty"`

	// Items are listed in the correct order for ordering questions.
	// They are shuffled at presentation time by the host.
	Items []string `json:"items,omitempty"`

	// Pairs holds the correct associations for matching questions.
	Pairs []Pair `json:"pairs,omitempty"`
}

// FlatQuestions returns the phase's questions as one ordered sequence,
// stage boundaries flattened in catalog order.
func (p Phase) FlatQuestions() []Question {
	var qs []Question
	for _, st := range p.Stages {
		qs = append(qs, st.Questions...)
	}
	return qs
}

// QuestionCount returns the total number of questions across all stages.
func (p Phase) QuestionCount() int {
	n := 0
	for _, st := range p.Stages {
		n += len(st.Questions)
	}
	return n
}

// FindPhase locates a phase by id across all trails. The second return
// is the owning trail id. Returns nil, "" if not found.
func FindPhase(trails []Trail, phaseID string) (*Phase, string) {
	for ti := range trails {
		for pi := range trails[ti].Phases {
			if trails[ti].Phases[pi].ID == phaseID {
				return &trails[ti].Phases[pi], trails[ti].ID
			}
		}
	}
	return nil, ""
}

// FindQuestion locates a question by id across all trails.
func FindQuestion(trails []Trail, questionID string) *Question {
	q, _, _ := FindQuestionPath(trails, questionID)
	return q
}

// FindQuestionPath locates a question by id and returns it along with
// the owning trail and phase ids. Returns nil, "", "" if not found.
func FindQuestionPath(trails []Trail, questionID string) (*Question, string, string) {
	for ti := range trails {
		for pi := range trails[ti].Phases {
			ph := &trails[ti].Phases[pi]
			for si := range ph.Stages {
				st := &ph.Stages[si]
				for qi := range st.Questions {
					if st.Questions[qi].ID == questionID {
						return &st.Questions[qi], trails[ti].ID, ph.ID
					}
				}
			}
		}
	}
	return nil, "", ""
}
