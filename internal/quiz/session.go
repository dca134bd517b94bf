package quiz

import "github.com/nikhilv/trailz/internal/catalog"

// New creates a session in the Loading state. Call Begin once the
// question list is final (for a catalog phase this is the flattened
// stage sequence).
func New(phaseID string, questions []catalog.Question, sink EventSink) *Session {
	return &Session{
		PhaseID:        phaseID,
		Questions:      questions,
		state:          StateLoading,
		retriedCorrect: make(map[int]bool),
		sink:           sink,
	}
}

// State returns the current machine state.
func (s *Session) State() State { return s.state }

// Elapsed returns the accumulated seconds, frozen once Complete.
func (s *Session) Elapsed() int { return s.elapsed }

// LastCorrect reports the outcome being shown during Feedback.
func (s *Session) LastCorrect() bool { return s.lastCorrect }

// WrongCount returns the number of distinct questions answered wrong
// on the first pass.
func (s *Session) WrongCount() int { return len(s.wrongIndices) }

// Begin leaves Loading. An empty question list means there is nothing
// to present: the session completes immediately without emitting a
// phase completion (the phase was never really run).
func (s *Session) Begin() {
	if s.state != StateLoading {
		return
	}
	if len(s.Questions) == 0 {
		s.state = StateComplete
		s.done = true
		return
	}
	s.state = StatePresenting
	s.index = 0
}

// Current returns the question on screen, or nil outside of a
// presenting state.
func (s *Session) Current() *catalog.Question {
	switch s.state {
	case StatePresenting, StateFeedback, StateTransitioning:
		if s.inReview {
			return s.reviewQuestion()
		}
		if s.index < len(s.Questions) {
			return &s.Questions[s.index]
		}
	case StateReviewPresenting:
		return s.reviewQuestion()
	}
	return nil
}

func (s *Session) reviewQuestion() *catalog.Question {
	if s.reviewPos < 0 || s.reviewPos >= len(s.wrongIndices) {
		return nil
	}
	idx := s.wrongIndices[s.reviewPos]
	if idx < 0 || idx >= len(s.Questions) {
		return nil
	}
	return &s.Questions[idx]
}

// Submit grades the learner's answer and moves to Feedback. Every
// submission emits a QuestionAnswered event regardless of pass. When
// the answer is the terminal one (last pending review item, or last
// first-pass question with a clean run) the elapsed counter freezes
// here, so timeSpent reflects the moment of the final correct answer
// rather than the feedback display afterwards.
func (s *Session) Submit(a catalog.Answer) bool {
	q := s.Current()
	if q == nil {
		return false
	}

	switch s.state {
	case StatePresenting:
		correct := catalog.CheckAnswer(q, a)
		s.lastCorrect = correct
		if !correct {
			s.noteWrong(s.index)
		}
		s.emitAnswered(q.ID, correct)
		if s.index == len(s.Questions)-1 && len(s.wrongIndices) == 0 {
			s.done = true
		}
		s.state = StateFeedback
		return correct

	case StateReviewPresenting:
		correct := catalog.CheckAnswer(q, a)
		s.lastCorrect = correct
		s.emitAnswered(q.ID, correct)
		if correct {
			s.retriedCorrect[s.wrongIndices[s.reviewPos]] = true
			if s.reviewDone() {
				s.done = true
			}
		}
		s.state = StateFeedback
		return correct
	}
	return false
}

// noteWrong appends the index to wrongIndices once, even if the same
// first-pass question is somehow re-answered.
func (s *Session) noteWrong(idx int) {
	for _, w := range s.wrongIndices {
		if w == idx {
			return
		}
	}
	s.wrongIndices = append(s.wrongIndices, idx)
}

func (s *Session) reviewDone() bool {
	for _, idx := range s.wrongIndices {
		if !s.retriedCorrect[idx] {
			return false
		}
	}
	return true
}

// AcknowledgeFeedback moves Feedback → Transitioning. The host runs
// its display delay between this call and Advance.
func (s *Session) AcknowledgeFeedback() {
	if s.state == StateFeedback {
		s.state = StateTransitioning
	}
}

// Advance leaves Transitioning for the next question, the review pass,
// or Complete. Reaching Complete emits the phase completion event with
// the frozen elapsed time and the distinct wrong count.
func (s *Session) Advance() {
	if s.state != StateTransitioning {
		return
	}

	if s.done {
		s.complete()
		return
	}

	if s.inReview {
		s.reviewPos = s.nextPending(s.reviewPos + 1)
		s.state = StateReviewPresenting
		return
	}

	if s.index < len(s.Questions)-1 {
		s.index++
		s.state = StatePresenting
		return
	}

	// First pass exhausted with misses outstanding: enter review.
	s.inReview = true
	s.reviewPos = s.nextPending(0)
	s.state = StateReviewPresenting
}

// nextPending finds the next wrongIndices position not yet retried
// correctly, scanning forward from `from` and wrapping. An incorrectly
// retried question stays pending and comes around again.
func (s *Session) nextPending(from int) int {
	n := len(s.wrongIndices)
	for i := 0; i < n; i++ {
		pos := (from + i) % n
		if !s.retriedCorrect[s.wrongIndices[pos]] {
			return pos
		}
	}
	return -1
}

func (s *Session) complete() {
	s.state = StateComplete
	if s.sink != nil && !s.abandoned {
		s.sink.PhaseCompleted(s.PhaseID, s.elapsed, len(s.wrongIndices))
	}
}

// Tick advances the 1 Hz elapsed counter. The counter runs from phase
// start independent of which question is on screen and stops exactly
// once, when the terminal answer lands.
func (s *Session) Tick() {
	if s.done || s.state == StateComplete || s.abandoned {
		return
	}
	s.elapsed++
}

// Abandon discards positional state for an explicit exit. The elapsed
// counter stops and no completion event will fire; answer events
// already emitted stand.
func (s *Session) Abandon() {
	if s.state == StateComplete {
		return
	}
	s.abandoned = true
	s.state = StateComplete
	s.done = true
}

// Abandoned reports whether the session ended by explicit exit rather
// than completion.
func (s *Session) Abandoned() bool { return s.abandoned }

// FirstPassIndex returns the current first-pass position, for hosts
// persisting a resume point.
func (s *Session) FirstPassIndex() int { return s.index }

func (s *Session) emitAnswered(questionID string, correct bool) {
	if s.sink != nil {
		s.sink.QuestionAnswered(questionID, correct)
	}
}
