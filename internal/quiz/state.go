// Package quiz runs one phase's question loop: a first pass through
// every question in catalog order, then a review pass that re-presents
// the initially-wrong ones until each is answered correctly.
package quiz

import "github.com/nikhilv/trailz/internal/catalog"

// State is the session state machine's current state.
type State int

const (
	StateLoading          State = iota // question list not yet resolved
	StatePresenting                    // first-pass question on screen
	StateFeedback                      // showing correct/incorrect feedback
	StateTransitioning                 // feedback acknowledged, delay before next question
	StateReviewPresenting              // review-pass question on screen
	StateComplete                      // all questions answered correctly
)

// String returns the state name for diagnostics.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePresenting:
		return "presenting"
	case StateFeedback:
		return "feedback"
	case StateTransitioning:
		return "transitioning"
	case StateReviewPresenting:
		return "review-presenting"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// EventSink receives the events a session emits. The progress tracker
// implements this; tests use a recording fake.
type EventSink interface {
	// QuestionAnswered fires on every individual answer, first pass
	// and review pass alike, so partial progress persists even when a
	// session is abandoned mid-phase.
	QuestionAnswered(questionID string, correct bool)

	// PhaseCompleted fires exactly once, when the session reaches
	// Complete. wrongCount is the number of distinct questions that
	// were ever wrong, not re-counted per retry.
	PhaseCompleted(phaseID string, timeSpent, wrongCount int)
}

// Session tracks one phase run. All transitions are synchronous,
// driven by discrete host events (answers, ticks, advance requests);
// there is no internal concurrency.
type Session struct {
	PhaseID   string
	Questions []catalog.Question

	state State

	// index is the first-pass position, 0..N-1.
	index int

	// wrongIndices records first-pass misses in presentation order.
	// Each index appears at most once.
	wrongIndices []int

	// retriedCorrect marks wrongIndices members answered correctly
	// during review. The review pass terminates when every member of
	// wrongIndices is present here.
	retriedCorrect map[int]bool

	// reviewPos is the position within wrongIndices currently being
	// re-presented.
	reviewPos int

	// elapsed counts seconds from phase start; frozen at Complete.
	elapsed int

	// lastCorrect records the outcome shown during Feedback.
	lastCorrect bool

	// inReview distinguishes which pass Feedback/Transitioning belong to.
	inReview bool

	// done is set when the terminal answer lands; the elapsed counter
	// freezes immediately even though the host still walks through
	// Feedback before reaching Complete.
	done bool

	abandoned bool

	sink EventSink
}
