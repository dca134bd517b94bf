package tracker

// Scoring policy constants. The shape of the formula (base minus a
// time deduction and a wrong-answer deduction, floored) is the
// contract; the numbers are tuning.
const (
	// BasePhasePoints is awarded for a flawless, instant phase.
	BasePhasePoints = 100

	// TimePenaltyDivisor deducts one point per this many seconds spent.
	TimePenaltyDivisor = 10

	// WrongAnswerPenalty deducts per distinct question ever wrong.
	WrongAnswerPenalty = 10

	// MinPhasePoints is the floor: finishing always pays something.
	MinPhasePoints = 10
)

// PhaseScore computes the points for a completed phase from exactly
// the two completion-event inputs: elapsed seconds and the count of
// distinct questions answered wrong on the first pass.
func PhaseScore(timeSpentSecs, wrongCount int) int {
	pts := BasePhasePoints - timeSpentSecs/TimePenaltyDivisor - wrongCount*WrongAnswerPenalty
	if pts < MinPhasePoints {
		return MinPhasePoints
	}
	return pts
}
