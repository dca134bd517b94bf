package catalog

import (
	"sort"
	"strings"
)

// Answer carries the learner's response to a question. Only the field
// matching the question's type is read; the rest are ignored.
type Answer struct {
	// Bool is the response to a boolean question.
	Bool bool

	// Selected holds the chosen option indexes for a choice question.
	// Order does not matter.
	Selected []int

	// Order holds item indexes (into Question.Items) in the sequence
	// the learner arranged them.
	Order []int

	// Matches maps a left column entry to the chosen right column
	// entry for a matching question.
	Matches map[string]string
}

// CheckAnswer compares the learner's answer against the question's
// correctness data. Returns true if fully correct.
//
// Rules per type:
//   - boolean: exact match of the truth value
//   - choice: the selected set must equal the correct set exactly
//     (no partial credit for multi-correct questions)
//   - ordering: every position must hold the item that belongs there
//   - matching: every left entry must map to its paired right entry;
//     string comparison is case-insensitive and whitespace-trimmed
func CheckAnswer(q *Question, a Answer) bool {
	if q == nil {
		return false
	}
	switch q.Type {
	case TypeBoolean:
		return a.Bool == q.Truth
	case TypeChoice:
		return checkChoice(q, a.Selected)
	case TypeOrdering:
		return checkOrdering(q, a.Order)
	case TypeMatching:
		return checkMatching(q, a.Matches)
	}
	return false
}

func checkChoice(q *Question, selected []int) bool {
	if len(selected) != len(q.Correct) || len(q.Correct) == 0 {
		return false
	}
	want := append([]int(nil), q.Correct...)
	got := append([]int(nil), selected...)
	sort.Ints(want)
	sort.Ints(got)
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func checkOrdering(q *Question, order []int) bool {
	if len(order) != len(q.Items) || len(q.Items) == 0 {
		return false
	}
	// Items are stored in the correct order, so the identity
	// permutation is the only correct response.
	for i, idx := range order {
		if idx != i {
			return false
		}
	}
	return true
}

func checkMatching(q *Question, matches map[string]string) bool {
	if len(q.Pairs) == 0 || len(matches) != len(q.Pairs) {
		return false
	}
	for _, p := range q.Pairs {
		got, ok := lookupFold(matches, p.Left)
		if !ok || !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(p.Right)) {
			return false
		}
	}
	return true
}

// lookupFold finds a map entry by case-insensitive, trimmed key.
func lookupFold(m map[string]string, key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(strings.TrimSpace(k), strings.TrimSpace(key)) {
			return v, true
		}
	}
	return "", false
}
