package tracker

import "testing"

func TestPhaseScore(t *testing.T) {
	tests := []struct {
		name       string
		timeSpent  int
		wrongCount int
		want       int
	}{
		{"flawless instant", 0, 0, 100},
		{"fast clean run", 30, 0, 97},
		{"one miss", 30, 1, 87},
		{"slow run", 300, 0, 70},
		{"partial seconds ignored", 19, 0, 99},
		{"floor on slow sloppy run", 600, 5, 10},
		{"floor on pathological input", 100000, 100, 10},
	}
	for _, tt := range tests {
		if got := PhaseScore(tt.timeSpent, tt.wrongCount); got != tt.want {
			t.Errorf("%s: PhaseScore(%d, %d) = %d, want %d",
				tt.name, tt.timeSpent, tt.wrongCount, got, tt.want)
		}
	}
}
