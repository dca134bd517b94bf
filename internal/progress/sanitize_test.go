package progress

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_EmptyAndGarbage(t *testing.T) {
	if got := Sanitize(nil); got != nil {
		t.Errorf("Sanitize(nil) = %+v, want nil", got)
	}
	if got := Sanitize([]byte("not json")); got != nil {
		t.Errorf("Sanitize(garbage) = %+v, want nil", got)
	}
	if got := Sanitize([]byte(`[1,2,3]`)); got != nil {
		t.Errorf("Sanitize(array) = %+v, want nil", got)
	}
}

func TestSanitize_WellFormedRoundTrip(t *testing.T) {
	raw := []byte(`{
		"totalPoints": 250,
		"consecutiveCorrect": 2,
		"highestConsecutiveCorrect": 8,
		"currentPhaseId": "p1",
		"currentQuestionIndex": 3,
		"lastSyncTimestamp": "2026-08-30T10:00:00Z",
		"trails": [{
			"id": "t1",
			"phases": [{
				"id": "p1",
				"started": true,
				"completed": false,
				"timeSpent": 90,
				"questionsProgress": [
					{"id": "q1", "answered": true, "correct": true},
					{"id": "q2", "answered": false, "correct": false}
				]
			}]
		}]
	}`)

	rec := Sanitize(raw)
	require.NotNil(t, rec)
	assert.Equal(t, 250, rec.TotalPoints)
	assert.Equal(t, 2, rec.ConsecutiveCorrect)
	assert.Equal(t, 8, rec.HighestConsecutiveCorrect)
	assert.Equal(t, "p1", rec.CurrentPhaseID)
	assert.Equal(t, 3, rec.CurrentQuestionIndex)
	assert.False(t, rec.LastSync.IsZero())
	require.Len(t, rec.Trails, 1)
	require.Len(t, rec.Trails[0].Phases, 1)
	ph := rec.Trails[0].Phases[0]
	assert.True(t, ph.Started)
	assert.Equal(t, 90, ph.TimeSpent)
	require.Len(t, ph.Questions, 2)
}

func TestSanitize_DropsIDLessEntries(t *testing.T) {
	raw := []byte(`{"trails": [
		{"phases": []},
		{"id": "t1", "phases": [
			{"questionsProgress": []},
			{"id": "p1", "questionsProgress": [
				{"answered": true},
				{"id": "q1", "answered": true, "correct": true}
			]}
		]}
	]}`)

	rec := Sanitize(raw)
	require.NotNil(t, rec)
	require.Len(t, rec.Trails, 1)
	require.Len(t, rec.Trails[0].Phases, 1)
	require.Len(t, rec.Trails[0].Phases[0].Questions, 1)
	assert.Equal(t, "q1", rec.Trails[0].Phases[0].Questions[0].ID)
}

func TestSanitize_DuplicateIDsLastSeenWins(t *testing.T) {
	raw := []byte(`{"trails": [{
		"id": "t1",
		"phases": [
			{"id": "p1", "timeSpent": 10},
			{"id": "p2", "timeSpent": 20},
			{"id": "p1", "timeSpent": 30, "completed": true}
		]
	}]}`)

	rec := Sanitize(raw)
	require.NotNil(t, rec)
	phases := rec.Trails[0].Phases
	require.Len(t, phases, 2)
	// last occurrence's data, first occurrence's position
	assert.Equal(t, "p1", phases[0].ID)
	assert.Equal(t, 30, phases[0].TimeSpent)
	assert.True(t, phases[0].Completed)
	assert.Equal(t, "p2", phases[1].ID)
}

func TestSanitize_NonArrayChildrenBecomeEmpty(t *testing.T) {
	raw := []byte(`{"trails": [{
		"id": "t1",
		"phases": [{"id": "p1", "questionsProgress": "oops"}]
	}]}`)

	rec := Sanitize(raw)
	require.NotNil(t, rec)
	require.Len(t, rec.Trails, 1)
	require.Len(t, rec.Trails[0].Phases, 1)
	assert.Empty(t, rec.Trails[0].Phases[0].Questions)

	raw = []byte(`{"trails": {"id": "t1"}}`)
	rec = Sanitize(raw)
	require.NotNil(t, rec)
	assert.Empty(t, rec.Trails)
}

func TestSanitize_AbsorbsLegacyTopLevelTrail(t *testing.T) {
	raw := []byte(`{
		"trails": [{"id": "t1", "phases": []}],
		"fractions-trail": {
			"phases": [{"id": "p9", "completed": true}]
		},
		"withId": {"id": "t2", "phases": []},
		"notATrail": {"something": "else"},
		"scalar": 5
	}`)

	rec := Sanitize(raw)
	require.NotNil(t, rec)
	require.Len(t, rec.Trails, 3)

	legacy := rec.FindTrail("fractions-trail")
	require.NotNil(t, legacy, "id-less legacy entry takes its map key as id")
	require.Len(t, legacy.Phases, 1)
	assert.True(t, legacy.Phases[0].Completed)

	assert.NotNil(t, rec.FindTrail("t2"))
	assert.Nil(t, rec.FindTrail("notATrail"))
}

func TestSanitize_LegacyDuplicateMergesIntoTrailsEntry(t *testing.T) {
	raw := []byte(`{
		"trails": [{"id": "t1", "phases": [{"id": "old"}]}],
		"t1": {"phases": [{"id": "new"}]}
	}`)

	rec := Sanitize(raw)
	require.NotNil(t, rec)
	require.Len(t, rec.Trails, 1)
	require.Len(t, rec.Trails[0].Phases, 1)
	assert.Equal(t, "new", rec.Trails[0].Phases[0].ID)
}

// Sanitizing its own output must be a fixed point.
func TestSanitize_Stable(t *testing.T) {
	raw := []byte(`{
		"totalPoints": 10,
		"trails": [
			{"id": "t1", "phases": [{"id": "p1"}, {"id": "p1", "started": true}]},
			{"id": "t1", "phases": []}
		],
		"legacy": {"phases": [{"id": "lp"}]}
	}`)

	first := Sanitize(raw)
	require.NotNil(t, first)
	enc, err := json.Marshal(first)
	require.NoError(t, err)
	second := Sanitize(enc)
	require.NotNil(t, second)
	assert.Equal(t, first.Trails, second.Trails)
	assert.Equal(t, first.TotalPoints, second.TotalPoints)
}

func TestSanitize_NegativeNumbersClampToZero(t *testing.T) {
	raw := []byte(`{"totalPoints": -5, "currentQuestionIndex": -1}`)
	rec := Sanitize(raw)
	require.NotNil(t, rec)
	assert.Zero(t, rec.TotalPoints)
	assert.Zero(t, rec.CurrentQuestionIndex)
}
