package progress

import (
	"encoding/json"
	"sort"
	"time"
)

// Sanitize converts a raw, possibly malformed progress payload into a
// well-formed Record. It never rejects input:
//
//   - entries without an id are dropped
//   - duplicate ids at the same level collapse last-seen-wins, keeping
//     the first occurrence's position so repeated sanitizing is stable
//   - non-array children default to empty
//   - legacy top-level trail-shaped keys (a migration artifact where a
//     trail was written beside the trails array instead of inside it)
//     are absorbed into the trails list
//
// A nil or undecodable payload yields nil, which callers treat as "no
// existing progress".
func Sanitize(raw []byte) *Record {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return sanitizeMap(m)
}

// recordFields are the keys that belong to the record itself; anything
// else at the top level is a candidate legacy trail artifact.
var recordFields = map[string]bool{
	"totalPoints":               true,
	"consecutiveCorrect":        true,
	"highestConsecutiveCorrect": true,
	"trails":                    true,
	"currentPhaseId":            true,
	"currentQuestionIndex":      true,
	"lastSyncTimestamp":         true,
}

func sanitizeMap(m map[string]any) *Record {
	rec := &Record{
		TotalPoints:               asNonNegInt(m["totalPoints"]),
		ConsecutiveCorrect:        asNonNegInt(m["consecutiveCorrect"]),
		HighestConsecutiveCorrect: asNonNegInt(m["highestConsecutiveCorrect"]),
		CurrentPhaseID:            asString(m["currentPhaseId"]),
		CurrentQuestionIndex:      asNonNegInt(m["currentQuestionIndex"]),
	}
	if ts := asString(m["lastSyncTimestamp"]); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			rec.LastSync = t
		}
	}

	var trails []TrailProgress
	for _, item := range asArray(m["trails"]) {
		if t, ok := sanitizeTrail(item); ok {
			trails = append(trails, t)
		}
	}

	// Absorb stray top-level trail-shaped values. An old client wrote
	// each trail under its own key next to the trails array; those
	// entries carry a phases child and usually an id. When the id is
	// missing the map key stands in for it.
	for _, key := range mapKeysSorted(m) {
		if recordFields[key] {
			continue
		}
		tm, ok := m[key].(map[string]any)
		if !ok {
			continue
		}
		if _, hasPhases := tm["phases"]; !hasPhases {
			continue
		}
		if asString(tm["id"]) == "" {
			tm["id"] = key
		}
		if t, tok := sanitizeTrail(tm); tok {
			trails = append(trails, t)
		}
	}

	rec.Trails = dedupTrails(trails)
	return rec
}

func sanitizeTrail(v any) (TrailProgress, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return TrailProgress{}, false
	}
	id := asString(m["id"])
	if id == "" {
		return TrailProgress{}, false
	}
	t := TrailProgress{ID: id}
	var phases []PhaseProgress
	for _, item := range asArray(m["phases"]) {
		if p, pok := sanitizePhase(item); pok {
			phases = append(phases, p)
		}
	}
	t.Phases = dedupPhases(phases)
	return t, true
}

func sanitizePhase(v any) (PhaseProgress, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return PhaseProgress{}, false
	}
	id := asString(m["id"])
	if id == "" {
		return PhaseProgress{}, false
	}
	p := PhaseProgress{
		ID:        id,
		Started:   asBool(m["started"]),
		Completed: asBool(m["completed"]),
		TimeSpent: asNonNegInt(m["timeSpent"]),
	}
	var qs []QuestionProgress
	for _, item := range asArray(m["questionsProgress"]) {
		if q, qok := sanitizeQuestion(item); qok {
			qs = append(qs, q)
		}
	}
	p.Questions = dedupQuestions(qs)
	return p, true
}

func sanitizeQuestion(v any) (QuestionProgress, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return QuestionProgress{}, false
	}
	id := asString(m["id"])
	if id == "" {
		return QuestionProgress{}, false
	}
	return QuestionProgress{
		ID:       id,
		Answered: asBool(m["answered"]),
		Correct:  asBool(m["correct"]),
	}, true
}

// dedupTrails collapses duplicate ids last-seen-wins while keeping the
// position of the first occurrence, so the result is stable across
// repeated passes.
func dedupTrails(in []TrailProgress) []TrailProgress {
	pos := make(map[string]int, len(in))
	var out []TrailProgress
	for _, t := range in {
		if i, ok := pos[t.ID]; ok {
			out[i] = t
			continue
		}
		pos[t.ID] = len(out)
		out = append(out, t)
	}
	return out
}

func dedupPhases(in []PhaseProgress) []PhaseProgress {
	pos := make(map[string]int, len(in))
	var out []PhaseProgress
	for _, p := range in {
		if i, ok := pos[p.ID]; ok {
			out[i] = p
			continue
		}
		pos[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

func dedupQuestions(in []QuestionProgress) []QuestionProgress {
	pos := make(map[string]int, len(in))
	var out []QuestionProgress
	for _, q := range in {
		if i, ok := pos[q.ID]; ok {
			out[i] = q
			continue
		}
		pos[q.ID] = len(out)
		out = append(out, q)
	}
	return out
}

// mapKeysSorted returns the map's keys in sorted order. Legacy trail
// absorption iterates in this order so repeated sanitizing is
// deterministic regardless of map iteration order.
func mapKeysSorted(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asNonNegInt(v any) int {
	f, ok := v.(float64)
	if !ok || f < 0 {
		return 0
	}
	return int(f)
}

func asArray(v any) []any {
	a, _ := v.([]any)
	return a
}
