package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilv/trailz/internal/catalog"
	"github.com/nikhilv/trailz/internal/progress"
	"github.com/nikhilv/trailz/internal/store"
)

// fakeProgressStore is an in-memory ProgressStore. saveHook, when set,
// intercepts each Save call before the write lands.
type fakeProgressStore struct {
	mu       sync.Mutex
	raw      []byte
	version  int64
	loadErr  error
	saveHook func(version int64, rec *progress.Record) error

	saved    []*progress.Record
	versions []int64
}

func (f *fakeProgressStore) LoadRaw(ctx context.Context, learnerID string) ([]byte, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, 0, f.loadErr
	}
	return f.raw, f.version, nil
}

func (f *fakeProgressStore) Save(ctx context.Context, learnerID string, version int64, rec *progress.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveHook != nil {
		if err := f.saveHook(version, rec); err != nil {
			return err
		}
	}
	if version <= f.version {
		return store.ErrStaleWrite
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return &store.EncodeError{Err: err}
	}
	f.raw = raw
	f.version = version
	f.saved = append(f.saved, rec.Clone())
	f.versions = append(f.versions, version)
	return nil
}

func (f *fakeProgressStore) lastSaved() *progress.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return nil
	}
	return f.saved[len(f.saved)-1]
}

type fakeProvider struct {
	trails []catalog.Trail
	err    error
}

func (f *fakeProvider) Fetch(ctx context.Context) ([]catalog.Trail, error) {
	return f.trails, f.err
}

type fakeEventLog struct {
	mu      sync.Mutex
	answers []store.AnswerEventData
	phases  []store.PhaseEventData
}

func (f *fakeEventLog) AppendAnswer(ctx context.Context, data store.AnswerEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, data)
	return nil
}

func (f *fakeEventLog) AppendPhaseComplete(ctx context.Context, data store.PhaseEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.phases = append(f.phases, data)
	return nil
}

// waitFor polls cond until it holds or the deadline passes. Event
// appends run on their own goroutines, so assertions on them must wait.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func sampleTrails() []catalog.Trail {
	return []catalog.Trail{
		{
			ID:    "t1",
			Title: "Numbers",
			Phases: []catalog.Phase{
				{
					ID: "p1",
					Stages: []catalog.Stage{
						{ID: "s1", Questions: []catalog.Question{
							{ID: "q1", Type: catalog.TypeBoolean, Truth: true},
							{ID: "q2", Type: catalog.TypeBoolean, Truth: true},
						}},
					},
				},
			},
		},
	}
}

func newTestTracker(t *testing.T, st *fakeProgressStore, p catalog.Provider, ev EventLog) *Tracker {
	t.Helper()
	trk := New("alice", st, p, ev)
	t.Cleanup(func() { trk.Close() })
	return trk
}

func TestSyncProgressCreatesFreshRecord(t *testing.T) {
	st := &fakeProgressStore{}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, nil)

	rec, err := trk.SyncProgress(context.Background(), false, true)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Len(t, rec.Trails, 1)
	assert.Equal(t, "p1", rec.Trails[0].Phases[0].ID)
	assert.Len(t, rec.Trails[0].Phases[0].Questions, 2)

	// The reconciled record was persisted.
	require.NotNil(t, st.lastSaved())
	assert.Equal(t, []int64{1}, st.versions)
}

func TestSyncProgressNothingToDo(t *testing.T) {
	st := &fakeProgressStore{}
	provider := &fakeProvider{err: catalog.ErrUnavailable}
	trk := newTestTracker(t, st, provider, nil)

	rec, err := trk.SyncProgress(context.Background(), false, true)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, catalog.ErrUnavailable)

	// forceCreate builds an empty record anyway.
	rec, err = trk.SyncProgress(context.Background(), true, true)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Empty(t, rec.Trails)
}

func TestSyncProgressCatalogDownPreservesRecord(t *testing.T) {
	stored := &progress.Record{
		TotalPoints: 70,
		Trails: []progress.TrailProgress{
			{ID: "t1", Phases: []progress.PhaseProgress{{ID: "stale-phase", Started: true}}},
		},
	}
	raw, err := json.Marshal(stored)
	require.NoError(t, err)
	st := &fakeProgressStore{raw: raw, version: 3}
	trk := newTestTracker(t, st, &fakeProvider{err: catalog.ErrUnavailable}, nil)

	rec, err := trk.SyncProgress(context.Background(), false, true)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 70, rec.TotalPoints)
	require.NotNil(t, rec.FindPhase("stale-phase"), "unreachable catalog must not prune")

	// Seeded past the stored version.
	assert.Equal(t, []int64{4}, st.versions)
}

func TestSyncProgressStoreReadFailureDegrades(t *testing.T) {
	st := &fakeProgressStore{loadErr: errors.New("disk gone")}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, nil)

	rec, err := trk.SyncProgress(context.Background(), false, true)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Len(t, rec.Trails, 1)
}

func TestSyncProgressMalformedStoredPayload(t *testing.T) {
	st := &fakeProgressStore{raw: []byte(`{"trails": [{"phases": []}, {"id": "t1", "phases": [{"id": "p1",
		"questionsProgress": [{"id": "q1", "answered": true, "correct": true}]}]}]}`), version: 1}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, nil)

	rec, err := trk.SyncProgress(context.Background(), false, true)
	require.NoError(t, err)
	qp, _ := rec.FindQuestion("q1")
	require.NotNil(t, qp)
	assert.True(t, qp.Correct, "salvageable entries survive the sanitize pass")
}

func TestSaveFailureRetriesWithMinimalProjection(t *testing.T) {
	failFull := true
	st := &fakeProgressStore{}
	st.saveHook = func(version int64, rec *progress.Record) error {
		if failFull && rec.CurrentPhaseID != "" {
			return &store.EncodeError{Err: errors.New("bad payload")}
		}
		return nil
	}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, nil)

	_, err := trk.SyncProgress(context.Background(), true, true)
	require.NoError(t, err)

	require.NoError(t, trk.StartPhase("t1", "p1"))
	require.NoError(t, trk.Close())

	last := st.lastSaved()
	require.NotNil(t, last)
	assert.Empty(t, last.CurrentPhaseID, "fallback write carries the minimal projection")
	require.NotNil(t, last.FindPhase("p1"))
}

func TestSaveFailureSurfacedFromSync(t *testing.T) {
	st := &fakeProgressStore{}
	st.saveHook = func(version int64, rec *progress.Record) error {
		return errors.New("disk full")
	}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, nil)

	rec, err := trk.SyncProgress(context.Background(), true, true)
	require.Error(t, err)
	require.NotNil(t, rec, "record is still installed for gameplay")
	assert.NotNil(t, trk.Record())
}

func TestAnswerQuestionStreaks(t *testing.T) {
	st := &fakeProgressStore{}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, nil)
	_, err := trk.SyncProgress(context.Background(), true, true)
	require.NoError(t, err)

	trk.AnswerQuestion("q1", true)
	trk.AnswerQuestion("q2", true)
	rec := trk.Record()
	assert.Equal(t, 2, rec.ConsecutiveCorrect)
	assert.Equal(t, 2, rec.HighestConsecutiveCorrect)

	trk.AnswerQuestion("q1", false)
	rec = trk.Record()
	assert.Equal(t, 0, rec.ConsecutiveCorrect)
	assert.Equal(t, 2, rec.HighestConsecutiveCorrect, "high-water mark survives the reset")

	trk.AnswerQuestion("q1", true)
	rec = trk.Record()
	assert.Equal(t, 1, rec.ConsecutiveCorrect)
	assert.Equal(t, 2, rec.HighestConsecutiveCorrect)
}

func TestAnswerQuestionCorrectnessNeverDemoted(t *testing.T) {
	st := &fakeProgressStore{}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, nil)
	_, err := trk.SyncProgress(context.Background(), true, true)
	require.NoError(t, err)

	trk.AnswerQuestion("q1", true)
	trk.AnswerQuestion("q1", false)

	qp, _ := trk.Record().FindQuestion("q1")
	require.NotNil(t, qp)
	assert.True(t, qp.Answered)
	assert.True(t, qp.Correct, "earned correctness sticks")
}

func TestAnswerQuestionLazyTracking(t *testing.T) {
	st := &fakeProgressStore{}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, nil)

	// No sync at all: the catalog snapshot is empty, so an unknown
	// question can only be tracked through the current phase.
	trk.AnswerQuestion("mystery", true)
	assert.Empty(t, trk.Record().Trails, "no phase to attach to, answer affects streak only")
	assert.Equal(t, 1, trk.Record().ConsecutiveCorrect)

	require.NoError(t, trk.StartPhase("t9", "p9"))
	trk.AnswerQuestion("mystery", true)
	qp, ph := trk.Record().FindQuestion("mystery")
	require.NotNil(t, qp)
	assert.Equal(t, "p9", ph.ID)
}

func TestStartPhaseUnresolvablePhaseErrors(t *testing.T) {
	trk := newTestTracker(t, &fakeProgressStore{}, &fakeProvider{}, nil)

	// No trail id and no catalog snapshot: nowhere to attach the phase.
	err := trk.StartPhase("", "ghost")
	require.Error(t, err)
	assert.Empty(t, trk.Record().CurrentPhaseID)

	// A known trail id always resolves, even before a sync.
	require.NoError(t, trk.StartPhase("t1", "ghost"))
	assert.Equal(t, "ghost", trk.Record().CurrentPhaseID)
}

func TestCompletePhaseAwardsOnce(t *testing.T) {
	st := &fakeProgressStore{}
	events := &fakeEventLog{}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, events)
	_, err := trk.SyncProgress(context.Background(), true, true)
	require.NoError(t, err)

	require.NoError(t, trk.StartPhase("t1", "p1"))
	assert.Equal(t, "p1", trk.Record().CurrentPhaseID)

	trk.PhaseCompleted("p1", 30, 1)
	rec := trk.Record()
	ph := rec.FindPhase("p1")
	require.NotNil(t, ph)
	assert.True(t, ph.Completed)
	assert.Equal(t, 30, ph.TimeSpent)
	assert.Equal(t, 87, rec.TotalPoints) // 100 - 30/10 - 10*1
	assert.Empty(t, rec.CurrentPhaseID, "resume point cleared on completion")

	// Replaying the phase refreshes time but never double-awards.
	trk.PhaseCompleted("p1", 100, 0)
	rec = trk.Record()
	assert.Equal(t, 87, rec.TotalPoints)
	assert.Equal(t, 100, rec.FindPhase("p1").TimeSpent)

	waitFor(t, func() bool {
		events.mu.Lock()
		defer events.mu.Unlock()
		return len(events.phases) == 2
	}, "phase events not appended")

	events.mu.Lock()
	defer events.mu.Unlock()
	assert.Equal(t, 87, events.phases[0].PointsAwarded)
	assert.Equal(t, 0, events.phases[1].PointsAwarded)
}

func TestAnswerEventsAppended(t *testing.T) {
	st := &fakeProgressStore{}
	events := &fakeEventLog{}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, events)
	_, err := trk.SyncProgress(context.Background(), true, true)
	require.NoError(t, err)

	trk.QuestionAnswered("q1", true)
	trk.QuestionAnswered("q2", false)

	waitFor(t, func() bool {
		events.mu.Lock()
		defer events.mu.Unlock()
		return len(events.answers) == 2
	}, "answer events not appended")

	events.mu.Lock()
	defer events.mu.Unlock()
	for _, a := range events.answers {
		assert.Equal(t, "alice", a.LearnerID)
		assert.NotEmpty(t, a.SessionID)
	}
	assert.Equal(t, events.answers[0].SessionID, events.answers[1].SessionID,
		"one run shares one session id")
}

func TestGetPhaseCompletionPercentage(t *testing.T) {
	st := &fakeProgressStore{}
	trk := newTestTracker(t, st, &fakeProvider{trails: sampleTrails()}, nil)

	assert.Equal(t, 0, trk.GetPhaseCompletionPercentage("p1"))

	_, err := trk.SyncProgress(context.Background(), true, true)
	require.NoError(t, err)
	assert.Equal(t, 0, trk.GetPhaseCompletionPercentage("p1"))

	trk.AnswerQuestion("q1", true)
	assert.Equal(t, 50, trk.GetPhaseCompletionPercentage("p1"))
	trk.AnswerQuestion("q2", true)
	assert.Equal(t, 100, trk.GetPhaseCompletionPercentage("p1"))
}

func TestCloseFlushesPendingSave(t *testing.T) {
	st := &fakeProgressStore{}
	trk := New("alice", st, &fakeProvider{trails: sampleTrails()}, nil)
	_, err := trk.SyncProgress(context.Background(), true, true)
	require.NoError(t, err)

	trk.AnswerQuestion("q1", true)
	require.NoError(t, trk.Close())

	last := st.lastSaved()
	require.NotNil(t, last)
	qp, _ := last.FindQuestion("q1")
	require.NotNil(t, qp)
	assert.True(t, qp.Correct)
}
