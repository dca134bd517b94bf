package tracker

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilv/trailz/internal/progress"
)

// Concurrent enqueuers racing shutdown must never touch the kick
// channel after it is closed.
func TestSaveQueueEnqueueDuringClose(t *testing.T) {
	for i := 0; i < 50; i++ {
		st := &fakeProgressStore{}
		q := newSaveQueue("alice", st)
		rec := &progress.Record{TotalPoints: i}

		var wg sync.WaitGroup
		for g := 0; g < 4; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					q.Enqueue(rec)
				}
			}()
		}
		require.NoError(t, q.Close())
		wg.Wait()

		// Late enqueues after shutdown are silent no-ops.
		q.Enqueue(rec)
		assert.NoError(t, q.Err())
	}
}

func TestSaveQueueCloseIdempotent(t *testing.T) {
	st := &fakeProgressStore{}
	q := newSaveQueue("alice", st)
	q.Enqueue(&progress.Record{TotalPoints: 5})

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())

	last := st.lastSaved()
	require.NotNil(t, last)
	assert.Equal(t, 5, last.TotalPoints)
}
