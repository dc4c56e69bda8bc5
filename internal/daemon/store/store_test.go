package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/grovetools/br0wse/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendIncrementsRevision(t *testing.T) {
	st := New("discovered")
	w, err := st.Claim("ingest")
	require.NoError(t, err)

	assert.Equal(t, uint64(0), st.Revision())
	for i := 1; i <= 5; i++ {
		rev := w.Append(Record(fmt.Sprintf("svc-%d", i)))
		assert.Equal(t, uint64(i), rev)
		assert.Equal(t, uint64(i), st.Revision())
		assert.Equal(t, i, st.Len())
	}
}

func TestSnapshotIsolation(t *testing.T) {
	st := New("discovered")
	w, err := st.Claim("ingest")
	require.NoError(t, err)

	w.Append("svc-a")
	before := st.Snapshot()
	w.Append("svc-b")
	after := st.Snapshot()

	assert.Equal(t, []string{"svc-a"}, before.Strings())
	assert.Equal(t, uint64(1), before.Revision)
	assert.Equal(t, []string{"svc-a", "svc-b"}, after.Strings())
	assert.Equal(t, uint64(2), after.Revision)

	// Appending to a snapshot must not leak into the store or later snapshots.
	leaked := append(before.Records, "intruder")
	assert.Len(t, leaked, 2)
	w.Append("svc-c")
	assert.Equal(t, []string{"svc-a", "svc-b", "svc-c"}, st.Snapshot().Strings())
}

func TestSnapshotSince(t *testing.T) {
	st := New("ticks")
	w, _ := st.Claim("timer")
	w.Append("tick-1")
	w.Append("tick-2")
	w.Append("tick-3")

	snap := st.Snapshot()
	assert.Equal(t, []Record{"tick-2", "tick-3"}, snap.Since(1))
	assert.Nil(t, snap.Since(3))
	assert.Nil(t, snap.Since(10))
	assert.Len(t, snap.Since(0), 3)
}

func TestSecondClaimFails(t *testing.T) {
	st := New("discovered")
	_, err := st.Claim("ingest")
	require.NoError(t, err)

	_, err = st.Claim("timer")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeWriterClaimed))
	assert.Equal(t, "ingest", st.Owner())
}

func TestChanged(t *testing.T) {
	st := New("ticks")
	w, _ := st.Claim("timer")
	rev := st.Revision()
	assert.False(t, st.Changed(rev))
	w.Append("tick-1")
	assert.True(t, st.Changed(rev))
}

// Readers snapshot concurrently with the single writer; run with -race.
func TestConcurrentReaders(t *testing.T) {
	st := New("discovered")
	w, _ := st.Claim("ingest")

	const n = 500
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last uint64
			for last < n {
				snap := st.Snapshot()
				if snap.Revision < last {
					t.Errorf("revision went backwards: %d < %d", snap.Revision, last)
					return
				}
				if uint64(snap.Len()) != snap.Revision {
					t.Errorf("len %d != revision %d", snap.Len(), snap.Revision)
					return
				}
				for i, rec := range snap.Records {
					if rec != Record(fmt.Sprintf("svc-%d", i)) {
						t.Errorf("record %d = %q", i, rec)
						return
					}
				}
				last = snap.Revision
			}
		}()
	}

	for i := 0; i < n; i++ {
		w.Append(Record(fmt.Sprintf("svc-%d", i)))
	}
	wg.Wait()
}
