package runstats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectorConcurrentIncrements(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.IncDistanceError()
		}()
	}
	wg.Wait()
	require.Equal(t, 100, c.Snapshot().DistanceErrors)
}

func TestCollectorMarksWarnings(t *testing.T) {
	c := New()
	c.MarkEmptyCandidateSet()
	c.MarkLabelShortage()

	snap := c.Snapshot()
	require.True(t, snap.EmptyCandidateSet)
	require.True(t, snap.LabelShortage)
	require.Len(t, snap.Warnings, 2)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	c := New()
	c.MarkEmptyCandidateSet()
	snap := c.Snapshot()

	c.MarkLabelShortage()
	require.False(t, snap.LabelShortage, "snapshot taken before the second mark must not observe it")
}
