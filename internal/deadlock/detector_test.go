package deadlock

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicated-db/repcrec/internal/site"
)

// fakeSnapshot lets the resolver be exercised against a hand-built
// waits-for graph without standing up a full transaction manager.
type fakeSnapshot struct {
	edges   map[site.TxnID][]site.TxnID
	startTS map[site.TxnID]int64
	aborted []site.TxnID
}

func (f *fakeSnapshot) WaitsFor() map[site.TxnID][]site.TxnID { return f.edges }

func (f *fakeSnapshot) StartTimestamp(id site.TxnID) (int64, bool) {
	ts, ok := f.startTS[id]
	return ts, ok
}

func (f *fakeSnapshot) AbortDeadlockVictim(id site.TxnID) {
	f.aborted = append(f.aborted, id)
	delete(f.edges, id)
	for n, waiters := range f.edges {
		kept := waiters[:0]
		for _, w := range waiters {
			if w != id {
				kept = append(kept, w)
			}
		}
		f.edges[n] = kept
	}
}

func TestResolveBreaksSimpleCycle(t *testing.T) {
	f := &fakeSnapshot{
		edges: map[site.TxnID][]site.TxnID{
			"T1": {"T2"},
			"T2": {"T1"},
		},
		startTS: map[site.TxnID]int64{"T1": 1, "T2": 2},
	}
	victims := Resolve(f)
	require.Equal(t, []site.TxnID{"T2"}, victims, "T2 started later and should be the youngest-victim")
}

func TestResolveNoCycleReturnsNoVictims(t *testing.T) {
	f := &fakeSnapshot{
		edges: map[site.TxnID][]site.TxnID{
			"T1": {"T2"},
		},
		startTS: map[site.TxnID]int64{"T1": 1, "T2": 2},
	}
	victims := Resolve(f)
	require.Empty(t, victims)
}

func TestResolveHandlesThreeWayCycle(t *testing.T) {
	f := &fakeSnapshot{
		edges: map[site.TxnID][]site.TxnID{
			"T1": {"T2"},
			"T2": {"T3"},
			"T3": {"T1"},
		},
		startTS: map[site.TxnID]int64{"T1": 1, "T2": 2, "T3": 3},
	}
	victims := Resolve(f)
	require.Equal(t, []site.TxnID{"T3"}, victims)
}

func TestResolveRepeatsUntilAcyclic(t *testing.T) {
	f := &fakeSnapshot{
		edges: map[site.TxnID][]site.TxnID{
			"T1": {"T2"},
			"T2": {"T1"},
			"T3": {"T4"},
			"T4": {"T3"},
		},
		startTS: map[site.TxnID]int64{"T1": 1, "T2": 5, "T3": 3, "T4": 4},
	}
	victims := Resolve(f)
	require.ElementsMatch(t, []site.TxnID{"T2", "T4"}, victims)
}
