// Package deadlock finds cycles in the transaction manager's waits-for
// graph and breaks them by force-aborting the youngest transaction in the
// cycle, per spec.md §4.2.5. Grounded on the teacher's
// transaction/lock_manager.go findCycles/chooseVictim pair, adapted from
// "highest transaction id wins" to "largest start_ts wins" since this
// simulator assigns no monotonic numeric id, only a start timestamp.
package deadlock

import (
	"sort"

	"github.com/replicated-db/repcrec/internal/site"
	"github.com/replicated-db/repcrec/internal/txn"
)

// Snapshot exposes exactly what the detector needs from the transaction
// manager, kept as an interface so it can be tested against a fake graph
// without a full Manager.
type Snapshot interface {
	WaitsFor() map[site.TxnID][]site.TxnID
	StartTimestamp(site.TxnID) (int64, bool)
	AbortDeadlockVictim(site.TxnID)
}

// Resolve repeatedly finds a cycle in m's waits-for graph and aborts its
// youngest member until the graph is acyclic, returning the victims in the
// order they were aborted. A freshly recomputed graph is used after each
// abort, since removing one transaction can both break and reveal cycles.
func Resolve(m Snapshot) []site.TxnID {
	var victims []site.TxnID
	for {
		edges := m.WaitsFor()
		cycle, found := findCycle(edges)
		if !found {
			return victims
		}
		victim := youngest(m, cycle)
		m.AbortDeadlockVictim(victim)
		victims = append(victims, victim)
	}
}

// findCycle does a deterministic DFS over edges (waiter -> holders it is
// blocked behind), visiting nodes in sorted order for reproducibility, and
// returns the first cycle found as the slice of nodes that form it.
func findCycle(edges map[site.TxnID][]site.TxnID) ([]site.TxnID, bool) {
	const (
		unvisited = 0
		onStack   = 1
		done      = 2
	)
	state := make(map[site.TxnID]int)
	var stack []site.TxnID

	nodes := make([]site.TxnID, 0, len(edges))
	for n := range edges {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	var visit func(site.TxnID) ([]site.TxnID, bool)
	visit = func(n site.TxnID) ([]site.TxnID, bool) {
		state[n] = onStack
		stack = append(stack, n)

		neighbors := append([]site.TxnID(nil), edges[n]...)
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i] < neighbors[j] })
		for _, next := range neighbors {
			switch state[next] {
			case unvisited:
				if cycle, found := visit(next); found {
					return cycle, true
				}
			case onStack:
				for i, s := range stack {
					if s == next {
						return append([]site.TxnID(nil), stack[i:]...), true
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[n] = done
		return nil, false
	}

	for _, n := range nodes {
		if state[n] == unvisited {
			if cycle, found := visit(n); found {
				return cycle, true
			}
		}
	}
	return nil, false
}

// youngest picks the transaction with the largest start_ts in cycle,
// breaking ties by id for determinism.
func youngest(m Snapshot, cycle []site.TxnID) site.TxnID {
	best := cycle[0]
	bestTS, _ := m.StartTimestamp(best)
	for _, id := range cycle[1:] {
		ts, ok := m.StartTimestamp(id)
		if !ok {
			continue
		}
		if ts > bestTS || (ts == bestTS && id > best) {
			best, bestTS = id, ts
		}
	}
	return best
}

var _ Snapshot = (*txn.Manager)(nil)
