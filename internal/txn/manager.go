package txn

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/replicated-db/repcrec/internal/events"
	"github.com/replicated-db/repcrec/internal/instr"
	"github.com/replicated-db/repcrec/internal/site"
)

const siteCount = 10

// Manager is the Transaction Manager: it owns every site's Data Manager,
// dispatches parsed instructions against them, and tracks blocked
// operations for redraining. It mirrors the teacher's TransactionSystem
// wiring (txn bookkeeping + lock manager + isolation manager under one
// roof) with the site layer standing in for the isolation/lock split.
type Manager struct {
	sites map[int]*site.DataManager
	txns  map[site.TxnID]*Transaction
	queue []pendingOp
	clock int64
	sink  events.Sink
}

// NewManager builds the fixed ten-site topology and wires events to sink.
func NewManager(sink events.Sink) *Manager {
	m := &Manager{
		sites: make(map[int]*site.DataManager, siteCount),
		txns:  make(map[site.TxnID]*Transaction),
		sink:  sink,
	}
	for i := 1; i <= siteCount; i++ {
		m.sites[i] = site.NewDataManager(i)
	}
	return m
}

// Clock returns the current logical tick.
func (m *Manager) Clock() int64 { return m.clock }

// AdvanceClock increments the logical clock, per §4.2.2's "advance clock"
// tick-loop step, and returns the new value.
func (m *Manager) AdvanceClock() int64 {
	m.clock++
	return m.clock
}

// Dispatch executes one parsed instruction, per §4.2.3.
func (m *Manager) Dispatch(cmd instr.Command) error {
	switch cmd.Op {
	case instr.OpBegin:
		m.begin(site.TxnID(cmd.Args[0]), false)
	case instr.OpBeginRO:
		m.begin(site.TxnID(cmd.Args[0]), true)
	case instr.OpRead:
		m.read(site.TxnID(cmd.Args[0]), cmd.Args[1])
	case instr.OpWrite:
		value, err := strconv.Atoi(cmd.Args[2])
		if err != nil {
			return fmt.Errorf("txn: write value: %w", err)
		}
		if !m.write(site.TxnID(cmd.Args[0]), cmd.Args[1], value) {
			m.enqueue(pendingOp{kind: opWrite, txn: site.TxnID(cmd.Args[0]), varID: cmd.Args[1], value: value})
		}
	case instr.OpEnd:
		m.end(site.TxnID(cmd.Args[0]))
	case instr.OpFail:
		id, err := strconv.Atoi(cmd.Args[0])
		if err != nil {
			return fmt.Errorf("txn: fail site id: %w", err)
		}
		m.Fail(id)
	case instr.OpRecover:
		id, err := strconv.Atoi(cmd.Args[0])
		if err != nil {
			return fmt.Errorf("txn: recover site id: %w", err)
		}
		m.Recover(id)
	case instr.OpDump:
		m.Dump()
	default:
		return fmt.Errorf("txn: unhandled instruction %q", cmd.Op)
	}
	return nil
}

func (m *Manager) begin(txn site.TxnID, readOnly bool) {
	m.txns[txn] = newTransaction(txn, m.clock, readOnly)
}

// sitesHolding returns, in ascending site-id order, every site that keeps a
// copy of varID (every site for a replicated variable, the one home site
// for a non-replicated one), per spec.md §3's replication rule.
func (m *Manager) sitesHolding(varID string) []int {
	var ids []int
	for i := 1; i <= siteCount; i++ {
		if m.sites[i].HasVariable(varID) {
			ids = append(ids, i)
		}
	}
	sort.Ints(ids)
	return ids
}

func (m *Manager) read(txn site.TxnID, varID string) {
	t, ok := m.txns[txn]
	if !ok {
		return
	}
	if t.ReadOnly {
		if m.snapshotRead(t, varID) {
			return
		}
		m.enqueue(pendingOp{kind: opRead, txn: txn, varID: varID})
		return
	}
	if m.retryRead(pendingOp{kind: opRead, txn: txn, varID: varID}) {
		return
	}
}

// snapshotRead implements the read-only side of §4.1.1/§4.2.3: try every
// site holding varID, newest committed version visible at the txn's start
// timestamp, and report the first one found.
func (m *Manager) snapshotRead(t *Transaction, varID string) bool {
	for _, sid := range m.sitesHolding(varID) {
		dm := m.sites[sid]
		if !dm.Up {
			continue
		}
		v, err := dm.ReadSnapshot(varID, t.StartTS)
		if err != nil {
			continue
		}
		m.sink.Emit(events.Event{Kind: events.KindRead, Txn: string(t.ID), Var: varID, Value: v, Site: sid, ReadOnly: true})
		return true
	}
	return false
}

// retryRead drives a locked read for an R/W transaction: if it was already
// pinned to a site's queue, retry only that site; otherwise scan sites in
// order, stopping either at the first grant or the first site that blocks
// (pinning there), so the operation never queues at more than one site's
// lock table at once.
func (m *Manager) retryRead(op pendingOp) bool {
	t, ok := m.txns[op.txn]
	if !ok {
		return true
	}

	if op.site != 0 {
		dm := m.sites[op.site]
		if !dm.Up {
			m.enqueue(pendingOp{kind: opRead, txn: op.txn, varID: op.varID})
			return false
		}
		v, outcome, err := dm.LockedRead(op.varID, op.txn)
		if err != nil || outcome != site.Granted {
			return false
		}
		t.SitesRead[op.site] = struct{}{}
		m.sink.Emit(events.Event{Kind: events.KindRead, Txn: string(op.txn), Var: op.varID, Value: v, Site: op.site})
		return true
	}

	for _, sid := range m.sitesHolding(op.varID) {
		dm := m.sites[sid]
		if !dm.Up {
			continue
		}
		v, outcome, err := dm.LockedRead(op.varID, op.txn)
		if err != nil {
			continue
		}
		if outcome == site.Granted {
			t.SitesRead[sid] = struct{}{}
			m.sink.Emit(events.Event{Kind: events.KindRead, Txn: string(op.txn), Var: op.varID, Value: v, Site: sid})
			return true
		}
		m.enqueue(pendingOp{kind: opRead, txn: op.txn, varID: op.varID, site: sid})
		return false
	}
	m.enqueue(pendingOp{kind: opRead, txn: op.txn, varID: op.varID})
	return false
}

// write implements §4.1.3/§4.1.4/§4.2.3: acquire the write lock at every up
// site holding varID, all-or-nothing, then stage the value at each. Safe
// to call repeatedly (idempotent probes), so a queued write just calls this
// again on every drain pass.
func (m *Manager) write(txn site.TxnID, varID string, value int) bool {
	t, ok := m.txns[txn]
	if !ok {
		return true
	}

	var up []int
	for _, sid := range m.sitesHolding(varID) {
		if m.sites[sid].Up {
			up = append(up, sid)
		}
	}
	if len(up) == 0 {
		return false
	}

	for _, sid := range up {
		outcome, err := m.sites[sid].ProbeWriteLock(varID, txn)
		if err != nil || outcome != site.Granted {
			return false
		}
	}
	for _, sid := range up {
		if err := m.sites[sid].WriteCommitTemp(varID, txn, value); err != nil {
			return false
		}
		t.SitesWritten[sid] = struct{}{}
	}
	m.sink.Emit(events.Event{Kind: events.KindWrite, Txn: string(txn), Var: varID, Value: value, Sites: up})
	return true
}

// end implements §4.2.6's commit policy: a transaction marked will_abort —
// because it accessed a site that later failed — aborts instead of
// committing, per original_source/transaction_manager.py's "continue to
// execute and then abort only at its commit time". Everything else still
// active at end() commits.
func (m *Manager) end(txn site.TxnID) {
	t, ok := m.txns[txn]
	if !ok {
		return
	}
	if t.WillAbort {
		m.abort(txn)
		m.sink.Emit(events.Event{Kind: events.KindAbort, Txn: string(txn), Reason: t.AbortReason})
		return
	}
	for i := 1; i <= siteCount; i++ {
		m.sites[i].Commit(txn, m.clock)
	}
	delete(m.txns, txn)
	m.purgeQueue(txn)
	m.sink.Emit(events.Event{Kind: events.KindCommit, Txn: string(txn)})
}

// abort releases every lock the transaction holds across all sites and
// drops it from the active set and the blocked-op queue. Callers are
// responsible for emitting the event that fits their reason.
func (m *Manager) abort(txn site.TxnID) {
	for i := 1; i <= siteCount; i++ {
		m.sites[i].Abort(txn)
	}
	delete(m.txns, txn)
	m.purgeQueue(txn)
}

// AbortDeadlockVictim immediately aborts txn as the deadlock detector's
// chosen victim, per §4.2.5 — unlike a site-failure will_abort, this
// cannot wait for txn's own end() since the whole point is to free the
// locks blocking the rest of the cycle right now.
func (m *Manager) AbortDeadlockVictim(txn site.TxnID) {
	if _, ok := m.txns[txn]; !ok {
		return
	}
	m.abort(txn)
	m.sink.Emit(events.Event{Kind: events.KindDeadlockVictim, Txn: string(txn)})
}

// Fail takes a site down and marks every active transaction that
// accessed it (read or written — §3's sites_accessed) will_abort, per
// §4.2.3: such a transaction keeps running but is forced to abort when it
// reaches its own end() instead of committing.
func (m *Manager) Fail(siteID int) {
	m.sites[siteID].Fail(m.clock)
	m.sink.Emit(events.Event{Kind: events.KindSiteFail, Site: siteID})

	var affected []site.TxnID
	for id, t := range m.txns {
		_, wrote := t.SitesWritten[siteID]
		_, read := t.SitesRead[siteID]
		if wrote || read {
			affected = append(affected, id)
		}
	}
	sort.Slice(affected, func(i, j int) bool { return affected[i] < affected[j] })
	for _, id := range affected {
		t := m.txns[id]
		t.WillAbort = true
		t.AbortReason = "site failure"
	}
}

// Recover brings a site back up.
func (m *Manager) Recover(siteID int) {
	m.sites[siteID].Recover(m.clock)
	m.sink.Emit(events.Event{Kind: events.KindSiteRecover, Site: siteID})
}

// Dump reports every site's committed variable values, in site order.
func (m *Manager) Dump() {
	dumps := make([]events.SiteDump, 0, siteCount)
	for i := 1; i <= siteCount; i++ {
		snap := m.sites[i].Dump()
		vals := make([]events.VarValue, len(snap))
		for j, s := range snap {
			vals[j] = events.VarValue{Name: s.ID, Value: s.Value}
		}
		dumps = append(dumps, events.SiteDump{SiteID: i, Variables: vals})
	}
	m.sink.Emit(events.Event{Kind: events.KindDump, Dump: dumps})
}

// WaitsFor returns the union of every site's waits-for contribution, for
// the deadlock detector.
func (m *Manager) WaitsFor() map[site.TxnID][]site.TxnID {
	edges := make(map[site.TxnID][]site.TxnID)
	seen := make(map[site.TxnID]map[site.TxnID]struct{})
	for i := 1; i <= siteCount; i++ {
		for waiter, holders := range m.sites[i].WaitsFor() {
			if seen[waiter] == nil {
				seen[waiter] = make(map[site.TxnID]struct{})
			}
			for _, h := range holders {
				if _, dup := seen[waiter][h]; dup {
					continue
				}
				seen[waiter][h] = struct{}{}
				edges[waiter] = append(edges[waiter], h)
			}
		}
	}
	for _, holders := range edges {
		sort.Slice(holders, func(i, j int) bool { return holders[i] < holders[j] })
	}
	return edges
}

// StartTimestamp reports an active transaction's start_ts, for victim
// selection by the deadlock detector.
func (m *Manager) StartTimestamp(txn site.TxnID) (int64, bool) {
	t, ok := m.txns[txn]
	if !ok {
		return 0, false
	}
	return t.StartTS, true
}

// ActiveTransactions lists every currently active transaction id.
func (m *Manager) ActiveTransactions() []site.TxnID {
	ids := make([]site.TxnID, 0, len(m.txns))
	for id := range m.txns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
