// Package txn implements the Transaction Manager: transaction bookkeeping,
// instruction dispatch, the blocked-operation queue, and commit/abort
// policy. It drives internal/site but never touches terminal I/O directly.
package txn

import "github.com/replicated-db/repcrec/internal/site"

// Transaction is the TM's record of one in-flight transaction, per spec.md
// §3's transaction record.
type Transaction struct {
	ID       site.TxnID
	StartTS  int64
	ReadOnly bool

	SitesRead    map[int]struct{}
	SitesWritten map[int]struct{}

	// WillAbort marks a transaction that accessed a site which later
	// failed: per §4.2.3/§4.2.6 it keeps running but is forced to abort
	// at its own end() instead of committing.
	WillAbort   bool
	AbortReason string
}

func newTransaction(id site.TxnID, startTS int64, readOnly bool) *Transaction {
	return &Transaction{
		ID:           id,
		StartTS:      startTS,
		ReadOnly:     readOnly,
		SitesRead:    make(map[int]struct{}),
		SitesWritten: make(map[int]struct{}),
	}
}
