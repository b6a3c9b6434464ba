package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/replicated-db/repcrec/internal/events"
	"github.com/replicated-db/repcrec/internal/instr"
)

func run(t *testing.T, script string) *events.Recorder {
	t.Helper()
	cmds, err := instr.Scan(strings.NewReader(script))
	require.NoError(t, err)

	rec := &events.Recorder{}
	e := New(rec)
	require.NoError(t, e.Run(cmds))
	return rec
}

func TestBasicWriteCommitThenRead(t *testing.T) {
	rec := run(t, `
begin(T1)
W(T1,x2,99)
end(T1)
beginRO(T2)
R(T2,x2)
`)

	var gotWrite, gotCommit, gotRead bool
	for _, e := range rec.Events {
		switch e.Kind {
		case events.KindWrite:
			gotWrite = true
			require.Equal(t, 99, e.Value)
		case events.KindCommit:
			gotCommit = true
			require.Equal(t, "T1", e.Txn)
		case events.KindRead:
			gotRead = true
			require.Equal(t, 99, e.Value)
		}
	}
	require.True(t, gotWrite)
	require.True(t, gotCommit)
	require.True(t, gotRead)
}

func TestDeadlockAbortsYoungestTransaction(t *testing.T) {
	rec := run(t, `
begin(T1)
begin(T2)
W(T1,x1,1)
W(T2,x3,1)
R(T1,x3)
R(T2,x1)
end(T1)
`)

	var aborted string
	for _, e := range rec.Events {
		if e.Kind == events.KindDeadlockVictim {
			aborted = e.Txn
		}
	}
	require.Equal(t, "T2", aborted, "T2 began after T1 and should be the youngest-victim abort")
}

func TestSiteFailureAbortsDependentWriter(t *testing.T) {
	rec := run(t, `
begin(T1)
W(T1,x2,5)
fail(1)
end(T1)
`)

	var failSeen, abortSeen bool
	for _, e := range rec.Events {
		if e.Kind == events.KindSiteFail && e.Site == 1 {
			failSeen = true
		}
		if e.Kind == events.KindAbort && e.Txn == "T1" {
			abortSeen = true
		}
	}
	require.True(t, failSeen)
	require.True(t, abortSeen)
}
