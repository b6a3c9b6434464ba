// Package engine ties internal/site, internal/txn, and internal/deadlock
// into the tick loop: one call per input instruction, in the order
// spec.md §4.2.2 describes (advance clock, resolve deadlocks and redrain,
// dispatch, redrain).
package engine

import (
	"github.com/replicated-db/repcrec/internal/deadlock"
	"github.com/replicated-db/repcrec/internal/events"
	"github.com/replicated-db/repcrec/internal/instr"
	"github.com/replicated-db/repcrec/internal/txn"
)

// Engine is the simulator's single entry point for consuming instructions.
type Engine struct {
	Txns *txn.Manager
}

// New builds a fresh ten-site simulation reporting events to sink.
func New(sink events.Sink) *Engine {
	return &Engine{Txns: txn.NewManager(sink)}
}

// Tick advances one instruction through the full per-line sequence.
func (e *Engine) Tick(cmd instr.Command) error {
	e.Txns.AdvanceClock()

	if victims := deadlock.Resolve(e.Txns); len(victims) > 0 {
		e.Txns.DrainQueue()
	}

	if err := e.Txns.Dispatch(cmd); err != nil {
		return err
	}

	e.Txns.DrainQueue()
	return nil
}

// Run ticks through every command in order, stopping at the first
// dispatch error.
func (e *Engine) Run(cmds []instr.Command) error {
	for _, cmd := range cmds {
		if err := e.Tick(cmd); err != nil {
			return err
		}
	}
	return nil
}
