package registry

import (
	"sync/atomic"

	"github.com/wippyai/ctorbridge/behavior"
	"github.com/wippyai/ctorbridge/errors"
)

// State is the validation state of an entry.
type State int32

const (
	StateDeclared State = iota
	StateValidated
	StateRejected
	StateActive
)

func (s State) String() string {
	switch s {
	case StateDeclared:
		return "declared"
	case StateValidated:
		return "validated"
	case StateRejected:
		return "rejected"
	case StateActive:
		return "active"
	default:
		return "unknown"
	}
}

// Entry maps one constructible to its record and validation state.
type Entry struct {
	record *behavior.Record
	err    error
	state  atomic.Int32
}

// Record returns the behavior record.
func (e *Entry) Record() *behavior.Record { return e.record }

// Name returns the constructible name.
func (e *Entry) Name() string { return e.record.Name() }

// State returns the current state.
func (e *Entry) State() State { return State(e.state.Load()) }

// Err returns the stored rejection error, nil unless Rejected.
func (e *Entry) Err() error { return e.err }

// Usable returns nil when the entry can be constructed, otherwise the
// stored rejection error. The same error value is returned on every call.
func (e *Entry) Usable() error {
	switch e.State() {
	case StateValidated, StateActive:
		return nil
	case StateRejected:
		return e.err
	default:
		return errors.New(errors.PhaseInvoke, errors.KindInvalidInput).
			Constructible(e.Name()).
			Detail("entry is %s", e.State()).
			Build()
	}
}

// Activate moves a Validated entry to Active. It reports whether this call
// performed the transition.
func (e *Entry) Activate() bool {
	return e.state.CompareAndSwap(int32(StateValidated), int32(StateActive))
}

func (e *Entry) reject(err error) {
	e.err = err
	e.state.Store(int32(StateRejected))
}

func (e *Entry) validate() {
	e.state.Store(int32(StateValidated))
}
