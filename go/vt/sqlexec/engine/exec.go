/*
Copyright 2026 The Gridsql Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package engine contains the physical operators of a query fragment.
//
// Operators are pulled by a scheduler: Setup is called once, then Advance
// is called until it returns FetchedDone or an error. Advance never blocks;
// an operator that cannot make progress returns Wait and is asked again
// later. Each Advance that returns Fetched or FetchedDone makes a batch
// available through CurrentBatch, which the caller reads once.
package engine

import (
	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// IterationResult is the outcome of one Advance call.
type IterationResult int

const (
	// Wait means no batch is available yet. The operator must be
	// advanced again later.
	Wait IterationResult = iota
	// Fetched means CurrentBatch holds a new non-empty batch.
	Fetched
	// FetchedDone means CurrentBatch holds the last batch, which may be
	// empty. Every later Advance returns FetchedDone with an empty batch.
	FetchedDone
)

var iterationResultNames = [...]string{
	Wait:        "WAIT",
	Fetched:     "FETCHED",
	FetchedDone: "FETCHED_DONE",
}

func (r IterationResult) String() string {
	if r < 0 || int(r) >= len(iterationResultNames) {
		return "UNKNOWN"
	}
	return iterationResultNames[r]
}

// Exec is the interface every physical operator implements.
type Exec interface {
	// Setup binds the operator to the query. It is called exactly once,
	// before the first Advance, and must not block.
	Setup(qctx *QueryContext, w Worker) error

	// Advance moves the operator forward by one step. If err is non-nil
	// the operator has failed and the result must be ignored.
	Advance() (IterationResult, error)

	// CurrentBatch returns the batch produced by the last Advance.
	CurrentBatch() sqltypes.RowBatch

	// Inputs returns the child operators, for plan descriptions.
	Inputs() []Exec

	// Close releases buffered state. It can be called at any time,
	// including in the middle of a scan, and more than once.
	Close()

	description() PlanDescription
}

// Worker is the scheduler handle an operator receives at setup. It stays
// valid for the life of the operator even when successive advances run
// on different scheduler threads.
type Worker interface {
	// ID identifies the thread running the current advance.
	ID() int
	// Reschedule asks the scheduler to advance the calling operator
	// again soon.
	Reschedule()
}

type execState int

const (
	stateUninitialized execState = iota
	stateSetupDone
	stateScanning
	stateExhausted
	stateFailed
	stateClosed
)

var execStateNames = [...]string{
	stateUninitialized: "UNINITIALIZED",
	stateSetupDone:     "SETUP_DONE",
	stateScanning:      "SCANNING",
	stateExhausted:     "EXHAUSTED",
	stateFailed:        "FAILED",
	stateClosed:        "CLOSED",
}

func (s execState) String() string { return execStateNames[s] }

// execBase holds the lifecycle shared by all operators.
type execBase struct {
	name   string
	qctx   *QueryContext
	worker Worker
	state  execState
}

func (b *execBase) beginSetup(qctx *QueryContext, w Worker) error {
	if b.state != stateUninitialized {
		return vterrors.NewErrorf(vtrpc.Code_FAILED_PRECONDITION, vterrors.AlreadySetup, "%s: setup called in state %s", b.name, b.state)
	}
	if qctx == nil {
		b.state = stateFailed
		return vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.SetupFailed, "%s: setup without a query context", b.name)
	}
	b.qctx = qctx
	b.worker = w
	b.state = stateSetupDone
	return nil
}

// failSetup marks a setup as failed. A failed operator cannot be set up
// again or advanced.
func (b *execBase) failSetup(err error) error {
	b.state = stateFailed
	return err
}

func (b *execBase) checkAdvance() error {
	switch b.state {
	case stateUninitialized:
		return vterrors.NewErrorf(vtrpc.Code_FAILED_PRECONDITION, vterrors.NotSetup, "%s: advance called before setup", b.name)
	case stateFailed:
		return vterrors.Errorf(vtrpc.Code_FAILED_PRECONDITION, "%s: advance called after a failure", b.name)
	case stateClosed:
		return vterrors.Errorf(vtrpc.Code_FAILED_PRECONDITION, "%s: advance called after close", b.name)
	}
	return nil
}

func (b *execBase) fail(err error) (IterationResult, error) {
	b.state = stateFailed
	execErrors.Add(vterrors.Code(err).String(), 1)
	return Wait, err
}

func (b *execBase) close() {
	b.state = stateClosed
	b.qctx = nil
	b.worker = nil
}
