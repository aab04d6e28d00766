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

package engine

import (
	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/sqlexec/evalengine"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

var _ Exec = (*FilterExec)(nil)

// FilterExec is an operator to filter rows of its input. The predicate
// addresses input columns with Offset expressions.
type FilterExec struct {
	execBase

	Input     Exec
	Predicate evalengine.Expr

	env     *evalengine.ExpressionEnv
	current sqltypes.RowBatch
}

// NewFilterExec returns a filter over input.
func NewFilterExec(input Exec, predicate evalengine.Expr) *FilterExec {
	return &FilterExec{
		execBase:  execBase{name: "Filter"},
		Input:     input,
		Predicate: predicate,
		current:   sqltypes.EmptyBatch,
	}
}

// Setup implements Exec.
func (f *FilterExec) Setup(qctx *QueryContext, w Worker) error {
	if err := f.beginSetup(qctx, w); err != nil {
		return err
	}
	if err := f.Input.Setup(qctx, w); err != nil {
		return f.failSetup(err)
	}
	f.env = &evalengine.ExpressionEnv{Args: qctx.Args()}
	return nil
}

// Advance pulls from the input until a batch has rows left after
// filtering, the input is done or the input has to wait.
func (f *FilterExec) Advance() (IterationResult, error) {
	if err := f.checkAdvance(); err != nil {
		return Wait, err
	}
	f.current = sqltypes.EmptyBatch
	if f.state == stateExhausted {
		return FetchedDone, nil
	}
	f.state = stateScanning

	for {
		res, err := f.Input.Advance()
		if err != nil {
			return f.fail(err)
		}
		if res == Wait {
			return Wait, nil
		}

		out, err := f.filter(f.Input.CurrentBatch())
		if err != nil {
			return f.fail(err)
		}
		if res == FetchedDone {
			f.state = stateExhausted
			if len(out) > 0 {
				f.current = out
			}
			return FetchedDone, nil
		}
		if len(out) > 0 {
			f.current = out
			return Fetched, nil
		}
	}
}

func (f *FilterExec) filter(batch sqltypes.RowBatch) (sqltypes.ListRowBatch, error) {
	var out sqltypes.ListRowBatch
	for i := 0; i < batch.RowCount(); i++ {
		row := batch.Row(i)
		f.env.Row = row
		ok, err := evalengine.EvaluateBool(f.env, f.Predicate)
		if err != nil {
			return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.EvaluationFailed, "filter %s: %v", f.Predicate, err)
		}
		if ok {
			out = append(out, row)
		}
	}
	f.env.Row = nil
	return out, nil
}

// CurrentBatch implements Exec.
func (f *FilterExec) CurrentBatch() sqltypes.RowBatch { return f.current }

// Inputs implements Exec.
func (f *FilterExec) Inputs() []Exec { return []Exec{f.Input} }

// Close implements Exec.
func (f *FilterExec) Close() {
	f.Input.Close()
	f.current = sqltypes.EmptyBatch
	f.env = nil
	f.close()
}

func (f *FilterExec) description() PlanDescription {
	return PlanDescription{
		OperatorType: "Filter",
		Other:        map[string]any{"Predicate": f.Predicate.String()},
	}
}
