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
	"strconv"

	"gridsql.io/gridsql/go/sqltypes"
)

var _ Exec = (*ValuesExec)(nil)

// ValuesExec emits a fixed list of rows, one per Advance.
type ValuesExec struct {
	execBase

	types   []sqltypes.Type
	values  [][]any
	rows    rowCursor
	current sqltypes.RowBatch
}

// NewValuesExec returns an operator producing rows of the given types.
// Every row must match types.
func NewValuesExec(types []sqltypes.Type, rows ...[]any) (*ValuesExec, error) {
	for _, values := range rows {
		if _, err := sqltypes.NewHeapRowFromValues(types, values...); err != nil {
			return nil, err
		}
	}
	return &ValuesExec{
		execBase: execBase{name: "Values"},
		types:    types,
		values:   rows,
		current:  sqltypes.EmptyBatch,
	}, nil
}

// Types returns the types of the produced rows.
func (v *ValuesExec) Types() []sqltypes.Type { return v.types }

// Setup implements Exec.
func (v *ValuesExec) Setup(qctx *QueryContext, w Worker) error {
	return v.beginSetup(qctx, w)
}

// Advance implements Exec.
func (v *ValuesExec) Advance() (IterationResult, error) {
	if err := v.checkAdvance(); err != nil {
		return Wait, err
	}
	if v.state == stateSetupDone {
		rows := make([]*sqltypes.HeapRow, len(v.values))
		for i, values := range v.values {
			// Validated by NewValuesExec.
			rows[i], _ = sqltypes.NewHeapRowFromValues(v.types, values...)
		}
		v.rows.reset(rows)
		v.state = stateScanning
	}
	if v.state == stateScanning {
		if row, ok := v.rows.next(); ok {
			v.current = row
			return Fetched, nil
		}
		v.state = stateExhausted
		v.rows.release()
	}
	v.current = sqltypes.EmptyBatch
	return FetchedDone, nil
}

// CurrentBatch implements Exec.
func (v *ValuesExec) CurrentBatch() sqltypes.RowBatch { return v.current }

// Inputs implements Exec.
func (v *ValuesExec) Inputs() []Exec { return nil }

// Close implements Exec.
func (v *ValuesExec) Close() {
	v.rows.release()
	v.current = sqltypes.EmptyBatch
	v.close()
}

func (v *ValuesExec) description() PlanDescription {
	return PlanDescription{
		OperatorType: "Values",
		Other:        map[string]any{"RowCount": strconv.Itoa(len(v.values))},
	}
}
