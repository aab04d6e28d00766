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
	"strings"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/sqlexec/evalengine"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

var _ Exec = (*ProjectExec)(nil)

// ProjectExec evaluates Exprs against every row of its input.
type ProjectExec struct {
	execBase

	Input Exec
	Exprs []evalengine.Expr

	types   []sqltypes.Type
	env     *evalengine.ExpressionEnv
	current sqltypes.RowBatch
}

// NewProjectExec returns a projection over input.
func NewProjectExec(input Exec, exprs []evalengine.Expr) *ProjectExec {
	types := make([]sqltypes.Type, len(exprs))
	for i, e := range exprs {
		types[i] = e.Type()
	}
	return &ProjectExec{
		execBase: execBase{name: "Project"},
		Input:    input,
		Exprs:    exprs,
		types:    types,
		current:  sqltypes.EmptyBatch,
	}
}

// Types returns the types of the produced rows.
func (p *ProjectExec) Types() []sqltypes.Type { return p.types }

// Setup implements Exec.
func (p *ProjectExec) Setup(qctx *QueryContext, w Worker) error {
	if err := p.beginSetup(qctx, w); err != nil {
		return err
	}
	if err := p.Input.Setup(qctx, w); err != nil {
		return p.failSetup(err)
	}
	p.env = &evalengine.ExpressionEnv{Args: qctx.Args()}
	return nil
}

// Advance implements Exec.
func (p *ProjectExec) Advance() (IterationResult, error) {
	if err := p.checkAdvance(); err != nil {
		return Wait, err
	}
	p.current = sqltypes.EmptyBatch
	if p.state == stateExhausted {
		return FetchedDone, nil
	}
	p.state = stateScanning

	for {
		res, err := p.Input.Advance()
		if err != nil {
			return p.fail(err)
		}
		if res == Wait {
			return Wait, nil
		}

		batch := p.Input.CurrentBatch()
		if res == Fetched && batch.RowCount() == 0 {
			continue
		}
		if batch.RowCount() > 0 {
			out := make(sqltypes.ListRowBatch, 0, batch.RowCount())
			for i := 0; i < batch.RowCount(); i++ {
				row, err := p.project(batch.Row(i))
				if err != nil {
					return p.fail(err)
				}
				out = append(out, row)
			}
			p.current = out
		}
		if res == FetchedDone {
			p.state = stateExhausted
		}
		return res, nil
	}
}

func (p *ProjectExec) project(in sqltypes.Row) (sqltypes.Row, error) {
	p.env.Row = in
	defer func() { p.env.Row = nil }()

	row := sqltypes.NewHeapRow(p.types)
	for i, e := range p.Exprs {
		v, err := e.Eval(p.env)
		if err == nil {
			err = row.Set(i, v)
		}
		if err != nil {
			return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.EvaluationFailed, "projection %s: %v", e, err)
		}
	}
	return row, nil
}

// CurrentBatch implements Exec.
func (p *ProjectExec) CurrentBatch() sqltypes.RowBatch { return p.current }

// Inputs implements Exec.
func (p *ProjectExec) Inputs() []Exec { return []Exec{p.Input} }

// Close implements Exec.
func (p *ProjectExec) Close() {
	p.Input.Close()
	p.current = sqltypes.EmptyBatch
	p.env = nil
	p.close()
}

func (p *ProjectExec) description() PlanDescription {
	return PlanDescription{
		OperatorType: "Project",
		Other:        map[string]any{"Expressions": exprList(p.Exprs)},
	}
}

func exprList(exprs []evalengine.Expr) string {
	strs := make([]string, len(exprs))
	for i, e := range exprs {
		strs[i] = e.String()
	}
	return "[" + strings.Join(strs, ", ") + "]"
}
