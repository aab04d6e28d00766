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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/kvstore"
	"gridsql.io/gridsql/go/vt/serialization"
	"gridsql.io/gridsql/go/vt/sqlexec/extractors"
)

type fakeNode struct {
	ms *kvstore.MapService
	ss *serialization.Service
}

func (n *fakeNode) MapService() *kvstore.MapService { return n.ms }

func (n *fakeNode) SerializationService() *serialization.Service { return n.ss }

func newFakeNode(t *testing.T, partitions int) *fakeNode {
	t.Helper()
	ss := serialization.NewService(serialization.Config{})
	ms, err := kvstore.NewMapService(partitions, ss, extractors.New(time.Minute))
	require.NoError(t, err)
	return &fakeNode{ms: ms, ss: ss}
}

// put writes an entry straight into partition pid of mapName, bypassing
// key routing.
func (n *fakeNode) put(t *testing.T, mapName string, pid int, key, value any) {
	t.Helper()
	msc, err := n.ms.MapServiceContext(mapName)
	require.NoError(t, err)
	rs, err := msc.RecordStore(pid)
	require.NoError(t, err)
	k, err := n.ss.ToData(key)
	require.NoError(t, err)
	if msc.InMemoryFormat() == kvstore.Binary {
		value, err = n.ss.ToData(value)
		require.NoError(t, err)
	}
	rs.Put(k, value, 0)
}

func (n *fakeNode) queryContext(args ...any) *QueryContext {
	return NewQueryContext(context.Background(), n, args...)
}

type fakeWorker struct {
	id          int
	reschedules int
}

func (w *fakeWorker) ID() int { return w.id }

func (w *fakeWorker) Reschedule() { w.reschedules++ }

// drain advances exec until it is done and returns every row it produced.
func drain(t *testing.T, exec Exec) [][]any {
	t.Helper()
	var rows [][]any
	for i := 0; ; i++ {
		require.Less(t, i, 10000, "operator does not terminate")
		res, err := exec.Advance()
		require.NoError(t, err)
		if res == Wait {
			continue
		}
		for _, row := range sqltypes.BatchRows(exec.CurrentBatch()) {
			rows = append(rows, sqltypes.RowValues(row))
		}
		if res == FetchedDone {
			return rows
		}
	}
}

// waitingExec wraps an operator and returns Wait before every step of
// the wrapped operator.
type waitingExec struct {
	Exec
	waited bool
}

func (w *waitingExec) Advance() (IterationResult, error) {
	if !w.waited {
		w.waited = true
		return Wait, nil
	}
	w.waited = false
	return w.Exec.Advance()
}

func (w *waitingExec) Inputs() []Exec { return []Exec{w.Exec} }

func (w *waitingExec) description() PlanDescription {
	return PlanDescription{OperatorType: "Waiting"}
}

// emptyFetchExec wraps an operator and returns Fetched with an empty batch
// before every step of the wrapped operator.
type emptyFetchExec struct {
	Exec
	emitted bool
}

func (e *emptyFetchExec) Advance() (IterationResult, error) {
	if !e.emitted {
		e.emitted = true
		return Fetched, nil
	}
	e.emitted = false
	return e.Exec.Advance()
}

func (e *emptyFetchExec) CurrentBatch() sqltypes.RowBatch {
	if e.emitted {
		return sqltypes.EmptyBatch
	}
	return e.Exec.CurrentBatch()
}

func (e *emptyFetchExec) Inputs() []Exec { return []Exec{e.Exec} }

func (e *emptyFetchExec) description() PlanDescription {
	return PlanDescription{OperatorType: "EmptyFetch"}
}
