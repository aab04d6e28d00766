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

package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/test/utils"
	"gridsql.io/gridsql/go/vt/kvstore"
	"gridsql.io/gridsql/go/vt/sqlexec/engine"
	"gridsql.io/gridsql/go/vt/sqlexec/evalengine"
	"gridsql.io/gridsql/go/vt/sqlexec/node"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

func batchOf(values ...any) sqltypes.RowBatch {
	var rows sqltypes.ListRowBatch
	for _, v := range values {
		row, err := sqltypes.NewHeapRowFromValues([]sqltypes.Type{sqltypes.Object}, v)
		if err != nil {
			panic(err)
		}
		rows = append(rows, row)
	}
	return rows
}

// recorder collects events from worker goroutines.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newQuery(ctx context.Context) *engine.QueryContext {
	return engine.NewQueryContext(ctx, nil)
}

func TestPoolRunsScans(t *testing.T) {
	ctx := utils.LeakCheckContext(t)

	n, err := node.New(node.Config{PartitionCount: 8})
	require.NoError(t, err)
	_, err = n.MapService().CreateMap(kvstore.MapConfig{Name: "people"})
	require.NoError(t, err)
	for i := int64(0); i < 40; i++ {
		_, err := n.MapService().Put(ctx, "people", i, map[string]any{"age": i}, 0)
		require.NoError(t, err)
	}
	projections, err := evalengine.ParseProjections("__key")
	require.NoError(t, err)
	filter, err := evalengine.ParsePredicate("this.age >= $1")
	require.NoError(t, err)

	pool := NewPool(2)
	defer pool.Close()
	assert.Equal(t, 2, pool.Size())

	var handles []*Handle
	var collectors []*RowCollector
	for first := 0; first < 8; first += 2 {
		parts, err := engine.NewPartitionIDSet(8, first, first+1)
		require.NoError(t, err)
		c := &RowCollector{}
		h, err := pool.Submit(Fragment{
			Root:     engine.NewMapScanExec("people", parts, projections, filter),
			Query:    n.NewQueryContext(ctx, int64(30)),
			Consumer: c,
		})
		require.NoError(t, err)
		handles = append(handles, h)
		collectors = append(collectors, c)
	}

	var keys []int
	for i, h := range handles {
		require.NoError(t, h.Wait(ctx))
		assert.True(t, collectors[i].Done())
		for _, row := range collectors[i].Values() {
			keys = append(keys, int(row[0].(int64)))
		}
	}
	sort.Ints(keys)
	assert.Equal(t, []int{30, 31, 32, 33, 34, 35, 36, 37, 38, 39}, keys)
}

func TestPoolInterleavesFragments(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	ctrl := gomock.NewController(t)

	pool := NewPool(1)
	defer pool.Close()

	var rec recorder
	submitted := make(chan struct{})
	newFragment := func(name string, block bool) Fragment {
		exec := NewMockExecutable(ctrl)
		setup := exec.EXPECT().Setup(gomock.Any(), gomock.Any()).Return(nil)
		if block {
			setup.Do(func(*engine.QueryContext, engine.Worker) { <-submitted })
		}
		gomock.InOrder(
			exec.EXPECT().Advance().Return(engine.Fetched, nil).Times(2),
			exec.EXPECT().Advance().Return(engine.FetchedDone, nil),
		)
		exec.EXPECT().CurrentBatch().Return(batchOf(name)).Times(2)
		exec.EXPECT().CurrentBatch().Return(sqltypes.EmptyBatch)
		exec.EXPECT().Close()
		return Fragment{
			Root:  exec,
			Query: newQuery(ctx),
			Consumer: ConsumerFunc(func(batch sqltypes.RowBatch, last bool) error {
				rec.add("%s rows=%d last=%t", name, batch.RowCount(), last)
				return nil
			}),
		}
	}

	a, err := pool.Submit(newFragment("a", true))
	require.NoError(t, err)
	b, err := pool.Submit(newFragment("b", false))
	require.NoError(t, err)
	close(submitted)

	require.NoError(t, a.Wait(ctx))
	require.NoError(t, b.Wait(ctx))
	assert.Equal(t, []string{
		"a rows=1 last=false",
		"b rows=1 last=false",
		"a rows=1 last=false",
		"b rows=1 last=false",
		"a rows=0 last=true",
		"b rows=0 last=true",
	}, rec.get())
	assert.Equal(t, 3, a.Ticks())
}

func TestPoolRequeuesWaitingFragments(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	ctrl := gomock.NewController(t)

	exec := NewMockExecutable(ctrl)
	exec.EXPECT().Setup(gomock.Any(), gomock.Any()).Return(nil)
	gomock.InOrder(
		exec.EXPECT().Advance().Return(engine.Wait, nil).Times(3),
		exec.EXPECT().Advance().Return(engine.FetchedDone, nil),
	)
	exec.EXPECT().CurrentBatch().Return(batchOf("x"))
	exec.EXPECT().Close()

	pool := NewPool(2)
	defer pool.Close()

	c := &RowCollector{}
	h, err := pool.Submit(Fragment{Root: exec, Query: newQuery(ctx), Consumer: c})
	require.NoError(t, err)
	require.NoError(t, h.Wait(ctx))
	assert.Equal(t, 4, h.Ticks())
	assert.Equal(t, [][]any{{"x"}}, c.Values())
}

func TestPoolReschedule(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	ctrl := gomock.NewController(t)

	pool := NewPool(1)
	defer pool.Close()

	var rec recorder
	submitted := make(chan struct{})

	var worker engine.Worker
	a := NewMockExecutable(ctrl)
	a.EXPECT().Setup(gomock.Any(), gomock.Any()).DoAndReturn(func(_ *engine.QueryContext, w engine.Worker) error {
		worker = w
		<-submitted
		return nil
	})
	gomock.InOrder(
		a.EXPECT().Advance().DoAndReturn(func() (engine.IterationResult, error) {
			rec.add("a1")
			worker.Reschedule()
			return engine.Wait, nil
		}),
		a.EXPECT().Advance().DoAndReturn(func() (engine.IterationResult, error) {
			rec.add("a2")
			return engine.FetchedDone, nil
		}),
	)
	a.EXPECT().Close()

	b := NewMockExecutable(ctrl)
	b.EXPECT().Setup(gomock.Any(), gomock.Any()).Return(nil)
	b.EXPECT().Advance().DoAndReturn(func() (engine.IterationResult, error) {
		rec.add("b1")
		return engine.FetchedDone, nil
	})
	b.EXPECT().Close()

	ha, err := pool.Submit(Fragment{Root: a, Query: newQuery(ctx)})
	require.NoError(t, err)
	hb, err := pool.Submit(Fragment{Root: b, Query: newQuery(ctx)})
	require.NoError(t, err)
	close(submitted)

	require.NoError(t, ha.Wait(ctx))
	require.NoError(t, hb.Wait(ctx))
	assert.Equal(t, []string{"a1", "a2", "b1"}, rec.get())
	assert.Equal(t, 0, worker.ID())
}

// idlePool returns a pool without running workers, so tests can tick
// tasks by hand.
func idlePool(size int) (*Pool, []*poolWorker) {
	p := &Pool{size: size}
	p.cond = sync.NewCond(&p.mu)
	workers := make([]*poolWorker, size)
	for i := range workers {
		workers[i] = &poolWorker{id: i, pool: p}
	}
	return p, workers
}

func (p *Pool) queued() []*Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	var handles []*Handle
	for i := 0; i < p.queue.Len(); i++ {
		handles = append(handles, p.queue.At(i).handle)
	}
	return handles
}

func TestRescheduleFollowsFragmentAcrossWorkers(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	ctrl := gomock.NewController(t)

	pool, workers := idlePool(2)
	w0, w1 := workers[0], workers[1]

	var handle engine.Worker
	var ids []int
	a := NewMockExecutable(ctrl)
	a.EXPECT().Setup(gomock.Any(), gomock.Any()).DoAndReturn(func(_ *engine.QueryContext, w engine.Worker) error {
		handle = w
		ids = append(ids, w.ID())
		return nil
	})
	gomock.InOrder(
		a.EXPECT().Advance().Return(engine.Wait, nil),
		a.EXPECT().Advance().DoAndReturn(func() (engine.IterationResult, error) {
			ids = append(ids, handle.ID())
			handle.Reschedule()
			return engine.Wait, nil
		}),
		a.EXPECT().Advance().Return(engine.Wait, nil),
	)
	a.EXPECT().Close()

	b := NewMockExecutable(ctrl)
	b.EXPECT().Setup(gomock.Any(), gomock.Any()).Return(nil)
	b.EXPECT().Advance().Return(engine.Wait, nil).Times(2)
	b.EXPECT().Close()

	ha, err := pool.Submit(Fragment{Root: a, Query: newQuery(ctx)})
	require.NoError(t, err)
	hb, err := pool.Submit(Fragment{Root: b, Query: newQuery(ctx)})
	require.NoError(t, err)

	runOn := func(w *poolWorker, want *Handle) {
		t.Helper()
		task, ok := pool.next()
		require.True(t, ok)
		require.Equal(t, want, task.handle)
		w.runTask(task)
	}

	// Both fragments are set up on worker 0.
	runOn(w0, ha)
	runOn(w0, hb)
	assert.Equal(t, []*Handle{ha, hb}, pool.queued())

	// a moves to worker 1 and reschedules through the handle it got on
	// worker 0: it stays at the head.
	runOn(w1, ha)
	assert.Equal(t, []int{0, 1}, ids)
	assert.Equal(t, []*Handle{ha, hb}, pool.queued())

	runOn(w1, ha)
	assert.Equal(t, []*Handle{hb, ha}, pool.queued())

	// The reschedule of a does not leak into the next task of worker 0.
	runOn(w0, hb)
	assert.Equal(t, []*Handle{ha, hb}, pool.queued())

	pool.Close()
	assert.Equal(t, vtrpc.Code_UNAVAILABLE, vterrors.Code(ha.Err()))
	assert.Equal(t, vtrpc.Code_UNAVAILABLE, vterrors.Code(hb.Err()))
}

func TestRescheduleWithManyWorkers(t *testing.T) {
	ctx := utils.LeakCheckContext(t)

	pool := NewPool(2)
	defer pool.Close()

	const fragments, waits = 6, 20
	handles := make([]*Handle, fragments)
	for i := range handles {
		exec := &reschedulingExec{waits: waits}
		h, err := pool.Submit(Fragment{Root: exec, Query: newQuery(ctx)})
		require.NoError(t, err)
		handles[i] = h
	}
	for _, h := range handles {
		require.NoError(t, h.Wait(ctx))
		assert.Equal(t, waits+1, h.Ticks())
	}
}

// reschedulingExec asks to be rescheduled on every tick until it has
// waited enough times.
type reschedulingExec struct {
	worker engine.Worker
	waits  int
}

func (e *reschedulingExec) Setup(_ *engine.QueryContext, w engine.Worker) error {
	e.worker = w
	return nil
}

func (e *reschedulingExec) Advance() (engine.IterationResult, error) {
	if id := e.worker.ID(); id < 0 || id > 1 {
		return engine.Wait, fmt.Errorf("unexpected worker id %d", id)
	}
	if e.waits == 0 {
		return engine.FetchedDone, nil
	}
	e.waits--
	e.worker.Reschedule()
	return engine.Wait, nil
}

func (e *reschedulingExec) CurrentBatch() sqltypes.RowBatch { return sqltypes.EmptyBatch }

func (e *reschedulingExec) Close() {}

func TestPoolFailures(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	ctrl := gomock.NewController(t)

	pool := NewPool(2)
	defer pool.Close()

	setupErr := vterrors.NewErrorf(vtrpc.Code_FAILED_PRECONDITION, vterrors.SetupFailed, "no such map")
	failingSetup := NewMockExecutable(ctrl)
	failingSetup.EXPECT().Setup(gomock.Any(), gomock.Any()).Return(setupErr)
	failingSetup.EXPECT().Close()

	advanceErr := vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.EvaluationFailed, "bad filter")
	failingAdvance := NewMockExecutable(ctrl)
	failingAdvance.EXPECT().Setup(gomock.Any(), gomock.Any()).Return(nil)
	failingAdvance.EXPECT().Advance().Return(engine.Wait, advanceErr)
	failingAdvance.EXPECT().Close()

	consumerErr := errors.New("client went away")
	failingConsumer := NewMockExecutable(ctrl)
	failingConsumer.EXPECT().Setup(gomock.Any(), gomock.Any()).Return(nil)
	failingConsumer.EXPECT().Advance().Return(engine.Fetched, nil)
	failingConsumer.EXPECT().CurrentBatch().Return(batchOf(1))
	failingConsumer.EXPECT().Close()

	testcases := []struct {
		name     string
		fragment Fragment
		want     error
	}{{
		name:     "setup",
		fragment: Fragment{Root: failingSetup, Query: newQuery(ctx)},
		want:     setupErr,
	}, {
		name:     "advance",
		fragment: Fragment{Root: failingAdvance, Query: newQuery(ctx)},
		want:     advanceErr,
	}, {
		name: "consumer",
		fragment: Fragment{Root: failingConsumer, Query: newQuery(ctx), Consumer: ConsumerFunc(func(sqltypes.RowBatch, bool) error {
			return consumerErr
		})},
		want: consumerErr,
	}}
	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := pool.Submit(tc.fragment)
			require.NoError(t, err)
			assert.Equal(t, tc.want, h.Wait(ctx))
		})
	}
}

func TestPoolCancelledQuery(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	ctrl := gomock.NewController(t)

	exec := NewMockExecutable(ctrl)
	exec.EXPECT().Close()

	queryCtx, cancel := context.WithCancel(ctx)
	cancel()

	pool := NewPool(1)
	defer pool.Close()

	h, err := pool.Submit(Fragment{Root: exec, Query: newQuery(queryCtx)})
	require.NoError(t, err)
	err = h.Wait(ctx)
	assert.Equal(t, vtrpc.Code_CANCELED, vterrors.Code(err))
	assert.Equal(t, vterrors.QueryInterrupted, vterrors.ErrState(err))
	assert.Equal(t, "Cancelled", resultLabel(err))
}

func TestPoolCancelsRunningQuery(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	ctrl := gomock.NewController(t)

	queryCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	exec := NewMockExecutable(ctrl)
	exec.EXPECT().Setup(gomock.Any(), gomock.Any()).Return(nil)
	exec.EXPECT().Advance().Return(engine.Wait, nil).MinTimes(1)
	exec.EXPECT().Close()

	pool := NewPool(1)
	defer pool.Close()

	h, err := pool.Submit(Fragment{Root: exec, Query: newQuery(queryCtx)})
	require.NoError(t, err)

	select {
	case <-h.Done():
		t.Fatal("fragment finished before it was cancelled")
	case <-time.After(20 * time.Millisecond):
	}
	cancel()
	assert.Equal(t, vtrpc.Code_CANCELED, vterrors.Code(h.Err()))
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func TestPoolClose(t *testing.T) {
	ctx := utils.LeakCheckContext(t)
	ctrl := gomock.NewController(t)

	pool := NewPool(1)

	started := make(chan struct{})
	release := make(chan struct{})
	running := NewMockExecutable(ctrl)
	running.EXPECT().Setup(gomock.Any(), gomock.Any()).Return(nil)
	running.EXPECT().Advance().DoAndReturn(func() (engine.IterationResult, error) {
		close(started)
		<-release
		return engine.Wait, nil
	})
	running.EXPECT().Close()

	queued := NewMockExecutable(ctrl)
	queued.EXPECT().Close()

	h1, err := pool.Submit(Fragment{Root: running, Query: newQuery(ctx)})
	require.NoError(t, err)
	<-started
	h2, err := pool.Submit(Fragment{Root: queued, Query: newQuery(ctx)})
	require.NoError(t, err)

	closed := make(chan struct{})
	go func() {
		pool.Close()
		close(closed)
	}()
	require.Eventually(t, pool.isClosed, time.Second, time.Millisecond)
	close(release)
	<-closed

	assert.Equal(t, vtrpc.Code_UNAVAILABLE, vterrors.Code(h1.Err()))
	assert.Equal(t, vtrpc.Code_UNAVAILABLE, vterrors.Code(h2.Err()))

	_, err = pool.Submit(Fragment{Root: queued, Query: newQuery(ctx)})
	assert.Equal(t, vtrpc.Code_UNAVAILABLE, vterrors.Code(err))
	pool.Close()
}

func TestSubmitValidatesFragment(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	_, err := pool.Submit(Fragment{})
	assert.Equal(t, vtrpc.Code_INVALID_ARGUMENT, vterrors.Code(err))
}
