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

// Package worker runs query fragments on a fixed pool of goroutines.
//
// Fragments share one run queue. A worker takes the fragment at the head
// of the queue, advances its root operator once and puts it back at the
// tail, so many fragments progress in turn on few goroutines.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/deque"
	"golang.org/x/sync/errgroup"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/log"
	"gridsql.io/gridsql/go/vt/logutil"
	"gridsql.io/gridsql/go/vt/sqlexec/engine"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// Executable is the part of engine.Exec the pool drives.
type Executable interface {
	Setup(qctx *engine.QueryContext, w engine.Worker) error
	Advance() (engine.IterationResult, error)
	CurrentBatch() sqltypes.RowBatch
	Close()
}

// Consumer receives the batches of a fragment. last is set on the final
// batch, which may be empty.
type Consumer interface {
	Consume(batch sqltypes.RowBatch, last bool) error
}

// Fragment is the unit of work of the pool: an operator tree bound to a
// query.
type Fragment struct {
	Root     Executable
	Query    *engine.QueryContext
	Consumer Consumer
}

// Handle tracks a submitted fragment.
type Handle struct {
	done  chan struct{}
	err   error
	ticks int
}

// Done is closed when the fragment has completed or failed.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the outcome of a finished fragment.
func (h *Handle) Err() error {
	<-h.done
	return h.err
}

// Wait blocks until the fragment is finished or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ticks returns the number of times the fragment was advanced. It is
// only meaningful once the fragment is finished.
func (h *Handle) Ticks() int {
	<-h.done
	return h.ticks
}

var failureLogger = logutil.NewThrottledLogger("worker", time.Second)

type task struct {
	fragment Fragment
	handle   *Handle
	setup    bool
	started  time.Time

	// Set by the pool worker running the current tick.
	workerID    int
	rescheduled bool
}

// taskWorker is the engine.Worker handed to a fragment at setup. It
// follows the fragment from one pool worker to the next.
type taskWorker struct {
	t *task
}

var _ engine.Worker = taskWorker{}

// ID returns the pool worker running the current tick.
func (w taskWorker) ID() int { return w.t.workerID }

// Reschedule puts the fragment at the head of the queue instead of the
// tail after the current tick.
func (w taskWorker) Reschedule() { w.t.rescheduled = true }

// Pool is a fixed set of workers sharing a run queue.
type Pool struct {
	size int

	mu     sync.Mutex
	cond   *sync.Cond
	queue  deque.Deque[*task]
	closed bool

	workers errgroup.Group
}

// NewPool starts size workers.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{size: size}
	p.cond = sync.NewCond(&p.mu)
	for i := 0; i < size; i++ {
		w := &poolWorker{id: i, pool: p}
		p.workers.Go(func() error {
			w.run()
			return nil
		})
	}
	log.Infof("worker pool started with %d workers", size)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Submit queues a fragment. It fails if the pool is closed.
func (p *Pool) Submit(f Fragment) (*Handle, error) {
	if f.Root == nil || f.Query == nil {
		return nil, vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "fragment needs a root operator and a query context")
	}
	t := &task{fragment: f, handle: &Handle{done: make(chan struct{})}, started: time.Now()}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, vterrors.Errorf(vtrpc.Code_UNAVAILABLE, "worker pool is closed")
	}
	p.queue.PushBack(t)
	queueLength.Set(int64(p.queue.Len()))
	fragmentsStarted.Add(1)
	p.cond.Signal()
	return t.handle, nil
}

// Close stops the workers. Fragments still queued fail with UNAVAILABLE.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()

	_ = p.workers.Wait()

	for p.queue.Len() > 0 {
		t := p.queue.PopFront()
		finish(t, vterrors.Errorf(vtrpc.Code_UNAVAILABLE, "worker pool closed before %s finished", t.fragment.Query))
	}
	queueLength.Set(0)
}

// next blocks until a task is available. It returns false once the pool
// is closed.
func (p *Pool) next() (*task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.queue.Len() == 0 && !p.closed {
		p.cond.Wait()
	}
	if p.closed {
		return nil, false
	}
	t := p.queue.PopFront()
	queueLength.Set(int64(p.queue.Len()))
	return t, true
}

func (p *Pool) requeue(t *task, front bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if front {
		p.queue.PushFront(t)
	} else {
		p.queue.PushBack(t)
	}
	queueLength.Set(int64(p.queue.Len()))
	p.cond.Signal()
}

// poolWorker is one goroutine of the pool.
type poolWorker struct {
	id   int
	pool *Pool
}

func (w *poolWorker) run() {
	for {
		t, ok := w.pool.next()
		if !ok {
			return
		}
		w.runTask(t)
	}
}

// runTask ticks t once and puts it back on the queue if it is not done.
func (w *poolWorker) runTask(t *task) {
	t.workerID = w.id
	t.rescheduled = false
	if w.tick(t) {
		w.pool.requeue(t, t.rescheduled)
	}
}

// tick advances t once and reports whether t wants another tick.
func (w *poolWorker) tick(t *task) bool {
	ticks.Add(1)
	t.handle.ticks++
	f := t.fragment

	if err := f.Query.Err(); err != nil {
		finish(t, err)
		return false
	}
	if !t.setup {
		t.setup = true
		if err := f.Root.Setup(f.Query, taskWorker{t: t}); err != nil {
			finish(t, err)
			return false
		}
	}

	res, err := f.Root.Advance()
	if err != nil {
		finish(t, err)
		return false
	}
	switch res {
	case engine.Wait:
		return true
	case engine.Fetched:
		if err := consume(f, false); err != nil {
			finish(t, err)
			return false
		}
		return true
	default:
		finish(t, consume(f, true))
		return false
	}
}

func consume(f Fragment, last bool) error {
	if f.Consumer == nil {
		return nil
	}
	return f.Consumer.Consume(f.Root.CurrentBatch(), last)
}

func finish(t *task, err error) {
	t.fragment.Root.Close()
	t.handle.err = err
	close(t.handle.done)

	fragmentTimings.Record(resultLabel(err), t.started)
	fragmentsFinished.Add(resultLabel(err), 1)
	if err != nil && vterrors.Code(err) != vtrpc.Code_CANCELED {
		failureLogger.Warningf("%s failed: %v", t.fragment.Query, err)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "Success"
	case vterrors.Code(err) == vtrpc.Code_CANCELED || vterrors.Code(err) == vtrpc.Code_DEADLINE_EXCEEDED:
		return "Cancelled"
	default:
		return "Failed"
	}
}
