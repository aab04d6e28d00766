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
	"time"

	"github.com/google/uuid"

	"gridsql.io/gridsql/go/vt/kvstore"
	"gridsql.io/gridsql/go/vt/serialization"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// NodeEngine gives operators access to the services of the local node.
type NodeEngine interface {
	MapService() *kvstore.MapService
	SerializationService() *serialization.Service
}

// QueryContext is the query-scoped state shared by all operators of a
// fragment.
type QueryContext struct {
	id   uuid.UUID
	ctx  context.Context
	node NodeEngine
	args []any
	now  func() time.Time
}

// NewQueryContext returns a context for a new query on node. ctx controls
// cancellation of the query.
func NewQueryContext(ctx context.Context, node NodeEngine, args ...any) *QueryContext {
	return &QueryContext{
		id:   uuid.New(),
		ctx:  ctx,
		node: node,
		args: args,
		now:  time.Now,
	}
}

// ID returns the query id.
func (qc *QueryContext) ID() uuid.UUID { return qc.id }

// Context returns the context of the query.
func (qc *QueryContext) Context() context.Context { return qc.ctx }

// NodeEngine returns the node the query runs on.
func (qc *QueryContext) NodeEngine() NodeEngine { return qc.node }

// Args returns the positional query arguments.
func (qc *QueryContext) Args() []any { return qc.args }

// Now returns the time used to evaluate record expiration.
func (qc *QueryContext) Now() time.Time { return qc.now() }

// Cancelled reports whether the query was cancelled or timed out.
func (qc *QueryContext) Cancelled() bool { return qc.ctx.Err() != nil }

// Err returns a CANCELED error, or DEADLINE_EXCEEDED if the query timed
// out, once the query is cancelled. It returns nil otherwise.
func (qc *QueryContext) Err() error {
	switch err := qc.ctx.Err(); err {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return vterrors.NewErrorf(vtrpc.Code_DEADLINE_EXCEEDED, vterrors.QueryInterrupted, "query %s timed out", qc.id)
	default:
		return vterrors.NewErrorf(vtrpc.Code_CANCELED, vterrors.QueryInterrupted, "query %s was cancelled", qc.id)
	}
}

func (qc *QueryContext) String() string { return "query " + qc.id.String() }
