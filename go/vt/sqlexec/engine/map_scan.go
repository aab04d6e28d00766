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
	"time"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/kvstore"
	"gridsql.io/gridsql/go/vt/log"
	"gridsql.io/gridsql/go/vt/serialization"
	"gridsql.io/gridsql/go/vt/sqlexec/evalengine"
	"gridsql.io/gridsql/go/vt/sqlexec/extractors"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

var _ Exec = (*MapScanExec)(nil)
var _ KeyValueRowExtractor = (*MapScanExec)(nil)

// MapScanExec reads the entries of a map in a set of partitions, keeps the
// ones matching Filter and produces one row of Projections per entry.
//
// All qualifying rows are read into memory on the first Advance. Later
// calls hand them out one per call, in ascending partition order and in
// record order within a partition.
type MapScanExec struct {
	execBase

	MapName     string
	Partitions  PartitionIDSet
	Projections []evalengine.Expr
	// Filter is optional.
	Filter evalengine.Expr

	types   []sqltypes.Type
	metrics *Metrics

	msc  *kvstore.MapServiceContext
	ss   *serialization.Service
	ext  *extractors.Extractors
	row  *KeyValueRow
	env  *evalengine.ExpressionEnv
	rows rowCursor

	current sqltypes.RowBatch
}

// NewMapScanExec returns a scan of mapName over parts. filter may be nil.
func NewMapScanExec(mapName string, parts PartitionIDSet, projections []evalengine.Expr, filter evalengine.Expr) *MapScanExec {
	types := make([]sqltypes.Type, len(projections))
	for i, p := range projections {
		types[i] = p.Type()
	}
	return &MapScanExec{
		execBase:    execBase{name: "MapScan(" + mapName + ")"},
		MapName:     mapName,
		Partitions:  parts,
		Projections: projections,
		Filter:      filter,
		types:       types,
		metrics:     InitializeMetrics(),
		current:     sqltypes.EmptyBatch,
	}
}

// Types returns the types of the produced rows.
func (m *MapScanExec) Types() []sqltypes.Type { return m.types }

// Setup resolves the map and its services. It does not read any
// partition.
func (m *MapScanExec) Setup(qctx *QueryContext, w Worker) error {
	if err := m.beginSetup(qctx, w); err != nil {
		return err
	}
	node := qctx.NodeEngine()
	if node == nil || node.MapService() == nil || node.SerializationService() == nil {
		return m.failSetup(vterrors.NewErrorf(vtrpc.Code_FAILED_PRECONDITION, vterrors.SetupFailed, "map %s: query is not bound to a node", m.MapName))
	}
	msc, err := node.MapService().MapServiceContext(m.MapName)
	if err != nil {
		code := vterrors.Code(err)
		return m.failSetup(vterrors.NewErrorf(code, vterrors.SetupFailed, "setting up scan: %v", err))
	}
	if m.Partitions.Count() > 0 && m.Partitions.PartitionCount() != msc.PartitionCount() {
		return m.failSetup(vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.SetupFailed,
			"map %s: partition set is for %d partitions, store has %d", m.MapName, m.Partitions.PartitionCount(), msc.PartitionCount()))
	}

	m.msc = msc
	m.ss = node.SerializationService()
	m.ext = msc.Extractors()
	m.row = NewKeyValueRow(m)
	m.env = &evalengine.ExpressionEnv{Args: qctx.Args(), Fields: m.row}
	log.DebugS("map scan set up", "query", qctx.ID().String(), "map", m.MapName, "partitions", m.Partitions.String())
	return nil
}

// Advance implements Exec.
func (m *MapScanExec) Advance() (IterationResult, error) {
	if err := m.checkAdvance(); err != nil {
		return Wait, err
	}
	if m.state == stateSetupDone {
		if err := m.materialize(); err != nil {
			m.rows.release()
			log.WarnS("map scan failed", "query", m.qctx.ID().String(), "map", m.MapName, "error", err.Error())
			return m.fail(err)
		}
		m.state = stateScanning
	}
	if m.state == stateScanning {
		if row, ok := m.rows.next(); ok {
			m.current = row
			return Fetched, nil
		}
		m.state = stateExhausted
		m.rows.release()
	}
	m.current = sqltypes.EmptyBatch
	return FetchedDone, nil
}

// CurrentBatch implements Exec.
func (m *MapScanExec) CurrentBatch() sqltypes.RowBatch { return m.current }

// Inputs implements Exec.
func (m *MapScanExec) Inputs() []Exec { return nil }

// Close implements Exec.
func (m *MapScanExec) Close() {
	m.rows.release()
	m.current = sqltypes.EmptyBatch
	m.msc = nil
	m.ext = nil
	m.env = nil
	m.row = nil
	m.close()
}

func (m *MapScanExec) materialize() error {
	if m.Partitions.Count() == 0 {
		return nil
	}

	start := time.Now()
	now := m.qctx.Now()
	checkEvery := scanCancelCheckInterval()
	var rows []*sqltypes.HeapRow
	scanned := 0
	for _, pid := range m.Partitions.IDs() {
		pc, err := m.msc.PartitionContainer(pid)
		if err != nil {
			return err
		}
		m.metrics.partitionsScanned.Add(m.MapName, 1)
		rs, ok := pc.ExistingRecordStore(m.MapName)
		if !ok {
			continue
		}
		it := rs.LoadAwareIterator(now, false)
		for it.HasNext() {
			if scanned%checkEvery == 0 {
				if err := m.qctx.Err(); err != nil {
					return err
				}
			}
			rec := it.Next()
			scanned++
			row, err := m.process(pid, rec)
			if err != nil {
				return err
			}
			if row != nil {
				rows = append(rows, row)
			}
		}
	}

	m.rows.reset(rows)
	m.metrics.rowsScanned.Add(m.MapName, int64(scanned))
	m.metrics.rowsEmitted.Add(m.MapName, int64(len(rows)))
	m.metrics.scanTimings.Record(m.MapName, start)
	if log.V(2) {
		log.Infof("map scan of %s over partitions %s: %d records read, %d rows in %v", m.MapName, m.Partitions, scanned, len(rows), time.Since(start))
	}
	return nil
}

// process returns the row for rec, or nil if the filter rejects it.
func (m *MapScanExec) process(pid int, rec *kvstore.Record) (*sqltypes.HeapRow, error) {
	key, err := m.ss.ToObject(rec.Key)
	if err != nil {
		return nil, vterrors.Wrapf(err, "map %s partition %d: decoding key", m.MapName, pid)
	}
	value, err := m.ss.ToObject(rec.Value)
	if err != nil {
		return nil, vterrors.Wrapf(err, "map %s partition %d: decoding value", m.MapName, pid)
	}
	m.row.SetKeyValue(key, value)

	if m.Filter != nil {
		ok, err := evalengine.EvaluateBool(m.env, m.Filter)
		if err != nil {
			return nil, m.evaluationError(pid, "filter", m.Filter, err)
		}
		if !ok {
			return nil, nil
		}
	}

	row := sqltypes.NewHeapRow(m.types)
	for i, p := range m.Projections {
		v, err := p.Eval(m.env)
		if err == nil {
			err = row.Set(i, v)
		}
		if err != nil {
			return nil, m.evaluationError(pid, "projection", p, err)
		}
	}
	return row, nil
}

func (m *MapScanExec) evaluationError(pid int, what string, expr evalengine.Expr, err error) error {
	return vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.EvaluationFailed, "map %s partition %d: %s %s: %v", m.MapName, pid, what, expr, err)
}

// Extract resolves path against an entry. __key and this name the key
// and the value; __key.<path> is resolved against the key and any other
// path against the value. Documents are parsed before they are returned.
func (m *MapScanExec) Extract(key, value any, path string) (any, error) {
	var (
		res any
		err error
	)
	switch {
	case path == extractors.KeyAttributeName:
		res = key
	case path == extractors.ThisAttributeName:
		res = value
	case strings.HasPrefix(path, extractors.KeyAttributeName+"."):
		res, err = m.ext.Extract(key, path[len(extractors.KeyAttributeName)+1:])
	default:
		res, err = m.ext.Extract(value, strings.TrimPrefix(path, extractors.ThisAttributeName+"."))
	}
	if err != nil {
		return nil, err
	}
	if doc, ok := res.(sqltypes.JSONValue); ok {
		return extractors.ParseJSON(doc)
	}
	return res, nil
}

func (m *MapScanExec) description() PlanDescription {
	other := map[string]any{
		"Map":        m.MapName,
		"Partitions": m.Partitions.String(),
	}
	if len(m.Projections) > 0 {
		other["Projections"] = exprList(m.Projections)
	}
	if m.Filter != nil {
		other["Filter"] = m.Filter.String()
	}
	return PlanDescription{
		OperatorType: "MapScan",
		Other:        other,
	}
}
