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

package sqltypes

import (
	"fmt"
	"strings"

	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// Row is a fixed-arity tuple of values. Slot i holds a value assignable
// to Types()[i], or nil.
type Row interface {
	Get(i int) any
	Len() int
	Types() []Type
}

// RowBatch is the group of rows an operator surfaces from one call to
// Advance. A batch may be empty.
type RowBatch interface {
	Row(i int) Row
	RowCount() int
}

// HeapRow is a Row whose slot types are fixed when it is created.
// A HeapRow is also a RowBatch holding exactly itself.
type HeapRow struct {
	types  []Type
	values []any
}

// NewHeapRow returns a row with all slots set to nil. The types slice is
// shared, not copied; callers must not mutate it afterwards.
func NewHeapRow(types []Type) *HeapRow {
	return &HeapRow{
		types:  types,
		values: make([]any, len(types)),
	}
}

// NewHeapRowFromValues returns a row holding values, checking every
// value against its declared type.
func NewHeapRowFromValues(types []Type, values ...any) (*HeapRow, error) {
	if len(types) != len(values) {
		return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongValue, "row has %d types but %d values", len(types), len(values))
	}
	row := NewHeapRow(types)
	for i, v := range values {
		if err := row.Set(i, v); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// Set stores v in slot i. v must be nil or assignable to the slot type.
func (r *HeapRow) Set(i int, v any) error {
	if i < 0 || i >= len(r.values) {
		return vterrors.NewErrorf(vtrpc.Code_OUT_OF_RANGE, vterrors.WrongValue, "column index %d out of range for row of %d columns", i, len(r.values))
	}
	if !IsAssignable(r.types[i], v) {
		return vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "column %d: value of type %s is not assignable to %s", i, TypeOf(v), r.types[i])
	}
	r.values[i] = v
	return nil
}

// Get returns the value in slot i.
func (r *HeapRow) Get(i int) any { return r.values[i] }

// Len returns the row arity.
func (r *HeapRow) Len() int { return len(r.values) }

// Types returns the declared slot types.
func (r *HeapRow) Types() []Type { return r.types }

// Values returns the slot values. The slice must not be modified.
func (r *HeapRow) Values() []any { return r.values }

// Row implements RowBatch.
func (r *HeapRow) Row(i int) Row {
	if i != 0 {
		panic(fmt.Sprintf("row index %d out of range for a single-row batch", i))
	}
	return r
}

// RowCount implements RowBatch.
func (r *HeapRow) RowCount() int { return 1 }

// String renders the row as [TYPE(value) ...].
func (r *HeapRow) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range r.values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(FormatValue(r.types[i], v))
	}
	sb.WriteByte(']')
	return sb.String()
}

// FormatValue renders a single typed value for debugging output.
func FormatValue(t Type, v any) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case string:
		return fmt.Sprintf("%s(%q)", t, v)
	case JSONValue:
		return fmt.Sprintf("%s(%s)", t, string(v))
	default:
		return fmt.Sprintf("%s(%v)", t, v)
	}
}

type emptyRowBatch struct{}

func (emptyRowBatch) Row(i int) Row {
	panic(fmt.Sprintf("row index %d out of range for an empty batch", i))
}

func (emptyRowBatch) RowCount() int { return 0 }

func (emptyRowBatch) String() string { return "[]" }

// EmptyBatch is the batch returned when an operator has no rows to
// surface. It is shared by every operator.
var EmptyBatch RowBatch = emptyRowBatch{}

// ListRowBatch is a batch backed by a slice of rows.
type ListRowBatch []Row

// Row implements RowBatch.
func (b ListRowBatch) Row(i int) Row { return b[i] }

// RowCount implements RowBatch.
func (b ListRowBatch) RowCount() int { return len(b) }

// BatchRows copies the rows of a batch into a slice.
func BatchRows(batch RowBatch) []Row {
	n := batch.RowCount()
	if n == 0 {
		return nil
	}
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = batch.Row(i)
	}
	return rows
}

// RowValues returns the values of any Row as a slice.
func RowValues(row Row) []any {
	if hr, ok := row.(*HeapRow); ok {
		return hr.values
	}
	values := make([]any, row.Len())
	for i := range values {
		values[i] = row.Get(i)
	}
	return values
}
