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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

func TestHeapRow(t *testing.T) {
	row := NewHeapRow([]Type{BigInt, VarChar, Object})
	assert.Equal(t, 3, row.Len())
	assert.Equal(t, []Type{BigInt, VarChar, Object}, row.Types())
	assert.Nil(t, row.Get(0))

	require.NoError(t, row.Set(0, int64(1)))
	require.NoError(t, row.Set(1, "x"))
	require.NoError(t, row.Set(2, map[string]any{"a": 1}))
	assert.Equal(t, `[BIGINT(1) VARCHAR("x") OBJECT(map[a:1])]`, row.String())

	err := row.Set(1, 10)
	require.Error(t, err)
	assert.Equal(t, vtrpc.Code_INVALID_ARGUMENT, vterrors.Code(err))
	assert.Equal(t, "x", row.Get(1), "failed Set must not change the slot")

	err = row.Set(3, nil)
	assert.Equal(t, vtrpc.Code_OUT_OF_RANGE, vterrors.Code(err))

	require.NoError(t, row.Set(1, nil))
	assert.Equal(t, `[BIGINT(1) NULL OBJECT(map[a:1])]`, row.String())
}

func TestHeapRowIsBatchOfOne(t *testing.T) {
	row, err := NewHeapRowFromValues([]Type{Boolean}, true)
	require.NoError(t, err)

	var batch RowBatch = row
	assert.Equal(t, 1, batch.RowCount())
	assert.Same(t, row, batch.Row(0))
	assert.Panics(t, func() { batch.Row(1) })

	_, err = NewHeapRowFromValues([]Type{Boolean, Int}, true)
	assert.Error(t, err)
	_, err = NewHeapRowFromValues([]Type{Boolean}, "yes")
	assert.Error(t, err)
}

func TestEmptyBatch(t *testing.T) {
	assert.Equal(t, 0, EmptyBatch.RowCount())
	assert.Panics(t, func() { EmptyBatch.Row(0) })
	assert.Nil(t, BatchRows(EmptyBatch))
}

func TestListRowBatch(t *testing.T) {
	r1, _ := NewHeapRowFromValues([]Type{BigInt}, 1)
	r2, _ := NewHeapRowFromValues([]Type{BigInt}, 2)
	batch := ListRowBatch{r1, r2}
	assert.Equal(t, 2, batch.RowCount())
	assert.Equal(t, []Row{r1, r2}, BatchRows(batch))
	assert.Equal(t, []any{2}, RowValues(batch.Row(1)))
}
