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

package evalengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/sqltypes"
)

func exprStrings(exprs []Expr) []string {
	strs := make([]string, len(exprs))
	for i, e := range exprs {
		strs[i] = e.String()
	}
	return strs
}

func TestSplitColumns(t *testing.T) {
	exprs, err := ParseProjections("__key, this.amount:BIGINT * $1, this.tag IS NULL AND this.amount:BIGINT > 100, -this.amount:BIGINT")
	require.NoError(t, err)

	columns, rewritten, computed := SplitColumns(exprs)
	assert.True(t, computed)
	assert.Equal(t, []string{"__key", "this.amount:BIGINT", "this.tag"}, exprStrings(columns))
	assert.Equal(t, []string{":0", "(:1 * $1)", "(:2 IS NULL AND :1 > 100)", "(0 - :1)"}, exprStrings(rewritten))

	direct := env(fields{"__key": "k1", "this.amount": int64(150), "this.tag": nil}, int64(3))
	values := make([]any, len(columns))
	types := make([]sqltypes.Type, len(columns))
	for i, c := range columns {
		values[i], err = c.Eval(direct)
		require.NoError(t, err)
		types[i] = c.Type()
	}
	row, err := sqltypes.NewHeapRowFromValues(types, values...)
	require.NoError(t, err)

	overRow := &ExpressionEnv{Row: row, Args: direct.Args}
	for i := range exprs {
		want, err := exprs[i].Eval(direct)
		require.NoError(t, err)
		got, err := rewritten[i].Eval(overRow)
		require.NoError(t, err)
		assert.Equal(t, want, got, exprs[i].String())
		assert.Equal(t, exprs[i].Type(), rewritten[i].Type())
	}
}

func TestSplitColumnsPlain(t *testing.T) {
	exprs, err := ParseProjections("__key, this.amount:BIGINT, this.amount:BIGINT")
	require.NoError(t, err)

	columns, rewritten, computed := SplitColumns(exprs)
	assert.False(t, computed)
	assert.Equal(t, []string{"__key", "this.amount:BIGINT"}, exprStrings(columns))
	assert.Equal(t, []string{":0", ":1", ":1"}, exprStrings(rewritten))
}
