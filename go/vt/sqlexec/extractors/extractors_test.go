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

package extractors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

type address struct {
	City string
	Zip  *string
}

type customer struct {
	Name      string
	Addresses []address
	Tags      map[string]string
	secret    string
}

func TestExtract(t *testing.T) {
	zip := "10115"
	cust := &customer{
		Name:      "ada",
		Addresses: []address{{City: "Berlin", Zip: &zip}},
		Tags:      map[string]string{"tier": "gold"},
		secret:    "x",
	}
	doc := map[string]any{
		"amount": int64(150),
		"items":  []any{map[string]any{"sku": "a1"}, map[string]any{"sku": "b2"}},
		"meta":   map[any]any{"source": "web"},
		"blob":   sqltypes.JSONValue(`{"deep":{"n":[1,2.5,"z"]}}`),
	}

	testcases := []struct {
		target any
		path   string
		want   any
	}{
		{doc, "amount", int64(150)},
		{doc, "missing", nil},
		{doc, "missing.deeper", nil},
		{doc, "items[1].sku", "b2"},
		{doc, "items[5].sku", nil},
		{doc, "meta.source", "web"},
		{doc, "blob.deep.n[0]", int64(1)},
		{doc, "blob.deep.n[1]", 2.5},
		{doc, "blob.deep.n[2]", "z"},
		{doc, "blob.deep.absent", nil},
		{doc, "blob.deep", map[string]any{"n": []any{int64(1), 2.5, "z"}}},
		{cust, "Name", "ada"},
		{cust, "name", "ada"},
		{cust, "addresses[0].city", "Berlin"},
		{cust, "Addresses[0].Zip", &zip},
		{cust, "Tags.tier", "gold"},
		{cust, "Tags.none", nil},
		{sqltypes.JSONValue(`{"a":5}`), "a", int64(5)},
		{sqltypes.JSONValue(`[{"a":true}]`), "[0].a", true},
		{nil, "a", nil},
	}

	e := New(time.Minute)
	for _, tc := range testcases {
		got, err := e.Extract(tc.target, tc.path)
		require.NoErrorf(t, err, "Extract(%s)", tc.path)
		assert.Equalf(t, tc.want, got, "Extract(%s)", tc.path)
	}
}

func TestExtractErrors(t *testing.T) {
	e := New(time.Minute)
	testcases := []struct {
		target any
		path   string
		err    string
	}{
		{customer{}, "Phone", `resolving Phone: extractors.customer has no field "Phone"`},
		{customer{}, "secret", `resolving secret: extractors.customer has no field "secret"`},
		{map[string]any{"n": int64(1)}, "n.x", `resolving n.x: cannot access field "x" of int64`},
		{map[string]any{"n": "s"}, "n[0]", `resolving n[0]: cannot index string`},
		{map[string]any{}, "a..b", `malformed attribute path "a..b"`},
		{map[string]any{}, "a[x]", `bad index "x" in attribute path "a[x]"`},
		{map[string]any{}, "a[1", `unterminated index in attribute path "a[1"`},
		{map[string]any{}, "", `empty attribute path`},
		{sqltypes.JSONValue(`{"a":`), "a", `invalid JSON document`},
	}
	for _, tc := range testcases {
		_, err := e.Extract(tc.target, tc.path)
		require.Errorf(t, err, "Extract(%q)", tc.path)
		assert.Equal(t, tc.err, err.Error())
		assert.Equal(t, vtrpc.Code_INVALID_ARGUMENT, vterrors.Code(err))
		assert.Equal(t, vterrors.BadFieldError, vterrors.ErrState(err))
	}
}

func TestGetterCache(t *testing.T) {
	e := New(time.Minute)
	target := map[string]any{"a": map[string]any{"b": int64(1)}}

	for i := 0; i < 3; i++ {
		got, err := e.Extract(target, "a.b")
		require.NoError(t, err)
		assert.EqualValues(t, 1, got)
	}
	assert.Equal(t, 1, e.CachedGetters())

	_, err := e.Extract(sqltypes.JSONValue(`{"a":{"b":1}}`), "a.b")
	require.NoError(t, err)
	assert.Equal(t, 2, e.CachedGetters(), "getters are cached per target type")
}

func TestParsePath(t *testing.T) {
	steps, err := parsePath("a.b[2][0].c")
	require.NoError(t, err)
	assert.Equal(t, []step{{name: "a"}, {name: "b"}, {index: 2, isIdx: true}, {index: 0, isIdx: true}, {name: "c"}}, steps)
	assert.Equal(t, "a.b[2][0].c", pathString(steps))
	assert.Equal(t, "a.b.2.0.c", gjsonPath(steps))

	steps, err = parsePath("odd*name")
	require.NoError(t, err)
	assert.Equal(t, `odd\*name`, gjsonPath(steps))
}

func TestParseJSON(t *testing.T) {
	got, err := ParseJSON(`{"a":5,"b":[1.5,null,false],"c":"x","big":12345678901234567890}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"a":   int64(5),
		"b":   []any{1.5, nil, false},
		"c":   "x",
		"big": 12345678901234567890.0,
	}, got)

	got, err = ParseJSON(`7`)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got)

	_, err = ParseJSON(`{"a"`)
	assert.Equal(t, vtrpc.Code_INVALID_ARGUMENT, vterrors.Code(err))
}
