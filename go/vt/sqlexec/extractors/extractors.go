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

// Package extractors resolves dotted attribute paths against stored
// objects.
//
// A path is a dot separated list of field names, each optionally
// followed by one or more slice indexes: "customer.addresses[0].city".
// Fields are looked up in map[string]any and map[any]any values, in
// exported struct fields (exact name first, then case-insensitively) and,
// through pointers, in the values they point to. Document values
// (sqltypes.JSONValue) are resolved with gjson without being fully
// parsed.
//
// Missing map keys, nil intermediates and out-of-range indexes resolve
// to nil. Unknown struct fields and indexing something that is not a
// slice are errors.
package extractors

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/stats"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

const (
	// KeyAttributeName addresses the whole key of an entry.
	KeyAttributeName = "__key"
	// ThisAttributeName addresses the whole value of an entry.
	ThisAttributeName = "this"
)

var getterCacheResults = stats.NewCountersWithSingleLabel("ExtractorGetterCache", "Getter cache lookups by result", "Result")

// getter is a compiled path for one dynamic target type.
type getter struct {
	steps []step
	// json is the gjson form of steps, used for document targets.
	json string
}

// Extractors resolves attribute paths. Compiled paths are cached per
// target type and path.
type Extractors struct {
	getters *cache.Cache
}

// New returns extractors whose compiled getters expire after ttl of
// not being used.
func New(ttl time.Duration) *Extractors {
	return &Extractors{getters: cache.New(ttl, 2*ttl)}
}

// Extract resolves path against target.
func (e *Extractors) Extract(target any, path string) (any, error) {
	if target == nil {
		return nil, nil
	}
	g, err := e.getter(target, path)
	if err != nil {
		return nil, err
	}
	return g.get(target)
}

func (e *Extractors) getter(target any, path string) (*getter, error) {
	key := fmt.Sprintf("%T\x00%s", target, path)
	if g, ok := e.getters.Get(key); ok {
		getterCacheResults.Add("Hit", 1)
		e.getters.SetDefault(key, g)
		return g.(*getter), nil
	}
	getterCacheResults.Add("Miss", 1)

	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	g := &getter{steps: steps, json: gjsonPath(steps)}
	e.getters.SetDefault(key, g)
	return g, nil
}

// CachedGetters returns the number of compiled getters held in the cache.
func (e *Extractors) CachedGetters() int {
	return e.getters.ItemCount()
}

func (g *getter) get(target any) (any, error) {
	cur := target
	for i, s := range g.steps {
		if cur == nil {
			return nil, nil
		}
		if doc, ok := cur.(sqltypes.JSONValue); ok {
			return extractJSON(doc, gjsonPath(g.steps[i:]))
		}

		var err error
		if s.isIdx {
			cur, err = index(cur, s.index)
		} else {
			cur, err = field(cur, s.name)
		}
		if err != nil {
			return nil, vterrors.Wrapf(err, "resolving %s", pathString(g.steps[:i+1]))
		}
	}
	return cur, nil
}

func pathString(steps []step) string {
	var sb strings.Builder
	for i, s := range steps {
		if i > 0 && !s.isIdx {
			sb.WriteByte('.')
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

func field(cur any, name string) (any, error) {
	switch m := cur.(type) {
	case map[string]any:
		return m[name], nil
	case map[any]any:
		return m[name], nil
	}

	v := reflect.ValueOf(cur)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		val := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !val.IsValid() {
			return nil, nil
		}
		return val.Interface(), nil
	case reflect.Struct:
		f := v.FieldByName(name)
		if !f.IsValid() {
			f = v.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
		}
		if !f.IsValid() || !f.CanInterface() {
			return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadFieldError, "%s has no field %q", v.Type(), name)
		}
		return f.Interface(), nil
	}
	return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadFieldError, "cannot access field %q of %T", name, cur)
}

func index(cur any, i int) (any, error) {
	if s, ok := cur.([]any); ok {
		if i >= len(s) {
			return nil, nil
		}
		return s[i], nil
	}

	v := reflect.ValueOf(cur)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if i >= v.Len() {
			return nil, nil
		}
		return v.Index(i).Interface(), nil
	}
	return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadFieldError, "cannot index %T", cur)
}

func extractJSON(doc sqltypes.JSONValue, path string) (any, error) {
	if !gjson.Valid(string(doc)) {
		return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadFieldError, "invalid JSON document")
	}
	res := gjson.Get(string(doc), path)
	if !res.Exists() {
		return nil, nil
	}
	return fromResult(res), nil
}
