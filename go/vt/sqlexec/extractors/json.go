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
	"strconv"

	"github.com/tidwall/gjson"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// ParseJSON converts a document into map[string]any, []any or a scalar.
// Integral numbers become int64, other numbers float64.
func ParseJSON(doc sqltypes.JSONValue) (any, error) {
	if !gjson.Valid(string(doc)) {
		return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.EvaluationFailed, "invalid JSON document")
	}
	return fromResult(gjson.Parse(string(doc))), nil
}

func fromResult(res gjson.Result) any {
	switch res.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return res.Str
	case gjson.Number:
		if i, err := strconv.ParseInt(res.Raw, 10, 64); err == nil {
			return i
		}
		return res.Num
	}

	if res.IsArray() {
		elems := res.Array()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = fromResult(e)
		}
		return out
	}
	out := make(map[string]any)
	res.ForEach(func(key, value gjson.Result) bool {
		out[key.Str] = fromResult(value)
		return true
	})
	return out
}
