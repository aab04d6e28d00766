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

package command

import (
	"bufio"
	"context"
	"io"
	"math"
	"strings"

	"github.com/tidwall/gjson"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/kvstore"
	"gridsql.io/gridsql/go/vt/log"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

const maxDocumentSize = 16 << 20

type loadStats struct {
	Documents int64 `json:"documents"`
	Bytes     int64 `json:"bytes"`
}

// loadDocuments stores every JSON line read from r in mapName, keyed by
// the value of keyField. The map is created if it does not exist.
func loadDocuments(ctx context.Context, ms *kvstore.MapService, mapName, keyField string, r io.Reader) (loadStats, error) {
	var st loadStats
	if _, err := ms.GetOrCreateMap(mapName); err != nil {
		return st, err
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxDocumentSize)
	for lineno := 1; sc.Scan(); lineno++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if !gjson.Valid(line) {
			return st, vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "line %d: invalid JSON document", lineno)
		}
		key, err := documentKey(gjson.Get(line, keyField))
		if err != nil {
			return st, vterrors.Wrapf(err, "line %d", lineno)
		}
		if _, err := ms.Put(ctx, mapName, key, sqltypes.JSONValue(line), 0); err != nil {
			return st, vterrors.Wrapf(err, "line %d", lineno)
		}
		st.Documents++
		st.Bytes += int64(len(line))
	}
	if err := sc.Err(); err != nil {
		return st, vterrors.Wrapf(err, "reading documents")
	}
	log.Infof("loaded %d documents into map %s", st.Documents, mapName)
	return st, nil
}

// documentKey converts a key field to the value entries are stored
// under. Integral numbers become int64 so that they route and compare
// like keys put through the API.
func documentKey(res gjson.Result) (any, error) {
	switch res.Type {
	case gjson.String:
		return res.Str, nil
	case gjson.Number:
		if res.Num == math.Trunc(res.Num) && math.Abs(res.Num) < 1<<53 {
			return res.Int(), nil
		}
		return res.Num, nil
	}
	if !res.Exists() {
		return nil, vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "document has no key field")
	}
	return nil, vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "key field must be a string or a number, got %s", res.Type)
}
