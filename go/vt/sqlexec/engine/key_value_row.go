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

import "gridsql.io/gridsql/go/vt/sqlexec/evalengine"

// KeyValueRowExtractor resolves an attribute path against a key/value
// pair.
type KeyValueRowExtractor interface {
	Extract(key, value any, path string) (any, error)
}

// KeyValueRow is the entry an operator is currently looking at, exposed
// to Column expressions.
type KeyValueRow struct {
	extractor  KeyValueRowExtractor
	key, value any
}

var _ evalengine.ColumnGetter = (*KeyValueRow)(nil)

// NewKeyValueRow returns an unbound row resolving paths with extractor.
func NewKeyValueRow(extractor KeyValueRowExtractor) *KeyValueRow {
	return &KeyValueRow{extractor: extractor}
}

// SetKeyValue binds the row to a decoded key and value.
func (r *KeyValueRow) SetKeyValue(key, value any) {
	r.key = key
	r.value = value
}

// Key returns the bound key.
func (r *KeyValueRow) Key() any { return r.key }

// Value returns the bound value.
func (r *KeyValueRow) Value() any { return r.value }

// GetColumn implements evalengine.ColumnGetter.
func (r *KeyValueRow) GetColumn(path string) (any, error) {
	return r.extractor.Extract(r.key, r.value, path)
}
