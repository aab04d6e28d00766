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

import "gridsql.io/gridsql/go/sqltypes"

// rowCursor hands out a frozen list of rows one at a time. A row is
// dropped from the cursor as soon as it is handed out.
type rowCursor struct {
	rows []*sqltypes.HeapRow
	pos  int
}

func (c *rowCursor) reset(rows []*sqltypes.HeapRow) {
	c.rows = rows
	c.pos = 0
}

func (c *rowCursor) next() (*sqltypes.HeapRow, bool) {
	if c.pos >= len(c.rows) {
		return nil, false
	}
	row := c.rows[c.pos]
	c.rows[c.pos] = nil
	c.pos++
	return row, true
}

func (c *rowCursor) remaining() int { return len(c.rows) - c.pos }

func (c *rowCursor) release() {
	c.rows = nil
	c.pos = 0
}
