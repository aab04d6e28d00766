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

package worker

import (
	"sync"

	"gridsql.io/gridsql/go/sqltypes"
)

// RowCollector is a Consumer that keeps every row it is given.
type RowCollector struct {
	mu   sync.Mutex
	rows []sqltypes.Row
	done bool
}

var _ Consumer = (*RowCollector)(nil)

func (c *RowCollector) Consume(batch sqltypes.RowBatch, last bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if batch != nil {
		c.rows = append(c.rows, sqltypes.BatchRows(batch)...)
	}
	if last {
		c.done = true
	}
	return nil
}

// Rows returns the rows collected so far.
func (c *RowCollector) Rows() []sqltypes.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sqltypes.Row(nil), c.rows...)
}

// Values returns the collected rows as value slices.
func (c *RowCollector) Values() [][]any {
	rows := c.Rows()
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, sqltypes.RowValues(row))
	}
	return out
}

// Done reports whether the last batch was consumed.
func (c *RowCollector) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(batch sqltypes.RowBatch, last bool) error

func (f ConsumerFunc) Consume(batch sqltypes.RowBatch, last bool) error {
	return f(batch, last)
}
