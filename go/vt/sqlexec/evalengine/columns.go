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

// SplitColumns separates the attribute reads of exprs from the
// computation on top of them. It returns the distinct Columns that exprs
// read, in order of first use, and exprs rewritten so that every Column
// becomes an Offset into that list. Computed is false when every expr is
// a plain Column, in which case the rewritten list is the identity.
func SplitColumns(exprs []Expr) (columns []Expr, rewritten []Expr, computed bool) {
	offsets := make(map[string]int)
	offsetOf := func(c *Column) int {
		key := c.String()
		if i, ok := offsets[key]; ok {
			return i
		}
		offsets[key] = len(columns)
		columns = append(columns, c)
		return len(columns) - 1
	}

	rewritten = make([]Expr, len(exprs))
	for i, e := range exprs {
		if _, ok := e.(*Column); !ok {
			computed = true
		}
		rewritten[i] = columnsToOffsets(e, offsetOf)
	}
	return columns, rewritten, computed
}

func columnsToOffsets(e Expr, offsetOf func(*Column) int) Expr {
	rewrite := func(e Expr) Expr { return columnsToOffsets(e, offsetOf) }
	switch e := e.(type) {
	case *Column:
		return NewOffset(offsetOf(e), e.Typ)
	case *ArithmeticExpr:
		return NewArithmetic(e.Op, rewrite(e.Left), rewrite(e.Right))
	case *ComparisonExpr:
		return NewComparison(e.Op, rewrite(e.Left), rewrite(e.Right))
	case *LogicalExpr:
		return &LogicalExpr{
			BinaryExpr: BinaryExpr{Left: rewrite(e.Left), Right: rewrite(e.Right)},
			op:         e.op,
			opname:     e.opname,
		}
	case *NotExpr:
		return NewNot(rewrite(e.Inner))
	case *IsNullExpr:
		return NewIsNull(rewrite(e.Inner), e.Negate)
	}
	return e
}
