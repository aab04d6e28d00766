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
	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

type (
	BinaryExpr struct {
		Left, Right Expr
	}

	UnaryExpr struct {
		Inner Expr
	}

	// ComparisonOp is one of the six comparison operators.
	ComparisonOp int

	ComparisonExpr struct {
		BinaryExpr
		Op ComparisonOp
	}

	LogicalExpr struct {
		BinaryExpr
		op     func(left, right Expr, env *ExpressionEnv) (boolean, error)
		opname string
	}

	NotExpr struct {
		UnaryExpr
	}

	// IsNullExpr is "inner IS [NOT] NULL".
	IsNullExpr struct {
		UnaryExpr
		Negate bool
	}

	boolean int8
)

var (
	_ Expr = (*ComparisonExpr)(nil)
	_ Expr = (*LogicalExpr)(nil)
	_ Expr = (*NotExpr)(nil)
	_ Expr = (*IsNullExpr)(nil)
)

const (
	Equal ComparisonOp = iota
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
)

var comparisonNames = [...]string{
	Equal:        "=",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
}

func (op ComparisonOp) String() string { return comparisonNames[op] }

const (
	boolFalse boolean = 0
	boolTrue  boolean = 1
	boolNULL  boolean = -1
)

func makeboolean(b bool) boolean {
	if b {
		return boolTrue
	}
	return boolFalse
}

func (b boolean) value() any {
	switch b {
	case boolTrue:
		return true
	case boolFalse:
		return false
	default:
		return nil
	}
}

func (b boolean) not() boolean {
	switch b {
	case boolFalse:
		return boolTrue
	case boolTrue:
		return boolFalse
	default:
		return b
	}
}

func evalBoolean(e Expr, env *ExpressionEnv) (boolean, error) {
	v, err := e.Eval(env)
	if err != nil {
		return boolNULL, err
	}
	switch v := v.(type) {
	case nil:
		return boolNULL, nil
	case bool:
		return makeboolean(v), nil
	}
	return boolNULL, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "%s is %s, expected BOOLEAN", e, sqltypes.TypeOf(v))
}

// NewComparison returns "left op right".
func NewComparison(op ComparisonOp, left, right Expr) *ComparisonExpr {
	return &ComparisonExpr{BinaryExpr: BinaryExpr{Left: left, Right: right}, Op: op}
}

func (c *ComparisonExpr) Eval(env *ExpressionEnv) (any, error) {
	l, err := c.Left.Eval(env)
	if err != nil {
		return nil, err
	}
	r, err := c.Right.Eval(env)
	if err != nil {
		return nil, err
	}
	if l == nil || r == nil {
		return nil, nil
	}

	cmp, err := sqltypes.Compare(l, r)
	if err != nil {
		return nil, vterrors.Wrapf(err, "evaluating %s", c)
	}
	switch c.Op {
	case Equal:
		return cmp == 0, nil
	case NotEqual:
		return cmp != 0, nil
	case Less:
		return cmp < 0, nil
	case LessEqual:
		return cmp <= 0, nil
	case Greater:
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

func (c *ComparisonExpr) Type() sqltypes.Type { return sqltypes.Boolean }

func (c *ComparisonExpr) String() string {
	return c.Left.String() + " " + c.Op.String() + " " + c.Right.String()
}

func opAnd(le, re Expr, env *ExpressionEnv) (boolean, error) {
	left, err := evalBoolean(le, env)
	if err != nil {
		return boolNULL, err
	}
	if left == boolFalse {
		return boolFalse, nil
	}
	right, err := evalBoolean(re, env)
	if err != nil {
		return boolNULL, err
	}
	switch {
	case left == boolTrue && right == boolTrue:
		return boolTrue, nil
	case right == boolFalse:
		return boolFalse, nil
	default:
		return boolNULL, nil
	}
}

func opOr(le, re Expr, env *ExpressionEnv) (boolean, error) {
	left, err := evalBoolean(le, env)
	if err != nil {
		return boolNULL, err
	}
	if left == boolTrue {
		return boolTrue, nil
	}
	right, err := evalBoolean(re, env)
	if err != nil {
		return boolNULL, err
	}
	switch {
	case right == boolTrue:
		return boolTrue, nil
	case left == boolNULL || right == boolNULL:
		return boolNULL, nil
	default:
		return boolFalse, nil
	}
}

// NewAnd returns "left AND right" with SQL three-valued logic.
func NewAnd(left, right Expr) *LogicalExpr {
	return &LogicalExpr{BinaryExpr: BinaryExpr{Left: left, Right: right}, op: opAnd, opname: "AND"}
}

// NewOr returns "left OR right" with SQL three-valued logic.
func NewOr(left, right Expr) *LogicalExpr {
	return &LogicalExpr{BinaryExpr: BinaryExpr{Left: left, Right: right}, op: opOr, opname: "OR"}
}

func (l *LogicalExpr) Eval(env *ExpressionEnv) (any, error) {
	b, err := l.op(l.Left, l.Right, env)
	if err != nil {
		return nil, err
	}
	return b.value(), nil
}

func (l *LogicalExpr) Type() sqltypes.Type { return sqltypes.Boolean }

func (l *LogicalExpr) String() string {
	return "(" + l.Left.String() + " " + l.opname + " " + l.Right.String() + ")"
}

// NewNot returns "NOT inner".
func NewNot(inner Expr) *NotExpr {
	return &NotExpr{UnaryExpr{Inner: inner}}
}

func (n *NotExpr) Eval(env *ExpressionEnv) (any, error) {
	b, err := evalBoolean(n.Inner, env)
	if err != nil {
		return nil, err
	}
	return b.not().value(), nil
}

func (n *NotExpr) Type() sqltypes.Type { return sqltypes.Boolean }

func (n *NotExpr) String() string { return "NOT " + n.Inner.String() }

// NewIsNull returns "inner IS NULL", or "inner IS NOT NULL" if negate is set.
func NewIsNull(inner Expr, negate bool) *IsNullExpr {
	return &IsNullExpr{UnaryExpr: UnaryExpr{Inner: inner}, Negate: negate}
}

func (i *IsNullExpr) Eval(env *ExpressionEnv) (any, error) {
	v, err := i.Inner.Eval(env)
	if err != nil {
		return nil, err
	}
	return (v == nil) != i.Negate, nil
}

func (i *IsNullExpr) Type() sqltypes.Type { return sqltypes.Boolean }

func (i *IsNullExpr) String() string {
	if i.Negate {
		return i.Inner.String() + " IS NOT NULL"
	}
	return i.Inner.String() + " IS NULL"
}
