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

// Package evalengine evaluates typed scalar expressions against the row
// an operator is currently looking at.
package evalengine

import (
	"fmt"
	"strconv"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

type (
	// Expr is a typed expression. Type is known before evaluation; the
	// value returned by Eval is nil or assignable to Type.
	Expr interface {
		Eval(env *ExpressionEnv) (any, error)
		Type() sqltypes.Type
		String() string
	}

	// ColumnGetter resolves attribute paths for Column expressions.
	ColumnGetter interface {
		GetColumn(path string) (any, error)
	}

	// ExpressionEnv contains the environment that the expression
	// evaluates in: the positional query arguments and the current row.
	ExpressionEnv struct {
		Args []any

		// Fields serves Column expressions and Row serves Offset
		// expressions. An operator sets the one its expressions use.
		Fields ColumnGetter
		Row    sqltypes.Row
	}

	// Column reads an attribute path from the current entry and converts
	// it to the declared type.
	Column struct {
		Path string
		Typ  sqltypes.Type
	}

	// Offset reads a column of an input row by position.
	Offset struct {
		Index int
		Typ   sqltypes.Type
	}

	// Literal is a constant.
	Literal struct {
		Val any
	}

	// Argument is a positional query argument, numbered from zero.
	Argument struct {
		Index int
		Typ   sqltypes.Type
	}
)

var (
	_ Expr = (*Column)(nil)
	_ Expr = (*Offset)(nil)
	_ Expr = (*Literal)(nil)
	_ Expr = (*Argument)(nil)
)

// NewColumn returns a column expression. Object columns are returned as
// extracted, without conversion.
func NewColumn(path string, typ sqltypes.Type) *Column {
	return &Column{Path: path, Typ: typ}
}

func (c *Column) Eval(env *ExpressionEnv) (any, error) {
	if env.Fields == nil {
		return nil, vterrors.Errorf(vtrpc.Code_INTERNAL, "column %s evaluated without an entry", c.Path)
	}
	v, err := env.Fields.GetColumn(c.Path)
	if err != nil {
		return nil, err
	}
	v, err = sqltypes.Convert(c.Typ, v)
	if err != nil {
		return nil, vterrors.Wrapf(err, "column %s", c.Path)
	}
	return v, nil
}

func (c *Column) Type() sqltypes.Type { return c.Typ }

func (c *Column) String() string {
	if c.Typ == sqltypes.Object {
		return c.Path
	}
	return c.Path + ":" + c.Typ.String()
}

// NewOffset returns an expression reading column index of the input row.
func NewOffset(index int, typ sqltypes.Type) *Offset {
	return &Offset{Index: index, Typ: typ}
}

func (o *Offset) Eval(env *ExpressionEnv) (any, error) {
	if env.Row == nil || o.Index >= env.Row.Len() {
		return nil, vterrors.Errorf(vtrpc.Code_INTERNAL, "offset :%d is not available in the input row", o.Index)
	}
	return env.Row.Get(o.Index), nil
}

func (o *Offset) Type() sqltypes.Type { return o.Typ }

func (o *Offset) String() string { return ":" + strconv.Itoa(o.Index) }

// NewLiteral returns a constant expression. Integers and floats are
// normalized to int64 and float64.
func NewLiteral(v any) *Literal {
	return &Literal{Val: sqltypes.Normalize(v)}
}

func (l *Literal) Eval(*ExpressionEnv) (any, error) { return l.Val, nil }

func (l *Literal) Type() sqltypes.Type { return sqltypes.TypeOf(l.Val) }

func (l *Literal) String() string {
	switch v := l.Val.(type) {
	case nil:
		return "NULL"
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprint(v)
	}
}

// NewArgument returns a positional argument of the given type.
func NewArgument(index int, typ sqltypes.Type) *Argument {
	return &Argument{Index: index, Typ: typ}
}

func (a *Argument) Eval(env *ExpressionEnv) (any, error) {
	if a.Index >= len(env.Args) {
		return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongValue, "argument $%d is not bound, query has %d arguments", a.Index+1, len(env.Args))
	}
	v, err := sqltypes.Convert(a.Typ, env.Args[a.Index])
	if err != nil {
		return nil, vterrors.Wrapf(err, "argument $%d", a.Index+1)
	}
	return v, nil
}

func (a *Argument) Type() sqltypes.Type { return a.Typ }

func (a *Argument) String() string { return "$" + strconv.Itoa(a.Index+1) }

// EvaluateBool evaluates a predicate. NULL counts as false; any other
// non-boolean value is an error.
func EvaluateBool(env *ExpressionEnv, expr Expr) (bool, error) {
	v, err := expr.Eval(env)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "predicate %s returned %s, expected BOOLEAN", expr, sqltypes.TypeOf(v))
	}
	return b, nil
}
