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
	"math"

	"github.com/shopspring/decimal"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// ArithmeticOp is one of + - * /.
type ArithmeticOp int

const (
	Add ArithmeticOp = iota
	Sub
	Mul
	Div
)

var arithmeticNames = [...]string{Add: "+", Sub: "-", Mul: "*", Div: "/"}

func (op ArithmeticOp) String() string { return arithmeticNames[op] }

// ArithmeticExpr is "left op right" over numbers. Integer operands give
// an integer result except for division, decimals win over floats and
// floats win over integers.
type ArithmeticExpr struct {
	BinaryExpr
	Op ArithmeticOp
}

var _ Expr = (*ArithmeticExpr)(nil)

// NewArithmetic returns "left op right".
func NewArithmetic(op ArithmeticOp, left, right Expr) *ArithmeticExpr {
	return &ArithmeticExpr{BinaryExpr: BinaryExpr{Left: left, Right: right}, Op: op}
}

func (a *ArithmeticExpr) Type() sqltypes.Type {
	lt, rt := a.Left.Type(), a.Right.Type()
	switch {
	case lt == sqltypes.Object || rt == sqltypes.Object:
		return sqltypes.Object
	case lt == sqltypes.Decimal || rt == sqltypes.Decimal:
		return sqltypes.Decimal
	case sqltypes.IsIntegral(lt) && sqltypes.IsIntegral(rt) && a.Op != Div:
		return sqltypes.BigInt
	default:
		return sqltypes.Double
	}
}

func (a *ArithmeticExpr) String() string {
	return "(" + a.Left.String() + " " + a.Op.String() + " " + a.Right.String() + ")"
}

func (a *ArithmeticExpr) Eval(env *ExpressionEnv) (any, error) {
	l, err := a.Left.Eval(env)
	if err != nil {
		return nil, err
	}
	r, err := a.Right.Eval(env)
	if err != nil {
		return nil, err
	}
	if l == nil || r == nil {
		return nil, nil
	}
	l, r = sqltypes.Normalize(l), sqltypes.Normalize(r)
	if !sqltypes.IsNumber(sqltypes.TypeOf(l)) || !sqltypes.IsNumber(sqltypes.TypeOf(r)) {
		return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "cannot evaluate %s on %s and %s", a.Op, sqltypes.TypeOf(l), sqltypes.TypeOf(r))
	}

	li, lok := l.(int64)
	ri, rok := r.(int64)
	_, ldec := l.(decimal.Decimal)
	_, rdec := r.(decimal.Decimal)
	switch {
	case lok && rok && a.Op != Div:
		return intArithmetic(a.Op, li, ri)
	case ldec || rdec:
		ld, err := sqltypes.ToDecimal(l)
		if err != nil {
			return nil, a.operandError(l, sqltypes.Decimal)
		}
		rd, err := sqltypes.ToDecimal(r)
		if err != nil {
			return nil, a.operandError(r, sqltypes.Decimal)
		}
		return decimalArithmetic(a.Op, ld, rd)
	default:
		lf, err := sqltypes.ToFloat64(l)
		if err != nil {
			return nil, a.operandError(l, sqltypes.Double)
		}
		rf, err := sqltypes.ToFloat64(r)
		if err != nil {
			return nil, a.operandError(r, sqltypes.Double)
		}
		return floatArithmetic(a.Op, lf, rf)
	}
}

func (a *ArithmeticExpr) operandError(v any, t sqltypes.Type) error {
	return vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.EvaluationFailed, "cannot evaluate %s: %v is not a valid %s operand", a.String(), v, t)
}

func intArithmetic(op ArithmeticOp, l, r int64) (any, error) {
	var res int64
	overflow := false
	switch op {
	case Add:
		res = l + r
		overflow = (l > 0 && r > 0 && res < 0) || (l < 0 && r < 0 && res >= 0)
	case Sub:
		res = l - r
		overflow = (l >= 0 && r < 0 && res < 0) || (l < 0 && r > 0 && res >= 0)
	case Mul:
		res = l * r
		overflow = l != 0 && (res/l != r || (l == -1 && r == math.MinInt64))
	}
	if overflow {
		return nil, vterrors.NewErrorf(vtrpc.Code_OUT_OF_RANGE, vterrors.WrongValue, "BIGINT value is out of range in %d %s %d", l, op, r)
	}
	return res, nil
}

func floatArithmetic(op ArithmeticOp, l, r float64) (any, error) {
	switch op {
	case Add:
		return l + r, nil
	case Sub:
		return l - r, nil
	case Mul:
		return l * r, nil
	}
	if r == 0 {
		return nil, divisionByZero()
	}
	return l / r, nil
}

func decimalArithmetic(op ArithmeticOp, l, r decimal.Decimal) (any, error) {
	switch op {
	case Add:
		return l.Add(r), nil
	case Sub:
		return l.Sub(r), nil
	case Mul:
		return l.Mul(r), nil
	}
	if r.IsZero() {
		return nil, divisionByZero()
	}
	return l.Div(r), nil
}

func divisionByZero() error {
	return vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongValue, "division by zero")
}
