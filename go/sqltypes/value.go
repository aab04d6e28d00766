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

package sqltypes

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// Normalize maps the Go integer and float kinds onto int64 and float64 so
// the rest of the engine only deals with one representation per family.
// Unsigned values that do not fit in an int64 become decimals.
func Normalize(v any) any {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint, uint8, uint16, uint32, uint64:
		u, _ := unsignedValue(v)
		if u > math.MaxInt64 {
			return decimal.NewFromUint64(u)
		}
		return int64(u)
	case float32:
		return float64(v)
	}
	return v
}

// Convert returns v as a value assignable to t. Only conversions that keep
// the numeric value are performed; everything else is an error.
func Convert(t Type, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	v = Normalize(v)
	if t == Object {
		return v, nil
	}

	switch {
	case IsIntegral(t):
		var i int64
		switch n := v.(type) {
		case int64:
			i = n
		case float64:
			if n != math.Trunc(n) || n < -0x1p63 || n >= 0x1p63 {
				return nil, cannotConvert(t, v)
			}
			i = int64(n)
		case decimal.Decimal:
			if !n.IsInteger() || !n.BigInt().IsInt64() {
				return nil, cannotConvert(t, v)
			}
			i = n.IntPart()
		default:
			return nil, cannotConvert(t, v)
		}
		lo, hi := integralRange(t)
		if i < lo || i > hi {
			return nil, vterrors.NewErrorf(vtrpc.Code_OUT_OF_RANGE, vterrors.WrongValue, "value %d is out of range for %s", i, t)
		}
		return i, nil
	case IsFloat(t):
		f, err := ToFloat64(v)
		if err != nil {
			return nil, cannotConvert(t, v)
		}
		return f, nil
	case t == Decimal:
		d, err := ToDecimal(v)
		if err != nil {
			return nil, cannotConvert(t, v)
		}
		return d, nil
	case IsText(t):
		switch s := v.(type) {
		case string:
			return s, nil
		case JSONValue:
			return string(s), nil
		}
	case t == JSON:
		if IsAssignable(JSON, v) {
			return v, nil
		}
	default:
		if IsAssignable(t, v) {
			return v, nil
		}
	}
	return nil, cannotConvert(t, v)
}

func cannotConvert(t Type, v any) error {
	return vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "cannot convert value of type %s to %s", TypeOf(v), t)
}

// ToInt64 converts an integral value to int64.
func ToInt64(v any) (int64, error) {
	if i, ok := integerValue(v); ok {
		return i, nil
	}
	return 0, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "%s is not an integral value", TypeOf(v))
}

// ToFloat64 converts any numeric value to float64.
func ToFloat64(v any) (float64, error) {
	switch n := Normalize(v).(type) {
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case decimal.Decimal:
		return n.InexactFloat64(), nil
	}
	return 0, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "%s is not a numeric value", TypeOf(v))
}

// ToDecimal converts any numeric value to a decimal.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch n := Normalize(v).(type) {
	case int64:
		return decimal.NewFromInt(n), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			break
		}
		return decimal.NewFromFloat(n), nil
	case decimal.Decimal:
		return n, nil
	}
	return decimal.Decimal{}, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "%s is not a numeric value", TypeOf(v))
}

// ToBool returns v as a bool. nil is not accepted; callers decide what an
// unknown truth value means.
func ToBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "%s is not a boolean", TypeOf(v))
}

// Compare returns -1, 0 or 1 comparing a to b. Numbers compare across
// integer, float and decimal representations; strings, booleans and times
// compare within their own kind. Both values must be non-nil.
func Compare(a, b any) (int, error) {
	a, b = Normalize(a), Normalize(b)
	ta, tb := TypeOf(a), TypeOf(b)

	switch {
	case IsNumber(ta) && IsNumber(tb):
		return compareNumeric(a, b)
	case ta == VarChar && tb == VarChar:
		return strings.Compare(a.(string), b.(string)), nil
	case ta == Boolean && tb == Boolean:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	case IsTemporal(ta) && IsTemporal(tb):
		return a.(time.Time).Compare(b.(time.Time)), nil
	}
	return 0, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.WrongTypeForVar, "cannot compare %s with %s", ta, tb)
}

func compareNumeric(a, b any) (int, error) {
	if x, ok := a.(int64); ok {
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			}
			return 0, nil
		}
	}

	_, aDec := a.(decimal.Decimal)
	_, bDec := b.(decimal.Decimal)
	if aDec || bDec {
		x, err := ToDecimal(a)
		if err != nil {
			return 0, err
		}
		y, err := ToDecimal(b)
		if err != nil {
			return 0, err
		}
		return x.Cmp(y), nil
	}

	x, _ := ToFloat64(a)
	y, _ := ToFloat64(b)
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	}
	return 0, nil
}
