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

// Package sqltypes defines the typed values, rows and row batches that
// execution operators exchange.
package sqltypes

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Type is the declared semantic type of a row slot or an expression.
// The upper bits carry the type family so that range checks like IsIntegral
// are a single mask.
type Type int32

// These bit flags can be used to query on the
// common properties of types.
const (
	flagIsIntegral = 1 << 8
	flagIsFloat    = 1 << 9
	flagIsText     = 1 << 10
	flagIsTemporal = 1 << 11
	flagIsDocument = 1 << 12
)

// The supported types.
const (
	Null      Type = 0
	Boolean   Type = 1
	TinyInt   Type = 2 | flagIsIntegral
	SmallInt  Type = 3 | flagIsIntegral
	Int       Type = 4 | flagIsIntegral
	BigInt    Type = 5 | flagIsIntegral
	Real      Type = 6 | flagIsFloat
	Double    Type = 7 | flagIsFloat
	Decimal   Type = 8
	VarChar   Type = 9 | flagIsText
	Date      Type = 10 | flagIsTemporal
	Time      Type = 11 | flagIsTemporal
	Timestamp Type = 12 | flagIsTemporal
	Object    Type = 13
	JSON      Type = 14 | flagIsDocument
)

var typeNames = map[Type]string{
	Null:      "NULL",
	Boolean:   "BOOLEAN",
	TinyInt:   "TINYINT",
	SmallInt:  "SMALLINT",
	Int:       "INT",
	BigInt:    "BIGINT",
	Real:      "REAL",
	Double:    "DOUBLE",
	Decimal:   "DECIMAL",
	VarChar:   "VARCHAR",
	Date:      "DATE",
	Time:      "TIME",
	Timestamp: "TIMESTAMP",
	Object:    "OBJECT",
	JSON:      "JSON",
}

var typesByName = func() map[string]Type {
	m := make(map[string]Type, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int32(t))
}

// TypeByName returns the type with the given upper-case name.
func TypeByName(name string) (Type, bool) {
	t, ok := typesByName[name]
	return t, ok
}

// IsIntegral returns true if Type is an integral
// (signed) type.
func IsIntegral(t Type) bool {
	return int(t)&flagIsIntegral == flagIsIntegral
}

// IsFloat returns true is Type is a floating point.
func IsFloat(t Type) bool {
	return int(t)&flagIsFloat == flagIsFloat
}

// IsNumber returns true if the type is any type of number.
func IsNumber(t Type) bool {
	return IsIntegral(t) || IsFloat(t) || t == Decimal
}

// IsText returns true if Type is a character string.
func IsText(t Type) bool {
	return int(t)&flagIsText == flagIsText
}

// IsTemporal returns true if Type is a date, time or timestamp.
func IsTemporal(t Type) bool {
	return int(t)&flagIsTemporal == flagIsTemporal
}

// JSONValue is a document stored in its textual form. Extractors parse it
// into maps and slices on demand, so the store can keep documents as plain
// strings.
type JSONValue string

// String returns the raw document text.
func (j JSONValue) String() string { return string(j) }

// TypeOf returns the type that best describes the runtime value v.
// Values that are not one of the scalar kinds are Object.
func TypeOf(v any) Type {
	switch v := v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case int8:
		return TinyInt
	case int16:
		return SmallInt
	case int32:
		return Int
	case int, int64, uint8, uint16, uint32:
		return BigInt
	case uint, uint64:
		if u, _ := unsignedValue(v); u > math.MaxInt64 {
			return Decimal
		}
		return BigInt
	case float32:
		return Real
	case float64:
		return Double
	case decimal.Decimal:
		return Decimal
	case string:
		return VarChar
	case time.Time:
		return Timestamp
	case JSONValue:
		return JSON
	default:
		return Object
	}
}

// integralRange returns the inclusive bounds of an integral type.
func integralRange(t Type) (lo, hi int64) {
	switch t {
	case TinyInt:
		return math.MinInt8, math.MaxInt8
	case SmallInt:
		return math.MinInt16, math.MaxInt16
	case Int:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

// IsAssignable reports whether v may be stored in a slot of type t without
// conversion. nil is assignable to every type.
func IsAssignable(t Type, v any) bool {
	if v == nil {
		return true
	}
	switch {
	case t == Object:
		return true
	case t == Null:
		return false
	case t == Boolean:
		_, ok := v.(bool)
		return ok
	case IsIntegral(t):
		i, ok := integerValue(v)
		if !ok {
			return false
		}
		lo, hi := integralRange(t)
		return i >= lo && i <= hi
	case t == Real:
		_, ok := v.(float32)
		if ok {
			return true
		}
		f, ok := v.(float64)
		return ok && (math.IsInf(f, 0) || math.IsNaN(f) || math.Abs(f) <= math.MaxFloat32)
	case t == Double:
		switch v.(type) {
		case float32, float64:
			return true
		}
		return false
	case t == Decimal:
		_, ok := v.(decimal.Decimal)
		return ok
	case IsText(t):
		_, ok := v.(string)
		return ok
	case IsTemporal(t):
		_, ok := v.(time.Time)
		return ok
	case t == JSON:
		switch v.(type) {
		case JSONValue, map[string]any, []any, string, bool, int64, float64:
			return true
		}
		return false
	}
	return false
}

// integerValue returns v as an int64 if v is a Go integer that fits.
func integerValue(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint, uint8, uint16, uint32, uint64:
		u, _ := unsignedValue(v)
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func unsignedValue(v any) (uint64, bool) {
	switch v := v.(type) {
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	}
	return 0, false
}
