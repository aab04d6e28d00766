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

package serialization

import (
	"math"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tinylib/msgp/msgp"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// Serializer writes and reads the payload of one Go type.
type Serializer interface {
	TypeID() int32
	GoType() reflect.Type
	Write(v any) ([]byte, error)
	Read(payload []byte) (any, error)
}

type funcSerializer[T any] struct {
	id    int32
	write func(T) ([]byte, error)
	read  func([]byte) (T, error)
}

// NewSerializer returns a Serializer for values of type T.
func NewSerializer[T any](id int32, write func(T) ([]byte, error), read func([]byte) (T, error)) Serializer {
	return &funcSerializer[T]{id: id, write: write, read: read}
}

func (s *funcSerializer[T]) TypeID() int32 { return s.id }

func (s *funcSerializer[T]) GoType() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (s *funcSerializer[T]) Write(v any) ([]byte, error) {
	t, ok := v.(T)
	if !ok {
		return nil, vterrors.Errorf(vtrpc.Code_INTERNAL, "serializer %d cannot write %T", s.id, v)
	}
	return s.write(t)
}

func (s *funcSerializer[T]) Read(payload []byte) (any, error) {
	return s.read(payload)
}

func fixedSize(payload []byte, n int) error {
	if len(payload) != n {
		return vterrors.Errorf(vtrpc.Code_DATA_LOSS, "expected %d payload bytes, got %d", n, len(payload))
	}
	return nil
}

func builtinSerializers() []Serializer {
	return []Serializer{
		NewSerializer(TypeBool,
			func(v bool) ([]byte, error) {
				if v {
					return []byte{1}, nil
				}
				return []byte{0}, nil
			},
			func(b []byte) (bool, error) {
				if err := fixedSize(b, 1); err != nil {
					return false, err
				}
				return b[0] != 0, nil
			}),
		NewSerializer(TypeInt8,
			func(v int8) ([]byte, error) { return []byte{byte(v)}, nil },
			func(b []byte) (int8, error) {
				if err := fixedSize(b, 1); err != nil {
					return 0, err
				}
				return int8(b[0]), nil
			}),
		NewSerializer(TypeInt16,
			func(v int16) ([]byte, error) { return Pack.AppendUint16(nil, uint16(v)), nil },
			func(b []byte) (int16, error) {
				if err := fixedSize(b, 2); err != nil {
					return 0, err
				}
				return int16(Pack.Uint16(b)), nil
			}),
		NewSerializer(TypeInt32,
			func(v int32) ([]byte, error) { return Pack.AppendUint32(nil, uint32(v)), nil },
			func(b []byte) (int32, error) {
				if err := fixedSize(b, 4); err != nil {
					return 0, err
				}
				return int32(Pack.Uint32(b)), nil
			}),
		NewSerializer(TypeInt64,
			func(v int64) ([]byte, error) { return Pack.AppendUint64(nil, uint64(v)), nil },
			func(b []byte) (int64, error) {
				if err := fixedSize(b, 8); err != nil {
					return 0, err
				}
				return int64(Pack.Uint64(b)), nil
			}),
		NewSerializer(TypeFloat32,
			func(v float32) ([]byte, error) { return Pack.AppendUint32(nil, math.Float32bits(v)), nil },
			func(b []byte) (float32, error) {
				if err := fixedSize(b, 4); err != nil {
					return 0, err
				}
				return math.Float32frombits(Pack.Uint32(b)), nil
			}),
		NewSerializer(TypeFloat64,
			func(v float64) ([]byte, error) { return Pack.AppendUint64(nil, math.Float64bits(v)), nil },
			func(b []byte) (float64, error) {
				if err := fixedSize(b, 8); err != nil {
					return 0, err
				}
				return math.Float64frombits(Pack.Uint64(b)), nil
			}),
		NewSerializer(TypeString,
			func(v string) ([]byte, error) { return []byte(v), nil },
			func(b []byte) (string, error) { return string(b), nil }),
		NewSerializer(TypeBytes,
			func(v []byte) ([]byte, error) { return v, nil },
			func(b []byte) ([]byte, error) { return append([]byte(nil), b...), nil }),
		NewSerializer(TypeTime,
			func(v time.Time) ([]byte, error) { return v.MarshalBinary() },
			func(b []byte) (time.Time, error) {
				var t time.Time
				err := t.UnmarshalBinary(b)
				return t, err
			}),
		NewSerializer(TypeDecimal,
			func(v decimal.Decimal) ([]byte, error) { return []byte(v.String()), nil },
			func(b []byte) (decimal.Decimal, error) { return decimal.NewFromString(string(b)) }),
		NewSerializer(TypeJSON,
			func(v sqltypes.JSONValue) ([]byte, error) { return []byte(v), nil },
			func(b []byte) (sqltypes.JSONValue, error) { return sqltypes.JSONValue(b), nil }),
		NewSerializer(TypeMap,
			func(v map[string]any) ([]byte, error) { return msgp.AppendIntf(nil, normalizeTree(v)) },
			func(b []byte) (map[string]any, error) {
				m, _, err := msgp.ReadMapStrIntfBytes(b, nil)
				return m, err
			}),
		NewSerializer(TypeSlice,
			func(v []any) ([]byte, error) { return msgp.AppendIntf(nil, normalizeTree(v)) },
			func(b []byte) ([]any, error) {
				v, _, err := msgp.ReadIntfBytes(b)
				if err != nil {
					return nil, err
				}
				s, ok := v.([]any)
				if !ok {
					return nil, vterrors.Errorf(vtrpc.Code_DATA_LOSS, "expected an array payload, got %T", v)
				}
				return s, nil
			}),
	}
}

// normalizeTree rewrites nested values into the forms msgp reads back
// unchanged: integers as int64, float32 as float64, decimals and
// documents as strings.
func normalizeTree(v any) any {
	switch v := sqltypes.Normalize(v).(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = normalizeTree(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = normalizeTree(e)
		}
		return out
	case decimal.Decimal:
		return v.String()
	case sqltypes.JSONValue:
		return string(v)
	default:
		return v
	}
}
