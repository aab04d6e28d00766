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

// Package serialization converts keys and values to and from the opaque
// Data form kept by the store.
//
// A Data blob is laid out as:
//
//	+--------+----------------+-------------------+
//	| codec  | type id        | payload           |
//	| 1 byte | 4 bytes, BE    | codec-compressed  |
//	+--------+----------------+-------------------+
//
// The type id selects the Serializer that produced the payload. Built-in
// ids are below FirstUserTypeID.
package serialization

import (
	"encoding/binary"
	"fmt"
)

// Pack is the byte order of the header.
var Pack = binary.BigEndian

// HeaderSize is the number of bytes before the payload.
const HeaderSize = 5

// Built-in type ids.
const (
	TypeNil     int32 = 0
	TypeBool    int32 = 1
	TypeInt8    int32 = 2
	TypeInt16   int32 = 3
	TypeInt32   int32 = 4
	TypeInt64   int32 = 5
	TypeFloat32 int32 = 6
	TypeFloat64 int32 = 7
	TypeString  int32 = 8
	TypeBytes   int32 = 9
	TypeTime    int32 = 10
	TypeDecimal int32 = 11
	TypeJSON    int32 = 12
	TypeMap     int32 = 13
	TypeSlice   int32 = 14

	// FirstUserTypeID is the smallest id a registered Serializer may use.
	FirstUserTypeID int32 = 1000
)

// Data is an encoded key or value.
type Data []byte

// Codec returns the compression codec of the payload.
func (d Data) Codec() Compression {
	return Compression(d[0])
}

// TypeID returns the id of the serializer that wrote the payload.
func (d Data) TypeID() int32 {
	return int32(Pack.Uint32(d[1:HeaderSize]))
}

// Payload returns the raw, possibly compressed, payload.
func (d Data) Payload() []byte {
	return d[HeaderSize:]
}

// Len returns the total encoded size.
func (d Data) Len() int { return len(d) }

// Valid reports whether d is long enough to carry a header.
func (d Data) Valid() bool { return len(d) >= HeaderSize }

func (d Data) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Data(invalid, %d bytes)", len(d))
	}
	return fmt.Sprintf("Data(type=%d, codec=%s, %d bytes)", d.TypeID(), d.Codec(), len(d))
}

func newData(codec Compression, typeID int32, payload []byte) Data {
	d := make(Data, HeaderSize+len(payload))
	d[0] = byte(codec)
	Pack.PutUint32(d[1:HeaderSize], uint32(typeID))
	copy(d[HeaderSize:], payload)
	return d
}
