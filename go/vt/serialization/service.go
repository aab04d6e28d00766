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
	"reflect"
	"sync"

	"gridsql.io/gridsql/go/sqltypes"
	"gridsql.io/gridsql/go/stats"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

var (
	bytesEncoded = stats.NewCounter("SerializationBytesEncoded", "Bytes produced by ToData, after compression")
	decodeErrors = stats.NewCounter("SerializationDecodeErrors", "Number of Data blobs that could not be decoded")
)

// Config controls how a Service encodes values.
type Config struct {
	// Compression is applied to payloads of at least CompressionThreshold bytes.
	Compression          Compression
	CompressionThreshold int
}

// Service encodes values to Data and decodes Data back to values. It is
// safe for concurrent use.
type Service struct {
	cfg Config

	mu     sync.RWMutex
	byID   map[int32]Serializer
	byType map[reflect.Type]Serializer
}

// NewService returns a service with the built-in serializers registered.
func NewService(cfg Config) *Service {
	s := &Service{
		cfg:    cfg,
		byID:   make(map[int32]Serializer),
		byType: make(map[reflect.Type]Serializer),
	}
	for _, ser := range builtinSerializers() {
		s.add(ser)
	}
	return s
}

func (s *Service) add(ser Serializer) {
	s.byID[ser.TypeID()] = ser
	s.byType[ser.GoType()] = ser
}

// Register adds a serializer for a user type.
func (s *Service) Register(ser Serializer) error {
	if ser.TypeID() < FirstUserTypeID {
		return vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "type id %d is reserved, user serializers start at %d", ser.TypeID(), FirstUserTypeID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[ser.TypeID()]; ok {
		return vterrors.Errorf(vtrpc.Code_ALREADY_EXISTS, "a serializer with type id %d is already registered", ser.TypeID())
	}
	if _, ok := s.byType[ser.GoType()]; ok {
		return vterrors.Errorf(vtrpc.Code_ALREADY_EXISTS, "a serializer for %s is already registered", ser.GoType())
	}
	s.add(ser)
	return nil
}

// Config returns the encoding configuration.
func (s *Service) Config() Config { return s.cfg }

// ToData encodes v. A Data value is returned unchanged. Values of a type
// without a serializer of its own, such as int or uint16, are encoded in
// their normalized form.
func (s *Service) ToData(v any) (Data, error) {
	if d, ok := v.(Data); ok {
		return d, nil
	}
	if v == nil {
		return newData(CompressionNone, TypeNil, nil), nil
	}

	ser, ok := s.serializerFor(v)
	if !ok {
		v = sqltypes.Normalize(v)
		if v == nil {
			return newData(CompressionNone, TypeNil, nil), nil
		}
		if ser, ok = s.serializerFor(v); !ok {
			return nil, vterrors.NewErrorf(vtrpc.Code_NOT_FOUND, vterrors.UnknownSerializer, "no serializer registered for %T", v)
		}
	}

	payload, err := ser.Write(v)
	if err != nil {
		return nil, vterrors.Wrapf(err, "encoding %T", v)
	}

	codec := CompressionNone
	if s.cfg.Compression != CompressionNone && len(payload) >= s.cfg.CompressionThreshold {
		compressed, err := compress(s.cfg.Compression, payload)
		if err != nil {
			return nil, err
		}
		codec, payload = s.cfg.Compression, compressed
	}

	d := newData(codec, ser.TypeID(), payload)
	bytesEncoded.Add(int64(len(d)))
	return d, nil
}

func (s *Service) serializerFor(v any) (Serializer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ser, ok := s.byType[reflect.TypeOf(v)]
	return ser, ok
}

// ToObject decodes v if it is Data. Any other value is returned as is.
func (s *Service) ToObject(v any) (any, error) {
	d, ok := v.(Data)
	if !ok {
		return v, nil
	}
	obj, err := s.decode(d)
	if err != nil {
		decodeErrors.Add(1)
		return nil, err
	}
	return obj, nil
}

func (s *Service) decode(d Data) (any, error) {
	if !d.Valid() {
		return nil, vterrors.NewErrorf(vtrpc.Code_DATA_LOSS, vterrors.DecodeFailed, "truncated data: %d bytes", len(d))
	}
	if d.TypeID() == TypeNil {
		return nil, nil
	}

	s.mu.RLock()
	ser, ok := s.byID[d.TypeID()]
	s.mu.RUnlock()
	if !ok {
		return nil, vterrors.NewErrorf(vtrpc.Code_DATA_LOSS, vterrors.DecodeFailed, "no serializer registered for type id %d", d.TypeID())
	}

	payload, err := decompress(d.Codec(), d.Payload())
	if err != nil {
		return nil, err
	}
	obj, err := ser.Read(payload)
	if err != nil {
		return nil, vterrors.NewErrorf(vtrpc.Code_DATA_LOSS, vterrors.DecodeFailed, "decoding type id %d: %v", d.TypeID(), err)
	}
	return obj, nil
}
