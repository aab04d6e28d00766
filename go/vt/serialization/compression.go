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
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"

	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// Compression identifies the codec applied to a payload.
type Compression byte

const (
	CompressionNone   Compression = 0
	CompressionSnappy Compression = 1
	CompressionZstd   Compression = 2
)

var compressionNames = map[Compression]string{
	CompressionNone:   "none",
	CompressionSnappy: "snappy",
	CompressionZstd:   "zstd",
}

func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCompression returns the codec with the given name.
func ParseCompression(name string) (Compression, error) {
	for c, n := range compressionNames {
		if n == name {
			return c, nil
		}
	}
	return CompressionNone, vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "unknown compression codec %q", name)
}

// The zstd encoder and decoder are safe for concurrent use through
// EncodeAll and DecodeAll, so one of each is shared by the process.
var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

func initZstd() error {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return zstdErr
}

func compress(c Compression, payload []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionSnappy:
		return snappy.Encode(nil, payload), nil
	case CompressionZstd:
		if err := initZstd(); err != nil {
			return nil, vterrors.Wrap(err, "initializing zstd")
		}
		return zstdEncoder.EncodeAll(payload, nil), nil
	}
	return nil, vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "unknown compression codec %d", c)
}

func decompress(c Compression, payload []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return payload, nil
	case CompressionSnappy:
		out, err := snappy.Decode(nil, payload)
		if err != nil {
			return nil, vterrors.NewErrorf(vtrpc.Code_DATA_LOSS, vterrors.DecodeFailed, "snappy: %v", err)
		}
		return out, nil
	case CompressionZstd:
		if err := initZstd(); err != nil {
			return nil, vterrors.Wrap(err, "initializing zstd")
		}
		out, err := zstdDecoder.DecodeAll(payload, nil)
		if err != nil {
			return nil, vterrors.NewErrorf(vtrpc.Code_DATA_LOSS, vterrors.DecodeFailed, "zstd: %v", err)
		}
		return out, nil
	}
	return nil, vterrors.NewErrorf(vtrpc.Code_DATA_LOSS, vterrors.DecodeFailed, "unknown compression codec %d", c)
}
