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
	"github.com/spf13/pflag"

	"gridsql.io/gridsql/go/viperutil"
)

var (
	compressionName = viperutil.Configure(
		"serialization-compression",
		viperutil.Options[string]{
			Default:  CompressionNone.String(),
			FlagName: "serialization-compression",
		},
	)
	compressionThreshold = viperutil.Configure(
		"serialization-compression-threshold",
		viperutil.Options[int]{
			Default:  1024,
			FlagName: "serialization-compression-threshold",
		},
	)
)

// RegisterFlags installs the serialization flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("serialization-compression", compressionName.Default(), "codec applied to large stored payloads: none, snappy or zstd")
	fs.Int("serialization-compression-threshold", compressionThreshold.Default(), "payloads of at least this many bytes are compressed")
	viperutil.BindFlags(fs, compressionName, compressionThreshold)
}

// ConfigFromFlags builds a Config from the bound configuration values.
func ConfigFromFlags() (Config, error) {
	codec, err := ParseCompression(compressionName.Get())
	if err != nil {
		return Config{}, err
	}
	return Config{
		Compression:          codec,
		CompressionThreshold: compressionThreshold.Get(),
	}, nil
}
