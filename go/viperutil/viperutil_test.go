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

package viperutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAndFlags(t *testing.T) {
	size := Configure("test-pool-size", Options[int]{Default: 4, FlagName: "test-pool-size"})
	ttl := Configure("test-cache-ttl", Options[time.Duration]{Default: time.Minute})

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("test-pool-size", size.Default(), "")
	BindFlags(fs, size, ttl)

	assert.Equal(t, 4, size.Get())
	assert.Equal(t, time.Minute, ttl.Get())

	require.NoError(t, fs.Parse([]string{"--test-pool-size=9"}))
	assert.Equal(t, 9, size.Get())
}

func TestMissingFlagPanics(t *testing.T) {
	v := Configure("test-missing", Options[string]{FlagName: "not-there"})
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	assert.Panics(t, func() { BindFlags(fs, v) })

	_, err := v.Flag(fs)
	assert.ErrorIs(t, err, ErrNoFlagDefined)
}

func TestEnvAndSet(t *testing.T) {
	v := Configure("test-compression", Options[string]{Default: "none"})
	t.Setenv("GRIDSQL_TEST_COMPRESSION", "snappy")
	assert.Equal(t, "snappy", v.Get())

	v.Set("zstd")
	assert.Equal(t, "zstd", v.Get())
}

func TestLoadConfig(t *testing.T) {
	v := Configure("test-threshold", Options[int]{Default: 1024})
	path := filepath.Join(t.TempDir(), "gridsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("test-threshold: 64\n"), 0o600))

	require.NoError(t, LoadConfig(path))
	assert.Equal(t, 64, v.Get())
	assert.Equal(t, 64, AllSettings()["test-threshold"])

	assert.NoError(t, LoadConfig(""))
	assert.Error(t, LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestNormalizeEnv(t *testing.T) {
	assert.Equal(t, "GRIDSQL_EXTRACTOR_CACHE_TTL", normalizeEnv("extractor-cache-ttl"))
}
