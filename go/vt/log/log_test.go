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

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := slogLevel(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := slogLevel("verbose")
	assert.ErrorContains(t, err, "invalid log-level")
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	_, err := slogHandler("yaml", &buf, nil)
	assert.ErrorContains(t, err, "invalid log-fmt")

	h, err := slogHandler("logfmt", &buf, nil)
	require.NoError(t, err)
	assert.IsType(t, &slog.TextHandler{}, h)

	h, err = slogHandler("console", &buf, &slog.HandlerOptions{Level: slog.LevelWarn})
	require.NoError(t, err)
	logger := slog.New(h)
	logger.Info("hidden")
	logger.Warn("scan failed", "map", "orders")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "scan failed")
	assert.Contains(t, buf.String(), "map=orders")
	assert.NotContains(t, buf.String(), "\x1b[")
	assert.False(t, isTerminal(&buf))
}

func TestInitWithoutFormatFlag(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(nil))
	require.NoError(t, Init(fs))
	assert.False(t, structuredLoggingEnabled.Load())
}

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	restore := SetLogger(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	defer restore()

	InfoS("scan finished", "map", "orders", "rows", 12)
	DebugS("not emitted")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "scan finished", rec["msg"])
	assert.Equal(t, "orders", rec["map"])
	assert.EqualValues(t, 12, rec["rows"])
	assert.True(t, Enabled(slog.LevelWarn))
	assert.False(t, Enabled(slog.LevelDebug))
}
