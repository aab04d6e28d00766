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

package node

import (
	"context"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/vt/kvstore"
	"gridsql.io/gridsql/go/vt/serialization"
	"gridsql.io/gridsql/go/vt/sqlexec/engine"
	"gridsql.io/gridsql/go/vt/sqlexec/evalengine"
)

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	n, err := New(Config{PartitionCount: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, n.PartitionCount())
	assert.NotNil(t, n.Extractors())
	assert.Positive(t, n.Config().ExtractorCacheTTL)

	qctx := n.NewQueryContext(context.Background(), 1, "a")
	assert.Equal(t, []any{1, "a"}, qctx.Args())
	assert.Same(t, n, qctx.NodeEngine())
	assert.NotEqual(t, qctx.ID(), n.NewQueryContext(context.Background()).ID())
}

func TestConfigFromFlags(t *testing.T) {
	fs := pflag.NewFlagSet("node", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--partition-count=13", "--serialization-compression=snappy"}))

	cfg, err := ConfigFromFlags()
	require.NoError(t, err)
	assert.Equal(t, 13, cfg.PartitionCount)
	assert.Equal(t, serialization.CompressionSnappy, cfg.Serialization.Compression)
	assert.NotNil(t, fs.Lookup("scan-cancel-check-interval"))
	assert.NotNil(t, fs.Lookup("extractor-cache-ttl"))
}

func TestScanRoutedEntries(t *testing.T) {
	n, err := New(Config{PartitionCount: 16})
	require.NoError(t, err)
	_, err = n.MapService().CreateMap(kvstore.MapConfig{Name: "people"})
	require.NoError(t, err)

	ctx := context.Background()
	for i := int64(0); i < 100; i++ {
		_, err := n.MapService().Put(ctx, "people", i, map[string]any{"age": i % 50}, 0)
		require.NoError(t, err)
	}

	all, err := engine.AllPartitions(n.PartitionCount())
	require.NoError(t, err)
	projections, err := evalengine.ParseProjections("__key")
	require.NoError(t, err)
	filter, err := evalengine.ParsePredicate("this.age >= 40")
	require.NoError(t, err)
	scan := engine.NewMapScanExec("people", all, projections, filter)
	require.NoError(t, scan.Setup(n.NewQueryContext(ctx), nil))

	seen := map[int64]bool{}
	for {
		res, err := scan.Advance()
		require.NoError(t, err)
		if res == engine.FetchedDone {
			break
		}
		seen[scan.CurrentBatch().Row(0).Get(0).(int64)] = true
	}
	assert.Len(t, seen, 20)
	for k := range seen {
		assert.GreaterOrEqual(t, k%50, int64(40))
	}
}
