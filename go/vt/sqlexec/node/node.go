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

// Package node wires the services of one data node together.
package node

import (
	"context"
	"time"

	"github.com/spf13/pflag"

	"gridsql.io/gridsql/go/viperutil"
	"gridsql.io/gridsql/go/vt/kvstore"
	"gridsql.io/gridsql/go/vt/log"
	"gridsql.io/gridsql/go/vt/serialization"
	"gridsql.io/gridsql/go/vt/sqlexec/engine"
	"gridsql.io/gridsql/go/vt/sqlexec/extractors"
)

// DefaultPartitionCount is the number of partitions of a node started
// without configuration.
const DefaultPartitionCount = 271

var partitionCount = viperutil.Configure(
	"partition-count",
	viperutil.Options[int]{
		Default:  DefaultPartitionCount,
		FlagName: "partition-count",
	},
)

// RegisterFlags installs the flags of a node and of the services it
// owns on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("partition-count", partitionCount.Default(), "number of partitions the key space is split into")
	viperutil.BindFlags(fs, partitionCount)

	serialization.RegisterFlags(fs)
	extractors.RegisterFlags(fs)
	engine.RegisterFlags(fs)
}

// Config configures a node.
type Config struct {
	PartitionCount    int
	Serialization     serialization.Config
	ExtractorCacheTTL time.Duration
}

// ConfigFromFlags returns the configuration bound to the registered
// flags.
func ConfigFromFlags() (Config, error) {
	sc, err := serialization.ConfigFromFlags()
	if err != nil {
		return Config{}, err
	}
	return Config{
		PartitionCount:    partitionCount.Get(),
		Serialization:     sc,
		ExtractorCacheTTL: extractors.CacheTTLFromFlags(),
	}, nil
}

// NodeEngine owns the map service and the serialization service of a
// node. It implements engine.NodeEngine.
type NodeEngine struct {
	cfg        Config
	mapService *kvstore.MapService
	ss         *serialization.Service
	ext        *extractors.Extractors
}

var _ engine.NodeEngine = (*NodeEngine)(nil)

// New returns a node with empty storage.
func New(cfg Config) (*NodeEngine, error) {
	if cfg.ExtractorCacheTTL <= 0 {
		cfg.ExtractorCacheTTL = 10 * time.Minute
	}
	ss := serialization.NewService(cfg.Serialization)
	ext := extractors.New(cfg.ExtractorCacheTTL)
	ms, err := kvstore.NewMapService(cfg.PartitionCount, ss, ext)
	if err != nil {
		return nil, err
	}
	log.Infof("node started with %d partitions, %s compression", cfg.PartitionCount, cfg.Serialization.Compression)
	return &NodeEngine{cfg: cfg, mapService: ms, ss: ss, ext: ext}, nil
}

// Config returns the configuration the node was started with.
func (n *NodeEngine) Config() Config { return n.cfg }

// MapService implements engine.NodeEngine.
func (n *NodeEngine) MapService() *kvstore.MapService { return n.mapService }

// SerializationService implements engine.NodeEngine.
func (n *NodeEngine) SerializationService() *serialization.Service { return n.ss }

// Extractors returns the attribute path resolver shared by all maps.
func (n *NodeEngine) Extractors() *extractors.Extractors { return n.ext }

// PartitionCount returns the number of partitions of the node.
func (n *NodeEngine) PartitionCount() int { return n.mapService.PartitionService().PartitionCount() }

// NewQueryContext returns the context of a new query running on this
// node.
func (n *NodeEngine) NewQueryContext(ctx context.Context, args ...any) *engine.QueryContext {
	return engine.NewQueryContext(ctx, n, args...)
}
