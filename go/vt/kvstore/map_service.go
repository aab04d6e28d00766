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

package kvstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"gridsql.io/gridsql/go/stats"
	"gridsql.io/gridsql/go/vt/log"
	"gridsql.io/gridsql/go/vt/serialization"
	"gridsql.io/gridsql/go/vt/sqlexec/extractors"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

var (
	entriesWritten = stats.NewCountersWithSingleLabel("MapEntriesWritten", "Entries written per map", "Map")
	entriesRemoved = stats.NewCountersWithSingleLabel("MapEntriesRemoved", "Entries removed per map", "Map")
)

// InMemoryFormat is how a map keeps its values.
type InMemoryFormat int

const (
	// Binary keeps values as serialization.Data.
	Binary InMemoryFormat = iota
	// Object keeps values as decoded objects.
	Object
)

func (f InMemoryFormat) String() string {
	if f == Object {
		return "OBJECT"
	}
	return "BINARY"
}

// MapConfig configures one map.
type MapConfig struct {
	Name           string
	InMemoryFormat InMemoryFormat
	// TTL, if positive, is applied to every entry written without an
	// explicit TTL.
	TTL time.Duration
}

// MapServiceContext gives access to the partitions of one map.
type MapServiceContext struct {
	config     MapConfig
	partitions *PartitionService
	containers []*PartitionContainer
	extractors *extractors.Extractors
}

// MapName returns the name of the map.
func (msc *MapServiceContext) MapName() string { return msc.config.Name }

// Config returns the map configuration.
func (msc *MapServiceContext) Config() MapConfig { return msc.config }

// InMemoryFormat returns the value format of the map.
func (msc *MapServiceContext) InMemoryFormat() InMemoryFormat { return msc.config.InMemoryFormat }

// PartitionCount returns the number of partitions of the store.
func (msc *MapServiceContext) PartitionCount() int { return msc.partitions.PartitionCount() }

// Extractors returns the attribute path resolver of the map.
func (msc *MapServiceContext) Extractors() *extractors.Extractors { return msc.extractors }

// PartitionContainer returns the container of partition id.
func (msc *MapServiceContext) PartitionContainer(id int) (*PartitionContainer, error) {
	if err := msc.partitions.CheckPartitionID(id); err != nil {
		return nil, err
	}
	return msc.containers[id], nil
}

// RecordStore returns the record store of this map in partition id.
func (msc *MapServiceContext) RecordStore(id int) (*RecordStore, error) {
	pc, err := msc.PartitionContainer(id)
	if err != nil {
		return nil, err
	}
	return pc.RecordStore(msc.config.Name), nil
}

// Size returns the number of loaded entries across all partitions.
func (msc *MapServiceContext) Size() int {
	size := 0
	for _, pc := range msc.containers {
		if rs, ok := pc.ExistingRecordStore(msc.config.Name); ok {
			size += rs.Size()
		}
	}
	return size
}

// MapService is the node-level registry of maps.
type MapService struct {
	partitions    *PartitionService
	containers    []*PartitionContainer
	serialization *serialization.Service
	extractors    *extractors.Extractors

	mu   sync.RWMutex
	maps map[string]*MapServiceContext
}

// NewMapService returns a map service over partitionCount partitions.
func NewMapService(partitionCount int, ss *serialization.Service, ext *extractors.Extractors) (*MapService, error) {
	ps, err := NewPartitionService(partitionCount)
	if err != nil {
		return nil, err
	}
	containers := make([]*PartitionContainer, partitionCount)
	for i := range containers {
		containers[i] = newPartitionContainer(i)
	}
	return &MapService{
		partitions:    ps,
		containers:    containers,
		serialization: ss,
		extractors:    ext,
		maps:          make(map[string]*MapServiceContext),
	}, nil
}

// PartitionService returns the partitioning of the store.
func (ms *MapService) PartitionService() *PartitionService { return ms.partitions }

// CreateMap registers a new map.
func (ms *MapService) CreateMap(cfg MapConfig) (*MapServiceContext, error) {
	if cfg.Name == "" {
		return nil, vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "map name must not be empty")
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.maps[cfg.Name]; ok {
		return nil, vterrors.Errorf(vtrpc.Code_ALREADY_EXISTS, "map %s already exists", cfg.Name)
	}
	msc := &MapServiceContext{
		config:     cfg,
		partitions: ms.partitions,
		containers: ms.containers,
		extractors: ms.extractors,
	}
	ms.maps[cfg.Name] = msc
	log.Infof("created map %s (%s format)", cfg.Name, cfg.InMemoryFormat)
	return msc, nil
}

// GetOrCreateMap returns the context of name, creating the map with a
// default configuration if it does not exist.
func (ms *MapService) GetOrCreateMap(name string) (*MapServiceContext, error) {
	if msc, err := ms.MapServiceContext(name); err == nil {
		return msc, nil
	}
	msc, err := ms.CreateMap(MapConfig{Name: name})
	if vterrors.Code(err) == vtrpc.Code_ALREADY_EXISTS {
		return ms.MapServiceContext(name)
	}
	return msc, err
}

// DestroyMap removes a map and all its entries.
func (ms *MapService) DestroyMap(name string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if _, ok := ms.maps[name]; !ok {
		return vterrors.NewErrorf(vtrpc.Code_NOT_FOUND, vterrors.UnknownMap, "map %s does not exist", name)
	}
	delete(ms.maps, name)
	for _, pc := range ms.containers {
		pc.DropRecordStore(name)
	}
	return nil
}

// MapServiceContext returns the context of an existing map.
func (ms *MapService) MapServiceContext(name string) (*MapServiceContext, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	msc, ok := ms.maps[name]
	if !ok {
		return nil, vterrors.NewErrorf(vtrpc.Code_NOT_FOUND, vterrors.UnknownMap, "map %s does not exist", name)
	}
	return msc, nil
}

// MapNames returns the names of all maps, sorted.
func (ms *MapService) MapNames() []string {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	names := make([]string, 0, len(ms.maps))
	for name := range ms.maps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Put writes key and value to mapName and returns the partition the
// entry was routed to. A zero ttl uses the map default.
func (ms *MapService) Put(ctx context.Context, mapName string, key, value any, ttl time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	msc, err := ms.MapServiceContext(mapName)
	if err != nil {
		return 0, err
	}

	keyData, err := ms.serialization.ToData(key)
	if err != nil {
		return 0, vterrors.Wrapf(err, "encoding key for map %s", mapName)
	}
	stored := value
	if msc.config.InMemoryFormat == Binary {
		if stored, err = ms.serialization.ToData(value); err != nil {
			return 0, vterrors.Wrapf(err, "encoding value for map %s", mapName)
		}
	}
	if ttl == 0 {
		ttl = msc.config.TTL
	}

	pid := ms.partitions.PartitionID(keyData)
	ms.containers[pid].RecordStore(mapName).Put(keyData, stored, ttl)
	entriesWritten.Add(mapName, 1)
	return pid, nil
}

// Get returns the decoded value of key in mapName, or nil if absent.
func (ms *MapService) Get(ctx context.Context, mapName string, key any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := ms.MapServiceContext(mapName); err != nil {
		return nil, err
	}
	keyData, err := ms.serialization.ToData(key)
	if err != nil {
		return nil, err
	}
	rs, ok := ms.containers[ms.partitions.PartitionID(keyData)].ExistingRecordStore(mapName)
	if !ok {
		return nil, nil
	}
	rec, ok := rs.Get(keyData)
	if !ok {
		return nil, nil
	}
	return ms.serialization.ToObject(rec.Value)
}

// Remove deletes key from mapName and reports whether it was present.
func (ms *MapService) Remove(ctx context.Context, mapName string, key any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := ms.MapServiceContext(mapName); err != nil {
		return false, err
	}
	keyData, err := ms.serialization.ToData(key)
	if err != nil {
		return false, err
	}
	rs, ok := ms.containers[ms.partitions.PartitionID(keyData)].ExistingRecordStore(mapName)
	if !ok || !rs.Remove(keyData) {
		return false, nil
	}
	entriesRemoved.Add(mapName, 1)
	return true, nil
}
