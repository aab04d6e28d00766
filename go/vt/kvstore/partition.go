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

// Package kvstore is the partitioned in-memory key-value store that scans
// read from.
//
// Keys are routed to one of a fixed number of partitions by hashing their
// encoded form. Each partition holds one RecordStore per map. Writers are
// serialized per record store; readers take snapshots through
// LoadAwareIterator and never block writers for longer than the copy.
package kvstore

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"gridsql.io/gridsql/go/vt/serialization"
	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// PartitionService maps encoded keys to partitions.
type PartitionService struct {
	count int
}

// NewPartitionService returns a service for count partitions.
func NewPartitionService(count int) (*PartitionService, error) {
	if count <= 0 {
		return nil, vterrors.Errorf(vtrpc.Code_INVALID_ARGUMENT, "partition count must be positive, got %d", count)
	}
	return &PartitionService{count: count}, nil
}

// PartitionCount returns the number of partitions.
func (ps *PartitionService) PartitionCount() int { return ps.count }

// PartitionID returns the partition that owns key.
func (ps *PartitionService) PartitionID(key serialization.Data) int {
	return int(xxhash.Sum64(key) % uint64(ps.count))
}

// CheckPartitionID returns an error if id is not a valid partition.
func (ps *PartitionService) CheckPartitionID(id int) error {
	if id < 0 || id >= ps.count {
		return vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadPartitionID, "partition id %d out of range [0, %d)", id, ps.count)
	}
	return nil
}

// PartitionContainer holds the record stores of one partition, one per map.
type PartitionContainer struct {
	id int

	mu     sync.Mutex
	stores map[string]*RecordStore
}

func newPartitionContainer(id int) *PartitionContainer {
	return &PartitionContainer{id: id, stores: make(map[string]*RecordStore)}
}

// PartitionID returns the partition this container belongs to.
func (pc *PartitionContainer) PartitionID() int { return pc.id }

// RecordStore returns the store of mapName, creating an empty one on
// first use.
func (pc *PartitionContainer) RecordStore(mapName string) *RecordStore {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	rs, ok := pc.stores[mapName]
	if !ok {
		rs = NewRecordStore(mapName, pc.id)
		pc.stores[mapName] = rs
	}
	return rs
}

// ExistingRecordStore returns the store of mapName if one was created.
func (pc *PartitionContainer) ExistingRecordStore(mapName string) (*RecordStore, bool) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	rs, ok := pc.stores[mapName]
	return rs, ok
}

// DropRecordStore removes the store of mapName.
func (pc *PartitionContainer) DropRecordStore(mapName string) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	delete(pc.stores, mapName)
}
