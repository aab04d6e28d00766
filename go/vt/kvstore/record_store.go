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
	"sync"
	"time"

	"gridsql.io/gridsql/go/vt/serialization"
)

// Record is one entry of a record store. Records are never modified after
// they are published; an update replaces the record.
type Record struct {
	Key serialization.Data
	// Value is serialization.Data for maps in BINARY format and the
	// decoded object for maps in OBJECT format.
	Value          any
	CreationTime   time.Time
	ExpirationTime time.Time

	loaded bool
}

// Loaded reports whether the record holds a value. Records created by
// PutPending are not loaded.
func (r *Record) Loaded() bool { return r.loaded }

// IsExpired reports whether the record has expired as of now.
func (r *Record) IsExpired(now time.Time) bool {
	return !r.ExpirationTime.IsZero() && !now.Before(r.ExpirationTime)
}

// RecordStore holds the records of one map in one partition, in insertion
// order.
type RecordStore struct {
	mapName     string
	partitionID int
	now         func() time.Time

	mu      sync.RWMutex
	records []*Record
	index   map[string]int
	removed int
	loaded  int
}

// NewRecordStore returns an empty store.
func NewRecordStore(mapName string, partitionID int) *RecordStore {
	return &RecordStore{
		mapName:     mapName,
		partitionID: partitionID,
		now:         time.Now,
		index:       make(map[string]int),
	}
}

// MapName returns the map this store belongs to.
func (rs *RecordStore) MapName() string { return rs.mapName }

// PartitionID returns the partition this store belongs to.
func (rs *RecordStore) PartitionID() int { return rs.partitionID }

// Put stores value under key. A positive ttl sets the expiration time.
// Updating an existing key keeps its position.
func (rs *RecordStore) Put(key serialization.Data, value any, ttl time.Duration) {
	now := rs.now()
	rec := &Record{Key: key, Value: value, CreationTime: now, loaded: true}
	if ttl > 0 {
		rec.ExpirationTime = now.Add(ttl)
	}
	rs.publish(rec)
}

// PutPending reserves key for a value that is still being loaded. The
// record is invisible to Get, Size and LoadAwareIterator until a Put for
// the same key completes it.
func (rs *RecordStore) PutPending(key serialization.Data) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if _, ok := rs.index[string(key)]; ok {
		return
	}
	rs.index[string(key)] = len(rs.records)
	rs.records = append(rs.records, &Record{Key: key, CreationTime: rs.now()})
}

func (rs *RecordStore) publish(rec *Record) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if i, ok := rs.index[string(rec.Key)]; ok {
		if !rs.records[i].loaded {
			rs.loaded++
		}
		rs.records[i] = rec
		return
	}
	rs.index[string(rec.Key)] = len(rs.records)
	rs.records = append(rs.records, rec)
	rs.loaded++
}

// Get returns the live record for key.
func (rs *RecordStore) Get(key serialization.Data) (*Record, bool) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	i, ok := rs.index[string(key)]
	if !ok {
		return nil, false
	}
	rec := rs.records[i]
	if !rec.loaded || rec.IsExpired(rs.now()) {
		return nil, false
	}
	return rec, true
}

// Remove deletes key and reports whether it was present.
func (rs *RecordStore) Remove(key serialization.Data) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	i, ok := rs.index[string(key)]
	if !ok {
		return false
	}
	if rs.records[i].loaded {
		rs.loaded--
	}
	rs.records[i] = nil
	delete(rs.index, string(key))
	rs.removed++
	if rs.removed > len(rs.records)/2 {
		rs.compact()
	}
	return true
}

// compact drops removed slots. Callers hold mu.
func (rs *RecordStore) compact() {
	records := make([]*Record, 0, len(rs.records)-rs.removed)
	for _, rec := range rs.records {
		if rec == nil {
			continue
		}
		rs.index[string(rec.Key)] = len(records)
		records = append(records, rec)
	}
	rs.records = records
	rs.removed = 0
}

// Size returns the number of loaded records, expired or not.
func (rs *RecordStore) Size() int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	return rs.loaded
}

// LoadAwareIterator returns an iterator over a snapshot of the records
// that are loaded and, unless backup is set, not expired as of now.
// Writes after the call are not observed by the iterator.
func (rs *RecordStore) LoadAwareIterator(now time.Time, backup bool) *RecordIterator {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	snapshot := make([]*Record, 0, rs.loaded)
	for _, rec := range rs.records {
		if rec == nil || !rec.loaded {
			continue
		}
		if !backup && rec.IsExpired(now) {
			continue
		}
		snapshot = append(snapshot, rec)
	}
	return &RecordIterator{records: snapshot}
}

// RecordIterator walks a record snapshot.
type RecordIterator struct {
	records []*Record
	pos     int
}

// HasNext reports whether Next will return a record.
func (it *RecordIterator) HasNext() bool { return it.pos < len(it.records) }

// Next returns the next record. It panics when the iterator is exhausted.
func (it *RecordIterator) Next() *Record {
	rec := it.records[it.pos]
	it.records[it.pos] = nil
	it.pos++
	return rec
}

// Remaining returns the number of records not yet returned.
func (it *RecordIterator) Remaining() int { return len(it.records) - it.pos }
