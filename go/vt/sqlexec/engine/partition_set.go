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

package engine

import (
	"slices"
	"strconv"
	"strings"

	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// PartitionIDSet is an immutable set of partition ids out of
// partitionCount partitions.
type PartitionIDSet struct {
	partitionCount int
	ids            []int
}

// NewPartitionIDSet returns the set of ids. Duplicates are ignored; ids
// outside [0, partitionCount) are rejected.
func NewPartitionIDSet(partitionCount int, ids ...int) (PartitionIDSet, error) {
	if partitionCount <= 0 {
		return PartitionIDSet{}, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadPartitionID, "partition count must be positive, got %d", partitionCount)
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	for _, id := range sorted {
		if id < 0 || id >= partitionCount {
			return PartitionIDSet{}, outOfRange(id, partitionCount)
		}
	}
	return PartitionIDSet{partitionCount: partitionCount, ids: sorted}, nil
}

// AllPartitions returns the set of every partition.
func AllPartitions(partitionCount int) (PartitionIDSet, error) {
	ids := make([]int, partitionCount)
	for i := range ids {
		ids[i] = i
	}
	return NewPartitionIDSet(partitionCount, ids...)
}

// ParsePartitionIDSet parses a comma separated list of ids and ranges, for
// example "1,3,5-7". An empty string is the empty set.
func ParsePartitionIDSet(partitionCount int, s string) (PartitionIDSet, error) {
	if partitionCount <= 0 {
		return NewPartitionIDSet(partitionCount)
	}
	selected := make([]bool, partitionCount)
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return PartitionIDSet{}, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadPartitionID, "bad partition id %q", part)
		}
		last := first
		if isRange {
			if last, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || last < first {
				return PartitionIDSet{}, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadPartitionID, "bad partition range %q", part)
			}
		}
		for _, id := range []int{first, last} {
			if id < 0 || id >= partitionCount {
				return PartitionIDSet{}, outOfRange(id, partitionCount)
			}
		}
		for id := first; id <= last; id++ {
			selected[id] = true
		}
	}

	var ids []int
	for id, ok := range selected {
		if ok {
			ids = append(ids, id)
		}
	}
	return NewPartitionIDSet(partitionCount, ids...)
}

func outOfRange(id, partitionCount int) error {
	return vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadPartitionID, "partition id %d is out of range [0, %d)", id, partitionCount)
}

// Contains reports whether id is in the set.
func (s PartitionIDSet) Contains(id int) bool {
	_, found := slices.BinarySearch(s.ids, id)
	return found
}

// Count returns the number of ids in the set.
func (s PartitionIDSet) Count() int { return len(s.ids) }

// PartitionCount returns the total number of partitions.
func (s PartitionIDSet) PartitionCount() int { return s.partitionCount }

// IDs returns the ids in ascending order.
func (s PartitionIDSet) IDs() []int { return slices.Clone(s.ids) }

func (s PartitionIDSet) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, id := range s.ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(id))
	}
	sb.WriteByte('}')
	return sb.String()
}
