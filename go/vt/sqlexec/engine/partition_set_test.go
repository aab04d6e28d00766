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
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/vt/vterrors"
)

func TestPartitionIDSet(t *testing.T) {
	ids := []int{3, 1, 3}
	set, err := NewPartitionIDSet(4, ids...)
	require.NoError(t, err)
	ids[0] = 0

	assert.Equal(t, []int{1, 3}, set.IDs())
	assert.Equal(t, 2, set.Count())
	assert.Equal(t, 4, set.PartitionCount())
	assert.True(t, set.Contains(3))
	assert.False(t, set.Contains(0))
	assert.Equal(t, "{1,3}", set.String())

	set.IDs()[0] = 2
	assert.Equal(t, []int{1, 3}, set.IDs())

	_, err = NewPartitionIDSet(4, 4)
	assert.Equal(t, vterrors.BadPartitionID, vterrors.ErrState(err))
	_, err = NewPartitionIDSet(4, -1)
	assert.EqualError(t, err, "partition id -1 is out of range [0, 4)")
	_, err = NewPartitionIDSet(0)
	assert.Error(t, err)

	empty, err := NewPartitionIDSet(4)
	require.NoError(t, err)
	assert.Zero(t, empty.Count())
	assert.Equal(t, "{}", empty.String())

	all, err := AllPartitions(3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, all.IDs())
}

func TestParsePartitionIDSet(t *testing.T) {
	testcases := []struct {
		in   string
		want []int
		err  string
	}{
		{in: "", want: nil},
		{in: "1,3", want: []int{1, 3}},
		{in: " 5-7, 0 ,6", want: []int{0, 5, 6, 7}},
		{in: "x", err: `bad partition id "x"`},
		{in: "3-1", err: `bad partition range "3-1"`},
		{in: "9", err: "partition id 9 is out of range [0, 8)"},
		{in: "0-2000000000", err: "partition id 2000000000 is out of range [0, 8)"},
		{in: "3-5,4-7,0-7", want: []int{0, 1, 2, 3, 4, 5, 6, 7}},
	}
	for _, tc := range testcases {
		set, err := ParsePartitionIDSet(8, tc.in)
		if tc.err != "" {
			assert.EqualError(t, err, tc.err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, set.IDs(), tc.in)
	}

	_, err := ParsePartitionIDSet(0, "0")
	assert.Equal(t, vterrors.BadPartitionID, vterrors.ErrState(err))
}

func TestParsePartitionIDSetLargeRange(t *testing.T) {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := ParsePartitionIDSet(4, "0-50000000")
	runtime.ReadMemStats(&after)

	assert.EqualError(t, err, "partition id 50000000 is out of range [0, 4)")
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}
