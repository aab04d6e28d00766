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

package prometheusbackend

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridsql.io/gridsql/go/stats"
)

func TestPublishedMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	be := &PromBackend{namespace: "gridsql", registry: reg}

	c := stats.NewCounter("", "rows scanned")
	c.Add(4)
	be.publishPrometheusMetric("MapScanRowsScanned", c)

	labeled := stats.NewCountersWithSingleLabel("", "rows emitted", "Map")
	labeled.Add("orders", 2)
	be.publishPrometheusMetric("MapScanRowsEmitted", labeled)

	tm := stats.NewTimings("", "scan latency", "Map")
	tm.Add("orders", 3*time.Millisecond)
	be.publishPrometheusMetric("MapScanLatency", tm)

	expected := `
# HELP gridsql_map_scan_rows_scanned rows scanned
# TYPE gridsql_map_scan_rows_scanned counter
gridsql_map_scan_rows_scanned 4
# HELP gridsql_map_scan_rows_emitted rows emitted
# TYPE gridsql_map_scan_rows_emitted counter
gridsql_map_scan_rows_emitted{map="orders"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"gridsql_map_scan_rows_scanned", "gridsql_map_scan_rows_emitted"))

	n, err := testutil.GatherAndCount(reg, "gridsql_map_scan_latency")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMakeCumulativeBuckets(t *testing.T) {
	cutoffs := []int64{int64(time.Millisecond), int64(time.Second)}
	got := makeCumulativeBuckets(cutoffs, []int64{1, 2, 3})
	assert.Equal(t, map[float64]uint64{0.001: 1, 1: 3}, got)
}
