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
	"sync"

	"gridsql.io/gridsql/go/stats"
)

var execErrors = stats.NewCountersWithSingleLabel("ExecErrors", "Operator failures by error code", "Code")

type Metrics struct {
	rowsScanned       *stats.CountersWithSingleLabel
	rowsEmitted       *stats.CountersWithSingleLabel
	partitionsScanned *stats.CountersWithSingleLabel
	scanTimings       *stats.Timings
}

var defaultMetrics = &Metrics{}
var metricsOnce sync.Once

// InitializeMetrics returns the scan metrics, publishing them on first use.
func InitializeMetrics() *Metrics {
	metricsOnce.Do(func() {
		defaultMetrics.rowsScanned = stats.NewCountersWithSingleLabel("MapScanRowsScanned", "Records read by map scans", "Map")
		defaultMetrics.rowsEmitted = stats.NewCountersWithSingleLabel("MapScanRowsEmitted", "Rows buffered by map scans after filtering", "Map")
		defaultMetrics.partitionsScanned = stats.NewCountersWithSingleLabel("MapScanPartitions", "Partitions read by map scans", "Map")
		defaultMetrics.scanTimings = stats.NewTimings("MapScanTimings", "Time spent materializing map scans", "Map")
	})
	return defaultMetrics
}
