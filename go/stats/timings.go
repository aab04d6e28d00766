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

package stats

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"
)

// bucketCutoffs are the upper bounds, in nanoseconds, of the latency buckets
// every Timings category keeps. The last implicit bucket is unbounded.
var bucketCutoffs = []int64{
	int64(500 * time.Microsecond),
	int64(1 * time.Millisecond),
	int64(5 * time.Millisecond),
	int64(10 * time.Millisecond),
	int64(50 * time.Millisecond),
	int64(100 * time.Millisecond),
	int64(500 * time.Millisecond),
	int64(1 * time.Second),
	int64(5 * time.Second),
	int64(10 * time.Second),
}

// Histogram tracks counts and totals while
// splitting the counts under different buckets
// using specified cutoffs.
type Histogram struct {
	cutoffs []int64

	// mu controls buckets & total
	mu      sync.Mutex
	buckets []int64
	total   int64
}

func newHistogram(cutoffs []int64) *Histogram {
	return &Histogram{
		cutoffs: cutoffs,
		buckets: make([]int64, len(cutoffs)+1),
	}
}

// Add records a value in the first bucket whose cutoff is not below it.
func (h *Histogram) Add(value int64) {
	idx := len(h.cutoffs)
	for i, cutoff := range h.cutoffs {
		if value <= cutoff {
			idx = i
			break
		}
	}
	h.mu.Lock()
	h.buckets[idx]++
	h.total += value
	h.mu.Unlock()
}

// Cutoffs returns the bucket upper bounds.
func (h *Histogram) Cutoffs() []int64 {
	return h.cutoffs
}

// Buckets returns a copy of the per-bucket counts.
func (h *Histogram) Buckets() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int64(nil), h.buckets...)
}

// Count returns the number of recorded values.
func (h *Histogram) Count() (count int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, v := range h.buckets {
		count += v
	}
	return count
}

// Total returns the sum of the recorded values.
func (h *Histogram) Total() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

// Timings is meant to tracks timing data
// by named categories as well as histograms.
type Timings struct {
	totalCount int64
	totalTime  int64

	mu         sync.RWMutex
	histograms map[string]*Histogram

	help  string
	label string
}

// NewTimings creates a new Timings object, and publishes it if name is set.
// categories is an optional list of categories to initialize to 0.
// Categories that aren't initialized will be missing from the map until the
// first time they are updated.
func NewTimings(name, help, label string, categories ...string) *Timings {
	t := &Timings{
		histograms: make(map[string]*Histogram),
		help:       help,
		label:      label,
	}
	for _, cat := range categories {
		t.histograms[cat] = newHistogram(bucketCutoffs)
	}
	if name != "" {
		publish(name, t)
	}
	return t
}

// Add will add a new value to the named histogram.
func (t *Timings) Add(name string, elapsed time.Duration) {
	// Get existing Histogram.
	t.mu.RLock()
	hist, ok := t.histograms[name]
	t.mu.RUnlock()

	// Create Histogram if it does not exist.
	if !ok {
		t.mu.Lock()
		hist, ok = t.histograms[name]
		if !ok {
			hist = newHistogram(bucketCutoffs)
			t.histograms[name] = hist
		}
		t.mu.Unlock()
	}

	elapsedNs := int64(elapsed)
	hist.Add(elapsedNs)
	t.mu.Lock()
	t.totalCount++
	t.totalTime += elapsedNs
	t.mu.Unlock()
}

// Record is a convenience function that records completion
// timing data based on the provided start time of an event.
func (t *Timings) Record(name string, startTime time.Time) {
	t.Add(name, time.Since(startTime))
}

// String is for expvar.
func (t *Timings) String() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tm := struct {
		TotalCount int64
		TotalTime  int64
		Histograms map[string]map[string]int64
	}{
		TotalCount: t.totalCount,
		TotalTime:  t.totalTime,
		Histograms: make(map[string]map[string]int64, len(t.histograms)),
	}
	for name, h := range t.histograms {
		tm.Histograms[name] = map[string]int64{"Count": h.Count(), "Time": h.Total()}
	}

	data, err := json.Marshal(tm)
	if err != nil {
		data, _ = json.Marshal(err.Error())
	}
	return string(bytes.TrimSpace(data))
}

// Histograms returns a map pointing at the histograms.
func (t *Timings) Histograms() (h map[string]*Histogram) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h = make(map[string]*Histogram, len(t.histograms))
	for k, v := range t.histograms {
		h[k] = v
	}
	return
}

// Count returns the total count for all values.
func (t *Timings) Count() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalCount
}

// Time returns the total time elapsed for all values.
func (t *Timings) Time() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totalTime
}

// Counts returns the total count for each value.
func (t *Timings) Counts() map[string]int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[string]int64, len(t.histograms)+1)
	for k, v := range t.histograms {
		counts[k] = v.Count()
	}
	counts["All"] = t.totalCount
	return counts
}

// Help returns the help string.
func (t *Timings) Help() string {
	return t.help
}

// Label returns the label name.
func (t *Timings) Label() string {
	return t.label
}
