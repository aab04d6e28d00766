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

package worker

import (
	"gridsql.io/gridsql/go/stats"
)

var (
	fragmentsStarted  = stats.NewCounter("WorkerFragmentsStarted", "Fragments submitted to the worker pool")
	fragmentsFinished = stats.NewCountersWithSingleLabel("WorkerFragmentsFinished", "Fragments finished by the worker pool", "Result", "Success", "Failed", "Cancelled")
	fragmentTimings   = stats.NewTimings("WorkerFragmentTimings", "Time from submission to completion of fragments", "Result", "Success", "Failed", "Cancelled")
	ticks             = stats.NewCounter("WorkerTicks", "Operator advances performed by the worker pool")
	queueLength       = stats.NewGauge("WorkerQueueLength", "Fragments waiting in the worker pool run queue")
)
