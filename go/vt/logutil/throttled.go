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

// Package logutil holds logging helpers built on top of the log package.
package logutil

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"gridsql.io/gridsql/go/vt/log"
)

// ThrottledLogger logs at most one message per interval. Messages in
// between are dropped and counted, and the count is reported with the
// next message that gets through.
type ThrottledLogger struct {
	name    string
	limiter *rate.Limiter

	mu      sync.Mutex
	skipped int
}

// NewThrottledLogger creates a ThrottledLogger with the given name and
// throttling interval.
func NewThrottledLogger(name string, maxInterval time.Duration) *ThrottledLogger {
	return &ThrottledLogger{
		name:    name,
		limiter: rate.NewLimiter(rate.Every(maxInterval), 1),
	}
}

type logFunc func(string, ...any)

func (tl *ThrottledLogger) log(logF logFunc, format string, v ...any) bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	if !tl.limiter.Allow() {
		tl.skipped++
		return false
	}
	if tl.skipped > 0 {
		logF("%v: skipped %v log messages", tl.name, tl.skipped)
		tl.skipped = 0
	}
	logF(tl.name+": "+format, v...)
	return true
}

// Skipped returns the number of messages dropped since the last one that
// was logged.
func (tl *ThrottledLogger) Skipped() int {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.skipped
}

// Infof logs an info if not throttled.
func (tl *ThrottledLogger) Infof(format string, v ...any) bool {
	return tl.log(log.Infof, format, v...)
}

// Warningf logs a warning if not throttled.
func (tl *ThrottledLogger) Warningf(format string, v ...any) bool {
	return tl.log(log.Warningf, format, v...)
}

// Errorf logs an error if not throttled.
func (tl *ThrottledLogger) Errorf(format string, v ...any) bool {
	return tl.log(log.Errorf, format, v...)
}
