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
	"runtime"

	"github.com/spf13/pflag"

	"gridsql.io/gridsql/go/viperutil"
)

var poolSize = viperutil.Configure(
	"worker-pool-size",
	viperutil.Options[int]{
		Default:  runtime.GOMAXPROCS(0),
		FlagName: "worker-pool-size",
	},
)

// RegisterFlags installs the worker pool flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("worker-pool-size", poolSize.Default(), "number of goroutines executing query fragments")
	viperutil.BindFlags(fs, poolSize)
}

// NewPoolFromFlags starts a pool sized by --worker-pool-size.
func NewPoolFromFlags() *Pool {
	return NewPool(poolSize.Get())
}
