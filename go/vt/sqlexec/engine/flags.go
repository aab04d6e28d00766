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
	"github.com/spf13/pflag"

	"gridsql.io/gridsql/go/viperutil"
)

var cancelCheckInterval = viperutil.Configure(
	"scan-cancel-check-interval",
	viperutil.Options[int]{
		Default:  1024,
		FlagName: "scan-cancel-check-interval",
	},
)

// RegisterFlags installs the operator flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Int("scan-cancel-check-interval", cancelCheckInterval.Default(), "number of records a map scan reads between checks for query cancellation")
	viperutil.BindFlags(fs, cancelCheckInterval)
}

func scanCancelCheckInterval() int {
	if n := cancelCheckInterval.Get(); n > 0 {
		return n
	}
	return 1
}
