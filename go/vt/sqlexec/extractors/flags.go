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

package extractors

import (
	"time"

	"github.com/spf13/pflag"

	"gridsql.io/gridsql/go/viperutil"
)

var cacheTTL = viperutil.Configure(
	"extractor-cache-ttl",
	viperutil.Options[time.Duration]{
		Default:  10 * time.Minute,
		FlagName: "extractor-cache-ttl",
	},
)

// RegisterFlags installs the extractor flags on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.Duration("extractor-cache-ttl", cacheTTL.Default(), "how long an unused compiled attribute path stays cached")
	viperutil.BindFlags(fs, cacheTTL)
}

// CacheTTLFromFlags returns the configured getter cache expiration.
func CacheTTLFromFlags() time.Duration { return cacheTTL.Get() }
