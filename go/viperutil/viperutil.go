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

/*
Package viperutil binds configuration values to pflag flags, environment
variables and an optional config file, all backed by a single viper
registry.

Values are declared once at package level with Configure and bound to a
flag set when the owning package registers its flags:

	var partitionCount = viperutil.Configure(
		"partition-count",
		viperutil.Options[int]{
			Default:  271,
			FlagName: "partition-count",
		},
	)

	func registerFlags(fs *pflag.FlagSet) {
		fs.Int("partition-count", partitionCount.Default(), "number of partitions")
		viperutil.BindFlags(fs, partitionCount)
	}

Precedence follows viper: explicitly set flag, environment, config file,
then the default.
*/
package viperutil

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

var (
	mu       sync.Mutex
	registry = viper.New()
)

// ErrNoFlagDefined is returned when a Value has a FlagName set, but the given
// FlagSet does not define a flag with that name.
var ErrNoFlagDefined = vterrors.New(vtrpc.Code_INVALID_ARGUMENT, "flag not defined")

// Options configures a Value.
type Options[T any] struct {
	// Aliases are alternate keys the value is also readable under.
	Aliases []string
	// FlagName, if set, binds the value to the flag of that name in the flag
	// set passed to BindFlags.
	FlagName string
	// EnvVars are environment variables consulted, in order, for the value.
	EnvVars []string
	// Default is returned when the value is not set anywhere else.
	Default T

	// GetFunc overrides the getter inferred from T.
	GetFunc func(v *viper.Viper) func(key string) T
}

// Registerable is the subset of a Value that BindFlags needs. It exists so
// BindFlags can take values of different T at once.
type Registerable interface {
	Key() string
	Flag(fs *pflag.FlagSet) (*pflag.Flag, error)
}

// Value is a configuration value of type T.
type Value[T any] struct {
	key  string
	opts Options[T]
	get  func(key string) T
}

// Configure declares a new value under key and registers its default,
// aliases and environment bindings.
func Configure[T any](key string, opts Options[T]) *Value[T] {
	getFunc := opts.GetFunc
	if getFunc == nil {
		getFunc = getFuncForType[T]()
	}

	mu.Lock()
	defer mu.Unlock()

	registry.SetDefault(key, opts.Default)
	for _, alias := range opts.Aliases {
		registry.RegisterAlias(alias, key)
	}
	envVars := opts.EnvVars
	if len(envVars) == 0 {
		envVars = []string{normalizeEnv(key)}
	}
	_ = registry.BindEnv(append([]string{key}, envVars...)...)

	return &Value[T]{key: key, opts: opts, get: getFunc(registry)}
}

// Key returns the registry key of the value.
func (val *Value[T]) Key() string { return val.key }

// Default returns the configured default.
func (val *Value[T]) Default() T { return val.opts.Default }

// Get returns the current value.
func (val *Value[T]) Get() T {
	mu.Lock()
	defer mu.Unlock()
	return val.get(val.key)
}

// Set overrides the value in the registry. Intended for tests and for
// programmatic configuration of embedded nodes.
func (val *Value[T]) Set(v T) {
	mu.Lock()
	defer mu.Unlock()
	registry.Set(val.key, v)
}

// Flag returns the flag this value is bound to, or (nil, nil) if the value
// is not configured to correspond to a flag.
func (val *Value[T]) Flag(fs *pflag.FlagSet) (*pflag.Flag, error) {
	if val.opts.FlagName == "" {
		return nil, nil
	}

	flag := fs.Lookup(val.opts.FlagName)
	if flag == nil {
		return nil, vterrors.Wrapf(ErrNoFlagDefined, "%s with name %s (for key %s)", ErrNoFlagDefined.Error(), val.opts.FlagName, val.key)
	}

	return flag, nil
}

// BindFlags creates bindings between the registry and the given flag set.
// This function will panic if any of the values defines a flag that does
// not exist in the flag set.
func BindFlags(fs *pflag.FlagSet, values ...Registerable) {
	mu.Lock()
	defer mu.Unlock()

	for _, val := range values {
		flag, err := val.Flag(fs)
		switch {
		case err != nil:
			panic(fmt.Errorf("failed to load flag for %s: %w", val.Key(), err))
		case flag == nil:
			continue
		}

		_ = registry.BindPFlag(val.Key(), flag)
		if flag.Name != val.Key() {
			registry.RegisterAlias(flag.Name, val.Key())
		}
	}
}

// LoadConfig reads the given config file into the registry. The format is
// inferred from the file extension (yaml, json, toml, ...).
func LoadConfig(path string) error {
	if path == "" {
		return nil
	}

	mu.Lock()
	defer mu.Unlock()

	registry.SetConfigFile(path)
	if err := registry.ReadInConfig(); err != nil {
		return vterrors.Wrapf(err, "reading config file %s", path)
	}
	return nil
}

// AllSettings returns the merged view of every configured key, for
// debugging endpoints.
func AllSettings() map[string]any {
	mu.Lock()
	defer mu.Unlock()
	return registry.AllSettings()
}

func getFuncForType[T any]() func(v *viper.Viper) func(key string) T {
	var (
		t T
		f any
	)

	switch any(t).(type) {
	case bool:
		f = func(v *viper.Viper) func(key string) bool { return v.GetBool }
	case int:
		f = func(v *viper.Viper) func(key string) int { return v.GetInt }
	case int64:
		f = func(v *viper.Viper) func(key string) int64 { return v.GetInt64 }
	case float64:
		f = func(v *viper.Viper) func(key string) float64 { return v.GetFloat64 }
	case string:
		f = func(v *viper.Viper) func(key string) string { return v.GetString }
	case []string:
		f = func(v *viper.Viper) func(key string) []string { return v.GetStringSlice }
	case time.Duration:
		f = func(v *viper.Viper) func(key string) time.Duration { return v.GetDuration }
	default:
		panic(fmt.Sprintf("unsupported viperutil value type %T", t))
	}

	return f.(func(v *viper.Viper) func(key string) T)
}

// normalizeEnv maps a key to the environment variable name used when no
// explicit EnvVars are configured.
func normalizeEnv(key string) string {
	return "GRIDSQL_" + strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))
}
