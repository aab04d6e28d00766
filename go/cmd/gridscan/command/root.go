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

package command

import (
	"flag"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"gridsql.io/gridsql/go/viperutil"
	"gridsql.io/gridsql/go/vt/log"
	"gridsql.io/gridsql/go/vt/sqlexec/node"
	"gridsql.io/gridsql/go/vt/sqlexec/worker"
	"gridsql.io/gridsql/go/vt/vterrors"
)

var (
	configFile string

	Root = &cobra.Command{
		Use:   "gridscan",
		Short: "gridscan loads JSON documents into partitioned maps and scans them.",
		Long: "`gridscan` runs an in-process data node.\n\n" +
			"Documents are read as JSON lines and routed to partitions by a key field.\n" +
			"Scans read a set of partitions, filter the entries with a predicate and project the matching ones into rows.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viperutil.LoadConfig(configFile); err != nil {
				return err
			}
			return log.Init(cmd.Flags())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			glog.Flush()
		},
		SilenceUsage: true,
	}
)

func init() {
	fs := Root.PersistentFlags()
	fs.StringVar(&configFile, "config-file", "", "path to a yaml, json or toml file holding flag values")
	fs.AddGoFlagSet(flag.CommandLine)
	log.RegisterFlags(fs)
	vterrors.RegisterFlags(fs)
	node.RegisterFlags(fs)
	worker.RegisterFlags(fs)
}

// newNode starts a node configured from the flags.
func newNode() (*node.NodeEngine, error) {
	cfg, err := node.ConfigFromFlags()
	if err != nil {
		return nil, err
	}
	return node.New(cfg)
}
