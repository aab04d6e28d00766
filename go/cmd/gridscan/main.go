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

// gridscan loads JSON documents into the partitioned maps of an in-process
// node and runs filtered scans over them, either once from the command
// line or behind an HTTP API.
package main

import (
	"gridsql.io/gridsql/go/cmd/gridscan/command"
	"gridsql.io/gridsql/go/vt/log"
)

func main() {
	if err := command.Root.Execute(); err != nil {
		log.Exitf("%v", err)
	}
}
