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
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/xlab/treeprint"
)

// PlanDescription is used to create a serializable representation of the Exec tree
type PlanDescription struct {
	OperatorType string
	Variant      string         `json:",omitempty"`
	Other        map[string]any `json:",omitempty"`
	Inputs       []PlanDescription
}

// ExecToPlanDescription transforms an operator tree into a corresponding PlanDescription tree
func ExecToPlanDescription(in Exec) PlanDescription {
	this := in.description()

	for _, input := range in.Inputs() {
		this.Inputs = append(this.Inputs, ExecToPlanDescription(input))
	}

	if len(in.Inputs()) == 0 {
		this.Inputs = []PlanDescription{}
	}

	return this
}

// Explain renders the operator tree as indented text, one operator per
// line, for example:
//
//	Filter(Predicate=:1 > 100)
//	  MapScan(Map=orders, Partitions={1,3})
func Explain(in Exec) string {
	var sb strings.Builder
	ExecToPlanDescription(in).write(&sb, 0)
	return sb.String()
}

func (pd PlanDescription) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(pd.label())
	sb.WriteByte('\n')
	for _, input := range pd.Inputs {
		input.write(sb, depth+1)
	}
}

// label renders the operator without its inputs.
func (pd PlanDescription) label() string {
	var sb strings.Builder
	sb.WriteString(pd.OperatorType)
	if pd.Variant != "" {
		sb.WriteString(" ")
		sb.WriteString(pd.Variant)
	}
	if len(pd.Other) > 0 {
		sb.WriteByte('(')
		for i, k := range slices.Sorted(maps.Keys(pd.Other)) {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s=%v", k, pd.Other[k])
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

// ToTree renders the operator tree with box-drawing branches.
func ToTree(in Exec) string {
	return asTree(ExecToPlanDescription(in), nil).String()
}

func asTree(pd PlanDescription, root treeprint.Tree) treeprint.Tree {
	var branch treeprint.Tree
	if root == nil {
		branch = treeprint.NewWithRoot(pd.label())
	} else {
		branch = root.AddBranch(pd.label())
	}
	for _, input := range pd.Inputs {
		asTree(input, branch)
	}
	return branch
}
