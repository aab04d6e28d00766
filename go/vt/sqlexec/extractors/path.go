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
	"strconv"
	"strings"

	"gridsql.io/gridsql/go/vt/vterrors"
	"gridsql.io/gridsql/go/vt/vtrpc"
)

// step is one component of a compiled attribute path: either a named
// field or a slice index.
type step struct {
	name  string
	index int
	isIdx bool
}

func (s step) String() string {
	if s.isIdx {
		return "[" + strconv.Itoa(s.index) + "]"
	}
	return s.name
}

// parsePath splits a path like "items[2].price" into its steps.
func parsePath(path string) ([]step, error) {
	if path == "" {
		return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadFieldError, "empty attribute path")
	}

	var steps []step
	for _, part := range strings.Split(path, ".") {
		name, rest, found := strings.Cut(part, "[")
		if name == "" && !found {
			return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadFieldError, "malformed attribute path %q", path)
		}
		if name != "" {
			steps = append(steps, step{name: name})
		}
		if !found {
			continue
		}

		rest = "[" + rest
		for rest != "" {
			if rest[0] != '[' {
				return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadFieldError, "malformed attribute path %q", path)
			}
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadFieldError, "unterminated index in attribute path %q", path)
			}
			idx, err := strconv.Atoi(rest[1:end])
			if err != nil || idx < 0 {
				return nil, vterrors.NewErrorf(vtrpc.Code_INVALID_ARGUMENT, vterrors.BadFieldError, "bad index %q in attribute path %q", rest[1:end], path)
			}
			steps = append(steps, step{index: idx, isIdx: true})
			rest = rest[end+1:]
		}
	}
	return steps, nil
}

// gjsonPath renders steps in gjson path syntax.
func gjsonPath(steps []step) string {
	var sb strings.Builder
	for i, s := range steps {
		if i > 0 {
			sb.WriteByte('.')
		}
		if s.isIdx {
			sb.WriteString(strconv.Itoa(s.index))
			continue
		}
		for _, r := range s.name {
			if strings.ContainsRune(`.*?@#|\!=<>%`, r) {
				sb.WriteByte('\\')
			}
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
