// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package elm

import (
	"strings"

	"github.com/winterop-com/fhirkit-sub003/types"
)

// typeName renders a result type as the resultTypeName ELM JSON uses, e.g. "System.Integer" or
// "List<System.Integer>". A nil type serializes to "".
func typeName(t types.IType) string {
	if t == nil {
		return ""
	}
	if l, ok := t.(*types.List); ok {
		return "List<" + typeName(l.ElementType) + ">"
	}
	return t.String()
}

// parseTypeName is the inverse of typeName, for the bounded set of types this package round-trips
// (system types and lists of them). Anything it cannot recognize parses as types.Any rather than
// failing the whole load, since a best-effort result type is only used for literal decoding and
// display, never as the source of truth for operator dispatch.
func parseTypeName(s string) types.IType {
	if s == "" {
		return types.Unset
	}
	if strings.HasPrefix(s, "List<") && strings.HasSuffix(s, ">") {
		inner := s[len("List<") : len(s)-1]
		return &types.List{ElementType: parseTypeName(inner)}
	}
	if sys := types.ToSystem(s); sys != types.Unset {
		return sys
	}
	return types.Any
}
