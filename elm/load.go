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
	"encoding/json"
	"fmt"

	elmmodel "github.com/winterop-com/fhirkit-sub003/elm/model"
)

// Load decodes ELM JSON into the elm/model tree. Per spec, it is lenient on unknown JSON fields
// (encoding/json already ignores fields with no matching struct tag) but strict on the "type"
// discriminator: every ExpressionDef and every expression node reachable from one must carry a
// non-empty type, or Load fails rather than silently producing a tree Interpret cannot walk.
func Load(data []byte) (*elmmodel.Library, error) {
	var lib elmmodel.Library
	if err := json.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("elm.Load: %w", err)
	}
	for _, def := range lib.Library.Statements.Def {
		if def.Type == "" {
			return nil, fmt.Errorf("elm.Load: definition %q is missing its type discriminator", def.Name)
		}
		if err := validateTypeDiscriminators(def.Expression); err != nil {
			return nil, fmt.Errorf("elm.Load: definition %q: %w", def.Name, err)
		}
	}
	return &lib, nil
}

func validateTypeDiscriminators(e *elmmodel.Expression) error {
	if e == nil {
		return nil
	}
	if e.Type == "" {
		return fmt.Errorf("expression node is missing its type discriminator")
	}
	children := append([]*elmmodel.Expression{}, e.Operand...)
	children = append(children, e.Element...)
	children = append(children, e.Low, e.High, e.Condition, e.Then, e.Else, e.Comparand)
	for _, c := range children {
		if err := validateTypeDiscriminators(c); err != nil {
			return err
		}
	}
	for _, ci := range e.CaseItem {
		if err := validateTypeDiscriminators(ci.When); err != nil {
			return err
		}
		if err := validateTypeDiscriminators(ci.Then); err != nil {
			return err
		}
	}
	for _, te := range e.TupleElements {
		if err := validateTypeDiscriminators(te.Value); err != nil {
			return err
		}
	}
	return nil
}
