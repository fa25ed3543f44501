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

	log "github.com/golang/glog"

	elmmodel "github.com/winterop-com/fhirkit-sub003/elm/model"
	"github.com/winterop-com/fhirkit-sub003/model"
)

// Serialize walks a parsed CQL library (the same *model.Library the parser package produces) and
// renders it as ELM JSON. Top level definitions other than ExpressionDef (e.g. FunctionDef) are
// skipped with a logged warning. An expression node outside this package's supported subset
// (Query, Retrieve, Instance, Message, ...) makes Serialize return an error for the whole library.
// Every unary/binary/n-ary operator is serialized under its GetName(), including ones Interpret
// has no constructor for - see DESIGN.md for the full boundary.
func Serialize(lib *model.Library) ([]byte, error) {
	out, err := serializeLibrary(lib)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(out, "", "  ")
}

func serializeLibrary(lib *model.Library) (*elmmodel.Library, error) {
	out := &elmmodel.Library{
		Library: elmmodel.LibraryBody{
			Identifier: elmmodel.Identifier{
				ID:      lib.Identifier.Qualified,
				Version: lib.Identifier.Version,
			},
		},
	}
	if lib.Statements == nil {
		return out, nil
	}
	for _, def := range lib.Statements.Defs {
		ed, ok := def.(*model.ExpressionDef)
		if !ok {
			log.Warningf("elm.Serialize: skipping unsupported top level definition %q of type %T", def.GetName(), def)
			continue
		}
		expr, err := serializeExpression(ed.Expression)
		if err != nil {
			return nil, fmt.Errorf("elm.Serialize: definition %q: %w", ed.Name, err)
		}
		out.Library.Statements.Def = append(out.Library.Statements.Def, &elmmodel.ExpressionDef{
			Type:        "ExpressionDef",
			Name:        ed.Name,
			AccessLevel: string(ed.AccessLevel),
			Expression:  expr,
		})
	}
	return out, nil
}

func serializeExpression(e model.IExpression) (*elmmodel.Expression, error) {
	if e == nil {
		return nil, nil
	}
	out := &elmmodel.Expression{ResultTypeName: typeName(e.GetResultType())}

	switch expr := e.(type) {
	case *model.Literal:
		out.Type = "Literal"
		out.Value = expr.Value
		return out, nil

	case *model.List:
		out.Type = "List"
		for _, el := range expr.List {
			c, err := serializeExpression(el)
			if err != nil {
				return nil, err
			}
			out.Element = append(out.Element, c)
		}
		return out, nil

	case *model.Interval:
		out.Type = "Interval"
		low, err := serializeExpression(expr.Low)
		if err != nil {
			return nil, err
		}
		high, err := serializeExpression(expr.High)
		if err != nil {
			return nil, err
		}
		out.Low, out.High = low, high
		lowClosed, highClosed := expr.LowInclusive, expr.HighInclusive
		out.LowClosed, out.HighClosed = &lowClosed, &highClosed
		return out, nil

	case *model.IfThenElse:
		out.Type = "If"
		cond, err := serializeExpression(expr.Condition)
		if err != nil {
			return nil, err
		}
		then, err := serializeExpression(expr.Then)
		if err != nil {
			return nil, err
		}
		els, err := serializeExpression(expr.Else)
		if err != nil {
			return nil, err
		}
		out.Condition, out.Then, out.Else = cond, then, els
		return out, nil

	case *model.Case:
		out.Type = "Case"
		comparand, err := serializeExpression(expr.Comparand)
		if err != nil {
			return nil, err
		}
		out.Comparand = comparand
		for _, ci := range expr.CaseItem {
			when, err := serializeExpression(ci.When)
			if err != nil {
				return nil, err
			}
			then, err := serializeExpression(ci.Then)
			if err != nil {
				return nil, err
			}
			out.CaseItem = append(out.CaseItem, &elmmodel.CaseItem{When: when, Then: then})
		}
		els, err := serializeExpression(expr.Else)
		if err != nil {
			return nil, err
		}
		out.Else = els
		return out, nil

	case *model.Tuple:
		out.Type = "Tuple"
		for _, el := range expr.Elements {
			v, err := serializeExpression(el.Value)
			if err != nil {
				return nil, err
			}
			out.TupleElements = append(out.TupleElements, &elmmodel.TupleElement{Name: el.Name, Value: v})
		}
		return out, nil

	case *model.ExpressionRef:
		out.Type = "ExpressionRef"
		out.Name, out.LibraryName = expr.Name, expr.LibraryName
		return out, nil

	case *model.ParameterRef:
		out.Type = "ParameterRef"
		out.Name, out.LibraryName = expr.Name, expr.LibraryName
		return out, nil

	case *model.AliasRef:
		out.Type = "AliasRef"
		out.Name = expr.Name
		return out, nil

	case model.IUnaryExpression:
		out.Type = expr.GetName()
		operand, err := serializeExpression(expr.GetOperand())
		if err != nil {
			return nil, err
		}
		out.Operand = []*elmmodel.Expression{operand}
		return out, nil

	case model.IBinaryExpression:
		out.Type = expr.GetName()
		left, err := serializeExpression(expr.Left())
		if err != nil {
			return nil, err
		}
		right, err := serializeExpression(expr.Right())
		if err != nil {
			return nil, err
		}
		out.Operand = []*elmmodel.Expression{left, right}
		return out, nil

	case model.INaryExpression:
		out.Type = expr.GetName()
		for _, operand := range expr.GetOperands() {
			c, err := serializeExpression(operand)
			if err != nil {
				return nil, err
			}
			out.Operand = append(out.Operand, c)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("elm.Serialize: unsupported expression type %T", e)
	}
}
