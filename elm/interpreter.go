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

// Package elm serializes the engine's internal CQL AST (model.Library) to and from ELM JSON
// (https://cql.hl7.org/04-logicalspecification.html), and evaluates ELM JSON directly. It shares
// its evaluation logic entirely with the cql package: Interpret converts an elm/model tree back
// into the same model.IExpression nodes the hand rolled CQL parser produces, then hands them to
// interpreter.Eval, so there is exactly one operator implementation in this codebase, reachable
// through two front doors (CQL source text, or ELM JSON).
package elm

import (
	"context"
	"fmt"
	"time"

	elmmodel "github.com/winterop-com/fhirkit-sub003/elm/model"
	"github.com/winterop-com/fhirkit-sub003/interpreter"
	"github.com/winterop-com/fhirkit-sub003/model"
	"github.com/winterop-com/fhirkit-sub003/result"
	"github.com/winterop-com/fhirkit-sub003/retriever"
	"github.com/winterop-com/fhirkit-sub003/terminology"
)

// EvalConfig configures evaluation of an ELM JSON library, mirroring cql.EvalConfig.
type EvalConfig struct {
	Terminology         terminology.Provider
	EvaluationTimestamp time.Time
	ReturnPrivateDefs   bool
}

// Eval decodes libJSON (per Load), converts it to the engine's internal CQL AST (per Interpret),
// and evaluates it against retriever, returning the same result.Libraries shape cql.ELM.Eval does.
func Eval(ctx context.Context, libJSON []byte, r retriever.Retriever, config EvalConfig) (result.Libraries, error) {
	elmLib, err := Load(libJSON)
	if err != nil {
		return nil, err
	}
	lib, err := Interpret(elmLib)
	if err != nil {
		return nil, fmt.Errorf("elm.Eval: %w", err)
	}
	return interpreter.Eval(ctx, []*model.Library{lib}, interpreter.Config{
		Retriever:           r,
		Terminology:         config.Terminology,
		EvaluationTimestamp: config.EvaluationTimestamp,
		ReturnPrivateDefs:   config.ReturnPrivateDefs,
	})
}

// Interpret converts a decoded ELM JSON tree into the CQL AST (*model.Library) the interpreter
// package already knows how to evaluate.
func Interpret(lib *elmmodel.Library) (*model.Library, error) {
	out := &model.Library{
		Identifier: &model.LibraryIdentifier{
			Element:   &model.Element{},
			Qualified: lib.Library.Identifier.ID,
			Version:   lib.Library.Identifier.Version,
		},
		Statements: &model.Statements{},
	}
	for _, def := range lib.Library.Statements.Def {
		if def.Type != "ExpressionDef" {
			return nil, fmt.Errorf("elm.Interpret: unsupported top level definition type %q", def.Type)
		}
		expr, err := interpretExpression(def.Expression)
		if err != nil {
			return nil, fmt.Errorf("elm.Interpret: definition %q: %w", def.Name, err)
		}
		accessLevel := model.Public
		if def.AccessLevel == string(model.Private) {
			accessLevel = model.Private
		}
		out.Statements.Defs = append(out.Statements.Defs, &model.ExpressionDef{
			Element:     &model.Element{ResultType: parseTypeName(def.Expression.ResultTypeName)},
			Name:        def.Name,
			Expression:  expr,
			AccessLevel: accessLevel,
		})
	}
	return out, nil
}

func baseExpression(e *elmmodel.Expression) *model.Expression {
	return &model.Expression{Element: &model.Element{ResultType: parseTypeName(e.ResultTypeName)}}
}

// unaryConstructors maps an ELM node's type discriminator to a constructor for the matching
// model.IUnaryExpression. Only the subset of ELM's ~40 unary operators this package round trips
// is listed here; an unrecognized type fails loudly in interpretExpression rather than silently
// falling back to a no-op, per the bounded scope recorded in DESIGN.md.
var unaryConstructors = map[string]func(*model.UnaryExpression) model.IUnaryExpression{
	"Not":     func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Not{UnaryExpression: u} },
	"Negate":  func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Negate{UnaryExpression: u} },
	"IsNull":  func(u *model.UnaryExpression) model.IUnaryExpression { return &model.IsNull{UnaryExpression: u} },
	"Exists":  func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Exists{UnaryExpression: u} },
	"Count":   func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Count{UnaryExpression: u} },
	"Sum":     func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Sum{UnaryExpression: u} },
	"Avg":     func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Avg{UnaryExpression: u} },
	"Min":     func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Min{UnaryExpression: u} },
	"Max":     func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Max{UnaryExpression: u} },
	"First":   func(u *model.UnaryExpression) model.IUnaryExpression { return &model.First{UnaryExpression: u} },
	"Last":    func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Last{UnaryExpression: u} },
	"Abs":     func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Abs{UnaryExpression: u} },
	"Ceiling": func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Ceiling{UnaryExpression: u} },
	"Floor":   func(u *model.UnaryExpression) model.IUnaryExpression { return &model.Floor{UnaryExpression: u} },
}

// binaryConstructors is the binary-operator analogue of unaryConstructors.
var binaryConstructors = map[string]func(*model.BinaryExpression) model.IBinaryExpression{
	"Equal":          func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Equal{BinaryExpression: b} },
	"Less":           func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Less{BinaryExpression: b} },
	"Greater":        func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Greater{BinaryExpression: b} },
	"LessOrEqual":    func(b *model.BinaryExpression) model.IBinaryExpression { return &model.LessOrEqual{BinaryExpression: b} },
	"GreaterOrEqual": func(b *model.BinaryExpression) model.IBinaryExpression { return &model.GreaterOrEqual{BinaryExpression: b} },
	"And":            func(b *model.BinaryExpression) model.IBinaryExpression { return &model.And{BinaryExpression: b} },
	"Or":             func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Or{BinaryExpression: b} },
	"XOr":            func(b *model.BinaryExpression) model.IBinaryExpression { return &model.XOr{BinaryExpression: b} },
	"Implies":        func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Implies{BinaryExpression: b} },
	"Add":            func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Add{BinaryExpression: b} },
	"Subtract":       func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Subtract{BinaryExpression: b} },
	"Multiply":       func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Multiply{BinaryExpression: b} },
	"Divide":         func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Divide{BinaryExpression: b} },
	"Power":          func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Power{BinaryExpression: b} },
	"Indexer":        func(b *model.BinaryExpression) model.IBinaryExpression { return &model.Indexer{BinaryExpression: b} },
}

// naryConstructors is the n-ary-operator analogue of unaryConstructors.
var naryConstructors = map[string]func(*model.NaryExpression) model.INaryExpression{
	"Coalesce":    func(n *model.NaryExpression) model.INaryExpression { return &model.Coalesce{NaryExpression: n} },
	"Concatenate": func(n *model.NaryExpression) model.INaryExpression { return &model.Concatenate{NaryExpression: n} },
}

func interpretExpression(e *elmmodel.Expression) (model.IExpression, error) {
	if e == nil {
		return nil, nil
	}

	switch e.Type {
	case "Literal":
		return &model.Literal{Expression: baseExpression(e), Value: e.Value}, nil

	case "List":
		list := &model.List{Expression: baseExpression(e)}
		for _, el := range e.Element {
			c, err := interpretExpression(el)
			if err != nil {
				return nil, err
			}
			list.List = append(list.List, c)
		}
		return list, nil

	case "Interval":
		low, err := interpretExpression(e.Low)
		if err != nil {
			return nil, err
		}
		high, err := interpretExpression(e.High)
		if err != nil {
			return nil, err
		}
		interval := &model.Interval{Expression: baseExpression(e), Low: low, High: high}
		if e.LowClosed != nil {
			interval.LowInclusive = *e.LowClosed
		}
		if e.HighClosed != nil {
			interval.HighInclusive = *e.HighClosed
		}
		return interval, nil

	case "If":
		cond, err := interpretExpression(e.Condition)
		if err != nil {
			return nil, err
		}
		then, err := interpretExpression(e.Then)
		if err != nil {
			return nil, err
		}
		els, err := interpretExpression(e.Else)
		if err != nil {
			return nil, err
		}
		return &model.IfThenElse{Expression: baseExpression(e), Condition: cond, Then: then, Else: els}, nil

	case "Case":
		comparand, err := interpretExpression(e.Comparand)
		if err != nil {
			return nil, err
		}
		els, err := interpretExpression(e.Else)
		if err != nil {
			return nil, err
		}
		c := &model.Case{Expression: baseExpression(e), Comparand: comparand, Else: els}
		for _, ci := range e.CaseItem {
			when, err := interpretExpression(ci.When)
			if err != nil {
				return nil, err
			}
			then, err := interpretExpression(ci.Then)
			if err != nil {
				return nil, err
			}
			c.CaseItem = append(c.CaseItem, &model.CaseItem{Element: &model.Element{}, When: when, Then: then})
		}
		return c, nil

	case "Tuple":
		t := &model.Tuple{Expression: baseExpression(e)}
		for _, te := range e.TupleElements {
			v, err := interpretExpression(te.Value)
			if err != nil {
				return nil, err
			}
			t.Elements = append(t.Elements, &model.TupleElement{Name: te.Name, Value: v})
		}
		return t, nil

	case "ExpressionRef":
		return &model.ExpressionRef{Expression: baseExpression(e), Name: e.Name, LibraryName: e.LibraryName}, nil

	case "ParameterRef":
		return &model.ParameterRef{Expression: baseExpression(e), Name: e.Name, LibraryName: e.LibraryName}, nil

	case "AliasRef":
		return &model.AliasRef{Expression: baseExpression(e), Name: e.Name}, nil
	}

	if ctor, ok := unaryConstructors[e.Type]; ok {
		if len(e.Operand) != 1 {
			return nil, fmt.Errorf("elm.Interpret: unary operator %q requires exactly one operand, got %d", e.Type, len(e.Operand))
		}
		operand, err := interpretExpression(e.Operand[0])
		if err != nil {
			return nil, err
		}
		return ctor(&model.UnaryExpression{Expression: baseExpression(e), Operand: operand}), nil
	}

	if ctor, ok := binaryConstructors[e.Type]; ok {
		if len(e.Operand) != 2 {
			return nil, fmt.Errorf("elm.Interpret: binary operator %q requires exactly two operands, got %d", e.Type, len(e.Operand))
		}
		left, err := interpretExpression(e.Operand[0])
		if err != nil {
			return nil, err
		}
		right, err := interpretExpression(e.Operand[1])
		if err != nil {
			return nil, err
		}
		return ctor(&model.BinaryExpression{Expression: baseExpression(e), Operands: []model.IExpression{left, right}}), nil
	}

	if ctor, ok := naryConstructors[e.Type]; ok {
		n := &model.NaryExpression{Expression: baseExpression(e)}
		for _, operand := range e.Operand {
			c, err := interpretExpression(operand)
			if err != nil {
				return nil, err
			}
			n.Operands = append(n.Operands, c)
		}
		return ctor(n), nil
	}

	return nil, fmt.Errorf("elm.Interpret: unsupported expression type %q", e.Type)
}
