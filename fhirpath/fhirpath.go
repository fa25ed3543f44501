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

// Package fhirpath is a standalone FHIRPath evaluator, so this engine's path/navigation
// language is independently usable outside of a full CQL library (spec.md §2 lists it as a
// leaf-level dependency of the CQL evaluator, not merely an embedded implementation detail).
//
// It is implemented as a thin façade over the CQL parser and interpreter rather than a second,
// parallel grammar: FHIRPath is a subset of CQL's expression language, and this package reuses
// the existing `define` expression grammar and its operator/function coverage wholesale. The one
// adaptation this requires: FHIRPath expressions are normally evaluated with an implicit root
// context (a bare leading `name` means "a property of the input"), but this codebase's CQL name
// resolver only resolves bare identifiers against aliases, parameters, and definitions — it has
// no notion of an implicit path root. Rather than changing that shared resolver's semantics,
// expressions passed to this package reference their root context explicitly through the
// identifier This, e.g. "This.name.given" rather than bare "name.given". This is recorded as an
// open decision in DESIGN.md.
package fhirpath

import (
	"context"
	"fmt"
	"sync"

	"github.com/winterop-com/fhirkit-sub003/interpreter"
	"github.com/winterop-com/fhirkit-sub003/model"
	"github.com/winterop-com/fhirkit-sub003/parser"
	"github.com/winterop-com/fhirkit-sub003/result"
)

// contextParamName is the identifier FHIRPath expressions use to reference the value they are
// being evaluated against.
const contextParamName = "This"

// shimLibKey is the synthetic library every compiled expression is wrapped in.
var shimLibKey = result.LibKey{Name: "FHIRPathShim", Version: "1"}

// Evaluator parses and evaluates standalone FHIRPath expressions against a result.Value input,
// using the FHIR 4.0.1 (or other) data model supplied at construction. An Evaluator is safe for
// concurrent use: the parsed-expression cache is guarded by a sync.RWMutex, and compilation of a
// not-yet-cached expression is serialized behind a separate mutex since the underlying
// parser.Parser is documented as not safe for concurrent reuse.
type Evaluator struct {
	parseMu sync.Mutex
	p       *parser.Parser

	cacheMu sync.RWMutex
	cache   map[string]*model.Library
}

// NewEvaluator returns an Evaluator that parses FHIRPath expressions against the supplied data
// model info XML files (the same DataModels a cql.ParseConfig accepts; nil uses only the system
// model).
func NewEvaluator(ctx context.Context, dataModels [][]byte) (*Evaluator, error) {
	p, err := parser.New(ctx, dataModels)
	if err != nil {
		return nil, fmt.Errorf("fhirpath: failed to initialize parser: %w", err)
	}
	return &Evaluator{p: p, cache: make(map[string]*model.Library)}, nil
}

// Check parses expr without evaluating it, returning any syntax or type error. Repeated calls
// with the same expr reuse the parsed-tree cache.
func (e *Evaluator) Check(ctx context.Context, expr string) error {
	_, err := e.compile(ctx, expr)
	return err
}

// Evaluate parses (or reuses a cached parse of) expr and evaluates it with This bound to input,
// returning the resulting value. A FHIRPath expression that yields a collection is returned as a
// result.Value whose GolangValue() is a result.List; use EvaluateSingle to unwrap a
// singleton result.
func (e *Evaluator) Evaluate(ctx context.Context, expr string, input result.Value) (result.Value, error) {
	lib, err := e.compile(ctx, expr)
	if err != nil {
		return result.Value{}, err
	}

	params := map[result.DefKey]model.IExpression{
		{Name: contextParamName, Library: shimLibKey}: interpreter.NewValueExpression(input),
	}
	libs, err := interpreter.Eval(ctx, []*model.Library{lib}, interpreter.Config{
		DataModels:        e.p.DataModel(),
		Parameters:        params,
		ReturnPrivateDefs: true,
	})
	if err != nil {
		return result.Value{}, fmt.Errorf("fhirpath: failed to evaluate %q: %w", expr, err)
	}

	defs, ok := libs[shimLibKey]
	if !ok {
		return result.Value{}, fmt.Errorf("fhirpath: internal error - no results for %q", expr)
	}
	v, ok := defs["Result"]
	if !ok {
		return result.Value{}, fmt.Errorf("fhirpath: internal error - no Result definition for %q", expr)
	}
	return v, nil
}

// EvaluateSingle evaluates expr like Evaluate, then unwraps a single-element result.List into its
// sole element. It returns an error if the expression yields a list with more or less than one
// element.
func (e *Evaluator) EvaluateSingle(ctx context.Context, expr string, input result.Value) (result.Value, error) {
	v, err := e.Evaluate(ctx, expr, input)
	if err != nil {
		return result.Value{}, err
	}
	list, ok := v.GolangValue().(result.List)
	if !ok {
		return v, nil
	}
	if len(list.Value) != 1 {
		return result.Value{}, fmt.Errorf("fhirpath: expected %q to evaluate to a single value, got %d", expr, len(list.Value))
	}
	return list.Value[0], nil
}

// EvaluateBoolean evaluates expr like Evaluate, then requires the result to be a single boolean
// value, returning an error otherwise.
func (e *Evaluator) EvaluateBoolean(ctx context.Context, expr string, input result.Value) (bool, error) {
	v, err := e.EvaluateSingle(ctx, expr, input)
	if err != nil {
		return false, err
	}
	b, ok := v.GolangValue().(bool)
	if !ok {
		return false, fmt.Errorf("fhirpath: expected %q to evaluate to a boolean, got %T", expr, v.GolangValue())
	}
	return b, nil
}

// compile parses expr (wrapped in a synthetic single-parameter, single-definition library) and
// caches the result, so repeated Evaluate/Check calls for the same expression only pay the parse
// cost once.
func (e *Evaluator) compile(ctx context.Context, expr string) (*model.Library, error) {
	e.cacheMu.RLock()
	if lib, ok := e.cache[expr]; ok {
		e.cacheMu.RUnlock()
		return lib, nil
	}
	e.cacheMu.RUnlock()

	src := fmt.Sprintf("library %s version '%s';\nparameter \"%s\" Any;\ndefine \"Result\": %s;\n",
		shimLibKey.Name, shimLibKey.Version, contextParamName, expr)

	e.parseMu.Lock()
	libs, err := e.p.Libraries(ctx, []string{src}, parser.Config{})
	e.parseMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("fhirpath: failed to parse %q: %w", expr, err)
	}
	if len(libs) != 1 {
		return nil, fmt.Errorf("fhirpath: internal error - expected exactly one parsed library for %q, got %d", expr, len(libs))
	}
	lib := libs[0]

	e.cacheMu.Lock()
	e.cache[expr] = lib
	e.cacheMu.Unlock()
	return lib, nil
}
