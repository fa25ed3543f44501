// Copyright 2023 Google LLC
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

// Package parser offers a hand-written, recursive-descent CQL parser that produces an
// intermediate ELM like data structure for evaluation. It does not depend on ANTLR or any
// generated grammar; tokenization and parsing are both implemented directly in this package.
package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/winterop-com/fhirkit-sub003/internal/modelinfo"
	"github.com/winterop-com/fhirkit-sub003/internal/reference"
	"github.com/winterop-com/fhirkit-sub003/model"
	"github.com/winterop-com/fhirkit-sub003/result"
	"gopkg.in/gyuho/goraph.v2"
)

// Config configures the parsing of CQL.
type Config struct {
	// Empty for now, but in the future will contain options like EnableListPromotion.
}

// New returns a new Parser initialized to the data models.
func New(ctx context.Context, dataModels [][]byte) (*Parser, error) {
	p := &Parser{
		refs: reference.NewResolver[func() model.IExpression, func() model.IExpression](),
	}
	mi, err := modelinfo.New(dataModels)
	if err != nil {
		return nil, err
	}
	p.modelInfo = mi

	if err := p.loadSystemOperators(); err != nil {
		return nil, err
	}

	return p, nil
}

// Parser parses CQL library and parameter strings into our intermediate ELM like data structure.
// The parser is responsible for all validation and implicit conversions. A single Parser's token
// stream fields are reused (and reset) across each call to parseLibrary/parseTerm; Parser is not
// safe for concurrent use.
type Parser struct {
	modelInfo *modelinfo.ModelInfos
	refs      *reference.Resolver[func() model.IExpression, func() model.IExpression]

	toks                []token
	pos                 int
	errors              errorList
	currentModelContext string
	inSortContext       bool
}

// errorList is implemented by both *LibraryErrors and *ParameterErrors so reportError can append
// to whichever error collection the current parse is using.
type errorList interface {
	Append(*ParsingError)
}

// DataModel returns the parsed model info.
func (p *Parser) DataModel() *modelinfo.ModelInfos {
	p.modelInfo.ResetUsing()
	return p.modelInfo
}

// Libraries parses the CQL libraries into a list of model.Library or an error.
// Underlying parsing issues will return a ParsingErrors struct that users can check for and
// report to the user accordingly.
func (p *Parser) Libraries(ctx context.Context, cqlLibs []string, config Config) ([]*model.Library, error) {
	if len(cqlLibs) == 0 {
		return nil, result.NewEngineError("", result.ErrCompileError, fmt.Errorf("no CQL libraries were provided"))
	}

	p.refs.ClearDefs()
	sortedLibraries, err := p.topologicalSortLibraries(cqlLibs)
	if err != nil {
		return nil, result.NewEngineError("", result.ErrCompileError, err)
	}

	libs := []*model.Library{}
	for _, src := range sortedLibraries {
		libErrs := &LibraryErrors{}
		toks, lexErr := newLexer(src).tokenize()
		if lexErr != nil {
			libErrs.Append(&ParsingError{Message: lexErr.Error(), Type: SyntaxError})
			return nil, libErrs
		}

		p.toks = toks
		p.pos = 0
		p.errors = libErrs
		p.currentModelContext = ""
		p.inSortContext = false

		lib := p.parseLibrary()
		libErrs.LibKey = result.LibKeyFromModel(lib.Identifier)
		if len(libErrs.Errors) > 0 {
			return nil, libErrs
		}
		libs = append(libs, lib)
	}
	return libs, nil
}

// topologicalSortLibraries scans each library's header (the library identifier and its include
// statements) and topologically sorts them by include dependency, returning the CQL library
// source strings in dependency order.
func (p *Parser) topologicalSortLibraries(cqlLibs []string) ([]string, error) {
	bySrc := make(map[string]string, len(cqlLibs))
	includeDependencies := make(map[result.LibKey][]result.LibKey, len(cqlLibs))
	graph := goraph.NewGraph()

	for _, src := range cqlLibs {
		libKey, includes, err := scanLibraryHeader(src)
		if err != nil {
			return nil, err
		}
		bySrc[libKey.Key()] = src
		includeDependencies[libKey] = includes
		if ok := graph.AddNode(goraph.NewNode(libKey.Key())); !ok {
			return nil, fmt.Errorf("cql library %q already imported", libKey.String())
		}
	}

	for libID, deps := range includeDependencies {
		libNode := goraph.NewNode(libID.Key())
		for _, includedID := range deps {
			if includedID.Version == "" {
				for libKey := range includeDependencies {
					if libKey.Name != includedID.Name {
						continue
					}
					if strings.Compare(includedID.Version, libKey.Version) == -1 {
						includedID = libKey
					}
				}
			}
			includedNode := goraph.NewNode(includedID.Key())
			if err := graph.AddEdge(includedNode.ID(), libNode.ID(), 1); err != nil {
				return nil, fmt.Errorf("failed to import library %q, dependency graph could not resolve with error: %w", includedID, err)
			}
		}
	}
	sortedLibraryIDs, isValidDag := goraph.TopologicalSort(graph)
	if !isValidDag {
		return nil, fmt.Errorf("included cql libraries are not valid, found circular dependencies")
	}

	sortedLibs := make([]string, 0, len(sortedLibraryIDs))
	for _, libID := range sortedLibraryIDs {
		sortedLibs = append(sortedLibs, bySrc[libID.String()])
	}
	return sortedLibs, nil
}

// scanLibraryHeader lexes just enough of a CQL library to learn its identifier and the libraries
// it includes, without needing a full expression parse. This keeps dependency ordering independent
// from name resolution, which must happen in dependency order.
func scanLibraryHeader(src string) (result.LibKey, []result.LibKey, error) {
	toks, err := newLexer(src).tokenize()
	if err != nil {
		return result.LibKey{}, nil, err
	}

	var libKey result.LibKey
	var includes []result.LibKey
	i := 0
	readQualifiedIdent := func(i int) (string, int) {
		var parts []string
		for i < len(toks) && (toks[i].kind == tokIdent || toks[i].kind == tokQuotedIdent) {
			parts = append(parts, toks[i].text)
			i++
			if i < len(toks) && toks[i].kind == tokSymbol && toks[i].text == "." {
				i++
				continue
			}
			break
		}
		return strings.Join(parts, "."), i
	}
	for i < len(toks) && toks[i].kind != tokEOF {
		tk := toks[i]
		if tk.kind == tokIdent && tk.lower() == "library" {
			name, ni := readQualifiedIdent(i + 1)
			i = ni
			var version string
			if i < len(toks) && toks[i].kind == tokIdent && toks[i].lower() == "version" {
				i++
				if i < len(toks) && toks[i].kind == tokString {
					version = toks[i].text
					i++
				}
			}
			libKey = result.LibKey{Name: name, Version: version}
			continue
		}
		if tk.kind == tokIdent && tk.lower() == "include" {
			name, ni := readQualifiedIdent(i + 1)
			i = ni
			var version string
			for i < len(toks) {
				if toks[i].kind == tokIdent && toks[i].lower() == "version" && i+1 < len(toks) && toks[i+1].kind == tokString {
					version = toks[i+1].text
					i += 2
					continue
				}
				if toks[i].kind == tokIdent && toks[i].lower() == "called" {
					i += 2
					continue
				}
				break
			}
			if name != "" {
				includes = append(includes, result.LibKey{Name: name, Version: version})
			}
			continue
		}
		i++
	}
	if libKey.Name == "" {
		libKey = result.LibKey{Name: "unnamed"}
	}
	return libKey, includes, nil
}

// Parameters parses CQL literals into model.IExpressions. Each param should be a CQL literal, not
// an expression definition, valueset or other CQL construct.
func (p *Parser) Parameters(ctx context.Context, params map[result.DefKey]string, config Config) (map[result.DefKey]model.IExpression, error) {
	if params == nil {
		return nil, nil
	}
	parsedParams := make(map[result.DefKey]model.IExpression, len(params))
	for k, v := range params {
		e, err := p.parameter(k, v)
		if err != nil {
			return nil, err
		}
		parsedParams[k] = e
	}
	return parsedParams, nil
}

// parameter parses an individual CQL literal. The CQL spec does not specify anything beyond that
// the environment passes parameters. We have chosen to take passed parameters as CQL literals.
func (p *Parser) parameter(key result.DefKey, input string) (model.IExpression, error) {
	p.refs.ClearDefs()

	paramErrs := &ParameterErrors{DefKey: key}
	toks, err := newLexer(input).tokenize()
	if err != nil {
		paramErrs.Append(&ParsingError{Message: err.Error(), Type: SyntaxError})
		return nil, paramErrs
	}

	p.toks = toks
	p.pos = 0
	p.errors = paramErrs
	p.currentModelContext = ""
	p.inSortContext = false

	m := p.parseParameterLiteral()
	if len(paramErrs.Errors) > 0 {
		return nil, paramErrs
	}
	if p.cur().kind != tokEOF {
		return nil, &ParameterErrors{
			DefKey: key,
			Errors: []*ParsingError{{Message: "must be a single literal"}},
		}
	}
	return m, nil
}

// parseParameterLiteral parses a single CQL term and validates that it is one of the literal-like
// term shapes permitted for parameters (literal, quantity, ratio, tuple, interval or list).
func (p *Parser) parseParameterLiteral() model.IExpression {
	expr := p.parseTerm()
	switch expr.(type) {
	case *model.Literal, *model.Quantity, *model.Ratio, *model.Tuple, *model.Interval, *model.List, *model.Code:
		return expr
	case *model.Negate:
		return expr
	default:
		return p.badExpression("parameter must be a single literal", p.cur())
	}
}
