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

package parser

import (
	"fmt"
	"slices"
	"strings"

	"github.com/winterop-com/fhirkit-sub003/internal/modelinfo"
	"github.com/winterop-com/fhirkit-sub003/internal/reference"
	"github.com/winterop-com/fhirkit-sub003/model"
	"github.com/winterop-com/fhirkit-sub003/types"
)

// parseLibrary is the top level entry point for parsing a single CQL library's token stream.
func (p *Parser) parseLibrary() *model.Library {
	library := &model.Library{}

	if p.isKeyword("library") {
		library.Identifier = p.parseLibraryDefinition()
	}
	p.makeCurrent(library.Identifier)

	statements := &model.Statements{}
	for p.cur().kind != tokEOF {
		switch {
		case p.isKeyword("using"):
			library.Usings = append(library.Usings, p.parseUsingDefinition())
		case p.isKeyword("include"):
			library.Includes = append(library.Includes, p.parseIncludeDefinition())
		case p.isKeyword("parameter"):
			library.Parameters = append(library.Parameters, p.parseParameterDefinition())
		case p.isKeyword("codesystem"):
			library.CodeSystems = append(library.CodeSystems, p.parseCodeSystemDefinition())
		case p.isKeyword("valueset"):
			library.Valuesets = append(library.Valuesets, p.parseValuesetDefinition())
		case p.isKeyword("concept"):
			library.Concepts = append(library.Concepts, p.parseConceptDefinition())
		case p.isKeyword("code"):
			library.Codes = append(library.Codes, p.parseCodeDefinition())
		case p.isKeyword("context"):
			statements.Defs = append(statements.Defs, p.parseContextDefinition())
		case p.isKeyword("define"):
			statements.Defs = append(statements.Defs, p.parseDefineStatement())
		case p.cur().kind == tokEOF:
			// done
		default:
			p.reportError(fmt.Sprintf("unexpected token %q", p.cur().text), p.cur())
			p.skipToSemicolonOrKeyword()
		}
	}

	if len(statements.Defs) > 0 {
		library.Statements = statements
	}
	return library
}

// makeCurrent sets the current library within the parser. This must always be called before
// parsing any further library content.
func (p *Parser) makeCurrent(libID *model.LibraryIdentifier) {
	if libID == nil {
		p.refs.SetCurrentUnnamed()
		return
	}
	if err := p.refs.SetCurrentLibrary(libID); err != nil {
		p.reportError(err.Error(), p.cur())
	}
}

// parseOptionalAccessModifier consumes a leading 'public' or 'private' keyword, defaulting to
// Public when absent.
func (p *Parser) parseOptionalAccessModifier() model.AccessLevel {
	if p.matchKeyword("private") {
		return model.Private
	}
	p.matchKeyword("public")
	return model.Public
}

func (p *Parser) parseVersionSpecifier() string {
	if !p.matchKeyword("version") {
		return ""
	}
	t := p.cur()
	if t.kind != tokString {
		p.reportError("expected a version string", t)
		return ""
	}
	p.next()
	return unescapeString(t.text)
}

func (p *Parser) parseLibraryDefinition() *model.LibraryIdentifier {
	p.expectKeyword("library")
	qID := strings.Split(p.parseQualifiedIdentifier(), ".")
	version := p.parseVersionSpecifier()
	p.expectSymbol(";")
	return &model.LibraryIdentifier{
		Version:   version,
		Local:     qID[len(qID)-1],
		Qualified: strings.Join(qID, "."),
	}
}

func (p *Parser) parseUsingDefinition() *model.Using {
	p.expectKeyword("using")
	using := &model.Using{}
	name := p.parseQualifiedIdentifier()
	using.LocalIdentifier = name
	using.Version = p.parseVersionSpecifier()
	p.expectSymbol(";")

	key := modelinfo.Key{Name: using.LocalIdentifier, Version: using.Version}
	if err := p.modelInfo.SetUsing(key); err != nil {
		p.reportError(err.Error(), p.cur())
		return using
	}
	url, err := p.modelInfo.URL()
	if err != nil {
		p.reportError(err.Error(), p.cur())
		return using
	}
	using.URI = url
	if p.currentModelContext == "" {
		p.currentModelContext, err = p.modelInfo.DefaultContext()
		if err != nil {
			p.reportError(err.Error(), p.cur())
			return using
		}
		if p.currentModelContext == "" {
			p.currentModelContext = "Patient"
		}
	}
	return using
}

func (p *Parser) parseIncludeDefinition() *model.Include {
	p.expectKeyword("include")
	name := p.parseQualifiedIdentifier()
	version := p.parseVersionSpecifier()
	i := &model.Include{
		Identifier: &model.LibraryIdentifier{
			Qualified: name,
			Version:   version,
		},
	}
	if p.matchKeyword("called") {
		local, _ := p.parseIdentifier()
		i.Identifier.Local = local
	} else {
		parts := strings.Split(name, ".")
		i.Identifier.Local = parts[len(parts)-1]
	}
	p.expectSymbol(";")

	if err := p.refs.IncludeLibrary(i.Identifier, true); err != nil {
		p.reportError(err.Error(), p.cur())
	}
	return i
}

func (p *Parser) parseParameterDefinition() *model.ParameterDef {
	p.expectKeyword("parameter")
	access := p.parseOptionalAccessModifier()
	name, _ := p.parseIdentifier()
	pd := &model.ParameterDef{
		Name:        name,
		AccessLevel: access,
		Element:     &model.Element{},
	}

	var typeSpecified bool
	if p.cur().kind == tokIdent && !p.isKeyword("default") {
		pd.Element.ResultType = p.parseTypeSpecifier()
		typeSpecified = true
	}

	if p.matchKeyword("default") {
		pd.Default = p.parseExpression()
		if typeSpecified && !pd.Element.ResultType.Equal(pd.Default.GetResultType()) {
			p.reportError(fmt.Sprintf("parameter definition specified type %v does not match the type of default %v", pd.Element.ResultType, pd.Default.GetResultType()), p.cur())
		}
		pd.Element.ResultType = pd.Default.GetResultType()
	} else if !typeSpecified {
		p.reportError("parameter definition must include a type or a default, but neither were found", p.cur())
	}
	p.expectSymbol(";")

	f := func() model.IExpression {
		return &model.ParameterRef{Name: pd.Name, Expression: model.ResultType(pd.GetResultType())}
	}
	d := &reference.Def[func() model.IExpression]{
		Name:             pd.Name,
		Result:           f,
		IsPublic:         pd.AccessLevel == model.Public,
		ValidateIsUnique: true,
	}
	if err := p.refs.Define(d); err != nil {
		p.reportError(err.Error(), p.cur())
	}
	return pd
}

func (p *Parser) parseValuesetDefinition() *model.ValuesetDef {
	p.expectKeyword("valueset")
	access := p.parseOptionalAccessModifier()
	name, _ := p.parseIdentifier()
	p.expectSymbol(":")
	id := p.parseStringLiteralText()
	vd := &model.ValuesetDef{
		Name:        name,
		ID:          id,
		AccessLevel: access,
		Element:     &model.Element{ResultType: types.ValueSet},
	}
	vd.Version = p.parseVersionSpecifier()

	if p.matchKeyword("codesystems") {
		p.expectSymbol("{")
		for {
			vd.CodeSystems = append(vd.CodeSystems, p.parseCodeSystemIdentifier())
			if !p.matchSymbol(",") {
				break
			}
		}
		p.expectSymbol("}")
	}
	p.expectSymbol(";")

	d := &reference.Def[func() model.IExpression]{
		Name: vd.Name,
		Result: func() model.IExpression {
			return &model.ValuesetRef{Name: vd.Name, Expression: model.ResultType(types.ValueSet)}
		},
		IsPublic:         vd.AccessLevel == model.Public,
		ValidateIsUnique: true,
	}
	if err := p.refs.Define(d); err != nil {
		p.reportError(err.Error(), p.cur())
	}
	return vd
}

func (p *Parser) parseCodeSystemDefinition() *model.CodeSystemDef {
	p.expectKeyword("codesystem")
	access := p.parseOptionalAccessModifier()
	name, _ := p.parseIdentifier()
	p.expectSymbol(":")
	id := p.parseStringLiteralText()
	cs := &model.CodeSystemDef{
		Name:        name,
		ID:          id,
		AccessLevel: access,
		Element:     &model.Element{ResultType: types.CodeSystem},
	}
	cs.Version = p.parseVersionSpecifier()
	p.expectSymbol(";")

	d := &reference.Def[func() model.IExpression]{
		Name: cs.Name,
		Result: func() model.IExpression {
			return &model.CodeSystemRef{Name: cs.Name, Expression: model.ResultType(types.CodeSystem)}
		},
		IsPublic:         cs.AccessLevel == model.Public,
		ValidateIsUnique: true,
	}
	if err := p.refs.Define(d); err != nil {
		p.reportError(err.Error(), p.cur())
	}
	return cs
}

func (p *Parser) parseConceptDefinition() *model.ConceptDef {
	p.expectKeyword("concept")
	access := p.parseOptionalAccessModifier()
	name, _ := p.parseIdentifier()
	p.expectSymbol(":")
	p.expectSymbol("{")
	var codes []*model.CodeRef
	for {
		codes = append(codes, p.parseCodeIdentifier())
		if !p.matchSymbol(",") {
			break
		}
	}
	p.expectSymbol("}")
	var display string
	if p.matchKeyword("display") {
		display = p.parseStringLiteralText()
	}
	p.expectSymbol(";")

	c := &model.ConceptDef{
		Name:        name,
		Codes:       codes,
		Display:     display,
		AccessLevel: access,
		Element:     &model.Element{ResultType: types.Concept},
	}
	d := &reference.Def[func() model.IExpression]{
		Name: c.Name,
		Result: func() model.IExpression {
			return &model.ConceptRef{Name: c.Name, Expression: model.ResultType(types.Concept)}
		},
		IsPublic:         c.AccessLevel == model.Public,
		ValidateIsUnique: true,
	}
	if err := p.refs.Define(d); err != nil {
		p.reportError(err.Error(), p.cur())
	}
	return c
}

func (p *Parser) parseCodeDefinition() *model.CodeDef {
	p.expectKeyword("code")
	access := p.parseOptionalAccessModifier()
	name, _ := p.parseIdentifier()
	p.expectSymbol(":")
	code := p.parseStringLiteralText()
	p.expectKeyword("from")
	cs := p.parseCodeSystemIdentifier()
	c := &model.CodeDef{
		Name:        name,
		Code:        code,
		CodeSystem:  cs,
		AccessLevel: access,
		Element:     &model.Element{ResultType: types.Code},
	}
	if p.matchKeyword("display") {
		c.Display = p.parseStringLiteralText()
	}
	p.expectSymbol(";")

	def := &reference.Def[func() model.IExpression]{
		Name: c.Name,
		Result: func() model.IExpression {
			return &model.CodeRef{Name: c.Name, Expression: model.ResultType(types.Code)}
		},
		IsPublic:         c.AccessLevel == model.Public,
		ValidateIsUnique: true,
	}
	if err := p.refs.Define(def); err != nil {
		p.reportError(err.Error(), p.cur())
	}
	return c
}

// parseCodeSystemIdentifier parses a (possibly library-qualified) reference to a codesystem
// definition, such as "SNOMED" or "FHIRHelpers.SNOMED".
func (p *Parser) parseCodeSystemIdentifier() *model.CodeSystemRef {
	first, _ := p.parseIdentifier()
	var libID, name string
	if p.matchSymbol(".") {
		libID = first
		name, _ = p.parseIdentifier()
	} else {
		name = first
	}

	var csExpr func() model.IExpression
	var err error
	if libID != "" {
		csExpr, err = p.refs.ResolveGlobal(libID, name)
	} else {
		csExpr, err = p.refs.ResolveLocal(name)
	}
	if err != nil {
		p.reportError(err.Error(), p.cur())
		return &model.CodeSystemRef{}
	}
	csr, ok := csExpr().(*model.CodeSystemRef)
	if !ok {
		fullID := name
		if libID != "" {
			fullID = libID + "." + name
		}
		p.reportError(fmt.Sprintf("%v should be of type %v but instead got %v", fullID, types.CodeSystem, csExpr().GetResultType()), p.cur())
		return &model.CodeSystemRef{}
	}
	return csr
}

func (p *Parser) parseCodeIdentifier() *model.CodeRef {
	first, _ := p.parseIdentifier()
	var libID, name string
	if p.matchSymbol(".") {
		libID = first
		name, _ = p.parseIdentifier()
	} else {
		name = first
	}

	var codeExpr func() model.IExpression
	var err error
	if libID != "" {
		codeExpr, err = p.refs.ResolveGlobal(libID, name)
	} else {
		codeExpr, err = p.refs.ResolveLocal(name)
	}
	if err != nil {
		p.reportError(err.Error(), p.cur())
		return &model.CodeRef{}
	}
	codeRef, ok := codeExpr().(*model.CodeRef)
	if !ok {
		fullID := name
		if libID != "" {
			fullID = libID + "." + name
		}
		p.reportError(fmt.Sprintf("expected to find CodeRef for identifier %s, got %v", fullID, codeExpr()), p.cur())
		return &model.CodeRef{}
	}
	return codeRef
}

// parseDefineStatement parses either a `define <id>: <expression>;` expression definition or a
// `define function ...` function definition (see functions.go).
func (p *Parser) parseDefineStatement() model.IExpression {
	p.expectKeyword("define")
	access := p.parseOptionalAccessModifier()
	if p.isKeyword("function") || (p.isKeyword("fluent") && p.peek(1).lower() == "function") {
		return p.parseFunctionDefinition(access)
	}
	return p.parseExpressionDefinition(access)
}

func (p *Parser) parseExpressionDefinition(access model.AccessLevel) *model.ExpressionDef {
	name, _ := p.parseIdentifier()
	p.expectSymbol(":")
	expr := p.parseExpression()
	ed := &model.ExpressionDef{
		Name:        name,
		Context:     p.currentModelContext,
		AccessLevel: access,
		Expression:  expr,
	}
	p.expectSymbol(";")

	expRef := &model.ExpressionRef{Name: ed.Name}
	if ed.Expression.GetResultType() != nil {
		ed.Element = &model.Element{ResultType: ed.Expression.GetResultType()}
		expRef.Expression = model.ResultType(ed.Expression.GetResultType())
	}

	d := &reference.Def[func() model.IExpression]{
		Name:             ed.Name,
		Result:           func() model.IExpression { return expRef },
		IsPublic:         ed.AccessLevel == model.Public,
		ValidateIsUnique: true,
	}
	if err := p.refs.Define(d); err != nil {
		p.reportError(err.Error(), p.cur())
	}
	return ed
}

var supportedContexts = []string{"Patient"}

func validateContext(ctx string) error {
	if !slices.Contains(supportedContexts, ctx) {
		return fmt.Errorf("error -- the CQL engine does not yet support the context %q, only %v are supported", ctx, supportedContexts)
	}
	return nil
}

func (p *Parser) parseContextDefinition() *model.ExpressionDef {
	p.expectKeyword("context")
	cname, _ := p.parseIdentifier()
	p.expectSymbol(";")

	if err := validateContext(cname); err != nil {
		return &model.ExpressionDef{Name: cname, Expression: p.badExpression(err.Error(), p.cur())}
	}
	p.currentModelContext = cname

	r, err := p.createRetrieve(cname)
	if err != nil {
		return &model.ExpressionDef{Name: cname, Expression: p.badExpression(err.Error(), p.cur())}
	}

	sf := &model.SingletonFrom{UnaryExpression: &model.UnaryExpression{Operand: r}}
	var ed *model.ExpressionDef
	if r.GetResultType() != nil {
		switch opType := r.GetResultType().(type) {
		case *types.List:
			sf.UnaryExpression.Expression = model.ResultType(opType.ElementType)
		default:
			return &model.ExpressionDef{Name: cname, Expression: p.badExpression(fmt.Sprintf("SingletonFrom expected a List type or null as input, got: %v", opType), p.cur())}
		}
		ed = &model.ExpressionDef{
			Name:        cname,
			Context:     cname,
			AccessLevel: model.Private,
			Expression:  sf,
			Element:     &model.Element{ResultType: sf.GetResultType()},
		}
	} else {
		ed = &model.ExpressionDef{Name: cname, Context: cname, AccessLevel: model.Private, Expression: sf}
	}

	d := &reference.Def[func() model.IExpression]{
		Name:             ed.Name,
		Result:           func() model.IExpression { return &model.ExpressionRef{Name: ed.Name, Expression: model.ResultType(ed.GetResultType())} },
		IsPublic:         false,
		ValidateIsUnique: true,
	}
	if err := p.refs.Define(d); err != nil {
		p.reportError(err.Error(), p.cur())
	}
	return ed
}
