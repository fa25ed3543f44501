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

package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/winterop-com/fhirkit-sub003/internal/convert"
	"github.com/winterop-com/fhirkit-sub003/internal/datehelpers"
	"github.com/winterop-com/fhirkit-sub003/model"
	"github.com/winterop-com/fhirkit-sub003/types"
	"github.com/winterop-com/fhirkit-sub003/ucum"
)

// parseTerm parses a single primary term, then applies any trailing postfix operators (property
// access, indexers, and qualified/fluent function calls).
func (p *Parser) parseTerm() model.IExpression {
	if p.isKeyword("from") {
		p.next()
		firstSource := p.parsePostfix(p.parsePrimary())
		return p.parseQuery(firstSource, true)
	}
	expr := p.parsePostfix(p.parsePrimary())
	if p.peekIsAlias(0) {
		return p.parseQuery(expr, false)
	}
	return expr
}

// parsePrimary dispatches on the current token to parse a single primary term: a literal,
// quantity, ratio, selector, retrieve, parenthesized expression, identifier reference, or
// if/case expression.
func (p *Parser) parsePrimary() model.IExpression {
	t := p.cur()

	switch t.kind {
	case tokString:
		p.next()
		return buildLiteral(unescapeString(t.text), types.String)
	case tokNumber:
		return p.parseQuantityOrNumber(t)
	case tokLongNumber:
		p.next()
		return buildLiteral(t.text, types.Long)
	case tokDateTime:
		p.next()
		return p.parseDateTimeLiteral(t)
	case tokSymbol:
		if t.text == "(" {
			return p.parseParenthesizedOrTuple()
		}
		if t.text == "{" {
			return p.parseBareListSelector()
		}
		return p.badExpression(fmt.Sprintf("unexpected token %q", t.text), t)
	}

	switch t.lower() {
	case "true", "false":
		p.next()
		return buildLiteral(t.lower(), types.Boolean)
	case "null":
		p.next()
		return buildLiteral("null", types.Any)
	case "if":
		return p.parseIfThenElse()
	case "case":
		return p.parseCaseExpression()
	case "interval":
		return p.parseIntervalSelector()
	case "list":
		return p.parseListSelector()
	case "tuple":
		return p.parseTupleSelector()
	case "code":
		return p.parseCodeSelector()
	}

	if p.isRetrieveStart() {
		return p.parseRetrieve()
	}

	// An identifier followed by '{' not matching any of the keyword selectors above is an instance
	// selector: NamedTypeSpecifier '{' InstanceElementSelector,... '}'.
	if (t.kind == tokIdent || t.kind == tokQuotedIdent) && p.looksLikeInstanceSelector() {
		return p.parseInstanceSelector()
	}

	if t.kind == tokIdent || t.kind == tokQuotedIdent {
		return p.parseIdentifierReference()
	}

	return p.badExpression(fmt.Sprintf("unexpected token %q", t.text), t)
}

// isRetrieveStart reports whether the cursor is positioned at the start of a Retrieve:
// [NamedTypeSpecifier] optionally followed by a terminology clause.
func (p *Parser) isRetrieveStart() bool {
	return p.isSymbol("[")
}

// parseRetrieve parses `[ NamedTypeSpecifier ( ':' Terminology )? ]`.
func (p *Parser) parseRetrieve() model.IExpression {
	open := p.cur()
	p.expectSymbol("[")
	named := p.parseNamedTypeSpecifier()
	n, ok := named.(*types.Named)
	if !ok {
		p.skipToMatchingBracket()
		return p.badExpression(fmt.Sprintf("retrieves cannot be performed on type %v", named), open)
	}
	r, err := p.createRetrieve(n.TypeName)
	if err != nil {
		p.skipToMatchingBracket()
		return p.badExpression(err.Error(), open)
	}
	if p.matchSymbol(":") {
		r.Codes = p.parseExpression()
	}
	p.expectSymbol("]")
	return r
}

// skipToMatchingBracket recovers from a retrieve parse error by skipping to the closing ']'.
func (p *Parser) skipToMatchingBracket() {
	depth := 1
	for {
		t := p.cur()
		if t.kind == tokEOF {
			return
		}
		if t.kind == tokSymbol {
			switch t.text {
			case "[":
				depth++
			case "]":
				depth--
				if depth == 0 {
					p.next()
					return
				}
			}
		}
		p.next()
	}
}

// createRetrieve builds a model.Retrieve for the given (possibly qualified) resource type name.
// Ported verbatim from the prior ANTLR-based visitor's implementation.
func (p *Parser) createRetrieve(resourceType string) (*model.Retrieve, error) {
	namedType, err := p.modelInfo.ToNamed(resourceType)
	if err != nil {
		return nil, err
	}
	tInfo, err := p.modelInfo.NamedTypeInfo(namedType)
	if err != nil {
		return nil, err
	}
	url, err := p.modelInfo.URL()
	if err != nil {
		return nil, err
	}
	if !tInfo.Retrievable {
		return nil, fmt.Errorf("tried to retrieve type %s, but this type is not retrievable", namedType)
	}
	split := strings.Split(resourceType, ".")
	unqualifiedName := split[len(split)-1]
	return &model.Retrieve{
		DataType:     fmt.Sprintf("{%v}%v", url, unqualifiedName),
		TemplateID:   tInfo.Identifier,
		CodeProperty: tInfo.PrimaryCodePath,
		Expression:   model.ResultType(&types.List{ElementType: namedType}),
	}, nil
}

// parseIfThenElse parses `if Expression then Expression else Expression`.
func (p *Parser) parseIfThenElse() model.IExpression {
	pos := p.cur()
	p.expectKeyword("if")
	cnd := p.parseExpression()
	inferredCnd, err := convert.OperandImplicitConverter(cnd.GetResultType(), types.Boolean, cnd, p.modelInfo)
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}
	if !inferredCnd.Matched {
		return p.badExpression(fmt.Sprintf("could not implicitly convert %v to a %v", cnd.GetResultType(), types.Boolean), pos)
	}
	p.expectKeyword("then")
	thn := p.parseExpression()
	p.expectKeyword("else")
	els := p.parseExpression()

	i, err := convert.InferMixed([]model.IExpression{thn, els}, p.modelInfo)
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}
	return &model.IfThenElse{
		Condition:  inferredCnd.WrappedOperand,
		Then:       i.WrappedOperands[0],
		Else:       i.WrappedOperands[1],
		Expression: model.ResultType(i.UniformType),
	}
}

// parseCaseExpression parses both the comparand and no-comparand forms of `case`.
func (p *Parser) parseCaseExpression() model.IExpression {
	pos := p.cur()
	p.expectKeyword("case")
	caseModel := &model.Case{}

	var comparand model.IExpression
	if !p.isKeyword("when") {
		comparand = p.parseExpression()
	}

	for p.isKeyword("when") {
		p.next()
		when := p.parseExpression()
		p.expectKeyword("then")
		then := p.parseExpression()
		caseModel.CaseItem = append(caseModel.CaseItem, &model.CaseItem{When: when, Then: then})
	}
	p.expectKeyword("else")
	caseModel.Else = p.parseExpression()
	p.expectKeyword("end")

	var err error
	if comparand == nil {
		caseModel, err = p.booleanWhen(caseModel)
	} else {
		caseModel.Comparand = comparand
		caseModel, err = p.uniformWhen(caseModel)
	}
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}

	mixed := make([]model.IExpression, 0, len(caseModel.CaseItem)+1)
	for _, ci := range caseModel.CaseItem {
		mixed = append(mixed, ci.Then)
	}
	mixed = append(mixed, caseModel.Else)
	inferred, err := convert.InferMixed(mixed, p.modelInfo)
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}
	for i, ci := range caseModel.CaseItem {
		ci.Then = inferred.WrappedOperands[i]
	}
	caseModel.Else = inferred.WrappedOperands[len(inferred.WrappedOperands)-1]
	caseModel.Expression = model.ResultType(inferred.UniformType)
	return caseModel
}

// booleanWhen validates and wraps the When clauses of a comparand-less case expression, each of
// which must be implicitly convertible to Boolean.
func (p *Parser) booleanWhen(c *model.Case) (*model.Case, error) {
	for _, ci := range c.CaseItem {
		res, err := convert.OperandImplicitConverter(ci.When.GetResultType(), types.Boolean, ci.When, p.modelInfo)
		if err != nil {
			return nil, err
		}
		if !res.Matched {
			return nil, fmt.Errorf("case when clause must be of type %v, got %v", types.Boolean, ci.When.GetResultType())
		}
		ci.When = res.WrappedOperand
	}
	return c, nil
}

// uniformWhen validates and wraps the When clauses of a case expression with a comparand, each of
// which must be implicitly convertible to the comparand's type.
func (p *Parser) uniformWhen(c *model.Case) (*model.Case, error) {
	comparandType := c.Comparand.GetResultType()
	for _, ci := range c.CaseItem {
		res, err := convert.OperandImplicitConverter(ci.When.GetResultType(), comparandType, ci.When, p.modelInfo)
		if err != nil {
			return nil, err
		}
		if !res.Matched {
			return nil, fmt.Errorf("case when clause must be of type %v, got %v", comparandType, ci.When.GetResultType())
		}
		ci.When = res.WrappedOperand
	}
	return c, nil
}

// parseParenthesizedOrTuple parses a parenthesized expression: '(' Expression ')'.
func (p *Parser) parseParenthesizedOrTuple() model.IExpression {
	p.expectSymbol("(")
	expr := p.parseExpression()
	p.expectSymbol(")")
	return expr
}

// parseBareListSelector parses an untyped list selector: '{' Expression,... '}'.
func (p *Parser) parseBareListSelector() model.IExpression {
	pos := p.cur()
	p.expectSymbol("{")
	var elems []model.IExpression
	if !p.isSymbol("}") {
		for {
			elems = append(elems, p.parseExpression())
			if !p.matchSymbol(",") {
				break
			}
		}
	}
	p.expectSymbol("}")
	return p.buildListFromElements(pos, nil, elems)
}

// parseListSelector parses `List '<' TypeSpecifier '>'? '{' Expression,... '}'`.
func (p *Parser) parseListSelector() model.IExpression {
	pos := p.cur()
	p.expectKeyword("list")
	var elemType types.IType
	if p.matchSymbol("<") {
		elemType = p.parseTypeSpecifier()
		p.expectSymbol(">")
	}
	p.expectSymbol("{")
	var elems []model.IExpression
	if !p.isSymbol("}") {
		for {
			elems = append(elems, p.parseExpression())
			if !p.matchSymbol(",") {
				break
			}
		}
	}
	p.expectSymbol("}")
	return p.buildListFromElements(pos, elemType, elems)
}

// buildListFromElements implements the empty/typed/untyped-mixed list construction rules:
// an empty untyped list defaults to List<Any>, a typed list implicitly converts every element, and
// an untyped non-empty list infers a uniform (or Choice) element type across its elements.
func (p *Parser) buildListFromElements(pos token, elemType types.IType, elems []model.IExpression) model.IExpression {
	l := &model.List{}
	if elemType != nil {
		wrapped := make([]model.IExpression, 0, len(elems))
		for _, e := range elems {
			res, err := convert.OperandImplicitConverter(e.GetResultType(), elemType, e, p.modelInfo)
			if err != nil {
				return p.badExpression(err.Error(), pos)
			}
			if !res.Matched {
				return p.badExpression(fmt.Sprintf("list element of type %v is not implicitly convertible to %v", e.GetResultType(), elemType), pos)
			}
			wrapped = append(wrapped, res.WrappedOperand)
		}
		l.List = wrapped
		l.Expression = model.ResultType(&types.List{ElementType: elemType})
		return l
	}
	if len(elems) == 0 {
		l.Expression = model.ResultType(&types.List{ElementType: types.Any})
		return l
	}
	inferred, err := convert.InferMixed(elems, p.modelInfo)
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}
	l.List = inferred.WrappedOperands
	l.Expression = model.ResultType(&types.List{ElementType: inferred.UniformType})
	return l
}

// parseIntervalSelector parses `Interval ('['|'(') Expression ',' Expression (']'|')')`.
func (p *Parser) parseIntervalSelector() model.IExpression {
	pos := p.cur()
	p.expectKeyword("interval")
	lowInclusive := p.isSymbol("[")
	if !p.matchSymbol("[") {
		p.expectSymbol("(")
	}
	low := p.parseExpression()
	p.expectSymbol(",")
	high := p.parseExpression()
	highInclusive := p.isSymbol("]")
	if !p.matchSymbol("]") {
		p.expectSymbol(")")
	}

	declared := [][]types.IType{
		{types.Integer, types.Integer},
		{types.Long, types.Long},
		{types.Decimal, types.Decimal},
		{types.Quantity, types.Quantity},
		{types.Date, types.Date},
		{types.DateTime, types.DateTime},
		{types.Time, types.Time},
	}
	var overloads []convert.Overload[func() *model.Interval]
	for _, o := range declared {
		overloads = append(overloads, convert.Overload[func() *model.Interval]{
			Operands: o,
			Result:   func() *model.Interval { return &model.Interval{} },
		})
	}
	matched, err := convert.OverloadMatch([]model.IExpression{low, high}, overloads, p.modelInfo, "Interval")
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}

	interval := matched.Result()
	interval.Low = matched.WrappedOperands[0]
	interval.High = matched.WrappedOperands[1]
	interval.LowInclusive = lowInclusive
	interval.HighInclusive = highInclusive
	interval.Expression = model.ResultType(&types.Interval{PointType: interval.Low.GetResultType()})
	return interval
}

// parseTupleSelector parses `Tuple '{' (identifier ':' Expression),... '}'`.
func (p *Parser) parseTupleSelector() model.IExpression {
	p.expectKeyword("tuple")
	return p.parseTupleBody()
}

func (p *Parser) parseTupleBody() model.IExpression {
	tModel := &model.Tuple{}
	tResult := &types.Tuple{ElementTypes: make(map[string]types.IType)}
	p.expectSymbol("{")
	if !p.isSymbol("}") {
		for {
			name, _ := p.parseIdentifier()
			p.expectSymbol(":")
			value := p.parseExpression()
			tModel.Elements = append(tModel.Elements, &model.TupleElement{Name: name, Value: value})
			tResult.ElementTypes[name] = value.GetResultType()
			if !p.matchSymbol(",") {
				break
			}
		}
	}
	p.expectSymbol("}")
	tModel.Expression = model.ResultType(tResult)
	return tModel
}

// looksLikeInstanceSelector reports whether the upcoming tokens are a NamedTypeSpecifier directly
// followed by '{', the shape of an Instance selector such as `Patient { id: '123' }`.
func (p *Parser) looksLikeInstanceSelector() bool {
	save := p.pos
	defer func() { p.pos = save }()

	for p.cur().kind == tokIdent || p.cur().kind == tokQuotedIdent {
		p.next()
		if p.isSymbol(".") {
			p.next()
			continue
		}
		break
	}
	return p.isSymbol("{")
}

// parseInstanceSelector parses `NamedTypeSpecifier '{' (identifier ':' Expression),... '}'`.
func (p *Parser) parseInstanceSelector() model.IExpression {
	pos := p.cur()
	classType := p.parseNamedTypeSpecifier()
	i := &model.Instance{
		Expression: model.ResultType(classType),
		ClassType:  classType,
	}
	p.expectSymbol("{")
	if !p.isSymbol("}") {
		for {
			name, _ := p.parseIdentifier()
			p.expectSymbol(":")
			value := p.parseExpression()

			miType, err := p.modelInfo.PropertyTypeSpecifier(classType, name)
			if err != nil {
				return p.badExpression(err.Error(), pos)
			}
			res, err := convert.OperandImplicitConverter(value.GetResultType(), miType, value, p.modelInfo)
			if err != nil {
				return p.badExpression(err.Error(), pos)
			}
			if !res.Matched {
				return p.badExpression(fmt.Sprintf("element %q in %v should be implicitly convertible to type %v, but instead received type %v", name, classType, miType, value.GetResultType()), pos)
			}
			i.Elements = append(i.Elements, &model.InstanceElement{Name: name, Value: res.WrappedOperand})
			if !p.matchSymbol(",") {
				break
			}
		}
	}
	p.expectSymbol("}")
	return i
}

// parseCodeSelector parses `Code STRING from CodeSystemIdentifier ('display' STRING)?`.
func (p *Parser) parseCodeSelector() model.IExpression {
	p.expectKeyword("code")
	codeVal := p.parseStringLiteralText()
	p.expectKeyword("from")
	cs := p.parseCodeSystemIdentifier()
	c := &model.Code{
		Expression: model.ResultType(types.Code),
		System:     cs,
		Code:       codeVal,
	}
	if p.matchKeyword("display") {
		c.Display = p.parseStringLiteralText()
	}
	return c
}

// parseStringLiteralText consumes a string literal token and returns its unescaped text.
func (p *Parser) parseStringLiteralText() string {
	t := p.cur()
	if t.kind != tokString {
		p.reportError("expected a string literal", t)
		return ""
	}
	p.next()
	return unescapeString(t.text)
}

// parseIdentifierReference resolves a bare (possibly dotted) identifier sequence against the
// reference resolver: a single identifier resolves locally, while a dotted sequence may be
// `includedLibrary.definition(.property)*` or `localExpression.property(.property)*`.
func (p *Parser) parseIdentifierReference() model.IExpression {
	pos := p.cur()
	first, _ := p.parseIdentifier()

	var ids []string
	for p.isSymbol(".") && (p.peek(1).kind == tokIdent || p.peek(1).kind == tokQuotedIdent) {
		p.next()
		n, _ := p.parseIdentifier()
		ids = append(ids, n)
	}

	if len(ids) == 0 {
		modelFunc, err := p.refs.ResolveLocal(first)
		if err != nil {
			return p.badExpression(err.Error(), pos)
		}
		return modelFunc
	}

	var ref model.IExpression
	var i int
	if lib := p.refs.ResolveInclude(first); lib != nil {
		i = 1
		r, err := p.resolveGlobalRef(lib.Local, ids[0])
		if err != nil {
			return p.badExpression(err.Error(), pos)
		}
		ref = r
	} else {
		modelFunc, err := p.refs.ResolveLocal(first)
		if err != nil {
			return p.badExpression(err.Error(), pos)
		}
		ref = modelFunc
	}

	for _, id := range ids[i:] {
		prop := &model.Property{Source: ref, Path: id}
		if prop.Source.GetResultType() != nil {
			propertyType, err := p.modelInfo.PropertyTypeSpecifier(prop.Source.GetResultType(), prop.Path)
			if err != nil {
				return p.badExpression(err.Error(), pos)
			}
			prop.Expression = model.ResultType(propertyType)
		}
		ref = prop
	}
	return ref
}

// resolveGlobalRef resolves a reference to a global definition in an included library, tagging
// the resulting ref with the library's local alias. Ported from the prior visitor implementation.
func (p *Parser) resolveGlobalRef(libName, defName string) (model.IExpression, error) {
	modelFunc, err := p.refs.ResolveGlobal(libName, defName)
	if err != nil {
		return nil, err
	}
	switch typedM := modelFunc().(type) {
	case *model.CodeRef:
		typedM.LibraryName = libName
		return typedM, nil
	case *model.CodeSystemRef:
		typedM.LibraryName = libName
		return typedM, nil
	case *model.ConceptRef:
		typedM.LibraryName = libName
		return typedM, nil
	case *model.ParameterRef:
		typedM.LibraryName = libName
		return typedM, nil
	case *model.ExpressionRef:
		typedM.LibraryName = libName
		return typedM, nil
	case *model.ValuesetRef:
		typedM.LibraryName = libName
		return typedM, nil
	}
	return nil, fmt.Errorf("internal error - global reference %s.%s is not a supported reference type", libName, defName)
}

// parsePostfix applies any trailing '.', '[...]' or fluent-call chain to expr.
func (p *Parser) parsePostfix(expr model.IExpression) model.IExpression {
	for {
		switch {
		case p.isSymbol("."):
			pos := p.cur()
			p.next()
			name, ok := p.parseIdentifier()
			if !ok {
				return expr
			}
			if p.isSymbol("(") {
				args := p.parseCallArguments()
				args = append([]model.IExpression{expr}, args...)
				m, err := p.resolveFunction("", name, args, true)
				if err != nil {
					expr = p.badExpression(err.Error(), pos)
					continue
				}
				expr = m
				continue
			}
			prop := &model.Property{Source: expr, Path: name}
			if expr.GetResultType() != nil {
				propertyType, err := p.modelInfo.PropertyTypeSpecifier(expr.GetResultType(), name)
				if err != nil {
					expr = p.badExpression(err.Error(), pos)
					continue
				}
				prop.Expression = model.ResultType(propertyType)
			}
			expr = prop
		case p.isSymbol("["):
			pos := p.cur()
			p.next()
			index := p.parseExpression()
			p.expectSymbol("]")
			m, err := p.resolveFunction("", "Indexer", []model.IExpression{expr, index}, false)
			if err != nil {
				expr = p.badExpression(err.Error(), pos)
				continue
			}
			expr = m
		default:
			return expr
		}
	}
}

// parseDateTimeLiteral classifies and validates an '@'-prefixed literal as Date, DateTime, or Time.
func (p *Parser) parseDateTimeLiteral(t token) model.IExpression {
	val := t.text
	if strings.Contains(val, "T") {
		if _, _, err := datehelpers.ParseDateTime(val, time.UTC); err != nil {
			return p.badExpression(err.Error(), t)
		}
		return buildLiteral(val, types.DateTime)
	}
	if strings.HasPrefix(val, "@T") {
		if _, _, err := datehelpers.ParseTime(val, time.UTC); err != nil {
			return p.badExpression(err.Error(), t)
		}
		return buildLiteral(val, types.Time)
	}
	if _, _, err := datehelpers.ParseDate(val, time.UTC); err != nil {
		return p.badExpression(err.Error(), t)
	}
	return buildLiteral(val, types.Date)
}

// parseQuantityOrNumber parses a NUMBER optionally followed by a unit (string, date/time
// precision keyword, or plural date/time precision keyword) forming a Quantity, or a ratio when
// followed by ':' and a second quantity.
func (p *Parser) parseQuantityOrNumber(numTok token) model.IExpression {
	p.next()
	q, ok := p.tryParseUnitSuffix(numTok.text)
	if !ok {
		// No unit: this is a plain numeric literal, unless it is immediately followed by ':' forming
		// a ratio of two unitless quantities.
		if p.isSymbol(":") {
			return p.parseRatioRemainder(buildQuantity(numTok.text, model.ONEUNIT))
		}
		return buildNumberLiteral(numTok.text)
	}
	if p.isSymbol(":") {
		return p.parseRatioRemainder(q)
	}
	return &q
}

// tryParseUnitSuffix consumes a trailing unit for a quantity literal, if present: a quoted UCUM
// unit string, a DateTimePrecision keyword, or a PluralDateTimePrecision keyword.
func (p *Parser) tryParseUnitSuffix(numText string) (model.Quantity, bool) {
	t := p.cur()
	if t.kind == tokString {
		p.next()
		unit := t.text
		if ok, msg := ucum.CheckUnit(unit, false, true); !ok {
			fmt.Printf("warning: invalid UCUM unit %q: %s\n", unit, msg)
		}
		return buildQuantity(numText, model.Unit(unit)), true
	}
	if t.kind == tokIdent {
		if u := stringToTimeUnit(t.lower()); u != model.UNSETUNIT {
			p.next()
			return buildQuantity(numText, u), true
		}
		if u := stringToTimeUnit(pluralToSingularDateTimePrecision(t.lower())); u != model.UNSETUNIT {
			p.next()
			return buildQuantity(numText, u), true
		}
	}
	return model.Quantity{}, false
}

func buildQuantity(numText string, unit model.Unit) model.Quantity {
	d, _ := strconv.ParseFloat(numText, 64)
	return model.Quantity{Value: d, Unit: unit, Expression: model.ResultType(types.Quantity)}
}

// parseRatioRemainder finishes parsing a ratio literal once the leading quantity and the ':' have
// been identified: 'quantity' ':' 'quantity'.
func (p *Parser) parseRatioRemainder(numerator model.Quantity) model.IExpression {
	pos := p.cur()
	p.expectSymbol(":")
	numTok := p.cur()
	if numTok.kind != tokNumber {
		return p.badExpression("expected a quantity for the denominator of a ratio", pos)
	}
	p.next()
	denominator, ok := p.tryParseUnitSuffix(numTok.text)
	if !ok {
		denominator = buildQuantity(numTok.text, model.ONEUNIT)
	}
	return &model.Ratio{Numerator: numerator, Denominator: denominator, Expression: model.ResultType(types.Ratio)}
}

func buildNumberLiteral(val string) *model.Literal {
	t := types.Integer
	if strings.Contains(val, ".") {
		t = types.Decimal
	}
	return buildLiteral(val, t)
}

func buildLiteral(val string, t types.System) *model.Literal {
	return &model.Literal{Value: val, Expression: model.ResultType(t)}
}

// unescapeString unescapes a CQL string whose surrounding quotes the lexer has already stripped.
// Escaped to character mapping: https://cql.hl7.org/03-developersguide.html#literals.
func unescapeString(s string) string {
	for i := 0; i < len(s)-1; i++ {
		quoted := s[i : i+2]
		var replace string
		switch quoted {
		case `\'`:
			replace = `'`
		case `\"`:
			replace = `"`
		case "\\`":
			replace = "`"
		case `\r`:
			replace = "\r"
		case `\n`:
			replace = "\n"
		case `\t`:
			replace = "\t"
		case `\f`:
			replace = "\f"
		case `\\`:
			replace = `\`
		}
		if replace != "" {
			s = s[0:i] + replace + s[i+2:]
		}
	}
	return s
}

// pluralToSingularDateTimePrecision strips the trailing 's' from a plural precision keyword, e.g.
// "years" -> "year".
func pluralToSingularDateTimePrecision(pluralPrecision string) string {
	return strings.TrimSuffix(pluralPrecision, "s")
}

// stringToPrecision converts a lower-cased precision keyword to a model.DateTimePrecision.
func stringToPrecision(s string) model.DateTimePrecision {
	switch s {
	case "year":
		return model.YEAR
	case "month":
		return model.MONTH
	case "week":
		return model.WEEK
	case "day":
		return model.DAY
	case "hour":
		return model.HOUR
	case "minute":
		return model.MINUTE
	case "second":
		return model.SECOND
	case "millisecond":
		return model.MILLISECOND
	}
	return model.UNSETDATETIMEPRECISION
}

// funcNameWithPrecision converts a model.DateTimePrecision to a string used in a function name,
// e.g. AfterYears.
func funcNameWithPrecision(name string, p model.DateTimePrecision) string {
	pStr := ""
	switch p {
	case model.YEAR:
		pStr = "Years"
	case model.MONTH:
		pStr = "Months"
	case model.WEEK:
		pStr = "Weeks"
	case model.DAY:
		pStr = "Days"
	case model.HOUR:
		pStr = "Hours"
	case model.MINUTE:
		pStr = "Minutes"
	case model.SECOND:
		pStr = "Seconds"
	case model.MILLISECOND:
		pStr = "Milliseconds"
	}
	return fmt.Sprintf("%s%s", name, pStr)
}

// dateTimePrecisions returns every precision from year down to millisecond, used when building the
// set of precision-suffixed overloads for a base operator name.
func dateTimePrecisions() []model.DateTimePrecision {
	return []model.DateTimePrecision{
		model.YEAR,
		model.MONTH,
		model.WEEK,
		model.DAY,
		model.HOUR,
		model.MINUTE,
		model.SECOND,
		model.MILLISECOND,
	}
}

// stringToTimeUnit converts a lower-cased singular precision keyword to a model.Unit.
func stringToTimeUnit(s string) model.Unit {
	switch s {
	case "year":
		return model.YEARUNIT
	case "month":
		return model.MONTHUNIT
	case "week":
		return model.WEEKUNIT
	case "day":
		return model.DAYUNIT
	case "hour":
		return model.HOURUNIT
	case "minute":
		return model.MINUTEUNIT
	case "second":
		return model.SECONDUNIT
	case "millisecond":
		return model.MILLISECONDUNIT
	}
	return model.UNSETUNIT
}

// parseTypeSpecifier dispatches to the appropriate type-specifier parse function based on the
// current token.
func (p *Parser) parseTypeSpecifier() types.IType {
	switch p.cur().lower() {
	case "list":
		return p.parseListTypeSpecifier()
	case "interval":
		return p.parseIntervalTypeSpecifier()
	case "choice":
		return p.parseChoiceTypeSpecifier()
	case "tuple":
		return p.parseTupleTypeSpecifier()
	default:
		return p.parseNamedTypeSpecifier()
	}
}

// parseNamedTypeSpecifier parses a (possibly qualified) type name and resolves it to either a
// types.System builtin or a modelinfo-backed types.Named.
func (p *Parser) parseNamedTypeSpecifier() types.IType {
	pos := p.cur()
	name := p.parseQualifiedIdentifier()
	if name == "" {
		return p.badTypeSpecifier("expected a type name", pos)
	}
	sys := types.ToSystem(name)
	if !sys.Equal(types.Unset) {
		return sys
	}
	named, err := p.modelInfo.ToNamed(name)
	if err != nil {
		return p.badTypeSpecifier(err.Error(), pos)
	}
	return named
}

func (p *Parser) parseListTypeSpecifier() *types.List {
	p.expectKeyword("list")
	p.expectSymbol("<")
	elem := p.parseTypeSpecifier()
	p.expectSymbol(">")
	return &types.List{ElementType: elem}
}

func (p *Parser) parseIntervalTypeSpecifier() *types.Interval {
	p.expectKeyword("interval")
	p.expectSymbol("<")
	point := p.parseTypeSpecifier()
	p.expectSymbol(">")
	return &types.Interval{PointType: point}
}

func (p *Parser) parseChoiceTypeSpecifier() *types.Choice {
	p.expectKeyword("choice")
	p.expectSymbol("<")
	c := &types.Choice{}
	for {
		c.ChoiceTypes = append(c.ChoiceTypes, p.parseTypeSpecifier())
		if !p.matchSymbol(",") {
			break
		}
	}
	p.expectSymbol(">")
	return c
}

func (p *Parser) parseTupleTypeSpecifier() *types.Tuple {
	p.expectKeyword("tuple")
	t := &types.Tuple{ElementTypes: map[string]types.IType{}}
	p.expectSymbol("{")
	if !p.isSymbol("}") {
		for {
			name, _ := p.parseIdentifier()
			p.expectSymbol(":")
			t.ElementTypes[name] = p.parseTypeSpecifier()
			if !p.matchSymbol(",") {
				break
			}
		}
	}
	p.expectSymbol("}")
	return t
}
