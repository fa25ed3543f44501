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
	"errors"
	"fmt"

	"github.com/winterop-com/fhirkit-sub003/internal/convert"
	"github.com/winterop-com/fhirkit-sub003/model"
	"github.com/winterop-com/fhirkit-sub003/types"
)

// parseExpression is the top level entry point into the CQL operator precedence chain. Tiers from
// lowest to highest precedence: implies, or/xor, and, not, comparison (membership, timing,
// equality, inequality, is-null/true/false, between, is/as), union/intersect/except, additive,
// multiplicative, power, unary (including cast), postfix, primary (parseTerm).
func (p *Parser) parseExpression() model.IExpression {
	return p.parseImplies()
}

func (p *Parser) parseImplies() model.IExpression {
	left := p.parseOr()
	for p.matchKeyword("implies") {
		right := p.parseOr()
		left = p.mustResolve("Implies", left, right)
	}
	return left
}

func (p *Parser) parseOr() model.IExpression {
	left := p.parseAnd()
	for p.isKeyword("or") || p.isKeyword("xor") {
		op := "Or"
		if p.isKeyword("xor") {
			op = "Xor"
		}
		p.next()
		right := p.parseAnd()
		left = p.mustResolve(op, left, right)
	}
	return left
}

func (p *Parser) parseAnd() model.IExpression {
	left := p.parseNot()
	for p.matchKeyword("and") {
		right := p.parseNot()
		left = p.mustResolve("And", left, right)
	}
	return left
}

func (p *Parser) parseNot() model.IExpression {
	if p.matchKeyword("not") {
		operand := p.parseNot()
		m, err := p.resolveFunction("", "Not", []model.IExpression{operand}, false)
		if err != nil {
			return p.badExpression(err.Error(), p.cur())
		}
		return m
	}
	return p.parseComparison()
}

// parseComparison handles membership, timing phrases, equality/inequality, is-null/true/false,
// between, and is/as. The loop applies them left to right, so a chain such as `a = b = c` parses as
// `(a = b) = c`. Strict `cast X as T` is parsed in parseUnary.
func (p *Parser) parseComparison() model.IExpression {
	left := p.parseInFixSet()

	for {
		pos := p.cur()
		switch {
		case p.isKeyword("in") || p.isKeyword("contains"):
			containsOp := p.isKeyword("contains")
			p.next()
			precision := model.UNSETDATETIMEPRECISION
			right := p.parseInFixSet()
			name := "In"
			if containsOp {
				name = "Contains"
			} else if right.GetResultType() == types.CodeSystem {
				name = "InCodeSystem"
			} else if right.GetResultType() == types.ValueSet {
				name = "InValueSet"
			}
			m, err := p.resolveFunction("", name, []model.IExpression{left, right}, false)
			if err != nil {
				left = p.badExpression(err.Error(), pos)
				continue
			}
			switch r := m.(type) {
			case *model.In:
				r.Precision = precision
				left = r
			case *model.Contains:
				r.Precision = precision
				left = r
			default:
				left = m
			}
			continue
		case p.isTimingPhraseStart():
			left = p.parseTimingPhrase(left)
			continue
		case p.isSymbol("=") || p.isSymbol("!=") || p.isSymbol("~") || p.isSymbol("!~"):
			sym := p.cur().text
			p.next()
			right := p.parseInFixSet()
			name := "Equal"
			if sym == "~" || sym == "!~" {
				name = "Equivalent"
			}
			m, err := p.resolveFunction("", name, []model.IExpression{left, right}, false)
			if err != nil {
				left = p.badExpression(err.Error(), pos)
				continue
			}
			if sym == "!=" || sym == "!~" {
				left = &model.Not{UnaryExpression: &model.UnaryExpression{Operand: m, Expression: model.ResultType(types.Boolean)}}
			} else {
				left = m
			}
			continue
		case p.isSymbol("<") || p.isSymbol(">") || p.isSymbol("<=") || p.isSymbol(">="):
			sym := p.cur().text
			p.next()
			right := p.parseInFixSet()
			name := map[string]string{"<": "Less", ">": "Greater", "<=": "LessOrEqual", ">=": "GreaterOrEqual"}[sym]
			left = p.mustResolve(name, left, right)
			continue
		case p.isKeyword("is") && p.peekIsBooleanCheck():
			p.next()
			not := false
			if p.matchKeyword("not") {
				not = true
			}
			var m model.IExpression
			var err error
			switch {
			case p.matchKeyword("null"):
				m, err = p.resolveFunction("", "IsNull", []model.IExpression{left}, false)
			case p.matchKeyword("true"):
				m, err = p.resolveFunction("", "IsTrue", []model.IExpression{left}, false)
			case p.matchKeyword("false"):
				m, err = p.resolveFunction("", "IsFalse", []model.IExpression{left}, false)
			}
			if err != nil {
				left = p.badExpression(err.Error(), pos)
				continue
			}
			if not {
				m = &model.Not{UnaryExpression: &model.UnaryExpression{Operand: m, Expression: model.ResultType(types.Boolean)}}
			}
			left = m
			continue
		case p.matchKeyword("between"):
			low := p.parseInFixSet()
			p.expectKeyword("and")
			high := p.parseInFixSet()
			geExpr, err := p.resolveFunction("", "GreaterOrEqual", []model.IExpression{left, low}, false)
			if err != nil {
				left = p.badExpression(err.Error(), pos)
				continue
			}
			leExpr, err := p.resolveFunction("", "LessOrEqual", []model.IExpression{left, high}, false)
			if err != nil {
				left = p.badExpression(err.Error(), pos)
				continue
			}
			left = &model.And{BinaryExpression: &model.BinaryExpression{
				Expression: model.ResultType(types.Boolean),
				Operands:   []model.IExpression{geExpr, leExpr},
			}}
			continue
		case p.matchKeyword("is"):
			t := p.parseTypeSpecifier()
			left = &model.Is{
				UnaryExpression: &model.UnaryExpression{Operand: left, Expression: model.ResultType(types.Boolean)},
				IsTypeSpecifier: t,
			}
			continue
		case p.matchKeyword("as"):
			t := p.parseTypeSpecifier()
			left = &model.As{
				UnaryExpression: &model.UnaryExpression{Operand: left, Expression: model.ResultType(t)},
				AsTypeSpecifier: t,
				Strict:          false,
			}
			continue
		}
		break
	}
	return left
}

// peekIsBooleanCheck disambiguates 'is' used for a boolean check (is null/is true/is false,
// optionally negated with not) from 'is' used as the type-test operator.
func (p *Parser) peekIsBooleanCheck() bool {
	n := p.peek(1)
	if n.kind == tokIdent && n.lower() == "not" {
		n = p.peek(2)
	}
	return n.kind == tokIdent && (n.lower() == "null" || n.lower() == "true" || n.lower() == "false")
}

func (p *Parser) mustResolve(name string, operands ...model.IExpression) model.IExpression {
	m, err := p.resolveFunction("", name, operands, false)
	if err != nil {
		return p.badExpression(err.Error(), p.cur())
	}
	return m
}

func (p *Parser) parseInFixSet() model.IExpression {
	left := p.parseAdditive()
	for {
		var name string
		switch {
		case p.isSymbol("|") || p.isKeyword("union"):
			name = "Union"
		case p.isKeyword("intersect"):
			name = "Intersect"
		case p.isKeyword("except"):
			name = "Except"
		default:
			return left
		}
		p.next()
		right := p.parseAdditive()
		left = p.mustResolve(name, left, right)
	}
}

func (p *Parser) parseAdditive() model.IExpression {
	left := p.parseMultiplicative()
	for {
		switch {
		case p.isSymbol("+"):
			p.next()
			left = p.mustResolve("Add", left, p.parseMultiplicative())
		case p.isSymbol("-"):
			p.next()
			left = p.mustResolve("Subtract", left, p.parseMultiplicative())
		case p.isSymbol("&"):
			p.next()
			right := p.parseMultiplicative()
			m, err := p.parseConcatenate(left, right)
			if err != nil {
				left = p.badExpression(err.Error(), p.cur())
				continue
			}
			left = m
		default:
			return left
		}
	}
}

// parseConcatenate handles the '&' operator, which coalesces null operands to empty strings before
// concatenating. It has no function-call syntax so it is resolved via a direct overload match
// rather than resolveFunction.
func (p *Parser) parseConcatenate(left, right model.IExpression) (model.IExpression, error) {
	overload := []convert.Overload[func() model.IExpression]{
		{
			Operands: []types.IType{types.String, types.String},
			Result: func() model.IExpression {
				return &model.Concatenate{NaryExpression: &model.NaryExpression{Expression: model.ResultType(types.String)}}
			},
		},
	}
	matched, err := convert.OverloadMatch([]model.IExpression{left, right}, overload, p.modelInfo, "&")
	if err != nil {
		return nil, err
	}
	m, ok := matched.Result().(*model.Concatenate)
	if !ok {
		return nil, errors.New("internal error - resolving concatenate returned unexpected type")
	}
	m.SetOperands([]model.IExpression{
		&model.Coalesce{NaryExpression: &model.NaryExpression{
			Operands:   []model.IExpression{matched.WrappedOperands[0], model.NewLiteral("", types.String)},
			Expression: model.ResultType(types.String),
		}},
		&model.Coalesce{NaryExpression: &model.NaryExpression{
			Operands:   []model.IExpression{matched.WrappedOperands[1], model.NewLiteral("", types.String)},
			Expression: model.ResultType(types.String),
		}},
	})
	return m, nil
}

func (p *Parser) parseMultiplicative() model.IExpression {
	left := p.parsePower()
	for {
		var name string
		switch {
		case p.isSymbol("*"):
			name = "Multiply"
		case p.isSymbol("/"):
			name = "Divide"
		case p.isKeyword("mod"):
			name = "Modulo"
		case p.isKeyword("div"):
			name = "TruncatedDivide"
		default:
			return left
		}
		p.next()
		left = p.mustResolve(name, left, p.parsePower())
	}
}

func (p *Parser) parsePower() model.IExpression {
	left := p.parseUnary()
	for p.matchSymbol("^") {
		left = p.mustResolve("Power", left, p.parseUnary())
	}
	return left
}

// parseUnary handles the unary-precedence CQL operators: polarity, predecessor/successor, width
// of, duration/difference in <precision> of/between, date from, convert...to, minimum/maximum
// <Type>, start of/end of, exists, distinct/flatten, and the set aggregate keywords.
func (p *Parser) parseUnary() model.IExpression {
	pos := p.cur()
	switch {
	case p.isSymbol("+"):
		p.next()
		return p.parseUnary()
	case p.isSymbol("-"):
		p.next()
		operand := p.parseUnary()
		if lit, ok := operand.(*model.Literal); ok {
			switch {
			case lit.Value == "2147483648" && lit.GetResultType() == types.Integer:
				return model.NewLiteral("-2147483648", types.Integer)
			case lit.Value == "9223372036854775808L" && lit.GetResultType() == types.Long:
				return model.NewLiteral("-9223372036854775808L", types.Long)
			}
		}
		return p.mustResolve("Negate", operand)
	case p.matchKeyword("predecessor"):
		p.expectKeyword("of")
		return p.mustResolve("Predecessor", p.parseUnary())
	case p.matchKeyword("successor"):
		p.expectKeyword("of")
		return p.mustResolve("Successor", p.parseUnary())
	case p.matchKeyword("width"):
		p.expectKeyword("of")
		operand := p.parseUnary()
		resultType := types.Integer
		if it, ok := operand.GetResultType().(*types.Interval); ok && (it.PointType == types.Date || it.PointType == types.DateTime) {
			resultType = types.Quantity
		}
		return &model.UnaryExpression{Operand: operand, Expression: model.ResultType(resultType)}
	case p.isKeyword("duration") && p.peek(1).lower() == "between":
		p.next()
		p.next()
		left := p.parseUnary()
		p.expectKeyword("and")
		right := p.parseUnary()
		return &model.DurationBetween{
			BinaryExpression: &model.BinaryExpression{
				Operands:   []model.IExpression{left, right},
				Expression: model.ResultType(types.Integer),
			},
			Precision: model.UNSETDATETIMEPRECISION,
		}
	case p.isKeyword("duration") || p.isKeyword("difference"):
		return p.parseDurationOrDifference()
	case p.matchKeyword("date"):
		p.expectKeyword("from")
		return p.mustResolve("DateFrom", p.parseUnary())
	case p.isKeyword("time") && p.peek(1).lower() == "from":
		p.next()
		p.next()
		return p.mustResolve("TimeFrom", p.parseUnary())
	case p.isKeyword("timezoneoffset"):
		p.next()
		p.expectKeyword("from")
		return p.mustResolve("TimezoneOffsetFrom", p.parseUnary())
	case p.matchKeyword("convert"):
		return p.parseConvert(pos)
	case p.matchKeyword("cast"):
		operand := p.parseUnary()
		p.expectKeyword("as")
		t := p.parseTypeSpecifier()
		return &model.As{
			UnaryExpression: &model.UnaryExpression{Operand: operand, Expression: model.ResultType(t)},
			AsTypeSpecifier: t,
			Strict:          true,
		}
	case p.isKeyword("minimum") || p.isKeyword("maximum"):
		isMax := p.isKeyword("maximum")
		p.next()
		valueType := p.parseNamedTypeSpecifier()
		switch valueType {
		case types.Integer, types.Long, types.Decimal, types.Quantity, types.Date, types.DateTime, types.Time:
		default:
			return p.badExpression(fmt.Sprintf("unsupported type for minimum/maximum expression: %v", valueType), pos)
		}
		if isMax {
			return &model.MaxValue{ValueType: valueType, Expression: model.ResultType(valueType)}
		}
		return &model.MinValue{ValueType: valueType, Expression: model.ResultType(valueType)}
	case p.isKeyword("start") && p.peek(1).lower() == "of":
		p.next()
		p.next()
		return p.mustResolve("Start", p.parseUnary())
	case p.isKeyword("end") && p.peek(1).lower() == "of":
		p.next()
		p.next()
		return p.mustResolve("End", p.parseUnary())
	case p.matchKeyword("exists"):
		return p.mustResolve("Exists", p.parseUnary())
	case p.matchKeyword("distinct"):
		return p.mustResolve("Distinct", p.parseUnary())
	case p.matchKeyword("flatten"):
		return p.mustResolve("Flatten", p.parseUnary())
	case p.isKeyword("singleton") && p.peek(1).lower() == "from":
		p.next()
		p.next()
		return p.mustResolve("SingletonFrom", p.parseUnary())
	case p.isSetAggregateStart():
		return p.parseSetAggregate()
	}
	return p.parseTerm()
}

// isSetAggregateStart reports whether the cursor is at a bare set-aggregate keyword
// (AllTrue/AnyTrue/Expand/Collapse and the standard aggregate functions), which are parsed as
// prefix unary keywords in CQL rather than ordinary function calls.
func (p *Parser) isSetAggregateStart() bool {
	t := p.cur()
	if t.kind != tokIdent {
		return false
	}
	switch t.lower() {
	case "alltrue", "anytrue", "expand", "collapse", "avg", "count", "max", "min", "product", "sum", "stddev", "variance":
		return p.peek(1).kind == tokSymbol && p.peek(1).text == "("
	}
	return false
}

func (p *Parser) parseSetAggregate() model.IExpression {
	name := p.cur().lower()
	p.next()
	args := p.parseCallArguments()
	if len(args) == 0 {
		return p.badExpression("missing expression in set aggregate function", p.cur())
	}
	funcNames := map[string]string{
		"alltrue": "AllTrue", "anytrue": "AnyTrue", "expand": "Expand", "collapse": "Collapse",
		"avg": "Avg", "count": "Count", "max": "Max", "min": "Min", "product": "Product",
		"sum": "Sum", "stddev": "StdDev", "variance": "Variance",
	}
	return p.mustResolve(funcNames[name], args...)
}

// parseDurationOrDifference parses `duration in <precision> of X` and `difference in <precision>
// (of X | between X and Y)`.
func (p *Parser) parseDurationOrDifference() model.IExpression {
	pos := p.cur()
	isDuration := p.matchKeyword("duration")
	if !isDuration {
		p.expectKeyword("difference")
	}
	p.expectKeyword("in")
	precision := p.parsePrecisionKeyword()

	if isDuration {
		p.expectKeyword("of")
		operand := p.parseUnary()
		return &model.UnaryExpression{Operand: operand, Expression: model.ResultType(types.Integer)}
	}

	if p.matchKeyword("of") {
		intervalExpr := p.parseUnary()
		startExpr, err := p.resolveFunction("", "Start", []model.IExpression{intervalExpr}, false)
		if err != nil {
			return p.badExpression(err.Error(), pos)
		}
		endExpr, err := p.resolveFunction("", "End", []model.IExpression{intervalExpr}, false)
		if err != nil {
			return p.badExpression(err.Error(), pos)
		}
		return &model.DifferenceBetween{
			Precision:        precision,
			BinaryExpression: &model.BinaryExpression{Operands: []model.IExpression{startExpr, endExpr}, Expression: model.ResultType(types.Integer)},
		}
	}

	p.expectKeyword("between")
	left := p.parseUnary()
	p.expectKeyword("and")
	right := p.parseUnary()
	return &model.DifferenceBetween{
		Precision:        precision,
		BinaryExpression: &model.BinaryExpression{Operands: []model.IExpression{left, right}, Expression: model.ResultType(types.Integer)},
	}
}

// parseConvert parses `convert X to Type` and `convert X to Unit`.
func (p *Parser) parseConvert(pos token) model.IExpression {
	expr := p.parseUnary()
	p.expectKeyword("to")
	if p.looksLikeTypeSpecifierStart() {
		targetType := p.parseTypeSpecifier()
		return &model.As{
			UnaryExpression: &model.UnaryExpression{Operand: expr, Expression: model.ResultType(targetType)},
			AsTypeSpecifier: targetType,
			Strict:          true,
		}
	}
	// convert X to Unit: the destination unit is always a quoted UCUM string.
	t := p.cur()
	if t.kind != tokString {
		return p.badExpression(fmt.Sprintf("expected a type specifier or unit string after 'to', got %q", t.text), pos)
	}
	p.next()
	destUnit := buildLiteral(unescapeString(t.text), types.String)
	return &model.BinaryExpression{
		Operands:   []model.IExpression{expr, destUnit},
		Expression: model.ResultType(types.Quantity),
	}
}

// looksLikeTypeSpecifierStart reports whether the cursor is positioned at a type specifier (as
// opposed to a unit string, which is always a quoted string token) following a 'convert X to'
// clause.
func (p *Parser) looksLikeTypeSpecifierStart() bool {
	return p.cur().kind != tokString
}

// parsePrecisionKeyword parses a single DateTimePrecision keyword (singular or plural).
func (p *Parser) parsePrecisionKeyword() model.DateTimePrecision {
	t := p.cur()
	if t.kind != tokIdent {
		return model.UNSETDATETIMEPRECISION
	}
	prec := stringToPrecision(pluralToSingularDateTimePrecision(t.lower()))
	if prec == model.UNSETDATETIMEPRECISION {
		prec = stringToPrecision(t.lower())
	}
	if prec != model.UNSETDATETIMEPRECISION {
		p.next()
	}
	return prec
}

var timingPhraseOpeners = map[string]bool{
	"before": true, "after": true, "on": true, "same": true, "includes": true,
	"properly": true, "included": true, "during": true, "overlaps": true, "meets": true,
	"within": true, "starts": true, "ends": true,
}

// isTimingPhraseStart reports whether the cursor is at the start of an interval timing operator
// phrase (optionally preceded by a precision keyword or a starts/ends left-operand wrap).
func (p *Parser) isTimingPhraseStart() bool {
	t := p.cur()
	if t.kind != tokIdent {
		return false
	}
	word := t.lower()
	if timingPhraseOpeners[word] {
		// "starts"/"ends" are valid both as the operator itself (A starts B) and as a left-operand
		// wrap prefix before another phrase (A starts before B); either way this is a timing phrase.
		return true
	}
	if prec := stringToPrecision(pluralToSingularDateTimePrecision(word)); prec != model.UNSETDATETIMEPRECISION {
		return timingPhraseOpeners[p.peek(1).lower()]
	}
	return false
}

// parseTimingPhrase parses one interval operator phrase (the CQL "timing expression" grammar) and
// builds the corresponding binary relationship between left and the parsed right operand.
//
// This is a deliberate simplification of the full CQL grammar: the "X days or more before Y"
// relative-offset quantity phrasing and the "occurs" keyword are not supported, since both require
// natural-language-style grammar disproportionate to a hand-rolled recursive-descent parser. The
// core named timing operators, their precision modifiers, the starts/ends left-operand wrapping,
// and the within-quantity form are all supported.
func (p *Parser) parseTimingPhrase(left model.IExpression) model.IExpression {
	pos := p.cur()

	var wrap string
	if (p.isKeyword("starts") || p.isKeyword("ends")) && timingPhraseOpeners[p.peek(1).lower()] {
		wrap = p.cur().lower()
		p.next()
	}

	precision := model.UNSETDATETIMEPRECISION
	if prec := stringToPrecision(pluralToSingularDateTimePrecision(p.cur().lower())); prec != model.UNSETDATETIMEPRECISION {
		precision = prec
		p.next()
	}

	var fnOperator string
	var withinQty model.IExpression

	switch {
	case p.matchKeyword("before"):
		fnOperator = "Before"
	case p.matchKeyword("after"):
		fnOperator = "After"
	case p.matchKeyword("on"):
		p.expectKeyword("or")
		if p.matchKeyword("before") {
			fnOperator = "SameOrBefore"
		} else {
			p.expectKeyword("after")
			fnOperator = "SameOrAfter"
		}
	case p.matchKeyword("same"):
		if p.matchKeyword("or") {
			if p.matchKeyword("before") {
				fnOperator = "SameOrBefore"
			} else {
				p.expectKeyword("after")
				fnOperator = "SameOrAfter"
			}
		} else {
			fnOperator = "SameAs"
		}
		p.expectKeyword("as")
	case p.matchKeyword("includes"):
		if precision != model.UNSETDATETIMEPRECISION {
			return p.badExpression("includes operator with precision is not supported", pos)
		}
		fnOperator = "Includes"
	case p.matchKeyword("properly"):
		if p.matchKeyword("includes") {
			if precision != model.UNSETDATETIMEPRECISION {
				return p.badExpression("properly includes operator with precision is not supported", pos)
			}
			fnOperator = "ProperlyIncludes"
		} else {
			p.expectKeyword("included")
			p.expectKeyword("in")
			fnOperator = "IncludedIn"
		}
	case p.matchKeyword("included"):
		p.expectKeyword("in")
		fnOperator = "IncludedIn"
	case p.matchKeyword("during"):
		fnOperator = "IncludedIn"
	case p.matchKeyword("overlaps"):
		fnOperator = "Overlaps"
		if p.isKeyword("before") || p.isKeyword("after") {
			return p.badExpression(fmt.Sprintf("overlaps %s operator is not supported", p.cur().text), pos)
		}
	case p.matchKeyword("meets"):
		if p.matchKeyword("before") {
			fnOperator = "MeetsBefore"
		} else if p.matchKeyword("after") {
			fnOperator = "MeetsAfter"
		} else {
			fnOperator = "Meets"
		}
	case p.matchKeyword("starts"):
		fnOperator = "Starts"
	case p.matchKeyword("ends"):
		fnOperator = "Ends"
	case p.matchKeyword("within"):
		qExpr := p.parseAdditive()
		withinQty = qExpr
		p.expectKeyword("of")
		fnOperator = "Within"
	default:
		return p.badExpression("unsupported interval operator in timing expression", pos)
	}

	if precision != model.UNSETDATETIMEPRECISION {
		fnOperator = funcNameWithPrecision(fnOperator, precision)
	}

	right := p.parseInFixSet()
	m, err := p.resolveFunction("", fnOperator, []model.IExpression{left, right}, false)
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}

	be, ok := m.(model.IBinaryExpression)
	if !ok {
		return p.badExpression("internal error -- timing expression did not produce a BinaryExpression", pos)
	}

	switch wrap {
	case "starts":
		startExpr, err := p.resolveFunction("", "Start", []model.IExpression{be.Left()}, false)
		if err != nil {
			return p.badExpression(err.Error(), pos)
		}
		be.SetOperands(startExpr, be.Right())
	case "ends":
		endExpr, err := p.resolveFunction("", "End", []model.IExpression{be.Left()}, false)
		if err != nil {
			return p.badExpression(err.Error(), pos)
		}
		be.SetOperands(endExpr, be.Right())
	}

	if withinQty != nil {
		return p.constructWithinModel(be, withinQty, pos)
	}
	return m
}

// constructWithinModel implements `X within Quantity of Y` as `X in Interval[Y - Quantity, Y +
// Quantity]`.
func (p *Parser) constructWithinModel(be model.IBinaryExpression, quantity model.IExpression, pos token) model.IExpression {
	l := be.Left()
	r := be.Right()

	subtractExpr, err := p.resolveFunction("", "Subtract", []model.IExpression{r, quantity}, false)
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}
	addExpr, err := p.resolveFunction("", "Add", []model.IExpression{r, quantity}, false)
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}

	resultType := r.GetResultType()
	interval := &model.Interval{
		Low:           subtractExpr,
		High:          addExpr,
		LowInclusive:  true,
		HighInclusive: true,
		Expression:    model.ResultType(&types.Interval{PointType: resultType}),
	}

	inExpr, err := p.resolveFunction("", "In", []model.IExpression{l, interval}, false)
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}
	return inExpr
}
