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

	"github.com/winterop-com/fhirkit-sub003/internal/convert"
	"github.com/winterop-com/fhirkit-sub003/model"
	"github.com/winterop-com/fhirkit-sub003/types"
)

// peekIsAlias reports whether the token at offset n is a bare, non-keyword identifier that can
// serve as a query source alias (as opposed to continuing the current expression).
func (p *Parser) peekIsAlias(n int) bool {
	t := p.peek(n)
	if t.kind != tokIdent && t.kind != tokQuotedIdent {
		return false
	}
	if t.kind == tokQuotedIdent {
		return true
	}
	switch t.lower() {
	case "where", "return", "sort", "let", "with", "without", "aggregate", "and", "or", "xor",
		"implies", "is", "as", "in", "contains", "such", "that", "end", "else", "when", "then",
		"by", "union", "intersect", "except", "from":
		return false
	default:
		return true
	}
}

// parseQuery parses a full CQL query expression given its already-parsed first (or only) source
// expression. hasFrom records whether the 'from' keyword introduced the query, since a second
// source is only legal when 'from' was used.
func (p *Parser) parseQuery(firstSource model.IExpression, hasFrom bool) model.IExpression {
	pos := p.cur()
	p.refs.EnterScope()
	defer p.refs.ExitScope()

	q := &model.Query{}

	var sources []*model.AliasedSource
	as, err := p.aliasQuerySource(firstSource)
	if err != nil {
		return p.badExpression(err.Error(), pos)
	}
	sources = append(sources, as)

	for p.matchSymbol(",") {
		if !hasFrom {
			return p.badExpression("a query with multiple sources must use the 'from' keyword", pos)
		}
		src := p.parseExpression()
		as, err := p.aliasQuerySource(src)
		if err != nil {
			return p.badExpression(err.Error(), pos)
		}
		sources = append(sources, as)
	}
	q.Source = sources

	if p.matchKeyword("let") {
		for {
			name, _ := p.parseIdentifier()
			p.expectSymbol(":")
			expr := p.parseExpression()
			l := &model.LetClause{Expression: expr, Identifier: name}
			l.Element = &model.Element{ResultType: l.GetResultType()}
			if err := p.refs.Alias(name, func() model.IExpression {
				return &model.QueryLetRef{Name: l.Identifier, Expression: model.ResultType(l.GetResultType())}
			}); err != nil {
				p.reportError(err.Error(), pos)
			}
			q.Let = append(q.Let, l)
			if !p.matchSymbol(",") {
				break
			}
		}
	}

	for p.isKeyword("with") || p.isKeyword("without") {
		with := p.isKeyword("with")
		p.next()

		p.refs.EnterScope()
		src := p.parseExpression()
		alias, _ := p.parseIdentifier()
		incSource, err := p.aliasSourceNamed(alias, src)
		if err != nil {
			p.refs.ExitScope()
			return p.badExpression(err.Error(), pos)
		}
		p.expectKeyword("such")
		p.expectKeyword("that")
		suchThat := p.parseExpression()
		p.refs.ExitScope()

		res, err := convert.OperandImplicitConverter(suchThat.GetResultType(), types.Boolean, suchThat, p.modelInfo)
		if err != nil {
			return p.badExpression(err.Error(), pos)
		}
		if !res.Matched {
			return p.badExpression(fmt.Sprintf("result of a query inclusion clause must be implicitly convertible to a boolean, could not convert %v to boolean", suchThat.GetResultType()), pos)
		}
		rClause := &model.RelationshipClause{
			Element:    &model.Element{ResultType: types.Boolean},
			Expression: incSource.Source,
			Alias:      incSource.Alias,
			SuchThat:   res.WrappedOperand,
		}
		if with {
			q.Relationship = append(q.Relationship, &model.With{RelationshipClause: rClause})
		} else {
			q.Relationship = append(q.Relationship, &model.Without{RelationshipClause: rClause})
		}
	}

	if p.matchKeyword("where") {
		wExpr := p.parseExpression()
		res, err := convert.OperandImplicitConverter(wExpr.GetResultType(), types.Boolean, wExpr, p.modelInfo)
		if err != nil {
			return p.badExpression(err.Error(), pos)
		}
		if !res.Matched {
			return p.badExpression(fmt.Sprintf("result of a where clause must be implicitly convertible to a boolean, could not convert %v to boolean", wExpr.GetResultType()), pos)
		}
		q.Where = res.WrappedOperand
	}

	if p.isKeyword("sort") {
		if err := p.parseSortClause(q); err != nil {
			return p.badExpression(err.Error(), pos)
		}
	}

	if p.matchKeyword("aggregate") {
		p.parseAggregateClause(q)
	} else {
		p.parseReturnClauseAndSetResultType(q)
	}

	return q
}

// aliasQuerySource defines the alias in the current reference scope for a top-level query source.
func (p *Parser) aliasQuerySource(source model.IExpression) (*model.AliasedSource, error) {
	alias, ok := p.parseIdentifier()
	if !ok {
		return nil, fmt.Errorf("expected an alias identifier for query source")
	}
	return p.aliasSourceNamed(alias, source)
}

func (p *Parser) aliasSourceNamed(alias string, source model.IExpression) (*model.AliasedSource, error) {
	aqsModel := &model.AliasedSource{
		Alias:      alias,
		Source:     source,
		Expression: model.ResultType(source.GetResultType()),
	}
	aliasRefResultType := aqsModel.GetResultType()
	if listType, ok := aqsModel.GetResultType().(*types.List); ok {
		aliasRefResultType = listType.ElementType
	}
	f := func() model.IExpression {
		return &model.AliasRef{Name: alias, Expression: model.ResultType(aliasRefResultType)}
	}
	if err := p.refs.Alias(alias, f); err != nil {
		return nil, err
	}
	return aqsModel, nil
}

// parseSortClause parses `sort (direction | by identifier direction?)`. Unlike the CQL reference
// grammar, sort-by columns here must be a bare (possibly dotted) property path rather than an
// arbitrary expression: this parser has no mechanism to evaluate an expression against the query
// source's element type outside of an alias-qualified reference, so the path is taken verbatim.
func (p *Parser) parseSortClause(q *model.Query) error {
	p.expectKeyword("sort")
	if p.matchKeyword("by") {
		var items []model.ISortByItem
		for {
			path := p.parseQualifiedIdentifier()
			dir := model.ASCENDING
			if p.isKeyword("asc") || p.isKeyword("ascending") {
				p.next()
			} else if p.isKeyword("desc") || p.isKeyword("descending") {
				p.next()
				dir = model.DESCENDING
			}
			items = append(items, &model.SortByColumn{
				SortByItem: &model.SortByItem{Direction: dir},
				Path:       path,
			})
			if !p.matchSymbol(",") {
				break
			}
		}
		q.Sort = &model.SortClause{ByItems: items}
		return nil
	}

	dir := model.ASCENDING
	if p.isKeyword("desc") || p.isKeyword("descending") {
		dir = model.DESCENDING
	}
	p.next()
	q.Sort = &model.SortClause{ByItems: []model.ISortByItem{
		&model.SortByDirection{SortByItem: &model.SortByItem{Direction: dir}},
	}}
	return nil
}

func (p *Parser) parseAggregateClause(q *model.Query) {
	distinct := false
	if p.matchKeyword("distinct") {
		distinct = true
	} else {
		p.matchKeyword("all")
	}
	name, _ := p.parseIdentifier()
	aModel := &model.AggregateClause{Identifier: name, Distinct: distinct}

	if p.matchKeyword("starting") {
		aModel.Starting = p.parseExpression()
	} else {
		aModel.Starting = model.NewLiteral("null", types.Any)
	}

	p.refs.EnterScope()
	defer p.refs.ExitScope()
	p.refs.Alias(aModel.Identifier, func() model.IExpression {
		return &model.AliasRef{Name: aModel.Identifier, Expression: model.ResultType(aModel.Starting.GetResultType())}
	})

	aModel.Expression = p.parseExpression()
	aModel.Element = &model.Element{ResultType: aModel.Expression.GetResultType()}
	q.Expression = model.ResultType(aModel.GetResultType())
	q.Aggregate = aModel
}

func (p *Parser) parseReturnClauseAndSetResultType(q *model.Query) {
	atLeastOneSourceList := false
	for _, as := range q.Source {
		if _, ok := as.GetResultType().(*types.List); ok {
			atLeastOneSourceList = true
			break
		}
	}

	if !p.isKeyword("return") {
		if len(q.Source) > 1 {
			tModel := &model.Tuple{}
			tType := &types.Tuple{ElementTypes: make(map[string]types.IType)}
			for _, src := range q.Source {
				aRef, err := p.refs.ResolveLocal(src.Alias)
				if err != nil {
					continue
				}
				tModel.Elements = append(tModel.Elements, &model.TupleElement{Name: src.Alias, Value: aRef()})
				tType.ElementTypes[src.Alias] = aRef().GetResultType()
			}
			tModel.Expression = model.ResultType(tType)
			q.Return = &model.ReturnClause{Distinct: true, Expression: tModel, Element: &model.Element{ResultType: tType}}
			q.Expression = model.ResultType(tType)
			if atLeastOneSourceList {
				q.Expression = model.ResultType(&types.List{ElementType: q.Expression.GetResultType()})
			}
			return
		}
		q.Expression = model.ResultType(q.Source[0].GetResultType())
		return
	}

	p.next()
	distinct := true
	if p.matchKeyword("all") {
		distinct = false
	} else {
		p.matchKeyword("distinct")
	}
	expr := p.parseExpression()
	rModel := &model.ReturnClause{Expression: expr, Distinct: distinct}
	rModel.Element = &model.Element{ResultType: rModel.Expression.GetResultType()}
	q.Return = rModel
	if atLeastOneSourceList {
		q.Expression = model.ResultType(&types.List{ElementType: rModel.GetResultType()})
	} else {
		q.Expression = model.ResultType(rModel.GetResultType())
	}
}
