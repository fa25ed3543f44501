// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"fmt"

	"github.com/winterop-com/fhirkit-sub003/internal/reference"
	"github.com/winterop-com/fhirkit-sub003/model"
	"github.com/winterop-com/fhirkit-sub003/types"
)

// parseFunctionDefinition parses a user defined function and saves it in the reference resolver.
// The leading access modifier has already been consumed by the caller.
func (p *Parser) parseFunctionDefinition(access model.AccessLevel) *model.FunctionDef {
	fluent := p.matchKeyword("fluent")
	p.expectKeyword("function")
	name, _ := p.parseIdentifier()

	fd := &model.FunctionDef{
		ExpressionDef: &model.ExpressionDef{
			Element:     &model.Element{},
			Name:        name,
			Context:     p.currentModelContext,
			AccessLevel: access,
		},
		Operands: []model.OperandDef{},
		Fluent:   fluent,
	}

	p.refs.EnterScope()
	defer p.refs.ExitScope()

	p.expectSymbol("(")
	if !p.isSymbol(")") {
		for {
			op := p.parseOperandDefinition()
			f := func() model.IExpression {
				return &model.OperandRef{Name: op.Name, Expression: model.ResultType(op.GetResultType())}
			}
			if err := p.refs.Alias(op.Name, f); err != nil {
				p.reportError(err.Error(), p.cur())
			}
			fd.Operands = append(fd.Operands, op)
			if !p.matchSymbol(",") {
				break
			}
		}
	}
	p.expectSymbol(")")

	var declaredReturn types.IType
	if p.matchKeyword("returns") {
		declaredReturn = p.parseTypeSpecifier()
	}

	if p.matchSymbol(":") {
		fd.Expression = p.parseExpression()
		if declaredReturn != nil && !declaredReturn.Equal(fd.Expression.GetResultType()) {
			p.reportError(fmt.Sprintf("function body return type %v, does not match the specified return %v", fd.Expression.GetResultType(), declaredReturn), p.cur())
		}
		fd.ResultType = fd.Expression.GetResultType()
	} else {
		fd.External = true
		fd.ResultType = declaredReturn
	}
	p.expectSymbol(";")

	operandTypes := []types.IType{}
	for _, op := range fd.Operands {
		operandTypes = append(operandTypes, op.GetResultType())
	}

	f := &reference.Func[func() model.IExpression]{
		Name:     fd.Name,
		Operands: operandTypes,
		Result: func() model.IExpression {
			return &model.FunctionRef{Name: fd.Name, Operands: nil, Expression: model.ResultType(fd.ResultType)}
		},
		IsPublic:         fd.AccessLevel == model.Public,
		IsFluent:         fd.Fluent,
		ValidateIsUnique: true,
	}
	if err := p.refs.DefineFunc(f); err != nil {
		p.reportError(err.Error(), p.cur())
	}
	return fd
}

func (p *Parser) parseOperandDefinition() model.OperandDef {
	name, _ := p.parseIdentifier()
	t := p.parseTypeSpecifier()
	return model.OperandDef{
		Name:       name,
		Expression: model.ResultType(t),
	}
}

// parseCallArguments parses a parenthesized, comma-separated argument list, consuming both the
// opening '(' and the closing ')'.
func (p *Parser) parseCallArguments() []model.IExpression {
	p.expectSymbol("(")
	var args []model.IExpression
	if !p.isSymbol(")") {
		for {
			args = append(args, p.parseExpression())
			if !p.matchSymbol(",") {
				break
			}
		}
	}
	p.expectSymbol(")")
	return args
}
