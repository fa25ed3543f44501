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

// Package model holds typed Go structs mirroring the subset of ELM JSON node shapes this engine
// round-trips: https://cql.hl7.org/04-logicalspecification.html. Rather than a distinct Go type
// (and a distinct UnmarshalJSON) per ELM element name, every expression node decodes into the
// single Expression struct below and is told apart by its Type field - the same "read a
// discriminator field, branch on its string value" pattern this codebase already uses to tell
// FHIR resources apart (see internal/resourcewrapper.ResourceType), generalized from a
// map[string]any discriminator read to a struct field.
package model

// Library is the top-level ELM JSON document.
type Library struct {
	Library LibraryBody `json:"library"`
}

// LibraryBody is the body of the ELM "library" envelope.
type LibraryBody struct {
	Identifier Identifier `json:"identifier"`
	Statements Statements `json:"statements"`
}

// Identifier names and versions an ELM library, mirroring model.LibraryIdentifier.
type Identifier struct {
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
}

// Statements holds a library's top level definitions.
type Statements struct {
	Def []*ExpressionDef `json:"def"`
}

// ExpressionDef is a named, top level CQL expression definition.
type ExpressionDef struct {
	Type        string      `json:"type"`
	Name        string      `json:"name"`
	AccessLevel string      `json:"accessLevel,omitempty"`
	Expression  *Expression `json:"expression"`
}

// CaseItem is a single when/then arm of a Case expression.
type CaseItem struct {
	When *Expression `json:"when"`
	Then *Expression `json:"then"`
}

// Expression is every ELM expression node this package supports, flattened into one struct and
// disambiguated by Type. Fields are tagged omitempty so a given node's JSON only contains the
// fields its Type actually uses - see serialize.go for the node-type-to-field table and
// interpreter.go for the reverse.
type Expression struct {
	Type           string `json:"type"`
	ResultTypeName string `json:"resultTypeName,omitempty"`

	// Literal.
	Value string `json:"value,omitempty"`

	// Unary/binary/n-ary operators (Not, IsNull, Exists, Count, Sum, Avg, Min, Max, First, Last,
	// Equal, Less, Greater, LessOrEqual, GreaterOrEqual, And, Or, XOr, Implies, Add, Subtract,
	// Multiply, Divide, Coalesce, ...). Unary operators populate exactly one element.
	Operand []*Expression `json:"operand,omitempty"`

	// List.
	Element []*Expression `json:"element,omitempty"`

	// Interval.
	Low        *Expression `json:"low,omitempty"`
	High       *Expression `json:"high,omitempty"`
	LowClosed  *bool       `json:"lowClosed,omitempty"`
	HighClosed *bool       `json:"highClosed,omitempty"`

	// If.
	Condition *Expression `json:"condition,omitempty"`
	Then      *Expression `json:"then,omitempty"`
	Else      *Expression `json:"else,omitempty"`

	// Case (Comparand is optional - an unguarded Case only uses CaseItem.When/Else).
	Comparand *Expression `json:"comparand,omitempty"`
	CaseItem  []*CaseItem `json:"caseItem,omitempty"`

	// Tuple.
	TupleElements []*TupleElement `json:"tupleElement,omitempty"`

	// ExpressionRef, ParameterRef, AliasRef.
	Name        string `json:"name,omitempty"`
	LibraryName string `json:"libraryName,omitempty"`
}

// TupleElement is a single name/value pair of a Tuple expression.
type TupleElement struct {
	Name  string      `json:"name"`
	Value *Expression `json:"value"`
}
