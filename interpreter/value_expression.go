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

package interpreter

import (
	"github.com/winterop-com/fhirkit-sub003/model"
	"github.com/winterop-com/fhirkit-sub003/result"
)

// ValueExpression wraps an already-computed result.Value so it can be passed through
// Config.Parameters like any other parsed expression. It bridges externally computed values,
// such as the root context the fhirpath package evaluates against, into the interpreter without
// re-expressing them as CQL literal text.
type ValueExpression struct {
	*model.Expression
	Value result.Value
}

// NewValueExpression returns a model.IExpression that evaluates directly to v.
func NewValueExpression(v result.Value) *ValueExpression {
	return &ValueExpression{
		Expression: &model.Expression{Element: &model.Element{ResultType: v.RuntimeType()}},
		Value:      v,
	}
}
