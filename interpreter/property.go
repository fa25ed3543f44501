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

package interpreter

import (
	"fmt"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/winterop-com/fhirkit-sub003/internal/datehelpers"
	"github.com/winterop-com/fhirkit-sub003/model"
	"github.com/winterop-com/fhirkit-sub003/result"
	"github.com/winterop-com/fhirkit-sub003/types"
)

// evalProperty evaluates the ELM property expression passed in.
func (i *interpreter) evalProperty(expr *model.Property) (result.Value, error) {
	if expr.Source == nil {
		return result.Value{}, fmt.Errorf("internal error - source must be populated when accessing property %s", expr.Path)
	}
	obj, err := i.evalExpression(expr.Source)
	if err != nil {
		return result.Value{}, err
	}
	if result.IsNull(obj) {
		return result.NewWithSources(nil, expr, obj)
	}
	// TODO(b/315503615): if Element or result type is unset, error in the future.
	subObj, err := i.valueProperty(obj, expr.Path, expr.GetResultType())
	if err != nil {
		return result.Value{}, err
	}
	return subObj.WithSources(expr, obj), nil
}

// valueProperty computes the specified property on the given result.Value.
func (i *interpreter) valueProperty(v result.Value, property string, staticResultType types.IType) (result.Value, error) {
	if property == "" {
		return v, nil
	}

	switch ot := v.GolangValue().(type) {
	case nil:
		return result.New(nil)
	case result.Tuple:
		elem, ok := ot.Value[property]
		if !ok {
			// The parser should have already validated that this is a valid property for the Tuple or
			// Class type. If is not set in map return null.
			return result.New(nil)
		}
		return elem, nil
	case result.Named:
		return i.namedProperty(ot, property, staticResultType)
	case result.List:
		return i.listProperty(ot, property, staticResultType)
	case result.Interval:
		switch property {
		case "low":
			return ot.Low, nil
		case "high":
			return ot.High, nil
		case "lowClosed":
			return result.New(ot.LowInclusive)
		case "highClosed":
			return result.New(ot.HighInclusive)
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on Intervals", property)
		}
	case result.Quantity:
		switch property {
		case "value":
			return result.New(ot.Value)
		case "unit":
			return result.New(string(ot.Unit))
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on %v", property, types.Quantity)
		}
	case result.Code:
		switch property {
		case "code":
			return result.New(ot.Code)
		case "system":
			return result.New(ot.System)
		case "version":
			return result.New(ot.Version)
		case "display":
			return result.New(ot.Display)
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on %v", property, types.Code)
		}
	case result.Concept:
		switch property {
		case "codes":
			return result.New(ot.Codes)
		case "display":
			return result.New(ot.Display)
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on %v", property, types.Concept)
		}
	case result.ValueSet:
		switch property {
		case "id":
			return result.New(ot.ID)
		case "version":
			return result.New(ot.Version)
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on %v", property, types.ValueSet)
		}
	case result.CodeSystem:
		switch property {
		case "id":
			return result.New(ot.ID)
		case "version":
			return result.New(ot.Version)
		default:
			return result.Value{}, fmt.Errorf("property %s is not supported on %v", property, types.CodeSystem)
		}
		// TODO(b/301606416): Support Ratio and Vocabulary properties.
	default:
		return result.Value{}, fmt.Errorf("unable to eval property %s on unsupported type %v", property, ot)
	}
}

// namedProperty computes a property access on a FHIR resource or element, represented as a
// decoded JSON object (map[string]any) or, for primitive elements, a scalar JSON value.
func (i *interpreter) namedProperty(source result.Named, property string, staticResultType types.IType) (result.Value, error) {
	// The ".value" property on FHIR.dateTime, FHIR.time and FHIR.date extracts the primitive JSON
	// string into a System.DateTime, System.Time or System.Date. This is the one case where the
	// JSON representation (a plain string) does not already match the shape valueProperty expects.
	if property == "value" && (source.RuntimeType.Equal(&types.Named{TypeName: "FHIR.dateTime"}) ||
		source.RuntimeType.Equal(&types.Named{TypeName: "FHIR.time"}) ||
		source.RuntimeType.Equal(&types.Named{TypeName: "FHIR.date"})) {
		return handleDateTimeValueProperty(source.Value, source.RuntimeType, i.evaluationTimestamp.Location())
	}

	obj, ok := source.Value.(map[string]any)
	if !ok {
		if property == "value" {
			// source.Value is already the primitive's raw scalar (e.g. FHIR.boolean, FHIR.string, a
			// code-backed enum like FHIR.ObservationStatus), so ".value" just unwraps it to the System
			// type the parser already resolved for this property.
			return jsonScalarToSystemValue(source.Value, staticResultType)
		}
		return result.Value{}, fmt.Errorf("property %s is not supported on primitive element %v", property, source.RuntimeType)
	}

	if choice, isChoice := staticResultType.(*types.Choice); isChoice {
		return choiceProperty(obj, property, choice)
	}

	raw, ok := obj[property]
	if !ok {
		if listType, isList := staticResultType.(*types.List); isList {
			// A repeated FHIR field absent from the JSON object is an empty list, not null.
			return result.New(result.List{Value: []result.Value{}, StaticType: listType})
		}
		return result.New(nil)
	}
	return jsonValueToResult(raw, staticResultType)
}

// choiceProperty resolves a FHIR "polymorphic" field (e.g. Observation.value[x]) by looking for
// the JSON key that matches property + the capitalized name of one of the choice's types, per the
// FHIR JSON representation: https://hl7.org/fhir/json.html#choice.
func choiceProperty(obj map[string]any, property string, choice *types.Choice) (result.Value, error) {
	for _, ct := range choice.ChoiceTypes {
		suffix, err := jsonTypeSuffix(ct)
		if err != nil {
			return result.Value{}, err
		}
		key := property + suffix
		if raw, ok := obj[key]; ok {
			return jsonValueToResult(raw, ct)
		}
	}
	return result.New(nil)
}

// jsonTypeSuffix returns the capitalized FHIR type name used as a choice-field JSON key suffix,
// e.g. types.Named{TypeName: "FHIR.Quantity"} -> "Quantity", types.Named{TypeName:
// "FHIR.dateTime"} -> "DateTime".
func jsonTypeSuffix(t types.IType) (string, error) {
	name, err := t.ModelInfoName()
	if err != nil {
		return "", err
	}
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	if name == "" {
		return "", fmt.Errorf("internal error - cannot compute a JSON choice suffix for type %v", t)
	}
	return strcase.ToCamel(name), nil
}

// jsonValueToResult converts a decoded JSON value (the result of encoding/json unmarshalling a
// FHIR resource into map[string]any/[]any/string/float64/bool/nil) into a result.Value of the
// given static type.
func jsonValueToResult(raw any, staticResultType types.IType) (result.Value, error) {
	if raw == nil {
		return result.New(nil)
	}
	if arr, ok := raw.([]any); ok {
		return sliceToValue(arr, staticResultType)
	}
	return scalarToResult(raw, staticResultType)
}

// scalarToResult wraps a single decoded JSON value (map[string]any for a FHIR element, or a
// primitive Go value for a FHIR primitive) as a result.Value of the given type.
func scalarToResult(raw any, t types.IType) (result.Value, error) {
	named, ok := t.(*types.Named)
	if !ok {
		// Not every property resolves to a Named FHIR class; some (like Interval bounds computed
		// elsewhere) are plain System types layered directly on top of decoded JSON scalars.
		return jsonScalarToSystemValue(raw, t)
	}
	return result.New(result.Named{Value: raw, RuntimeType: named})
}

// jsonScalarToSystemValue converts a bare JSON scalar directly to a System typed CQL value,
// correcting for encoding/json's lossy number representation (all JSON numbers decode to
// float64).
func jsonScalarToSystemValue(raw any, t types.IType) (result.Value, error) {
	switch t {
	case types.Integer:
		if f, ok := raw.(float64); ok {
			return result.New(int32(f))
		}
	case types.Long:
		if f, ok := raw.(float64); ok {
			return result.New(int64(f))
		}
	}
	return result.New(raw)
}

// handleDateTimeValueProperty computes the value property for FHIR.date, FHIR.dateTime and
// FHIR.time, which are encoded in FHIR JSON as plain ISO-8601 strings.
func handleDateTimeValueProperty(sourceValue any, runtimeType *types.Named, evaluationLoc *time.Location) (result.Value, error) {
	raw, ok := sourceValue.(string)
	if !ok {
		return result.New(nil)
	}
	switch runtimeType.TypeName {
	case "FHIR.date":
		t, precision, err := datehelpers.ParseFHIRDate(raw, evaluationLoc)
		if err != nil {
			return result.Value{}, err
		}
		return result.New(result.Date(result.DateTime{Date: t, Precision: precision}))
	case "FHIR.dateTime":
		t, precision, err := datehelpers.ParseFHIRDateTime(raw, evaluationLoc)
		if err != nil {
			return result.Value{}, err
		}
		return result.New(result.DateTime{Date: t, Precision: precision})
	case "FHIR.time":
		t, precision, err := datehelpers.ParseFHIRTime(raw, evaluationLoc)
		if err != nil {
			return result.Value{}, err
		}
		return result.New(result.Time(result.DateTime{Date: t, Precision: precision}))
	default:
		return result.Value{}, fmt.Errorf("internal error - handleDateTimeValueProperty called with unsupported type %v", runtimeType)
	}
}

func (i *interpreter) listProperty(l result.List, property string, staticResultType types.IType) (result.Value, error) {
	// The result type should be a list, so let's check that and grab the element type.
	resultListType, ok := staticResultType.(*types.List)
	if !ok {
		return result.Value{}, fmt.Errorf("internal error -- evalPropertyList expects a staticResultType of list, got :%v", staticResultType.String())
	}
	var subList []result.Value
	for idx, elem := range l.Value {
		// To compute a property on a list, we compute the property on each element (elem) in the list
		// and return the combined result list. In cases where the output is a list of lists, the inner
		// lists are later flattened. Because of this, it is possible that the property evaluation for a
		// given element will result in a runtime list but the parser resultListType.ElementType will
		// _not_ be a list for properties that were nested, because the flattening happens after the
		// element property computation. This flattening is defined
		// in https://build.fhir.org/ig/HL7/cql/03-developersguide.html#path-traversal and implemented
		// in the parser static type computation in the internal/modelinfo package.
		elemResultType, err := i.modelInfo.PropertyTypeSpecifier(elem.RuntimeType(), property)
		if err != nil {
			return result.Value{}, err
		}
		subObj, err := i.valueProperty(elem, property, elemResultType)
		if err != nil {
			return result.Value{}, fmt.Errorf("at index %d: %w", idx, err)
		}

		isSub, err := i.modelInfo.IsSubType(subObj.RuntimeType(), &types.List{ElementType: types.Any})
		if err != nil {
			return result.Value{}, err
		}
		if isSub {
			// When accessing repeated fields such as Patient.name.given we want to return a list of all
			// given's in all names. This flattens the givens into a single list.
			subList = append(subList, subObj.GolangValue().(result.List).Value...)
		} else {
			subList = append(subList, subObj)
		}
	}
	return result.New(result.List{Value: subList, StaticType: resultListType})
}

// sliceToValue takes a decoded JSON array and converts it into a properly typed result.List
// Value, recursively wrapping each element per the expected element type (listType.ElementType).
func sliceToValue(arr []any, staticResultType types.IType) (result.Value, error) {
	listType, ok := staticResultType.(*types.List)
	if !ok {
		return result.Value{}, fmt.Errorf("internal error -- sliceToValue expects a staticResultType of list, got :%v", staticResultType.String())
	}

	l := make([]result.Value, len(arr))
	for idx, val := range arr {
		if nested, ok := val.([]any); ok {
			// A nested list. This is exceedingly rare in FHIR, but could happen for mixed Tuple-like
			// shapes. We don't support mixed lists, so assume the element type is itself a list.
			innerList, ok := listType.ElementType.(*types.List)
			if !ok {
				return result.Value{}, fmt.Errorf("internal error -- sliceToValue got element value of type slice, so expected it to be a list but got :%v", listType.ElementType)
			}
			o, err := sliceToValue(nested, innerList)
			if err != nil {
				return result.Value{}, fmt.Errorf("unable to create Value at index %d: %w", idx, err)
			}
			l[idx] = o
			continue
		}
		o, err := scalarToResult(val, listType.ElementType)
		if err != nil {
			return result.Value{}, fmt.Errorf("unable to create Value at index %d: %w", idx, err)
		}
		l[idx] = o
	}
	return result.New(result.List{Value: l, StaticType: listType})
}
