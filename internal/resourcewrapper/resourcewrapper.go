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

// Package resourcewrapper provides helper methods to work with generic JSON FHIR resources.
// Resources are represented as map[string]any, the result of decoding FHIR JSON with
// encoding/json, rather than generated proto messages, so the engine can operate over any FHIR
// release or profile without needing a dedicated Go type for every resource.
package resourcewrapper

import "fmt"

// ResourceWrapper holds helper methods to work with a decoded FHIR resource.
type ResourceWrapper struct {
	Resource map[string]any
}

// New returns a ResourceWrapper that wraps the decoded FHIR resource.
func New(in map[string]any) *ResourceWrapper {
	return &ResourceWrapper{Resource: in}
}

// ResourceType gets the type of the underlying resource (its "resourceType" field) or an error.
func (m *ResourceWrapper) ResourceType() (string, error) {
	if m.Resource == nil {
		return "", fmt.Errorf("resource is nil")
	}
	rt, ok := m.Resource["resourceType"].(string)
	if !ok || rt == "" {
		return "", fmt.Errorf("resource is missing a resourceType field")
	}
	return rt, nil
}

// ResourceID gets the id of the underlying resource or an error.
func (m *ResourceWrapper) ResourceID() (string, error) {
	if m.Resource == nil {
		return "", fmt.Errorf("resource is nil")
	}
	id, ok := m.Resource["id"].(string)
	if !ok {
		return "", fmt.Errorf("resource is missing an id field")
	}
	return id, nil
}

// ResourceMessageField returns the underlying decoded JSON object for the resource.
func (m *ResourceWrapper) ResourceMessageField() (map[string]any, error) {
	if m.Resource == nil {
		return nil, fmt.Errorf("resource is nil")
	}
	return m.Resource, nil
}
