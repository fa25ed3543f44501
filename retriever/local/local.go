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

// Package local is an implementation of the Retriever Interface for the CQL engine. The
// implementation can be initialized from a JSON FHIR bundle of all the patient's FHIR Resources.
package local

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/winterop-com/fhirkit-sub003/internal/resourcewrapper"
)

// Retriever implements the Retriever Interface for the CQL engine.
type Retriever struct {
	resources map[string][]map[string]any
}

// NewRetrieverFromR4Bundle initializes a local Retriever from a JSON R4 FHIR bundle of all the
// patient's FHIR Resources. The bundle is decoded with encoding/json into generic maps, so any
// well-formed FHIR bundle can be loaded without a generated Go type for each resource it contains.
func NewRetrieverFromR4Bundle(jsonBundle []byte) (*Retriever, error) {
	var bundle struct {
		ResourceType string `json:"resourceType"`
		Entry        []struct {
			Resource map[string]any `json:"resource"`
		} `json:"entry"`
	}
	if err := json.Unmarshal(jsonBundle, &bundle); err != nil {
		return nil, fmt.Errorf("failed to unmarshal FHIR bundle: %w", err)
	}
	if bundle.ResourceType != "Bundle" {
		return nil, fmt.Errorf("expected a FHIR Bundle, got resourceType %q", bundle.ResourceType)
	}

	r := &Retriever{resources: make(map[string][]map[string]any)}
	for _, e := range bundle.Entry {
		if e.Resource == nil {
			continue
		}
		rw := resourcewrapper.New(e.Resource)
		resourceType, err := rw.ResourceType()
		if err != nil {
			return nil, err
		}
		r.resources[resourceType] = append(r.resources[resourceType], rw.Resource)
	}
	return r, nil
}

// NewRetrieverFromResources initializes a local Retriever directly from a slice of decoded FHIR
// resources, grouping them by their resourceType field.
func NewRetrieverFromResources(resources []map[string]any) (*Retriever, error) {
	r := &Retriever{resources: make(map[string][]map[string]any)}
	for _, res := range resources {
		rw := resourcewrapper.New(res)
		resourceType, err := rw.ResourceType()
		if err != nil {
			return nil, err
		}
		r.resources[resourceType] = append(r.resources[resourceType], rw.Resource)
	}
	return r, nil
}

// Retrieve returns all FHIR resources of type fhirResourceType for the patient.
func (r *Retriever) Retrieve(ctx context.Context, fhirResourceType string) ([]map[string]any, error) {
	if resources, ok := r.resources[fhirResourceType]; ok {
		return resources, nil
	}
	return []map[string]any{}, nil
}
