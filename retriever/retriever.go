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

// Package retriever defines the interface between the CQL engine and the data source CQL will be
// computed over. Those using the CQL engine must provide an implementation of the Retriever
// Interface. Resources are generic JSON objects (map[string]any), matching the shape produced by
// decoding a FHIR resource with encoding/json, so any FHIR release or profile can be retrieved
// without the engine depending on a generated resource type.
package retriever

import "context"

// Retriever defines the interface between the CQL engine and the data source CQL will be computed
// over.
type Retriever interface {
	// Retrieve returns all FHIR resources of type fhirResourceType for the patient in scope.
	Retrieve(ctx context.Context, fhirResourceType string) ([]map[string]any, error)
}
