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

package terminology

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Provider is the interface CQL/ELM evaluation uses to resolve membership and expansion
// questions against a terminology server. LocalFHIRProvider and RemoteProvider are the two
// included implementations; callers may supply their own.
type Provider interface {
	// AnyInValueSet returns true if any code is contained within the specified ValueSet.
	AnyInValueSet(codes []Code, valueSetURL, valueSetVersion string) (bool, error)
	// AnyInCodeSystem returns true if any code is contained within the specified CodeSystem.
	AnyInCodeSystem(codes []Code, codeSystemURL, codeSystemVersion string) (bool, error)
	// ExpandValueSet returns the full set of codes a ValueSet expands to.
	ExpandValueSet(valueSetURL, valueSetVersion string) ([]*Code, error)
}

// RemoteProvider is a terminology.Provider backed by a FHIR terminology server's
// $validate-code and ValueSet $expand REST operations.
// https://hl7.org/fhir/valueset-operation-validate-code.html
// https://hl7.org/fhir/valueset-operation-expand.html
type RemoteProvider struct {
	baseURL string
	client  *http.Client
}

// NewRemoteProvider returns a Provider that proxies MemberOf/Expand style CQL operations to a
// FHIR terminology server reachable at baseURL. If httpClient is nil, http.DefaultClient is used.
func NewRemoteProvider(baseURL string, httpClient *http.Client) *RemoteProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RemoteProvider{baseURL: baseURL, client: httpClient}
}

// AnyInValueSet calls $validate-code on the ValueSet identified by valueSetURL/valueSetVersion for
// each code until one validates successfully, or returns false if the server validates none of them.
func (r *RemoteProvider) AnyInValueSet(codes []Code, valueSetURL, valueSetVersion string) (bool, error) {
	for _, c := range codes {
		ok, err := r.validateCode("ValueSet", valueSetURL, valueSetVersion, c)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// AnyInCodeSystem calls $validate-code on the CodeSystem identified by codeSystemURL/
// codeSystemVersion for each code until one validates successfully.
func (r *RemoteProvider) AnyInCodeSystem(codes []Code, codeSystemURL, codeSystemVersion string) (bool, error) {
	for _, c := range codes {
		ok, err := r.validateCode("CodeSystem", codeSystemURL, codeSystemVersion, c)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// validateCode invokes $validate-code against the given resourceType ("ValueSet" or
// "CodeSystem") and returns the "result" element of the returned Parameters resource.
func (r *RemoteProvider) validateCode(resourceType, canonicalURL, version string, code Code) (bool, error) {
	q := url.Values{}
	q.Set("url", canonicalURL)
	if version != "" {
		q.Set(resourceTypeVersionParam(resourceType), version)
	}
	q.Set("system", code.System)
	q.Set("code", code.Code)

	reqURL := fmt.Sprintf("%s/%s/$validate-code?%s", r.baseURL, resourceType, q.Encode())
	resp, err := r.client.Get(reqURL)
	if err != nil {
		return false, fmt.Errorf("terminology server request to %s failed: %w", reqURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("terminology server returned status %d for %s", resp.StatusCode, reqURL)
	}

	var parameters struct {
		Parameter []struct {
			Name      string `json:"name"`
			ValueBool *bool  `json:"valueBoolean"`
		} `json:"parameter"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parameters); err != nil {
		return false, fmt.Errorf("failed to decode $validate-code response from %s: %w", reqURL, err)
	}
	for _, p := range parameters.Parameter {
		if p.Name == "result" && p.ValueBool != nil {
			return *p.ValueBool, nil
		}
	}
	return false, nil
}

func resourceTypeVersionParam(resourceType string) string {
	if resourceType == "CodeSystem" {
		return "codeSystemVersion"
	}
	return "valueSetVersion"
}

// ExpandValueSet calls ValueSet/$expand on the remote server and returns the expanded codes.
func (r *RemoteProvider) ExpandValueSet(valueSetURL, valueSetVersion string) ([]*Code, error) {
	q := url.Values{}
	q.Set("url", valueSetURL)
	if valueSetVersion != "" {
		q.Set("valueSetVersion", valueSetVersion)
	}

	reqURL := fmt.Sprintf("%s/ValueSet/$expand?%s", r.baseURL, q.Encode())
	resp, err := r.client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("terminology server request to %s failed: %w", reqURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("terminology server returned status %d for %s", resp.StatusCode, reqURL)
	}

	var valueSet struct {
		Expansion struct {
			Contains []struct {
				System  string `json:"system"`
				Code    string `json:"code"`
				Display string `json:"display"`
			} `json:"contains"`
		} `json:"expansion"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&valueSet); err != nil {
		return nil, fmt.Errorf("failed to decode $expand response from %s: %w", reqURL, err)
	}

	codes := make([]*Code, 0, len(valueSet.Expansion.Contains))
	for _, c := range valueSet.Expansion.Contains {
		codes = append(codes, &Code{System: c.System, Code: c.Code, Display: c.Display})
	}
	return codes, nil
}
