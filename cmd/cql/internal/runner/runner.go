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

// Package runner implements the cql command line tool's parse/evaluate/output pipeline, kept
// separate from main so it can be unit tested without invoking cobra.
package runner

import (
	"context"
	"fmt"
	"strings"

	"github.com/winterop-com/fhirkit-sub003"
	"github.com/winterop-com/fhirkit-sub003/internal/iohelpers"
	"github.com/winterop-com/fhirkit-sub003/result"
	"github.com/winterop-com/fhirkit-sub003/retriever"
	"github.com/winterop-com/fhirkit-sub003/retriever/local"
	"github.com/winterop-com/fhirkit-sub003/terminology"
)

// Config holds the resolved command line flags for a single invocation of the cql binary.
type Config struct {
	// CQLDir is the directory containing the .cql library files to parse.
	CQLDir string
	// BundleFile, if set, is a JSON FHIR R4 bundle the CQL is evaluated against.
	BundleFile string
	// TerminologyDir, if set, is a directory of FHIR ValueSet/CodeSystem JSON files used to build
	// a local terminology.Provider.
	TerminologyDir string
	// OutputFile, if set, is the file the JSON result is written to. If empty, results are printed
	// to stdout via fmt.Println instead.
	OutputFile string
	// Parameters maps "libraryName.paramName" (or just "paramName" for the unnamed library) to a
	// CQL literal string, mirroring cql.ParseConfig.Parameters.
	Parameters map[string]string
	// ReturnPrivateDefs is passed through to cql.EvalConfig.
	ReturnPrivateDefs bool
}

// Run parses the CQL libraries named by cfg, evaluates them (against the FHIR bundle if one was
// provided, otherwise with a nil retriever), and writes the JSON encoded result.Libraries to
// cfg.OutputFile (or stdout).
func Run(ctx context.Context, cfg *Config) error {
	if cfg.CQLDir == "" {
		return fmt.Errorf("cql_dir is required")
	}

	libFiles, err := iohelpers.FilesWithSuffix(ctx, cfg.CQLDir, ".cql")
	if err != nil {
		return fmt.Errorf("failed to list .cql files in %s: %w", cfg.CQLDir, err)
	}
	if len(libFiles) == 0 {
		return fmt.Errorf("no .cql files found in %s", cfg.CQLDir)
	}

	libs := make([]string, 0, len(libFiles))
	for _, f := range libFiles {
		contents, err := iohelpers.ReadFile(ctx, f)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", f, err)
		}
		libs = append(libs, string(contents))
	}

	fhirDataModel, fhirHelpers, err := cql.FHIRDataModelAndHelpersLib("4.0.1")
	if err != nil {
		return fmt.Errorf("failed to load FHIR 4.0.1 data model: %w", err)
	}
	libs = append(libs, fhirHelpers)

	params, err := parseParameters(cfg.Parameters)
	if err != nil {
		return err
	}

	elm, err := cql.Parse(ctx, libs, cql.ParseConfig{
		DataModels: [][]byte{fhirDataModel},
		Parameters: params,
	})
	if err != nil {
		return fmt.Errorf("failed to parse CQL: %w", err)
	}

	var ret retriever.Retriever
	if cfg.BundleFile != "" {
		bundleJSON, err := iohelpers.ReadFile(ctx, cfg.BundleFile)
		if err != nil {
			return fmt.Errorf("failed to read FHIR bundle %s: %w", cfg.BundleFile, err)
		}
		ret, err = local.NewRetrieverFromR4Bundle(bundleJSON)
		if err != nil {
			return fmt.Errorf("failed to load FHIR bundle %s: %w", cfg.BundleFile, err)
		}
	}

	var term terminology.Provider
	if cfg.TerminologyDir != "" {
		term, err = terminology.NewLocalFHIRProvider(cfg.TerminologyDir)
		if err != nil {
			return fmt.Errorf("failed to load terminology directory %s: %w", cfg.TerminologyDir, err)
		}
	}

	results, err := elm.Eval(ctx, ret, cql.EvalConfig{
		Terminology:       term,
		ReturnPrivateDefs: cfg.ReturnPrivateDefs,
	})
	if err != nil {
		return fmt.Errorf("failed to evaluate CQL: %w", err)
	}

	out, err := results.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	if cfg.OutputFile == "" {
		fmt.Println(string(out))
		return nil
	}
	return iohelpers.WriteFile(ctx, "", cfg.OutputFile, out)
}

// parseParameters converts the "libraryName.paramName" -> literal flag map into the
// map[result.DefKey]string cql.ParseConfig.Parameters expects. A name with no "." is treated as
// belonging to the unnamed library.
func parseParameters(params map[string]string) (map[result.DefKey]string, error) {
	if len(params) == 0 {
		return nil, nil
	}
	out := make(map[result.DefKey]string, len(params))
	for name, literal := range params {
		libName, paramName, found := strings.Cut(name, ".")
		var key result.DefKey
		if found {
			key = result.DefKey{Name: paramName, Library: result.LibKey{Name: libName}}
		} else {
			key = result.DefKey{Name: libName, Library: result.UnnamedLibKey()}
		}
		if _, exists := out[key]; exists {
			return nil, fmt.Errorf("duplicate parameter %q", name)
		}
		out[key] = literal
	}
	return out, nil
}
