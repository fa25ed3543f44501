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

// Binary cql is a command line tool for parsing and evaluating CQL libraries against a local
// FHIR bundle, terminology directory and set of parameters.
package main

import (
	"fmt"
	"os"

	"github.com/winterop-com/fhirkit-sub003/cmd/cql/internal/runner"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &runner.Config{}

	cmd := &cobra.Command{
		Use:   "cql",
		Short: "cql parses and evaluates CQL libraries against a local FHIR bundle",
		Long: "cql reads one or more .cql library files, parses them against the FHIR 4.0.1 data " +
			"model, optionally evaluates them against a local FHIR bundle and terminology directory, " +
			"and prints the results as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.CQLDir, "cql_dir", "", "directory containing the .cql library files to parse (required)")
	flags.StringVar(&cfg.BundleFile, "fhir_bundle", "", "path to a JSON FHIR R4 bundle to evaluate the CQL against (optional)")
	flags.StringVar(&cfg.TerminologyDir, "terminology_dir", "", "directory of FHIR ValueSet/CodeSystem JSON files to use as a terminology provider (optional)")
	flags.StringVar(&cfg.OutputFile, "output_file", "", "file to write the JSON results to; defaults to stdout")
	flags.StringToStringVar(&cfg.Parameters, "param", nil, "a CQL parameter in libraryName.paramName=literal form; may be repeated")
	flags.BoolVar(&cfg.ReturnPrivateDefs, "return_private_defs", false, "include private expression definitions in the results")
	cmd.MarkFlagRequired("cql_dir")

	return cmd
}
