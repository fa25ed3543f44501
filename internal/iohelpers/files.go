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

// Package iohelpers contains functions for local file I/O used by cmd/cql.
package iohelpers

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FilesWithSuffix returns all file paths in a directory that end with a given suffix.
func FilesWithSuffix(ctx context.Context, dir string, suffix string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	filePaths := []string{}
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), suffix) {
			continue
		}
		filePaths = append(filePaths, filepath.Join(dir, file.Name()))
	}
	return filePaths, nil
}

// ReadFile reads the contents of a file at the given path.
func ReadFile(ctx context.Context, filePath string) (contents []byte, funcErr error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err = f.Close(); err != nil {
			if funcErr == nil {
				funcErr = err
			}
		}
	}()

	return io.ReadAll(f)
}

// WriteFile writes the given content to a file at the given path.
func WriteFile(ctx context.Context, dir, fileName string, content []byte) error {
	return os.WriteFile(path.Join(dir, fileName), content, 0644)
}
