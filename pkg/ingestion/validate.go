// Copyright 2025 KrakLabs
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
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError describes one malformed entity or edge rejected before
// it reaches the graph store.
type ValidationError struct {
	EntityType string
	EntityID   string
	Field      string
	Message    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error [%s:%s] field %s: %s", e.EntityType, e.EntityID, e.Field, e.Message)
}

// ValidateEntities checks structural invariants (non-empty IDs, ordered
// line ranges, well-formed embeddings) before entities and edges are
// written to the graph store.
func ValidateEntities(files []FileEntity, functions []FunctionEntity, defines []DefinesEdge, calls []CallsEdge) error {
	var errs []*ValidationError
	errs = append(errs, validateFiles(files)...)
	errs = append(errs, validateFunctions(functions)...)
	errs = append(errs, validateDefinesEdges(defines)...)
	errs = append(errs, validateCallsEdges(calls)...)

	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("validation failed with %d error(s):\n%s", len(errs), strings.Join(msgs, "\n"))
}

func validateFiles(files []FileEntity) []*ValidationError {
	var errs []*ValidationError
	for _, f := range files {
		if f.ID == "" {
			errs = append(errs, &ValidationError{EntityType: "file", EntityID: f.Path, Field: "id", Message: "file ID cannot be empty"})
		}
		if f.Path == "" {
			errs = append(errs, &ValidationError{EntityType: "file", EntityID: f.ID, Field: "path", Message: "file path cannot be empty"})
		}
	}
	return errs
}

func validateFunctions(functions []FunctionEntity) []*ValidationError {
	var errs []*ValidationError
	embeddingDim := -1

	for _, fn := range functions {
		if fn.ID == "" {
			errs = append(errs, &ValidationError{EntityType: "function", EntityID: fn.Name, Field: "id", Message: "function ID cannot be empty"})
		}
		if fn.FilePath == "" {
			errs = append(errs, &ValidationError{EntityType: "function", EntityID: fn.ID, Field: "file_path", Message: "function file_path cannot be empty"})
		}
		if fn.StartLine < 1 {
			errs = append(errs, &ValidationError{EntityType: "function", EntityID: fn.ID, Field: "start_line", Message: "start_line must be >= 1"})
		}
		if fn.EndLine < fn.StartLine {
			errs = append(errs, &ValidationError{EntityType: "function", EntityID: fn.ID, Field: "end_line", Message: "end_line must be >= start_line"})
		}

		if len(fn.Embedding) == 0 {
			continue
		}
		dim := len(fn.Embedding)
		if embeddingDim == -1 {
			embeddingDim = dim
		} else if dim != embeddingDim {
			errs = append(errs, &ValidationError{EntityType: "function", EntityID: fn.ID, Field: "embedding", Message: fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", embeddingDim, dim)})
		}
		for i, v := range fn.Embedding {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				errs = append(errs, &ValidationError{EntityType: "function", EntityID: fn.ID, Field: "embedding", Message: fmt.Sprintf("embedding contains non-finite value at index %d", i)})
				break
			}
		}
	}
	return errs
}

func validateDefinesEdges(defines []DefinesEdge) []*ValidationError {
	var errs []*ValidationError
	for i, edge := range defines {
		if edge.FileID == "" {
			errs = append(errs, &ValidationError{EntityType: "defines", EntityID: fmt.Sprintf("edge_%d", i), Field: "file_id", Message: "file_id cannot be empty"})
		}
		if edge.FunctionID == "" {
			errs = append(errs, &ValidationError{EntityType: "defines", EntityID: fmt.Sprintf("edge_%d", i), Field: "function_id", Message: "function_id cannot be empty"})
		}
	}
	return errs
}

func validateCallsEdges(calls []CallsEdge) []*ValidationError {
	var errs []*ValidationError
	for i, edge := range calls {
		if edge.CallerID == "" {
			errs = append(errs, &ValidationError{EntityType: "calls", EntityID: fmt.Sprintf("edge_%d", i), Field: "caller_id", Message: "caller_id cannot be empty"})
		}
		if edge.CalleeID == "" {
			errs = append(errs, &ValidationError{EntityType: "calls", EntityID: fmt.Sprintf("edge_%d", i), Field: "callee_id", Message: "callee_id cannot be empty"})
		}
	}
	return errs
}
