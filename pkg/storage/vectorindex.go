// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/kraklabs/cartograph/pkg/ports"
)

// CozoVectorIndex implements ports.VectorIndex over the cartograph_embedding
// relation's HNSW index, mirroring the schema/index split EnsureSchema and
// CreateHNSWIndex already perform for the embedded backend.
type CozoVectorIndex struct {
	backend *EmbeddedBackend
}

// NewCozoVectorIndex wraps backend as a ports.VectorIndex.
func NewCozoVectorIndex(backend *EmbeddedBackend) *CozoVectorIndex {
	return &CozoVectorIndex{backend: backend}
}

func (v *CozoVectorIndex) EnsureIndex(ctx context.Context) error {
	if err := v.backend.EnsureSchema(); err != nil {
		return err
	}
	return v.backend.CreateHNSWIndex()
}

func (v *CozoVectorIndex) UpsertEmbeddings(ctx context.Context, repoID string, embeddings []ports.EntityEmbedding) error {
	if len(embeddings) == 0 {
		return nil
	}
	rows := make([]string, len(embeddings))
	for i, e := range embeddings {
		rows[i] = fmt.Sprintf("[%q, %q, %s]", e.EntityID, repoID, vectorLiteral(e.Vector))
	}
	script := fmt.Sprintf(
		`?[entity_id, repo_id, embedding] <- [%s]
:put cartograph_embedding { entity_id => repo_id, embedding }`,
		strings.Join(rows, ", "),
	)
	return v.backend.Execute(ctx, script)
}

func (v *CozoVectorIndex) DeleteOrphanEmbeddings(ctx context.Context, repoID string, liveEntityIDs []string) (int, error) {
	conditions := make([]string, len(liveEntityIDs))
	for i, id := range liveEntityIDs {
		conditions[i] = fmt.Sprintf("entity_id = %q", id)
	}
	var notIn string
	if len(conditions) > 0 {
		notIn = fmt.Sprintf(", not (%s)", strings.Join(conditions, " or "))
	}

	countScript := fmt.Sprintf(
		`?[count(entity_id)] := *cartograph_embedding { entity_id, repo_id }, repo_id = %q%s`,
		repoID, notIn,
	)
	before, err := v.backend.Query(ctx, countScript)
	if err != nil {
		return 0, fmt.Errorf("count orphan embeddings: %w", err)
	}

	script := fmt.Sprintf(
		`?[entity_id] := *cartograph_embedding { entity_id, repo_id }, repo_id = %q%s
:rm cartograph_embedding { entity_id }`,
		repoID, notIn,
	)
	if err := v.backend.Execute(ctx, script); err != nil {
		return 0, fmt.Errorf("delete orphan embeddings: %w", err)
	}

	if len(before.Rows) == 0 || len(before.Rows[0]) == 0 {
		return 0, nil
	}
	return int(anyToFloat(before.Rows[0][0])), nil
}

func (v *CozoVectorIndex) SearchSimilar(ctx context.Context, repoID string, vector []float32, topK int) ([]ports.SimilarEntity, error) {
	if topK <= 0 {
		topK = 10
	}
	script := fmt.Sprintf(
		`?[entity_id, dist] := ~cartograph_embedding:hnsw_idx { entity_id | query: %s, k: %d, ef: 64, bind_distance: dist }, repo_id = %q
:sort dist
:limit %d`,
		vectorLiteral(vector), topK, repoID, topK,
	)
	result, err := v.backend.Query(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	out := make([]ports.SimilarEntity, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) < 2 {
			continue
		}
		out = append(out, ports.SimilarEntity{
			EntityID: anyToString(row[0]),
			Score:    anyToFloat(row[1]),
		})
	}
	return out, nil
}

func vectorLiteral(vector []float32) string {
	parts := make([]string, len(vector))
	for i, f := range vector {
		parts[i] = fmt.Sprintf("%f", f)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
