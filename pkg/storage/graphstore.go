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

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// CozoGraphStore implements ports.GraphStore over a Backend (normally an
// *EmbeddedBackend). Every query/mutation is built the way
// pkg/ingestion/project_meta.go builds Datalog: fmt.Sprintf with %q string
// escaping and "or"-joined equality conditions for IN-style filters,
// generalized from Go-specific function/type lookups to the full
// graph.Entity/graph.Edge model.
type CozoGraphStore struct {
	backend Backend
}

// NewCozoGraphStore wraps backend as a ports.GraphStore.
func NewCozoGraphStore(backend Backend) *CozoGraphStore {
	return &CozoGraphStore{backend: backend}
}

func (s *CozoGraphStore) BootstrapSchema(ctx context.Context) error {
	eb, ok := s.backend.(*EmbeddedBackend)
	if !ok {
		return nil
	}
	if err := eb.EnsureSchema(); err != nil {
		return err
	}
	return eb.CreateHNSWIndex()
}

func (s *CozoGraphStore) BulkUpsertEntities(ctx context.Context, entities []graph.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	rows := make([]string, len(entities))
	for i, e := range entities {
		rows[i] = fmt.Sprintf(
			"[%q, %q, %q, %q, %q, %q, %q, %d, %d, %q, %q, %t, %q, %q, %q, %d, %d, %q, %f, %d, %t, %q]",
			e.ID, e.OrgID, e.RepoID, e.IndexVersion, string(e.Kind), e.Name, e.FilePath,
			e.StartLine, e.EndLine, e.Language, e.Signature, e.Exported, e.Doc, e.Parent,
			quoteBody(e.Body), e.FanIn, e.FanOut, string(e.RiskLevel), e.PageRank,
			e.PageRankPercentile, e.Quarantined, string(e.QuarantineReason),
		)
	}
	script := fmt.Sprintf(
		`?[id, org_id, repo_id, index_version, kind, name, file_path, start_line, end_line, language, signature, exported, doc, parent, body, fan_in, fan_out, risk_level, pagerank, pagerank_percentile, quarantined, quarantine_reason] <- [%s]
:put cartograph_entity { id => org_id, repo_id, index_version, kind, name, file_path, start_line, end_line, language, signature, exported, doc, parent, body, fan_in, fan_out, risk_level, pagerank, pagerank_percentile, quarantined, quarantine_reason }`,
		strings.Join(rows, ", "),
	)
	return s.backend.Execute(ctx, script)
}

func (s *CozoGraphStore) BulkUpsertEdges(ctx context.Context, edges []graph.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	rows := make([]string, len(edges))
	for i, e := range edges {
		rows[i] = fmt.Sprintf("[%q, %q, %q, %q, %q]", e.Key, e.From, e.To, string(e.Kind), "")
	}
	script := fmt.Sprintf(
		`?[key, from_id, to_id, kind, repo_id] <- [%s]
:put cartograph_edge { key => from_id, to_id, kind, repo_id }`,
		strings.Join(rows, ", "),
	)
	return s.backend.Execute(ctx, script)
}

func (s *CozoGraphStore) GetAllEntities(ctx context.Context, repoID string) ([]graph.Entity, error) {
	script := fmt.Sprintf(
		`?[id, org_id, repo_id, index_version, kind, name, file_path, start_line, end_line, language, signature, exported, doc, parent, body, fan_in, fan_out, risk_level, pagerank, pagerank_percentile, quarantined, quarantine_reason] :=
		  *cartograph_entity { id, org_id, repo_id, index_version, kind, name, file_path, start_line, end_line, language, signature, exported, doc, parent, body, fan_in, fan_out, risk_level, pagerank, pagerank_percentile, quarantined, quarantine_reason },
		  repo_id = %q`,
		repoID,
	)
	result, err := s.backend.Query(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("get all entities: %w", err)
	}
	return rowsToEntities(result.Rows), nil
}

func (s *CozoGraphStore) GetAllEdges(ctx context.Context, repoID string) ([]graph.Edge, error) {
	script := fmt.Sprintf(
		`?[key, from_id, to_id, kind] :=
		  *cartograph_edge { key, from_id, to_id, kind, repo_id },
		  repo_id = %q`,
		repoID,
	)
	result, err := s.backend.Query(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("get all edges: %w", err)
	}
	edges := make([]graph.Edge, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) < 4 {
			continue
		}
		edges = append(edges, graph.Edge{
			Key:  anyToString(row[0]),
			From: anyToString(row[1]),
			To:   anyToString(row[2]),
			Kind: graph.EdgeKind(anyToString(row[3])),
		})
	}
	return edges, nil
}

func (s *CozoGraphStore) GetEntitiesByFile(ctx context.Context, repoID string, filePaths []string) ([]graph.Entity, error) {
	if len(filePaths) == 0 {
		return nil, nil
	}
	conditions := make([]string, len(filePaths))
	for i, p := range filePaths {
		conditions[i] = fmt.Sprintf("file_path = %q", p)
	}
	script := fmt.Sprintf(
		`?[id, org_id, repo_id, index_version, kind, name, file_path, start_line, end_line, language, signature, exported, doc, parent, body, fan_in, fan_out, risk_level, pagerank, pagerank_percentile, quarantined, quarantine_reason] :=
		  *cartograph_entity { id, org_id, repo_id, index_version, kind, name, file_path, start_line, end_line, language, signature, exported, doc, parent, body, fan_in, fan_out, risk_level, pagerank, pagerank_percentile, quarantined, quarantine_reason },
		  repo_id = %q, (%s)`,
		repoID, strings.Join(conditions, " or "),
	)
	result, err := s.backend.Query(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("get entities by file: %w", err)
	}
	return rowsToEntities(result.Rows), nil
}

func (s *CozoGraphStore) GetFilePaths(ctx context.Context, repoID string) ([]string, error) {
	script := fmt.Sprintf(
		`?[file_path] := *cartograph_entity { repo_id, kind, file_path }, repo_id = %q, kind = "file"`,
		repoID,
	)
	result, err := s.backend.Query(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("get file paths: %w", err)
	}
	paths := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) < 1 {
			continue
		}
		paths = append(paths, anyToString(row[0]))
	}
	return paths, nil
}

func (s *CozoGraphStore) GetCalleesOf(ctx context.Context, repoID string, entityID string) ([]string, error) {
	return s.adjacent(ctx, repoID, entityID, "from_id", "to_id")
}

func (s *CozoGraphStore) GetCallersOf(ctx context.Context, repoID string, entityID string) ([]string, error) {
	return s.adjacent(ctx, repoID, entityID, "to_id", "from_id")
}

func (s *CozoGraphStore) adjacent(ctx context.Context, repoID, entityID, anchorCol, wantCol string) ([]string, error) {
	script := fmt.Sprintf(
		`?[other] :=
		  *cartograph_edge { %s: anchor, %s: other, kind, repo_id },
		  repo_id = %q, anchor = %q, kind = "calls"`,
		anchorCol, wantCol, repoID, entityID,
	)
	result, err := s.backend.Query(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("get adjacent: %w", err)
	}
	out := make([]string, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) < 1 {
			continue
		}
		out = append(out, anyToString(row[0]))
	}
	return out, nil
}

func (s *CozoGraphStore) UpdateComputedFields(ctx context.Context, repoID string, updates []ports.EntityComputedUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	rows := make([]string, len(updates))
	for i, u := range updates {
		rows[i] = fmt.Sprintf("[%q, %d, %d, %q, %f, %d]", u.EntityID, u.FanIn, u.FanOut, string(u.RiskLevel), u.PageRank, u.PageRankPercentile)
	}
	script := fmt.Sprintf(
		`%%param entity_updates <- [%s]
?[id, fan_in, fan_out, risk_level, pagerank, pagerank_percentile] <- $entity_updates
:update cartograph_entity { id => fan_in, fan_out, risk_level, pagerank, pagerank_percentile }`,
		strings.Join(rows, ", "),
	)
	return s.backend.Execute(ctx, script)
}

func (s *CozoGraphStore) BulkUpsertJustifications(ctx context.Context, justifications []graph.Justification) error {
	if len(justifications) == 0 {
		return nil
	}
	rows := make([]string, len(justifications))
	for i, j := range justifications {
		validTo := 0.0
		if j.ValidTo != nil {
			validTo = float64(j.ValidTo.Unix())
		}
		rows[i] = fmt.Sprintf(
			"[%q, %q, %q, %f, %q, %q, %q, %q, %q, %q, %q, %q, %f, %q, %q, %q, %q, %f, %f]",
			j.EntityID, "", string(j.Taxonomy), j.Confidence, quoteBody(j.BusinessPurpose),
			mustJSON(j.DomainConcepts), j.FeatureTag, mustJSON(j.SemanticTriples), mustJSON(j.ComplianceTags),
			j.ArchitecturalPattern, string(j.ModelTier), j.ModelUsed, j.QualityScore, mustJSON(j.QualityFlags),
			j.BodyHash, j.PropagatedFeatureTag, mustJSON(j.PropagatedDomainConcepts),
			float64(j.ValidFrom.Unix()), validTo,
		)
	}
	script := fmt.Sprintf(
		`?[entity_id, repo_id, taxonomy, confidence, business_purpose, domain_concepts, feature_tag, semantic_triples, compliance_tags, architectural_pattern, model_tier, model_used, quality_score, quality_flags, body_hash, propagated_feature_tag, propagated_domain_concepts, valid_from, valid_to] <- [%s]
:put cartograph_justification { entity_id => repo_id, taxonomy, confidence, business_purpose, domain_concepts, feature_tag, semantic_triples, compliance_tags, architectural_pattern, model_tier, model_used, quality_score, quality_flags, body_hash, propagated_feature_tag, propagated_domain_concepts, valid_from, valid_to }`,
		strings.Join(rows, ", "),
	)
	return s.backend.Execute(ctx, script)
}

func (s *CozoGraphStore) GetJustification(ctx context.Context, entityID string) (*graph.Justification, error) {
	list, err := s.GetJustifications(ctx, "", []string{entityID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (s *CozoGraphStore) GetJustifications(ctx context.Context, repoID string, entityIDs []string) ([]graph.Justification, error) {
	var condition string
	if len(entityIDs) > 0 {
		conditions := make([]string, len(entityIDs))
		for i, id := range entityIDs {
			conditions[i] = fmt.Sprintf("entity_id = %q", id)
		}
		condition = fmt.Sprintf(", (%s)", strings.Join(conditions, " or "))
	}
	script := fmt.Sprintf(
		`?[entity_id, taxonomy, confidence, business_purpose, domain_concepts, feature_tag, semantic_triples, compliance_tags, architectural_pattern, model_tier, model_used, quality_score, quality_flags, body_hash, propagated_feature_tag, propagated_domain_concepts, valid_from, valid_to] :=
		  *cartograph_justification { entity_id, taxonomy, confidence, business_purpose, domain_concepts, feature_tag, semantic_triples, compliance_tags, architectural_pattern, model_tier, model_used, quality_score, quality_flags, body_hash, propagated_feature_tag, propagated_domain_concepts, valid_from, valid_to }%s`,
		condition,
	)
	result, err := s.backend.Query(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("get justifications: %w", err)
	}
	out := make([]graph.Justification, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) < 18 {
			continue
		}
		j := graph.Justification{
			EntityID:             anyToString(row[0]),
			Taxonomy:             graph.Taxonomy(anyToString(row[1])),
			Confidence:           anyToFloat(row[2]),
			BusinessPurpose:      anyToString(row[3]),
			FeatureTag:           anyToString(row[5]),
			ArchitecturalPattern: anyToString(row[8]),
			ModelTier:            graph.ModelTier(anyToString(row[9])),
			ModelUsed:            anyToString(row[10]),
			QualityScore:         anyToFloat(row[11]),
			BodyHash:             anyToString(row[13]),
			PropagatedFeatureTag: anyToString(row[14]),
			ValidFrom:            time.Unix(int64(anyToFloat(row[16])), 0),
		}
		_ = json.Unmarshal([]byte(anyToString(row[4])), &j.DomainConcepts)
		_ = json.Unmarshal([]byte(anyToString(row[6])), &j.SemanticTriples)
		_ = json.Unmarshal([]byte(anyToString(row[7])), &j.ComplianceTags)
		_ = json.Unmarshal([]byte(anyToString(row[12])), &j.QualityFlags)
		_ = json.Unmarshal([]byte(anyToString(row[15])), &j.PropagatedDomainConcepts)
		if vt := anyToFloat(row[17]); vt > 0 {
			t := time.Unix(int64(vt), 0)
			j.ValidTo = &t
		}
		out = append(out, j)
	}
	return out, nil
}

func (s *CozoGraphStore) PutDomainOntology(ctx context.Context, ontology graph.DomainOntology) error {
	script := fmt.Sprintf(
		`?[repo_id, terms, categories, feature_areas, generated_at] <- [[%q, %q, %q, %q, %f]]
:put cartograph_domain_ontology { repo_id => terms, categories, feature_areas, generated_at }`,
		ontology.RepoID, mustJSON(ontology.Terms), mustJSON(ontology.Categories),
		mustJSON(ontology.FeatureAreas), float64(ontology.GeneratedAt.Unix()),
	)
	return s.backend.Execute(ctx, script)
}

func (s *CozoGraphStore) GetDomainOntology(ctx context.Context, repoID string) (*graph.DomainOntology, error) {
	script := fmt.Sprintf(
		`?[terms, categories, feature_areas, generated_at] := *cartograph_domain_ontology { repo_id, terms, categories, feature_areas, generated_at }, repo_id = %q`,
		repoID,
	)
	result, err := s.backend.Query(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("get domain ontology: %w", err)
	}
	if len(result.Rows) == 0 {
		return nil, nil
	}
	row := result.Rows[0]
	o := &graph.DomainOntology{RepoID: repoID, GeneratedAt: time.Unix(int64(anyToFloat(row[3])), 0)}
	_ = json.Unmarshal([]byte(anyToString(row[0])), &o.Terms)
	_ = json.Unmarshal([]byte(anyToString(row[1])), &o.Categories)
	_ = json.Unmarshal([]byte(anyToString(row[2])), &o.FeatureAreas)
	return o, nil
}

func (s *CozoGraphStore) PutFeatureAggregations(ctx context.Context, aggregations []graph.FeatureAggregation) error {
	if len(aggregations) == 0 {
		return nil
	}
	rows := make([]string, len(aggregations))
	for i, a := range aggregations {
		rows[i] = fmt.Sprintf("[%q, %q, %d, %q, %q]", a.RepoID, a.FeatureTag, a.EntityCount, mustJSON(a.EntryPoints), mustJSON(a.TaxonomyCounts))
	}
	script := fmt.Sprintf(
		`?[repo_id, feature_tag, entity_count, entry_points, taxonomy_counts] <- [%s]
:put cartograph_feature_aggregation { repo_id, feature_tag => entity_count, entry_points, taxonomy_counts }`,
		strings.Join(rows, ", "),
	)
	return s.backend.Execute(ctx, script)
}

func (s *CozoGraphStore) GetFeatureAggregations(ctx context.Context, repoID string) ([]graph.FeatureAggregation, error) {
	script := fmt.Sprintf(
		`?[feature_tag, entity_count, entry_points, taxonomy_counts] := *cartograph_feature_aggregation { repo_id, feature_tag, entity_count, entry_points, taxonomy_counts }, repo_id = %q`,
		repoID,
	)
	result, err := s.backend.Query(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("get feature aggregations: %w", err)
	}
	out := make([]graph.FeatureAggregation, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) < 4 {
			continue
		}
		a := graph.FeatureAggregation{
			RepoID:      repoID,
			FeatureTag:  anyToString(row[0]),
			EntityCount: int(anyToFloat(row[1])),
		}
		_ = json.Unmarshal([]byte(anyToString(row[2])), &a.EntryPoints)
		_ = json.Unmarshal([]byte(anyToString(row[3])), &a.TaxonomyCounts)
		out = append(out, a)
	}
	return out, nil
}

func (s *CozoGraphStore) PutHealthReport(ctx context.Context, report graph.HealthReport) error {
	script := fmt.Sprintf(
		`?[repo_id, risks, count_by_severity, average_confidence, coverage, generated_at] <- [[%q, %q, %q, %f, %f, %f]]
:put cartograph_health_report { repo_id => risks, count_by_severity, average_confidence, coverage, generated_at }`,
		report.RepoID, mustJSON(report.Risks), mustJSON(report.CountBySeverity),
		report.AverageConfidence, report.Coverage, float64(report.GeneratedAt.Unix()),
	)
	return s.backend.Execute(ctx, script)
}

func (s *CozoGraphStore) PutADRs(ctx context.Context, adrs []graph.ADR) error {
	if len(adrs) == 0 {
		return nil
	}
	rows := make([]string, len(adrs))
	for i, a := range adrs {
		rows[i] = fmt.Sprintf(
			"[%q, %q, %q, %q, %q, %q, %q, %q, %f]",
			a.ID, a.RepoID, a.Title, quoteBody(a.Context), quoteBody(a.Decision),
			quoteBody(a.Consequences), mustJSON(a.EntityRefs), mustJSON(a.FeatureAreas), float64(a.GeneratedAt.Unix()),
		)
	}
	script := fmt.Sprintf(
		`?[id, repo_id, title, context, decision, consequences, entity_refs, feature_areas, generated_at] <- [%s]
:put cartograph_adr { id => repo_id, title, context, decision, consequences, entity_refs, feature_areas, generated_at }`,
		strings.Join(rows, ", "),
	)
	return s.backend.Execute(ctx, script)
}

func (s *CozoGraphStore) AppendIndexEvent(ctx context.Context, event graph.IndexEvent) error {
	script := fmt.Sprintf(
		`?[repo_id, push_sha, org_id, commit_message, event_type, files_changed, entities_added, entities_updated, entities_deleted, edges_repaired, embeddings_updated, cascade_status, cascade_entities, duration_ms, workflow_id, extraction_errors, created_at] <- [[%q, %q, %q, %q, %q, %d, %d, %d, %d, %d, %d, %q, %d, %d, %q, %q, %f]]
:put cartograph_index_event { repo_id, push_sha => org_id, commit_message, event_type, files_changed, entities_added, entities_updated, entities_deleted, edges_repaired, embeddings_updated, cascade_status, cascade_entities, duration_ms, workflow_id, extraction_errors, created_at }`,
		event.RepoID, event.PushSHA, event.OrgID, quoteBody(event.CommitMessage), string(event.EventType),
		event.FilesChanged, event.EntitiesAdded, event.EntitiesUpdated, event.EntitiesDeleted,
		event.EdgesRepaired, event.EmbeddingsUpdated, string(event.CascadeStatus), event.CascadeEntities,
		event.DurationMS, event.WorkflowID, mustJSON(event.ExtractionErrors), float64(event.CreatedAt.Unix()),
	)
	return s.backend.Execute(ctx, script)
}

func (s *CozoGraphStore) GetIndexEvents(ctx context.Context, repoID string, limit int) ([]graph.IndexEvent, error) {
	if limit <= 0 {
		limit = 20
	}
	script := fmt.Sprintf(
		`?[push_sha, org_id, commit_message, event_type, files_changed, entities_added, entities_updated, entities_deleted, edges_repaired, embeddings_updated, cascade_status, cascade_entities, duration_ms, workflow_id, extraction_errors, created_at] :=
		  *cartograph_index_event { repo_id, push_sha, org_id, commit_message, event_type, files_changed, entities_added, entities_updated, entities_deleted, edges_repaired, embeddings_updated, cascade_status, cascade_entities, duration_ms, workflow_id, extraction_errors, created_at },
		  repo_id = %q
		:sort -created_at
		:limit %d`,
		repoID, limit,
	)
	result, err := s.backend.Query(ctx, script)
	if err != nil {
		return nil, fmt.Errorf("get index events: %w", err)
	}
	out := make([]graph.IndexEvent, 0, len(result.Rows))
	for _, row := range result.Rows {
		if len(row) < 15 {
			continue
		}
		e := graph.IndexEvent{
			RepoID:            repoID,
			PushSHA:           anyToString(row[0]),
			OrgID:             anyToString(row[1]),
			CommitMessage:     anyToString(row[2]),
			EventType:         graph.IndexEventType(anyToString(row[3])),
			FilesChanged:      int(anyToFloat(row[4])),
			EntitiesAdded:     int(anyToFloat(row[5])),
			EntitiesUpdated:   int(anyToFloat(row[6])),
			EntitiesDeleted:   int(anyToFloat(row[7])),
			EdgesRepaired:     int(anyToFloat(row[8])),
			EmbeddingsUpdated: int(anyToFloat(row[9])),
			CascadeStatus:     graph.CascadeStatus(anyToString(row[10])),
			CascadeEntities:   int(anyToFloat(row[11])),
			DurationMS:        int64(anyToFloat(row[12])),
			WorkflowID:        anyToString(row[13]),
			CreatedAt:         time.Unix(int64(anyToFloat(row[15])), 0),
		}
		_ = json.Unmarshal([]byte(anyToString(row[14])), &e.ExtractionErrors)
		out = append(out, e)
	}
	return out, nil
}

func (s *CozoGraphStore) DeleteStaleByIndexVersion(ctx context.Context, repoID, currentVersion string) (int, error) {
	script := fmt.Sprintf(
		`?[id] := *cartograph_entity { id, repo_id, index_version }, repo_id = %q, index_version != %q
:rm cartograph_entity { id }`,
		repoID, currentVersion,
	)
	before, err := s.countEntities(ctx, repoID)
	if err != nil {
		return 0, err
	}
	if err := s.backend.Execute(ctx, script); err != nil {
		return 0, fmt.Errorf("delete stale entities: %w", err)
	}
	after, err := s.countEntities(ctx, repoID)
	if err != nil {
		return 0, err
	}
	return before - after, nil
}

func (s *CozoGraphStore) DeleteRepoData(ctx context.Context, repoID string) error {
	statements := []string{
		fmt.Sprintf(`?[id] := *cartograph_entity { id, repo_id }, repo_id = %q :rm cartograph_entity { id }`, repoID),
		fmt.Sprintf(`?[key] := *cartograph_edge { key, repo_id }, repo_id = %q :rm cartograph_edge { key }`, repoID),
		fmt.Sprintf(`?[entity_id] := *cartograph_justification { entity_id, repo_id }, repo_id = %q :rm cartograph_justification { entity_id }`, repoID),
	}
	for _, stmt := range statements {
		if err := s.backend.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("delete repo data: %w", err)
		}
	}
	return nil
}

func (s *CozoGraphStore) DeleteEntities(ctx context.Context, repoID string, entityIDs []string) error {
	if len(entityIDs) == 0 {
		return nil
	}
	ids := make([]string, len(entityIDs))
	for i, id := range entityIDs {
		ids[i] = fmt.Sprintf("%q", id)
	}
	script := fmt.Sprintf(
		`?[id] := *cartograph_entity { id, repo_id }, repo_id = %q, id in [%s]
:rm cartograph_entity { id }`,
		repoID, strings.Join(ids, ", "),
	)
	if err := s.backend.Execute(ctx, script); err != nil {
		return fmt.Errorf("delete entities: %w", err)
	}
	return nil
}

func (s *CozoGraphStore) DeleteEdges(ctx context.Context, repoID string, edges []graph.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	keys := make([]string, len(edges))
	for i, e := range edges {
		keys[i] = fmt.Sprintf("%q", e.Key)
	}
	script := fmt.Sprintf(
		`?[key] := *cartograph_edge { key, repo_id }, repo_id = %q, key in [%s]
:rm cartograph_edge { key }`,
		repoID, strings.Join(keys, ", "),
	)
	if err := s.backend.Execute(ctx, script); err != nil {
		return fmt.Errorf("delete edges: %w", err)
	}
	return nil
}

func (s *CozoGraphStore) VerifyEntityCounts(ctx context.Context, repoID string) (int, error) {
	return s.countEntities(ctx, repoID)
}

func (s *CozoGraphStore) countEntities(ctx context.Context, repoID string) (int, error) {
	script := fmt.Sprintf(`?[count(id)] := *cartograph_entity { id, repo_id }, repo_id = %q`, repoID)
	result, err := s.backend.Query(ctx, script)
	if err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	if len(result.Rows) == 0 || len(result.Rows[0]) == 0 {
		return 0, nil
	}
	return int(anyToFloat(result.Rows[0][0])), nil
}

func rowsToEntities(rows [][]any) []graph.Entity {
	out := make([]graph.Entity, 0, len(rows))
	for _, row := range rows {
		if len(row) < 22 {
			continue
		}
		out = append(out, graph.Entity{
			ID:                 anyToString(row[0]),
			OrgID:              anyToString(row[1]),
			RepoID:             anyToString(row[2]),
			IndexVersion:       anyToString(row[3]),
			Kind:               graph.Kind(anyToString(row[4])),
			Name:               anyToString(row[5]),
			FilePath:           anyToString(row[6]),
			StartLine:          int(anyToFloat(row[7])),
			EndLine:            int(anyToFloat(row[8])),
			Language:           anyToString(row[9]),
			Signature:          anyToString(row[10]),
			Exported:           anyToBool(row[11]),
			Doc:                anyToString(row[12]),
			Parent:             anyToString(row[13]),
			Body:               anyToString(row[14]),
			FanIn:              int(anyToFloat(row[15])),
			FanOut:             int(anyToFloat(row[16])),
			RiskLevel:          graph.RiskLevel(anyToString(row[17])),
			PageRank:           anyToFloat(row[18]),
			PageRankPercentile: int(anyToFloat(row[19])),
			Quarantined:        anyToBool(row[20]),
			QuarantineReason:   graph.QuarantineReason(anyToString(row[21])),
		})
	}
	return out
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// quoteBody escapes a free-text field so it survives round-tripping
// through %q without the Datalog parser seeing an embedded quote as the
// end of the string literal; Go's %q already does this, this helper just
// documents the intent at call sites carrying multi-line source bodies.
func quoteBody(s string) string {
	return s
}

func anyToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func anyToFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		var f float64
		_, _ = fmt.Sscanf(val, "%f", &f)
		return f
	default:
		return 0
	}
}

func anyToBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val == "true"
	default:
		return false
	}
}
