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

package embedding

import (
	"fmt"
	"strings"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// maxBodyChars bounds how much of an entity's body text reaches the
// embedding provider, matching the extraction-time MAX_BODY_CHARS default:
// the tokenizer's own 512-token cap (EMBEDDING_MAX_TOKENS) is the real
// limit, but truncating the input text keeps providers with no server-side
// truncation from erroring on oversized requests.
const maxBodyChars = 2000

// EmbeddableDocument is the text unit embedded and upserted into the
// vector index for one entity.
type EmbeddableDocument struct {
	EntityID   string
	OrgID      string
	RepoID     string
	EntityKey  string // FilePath + Name, stable across re-index for logging
	Kind       graph.Kind
	Name       string
	FilePath   string
	TextContent string
}

// BuildDocuments builds one EmbeddableDocument per non-file entity in
// entities, enriched with justifications[entity.ID]'s business purpose
// where present, plus one fallback file document for every file entity
// that produced zero code entities ( steps 2-3).
func BuildDocuments(entities []graph.Entity, justifications map[string]graph.Justification) []EmbeddableDocument {
	hasCodeEntity := make(map[string]bool)
	var files []graph.Entity

	for _, e := range entities {
		if e.Kind == graph.KindFile {
			files = append(files, e)
			continue
		}
		hasCodeEntity[e.FilePath] = true
	}

	docs := make([]EmbeddableDocument, 0, len(entities))
	for _, e := range entities {
		if e.Kind == graph.KindFile {
			continue
		}
		if e.Quarantined {
			continue
		}
		docs = append(docs, buildEntityDocument(e, justifications[e.ID]))
	}

	for _, f := range files {
		if hasCodeEntity[f.FilePath] || f.Quarantined {
			continue
		}
		docs = append(docs, buildFallbackFileDocument(f))
	}

	return docs
}

// buildEntityDocument assembles the kind-labeled header, signature, doc,
// and optional business-purpose text for one non-file entity.
func buildEntityDocument(e graph.Entity, just graph.Justification) EmbeddableDocument {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] %s", strings.ToUpper(string(e.Kind)), e.Name)
	if e.Parent != "" {
		fmt.Fprintf(&b, " (in %s)", e.Parent)
	}
	fmt.Fprintf(&b, "\nfile: %s\n", e.FilePath)

	if e.Signature != "" {
		fmt.Fprintf(&b, "signature: %s\n", e.Signature)
	}
	if e.Doc != "" {
		fmt.Fprintf(&b, "doc: %s\n", e.Doc)
	}
	if just.BusinessPurpose != "" {
		fmt.Fprintf(&b, "purpose: %s\n", just.BusinessPurpose)
		if len(just.DomainConcepts) > 0 {
			fmt.Fprintf(&b, "domain concepts: %s\n", strings.Join(just.DomainConcepts, ", "))
		}
	}

	b.WriteString("\n")
	b.WriteString(truncateBody(e.Body))

	return EmbeddableDocument{
		EntityID:    e.ID,
		OrgID:       e.OrgID,
		RepoID:      e.RepoID,
		EntityKey:   e.FilePath + "::" + e.Name,
		Kind:        e.Kind,
		Name:        e.Name,
		FilePath:    e.FilePath,
		TextContent: b.String(),
	}
}

// buildFallbackFileDocument builds the one-document-per-file fallback for
// files that extracted no functions/types/etc. — comment-only files,
// config files, or languages the parser doesn't walk — so every file in
// the repo remains findable by semantic search.
func buildFallbackFileDocument(f graph.Entity) EmbeddableDocument {
	text := fmt.Sprintf("[FILE] %s\nlanguage: %s\n", f.FilePath, f.Language)
	return EmbeddableDocument{
		EntityID:    f.ID,
		OrgID:       f.OrgID,
		RepoID:      f.RepoID,
		EntityKey:   f.FilePath,
		Kind:        graph.KindFile,
		Name:        f.Name,
		FilePath:    f.FilePath,
		TextContent: text,
	}
}

func truncateBody(body string) string {
	if len(body) <= maxBodyChars {
		return body
	}
	return body[:maxBodyChars]
}
