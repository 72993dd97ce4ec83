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

package justify

import (
	"fmt"
	"strings"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/llm"
)

const systemPrompt = `You are a software archaeologist. Given one or more code entities and
their graph context, determine each entity's business purpose, not its
mechanics. Ground your answer in what its callees are known to do and how
other entities depend on it; do not restate its name or signature back as
the purpose.`

// BuildSingleMessages builds the chat messages for a single-entity request.
func BuildSingleMessages(e graph.Entity, ctx EntityContext, ontology *graph.DomainOntology) []llm.Message {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Entity: %s %s in %s\n", e.Kind, e.Name, e.FilePath))
	if e.Signature != "" {
		sb.WriteString("Signature: " + e.Signature + "\n")
	}
	if e.Doc != "" {
		sb.WriteString("Doc comment: " + e.Doc + "\n")
	}
	sb.WriteString(ctx.Summarize())
	writeOntology(&sb, ontology)
	sb.WriteString("\nRespond with the required JSON object only.")
	return llm.BuildChatMessages(systemPrompt, sb.String())
}

// BuildBatchMessages builds the chat messages for a tier-homogeneous
// batch request, asking for one result per entityId.
func BuildBatchMessages(entries []BatchEntry, ontology *graph.DomainOntology) []llm.Message {
	var sb strings.Builder
	sb.WriteString("Classify each of the following entities independently. Return one result per entityId.\n\n")
	for _, entry := range entries {
		sb.WriteString(fmt.Sprintf("entityId: %s\n", entry.Entity.ID))
		sb.WriteString(fmt.Sprintf("Entity: %s %s in %s\n", entry.Entity.Kind, entry.Entity.Name, entry.Entity.FilePath))
		sb.WriteString(entry.Context.Summarize())
		sb.WriteString("---\n")
	}
	writeOntology(&sb, ontology)
	sb.WriteString("\nRespond with {\"results\": [...]} only, one element per entityId above.")
	return llm.BuildChatMessages(systemPrompt, sb.String())
}

func writeOntology(sb *strings.Builder, ontology *graph.DomainOntology) {
	if ontology == nil || len(ontology.Terms) == 0 {
		return
	}
	sb.WriteString("Known domain vocabulary: " + strings.Join(ontology.Terms, ", ") + "\n")
}
