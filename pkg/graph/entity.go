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

// Package graph defines the typed semantic-code-graph data model: entities,
// edges, justifications, and the aggregate artifacts derived from them.
//
// Entities and edges are stored in ID-keyed arenas rather than linked by
// pointer, so the graph can be cyclic (a calls b calls a) without creating
// reference cycles in Go's memory model. Every cross-reference is a plain
// string ID, resolved by whichever component needs to walk the graph.
package graph

// Kind identifies the taxonomy of a graph entity.
type Kind string

const (
	KindFile      Kind = "file"
	KindDirectory Kind = "directory"
	KindModule    Kind = "module"
	KindNamespace Kind = "namespace"
	KindFunction  Kind = "function"
	KindMethod    Kind = "method"
	KindClass     Kind = "class"
	KindStruct    Kind = "struct"
	KindInterface Kind = "interface"
	KindVariable  Kind = "variable"
	KindType      Kind = "type"
	KindEnum      Kind = "enum"
	KindDecorator Kind = "decorator"
)

// ValidKinds enumerates every entity kind recognized by the validator.
var ValidKinds = map[Kind]bool{
	KindFile:      true,
	KindDirectory: true,
	KindModule:    true,
	KindNamespace: true,
	KindFunction:  true,
	KindMethod:    true,
	KindClass:     true,
	KindStruct:    true,
	KindInterface: true,
	KindVariable:  true,
	KindType:      true,
	KindEnum:      true,
	KindDecorator: true,
}

// QuarantineReason explains why extraction could not produce a full entity.
type QuarantineReason string

const (
	QuarantineFileTooLarge      QuarantineReason = "file_too_large"
	QuarantineExtractionTimeout QuarantineReason = "extraction_timeout"
)

// RiskLevel is derived from an entity's fan-in/fan-out (blast radius).
type RiskLevel string

const (
	RiskNormal RiskLevel = "normal"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Entity is a node of the semantic code graph: a file, directory, module,
// namespace, function, method, class, struct, interface, variable, type,
// enum, or decorator.
//
// Entity.ID is a deterministic content hash (see EntityHash) scoped to
// (RepoID, FilePath, Kind, Name, Signature). Two identical entities
// extracted on two separate runs produce the same ID, so justifications,
// embeddings, and blast-radius measurements survive re-indexing.
type Entity struct {
	ID            string
	OrgID         string
	RepoID        string
	IndexVersion  string
	Kind          Kind
	Name          string
	FilePath      string
	StartLine     int
	EndLine       int
	Language      string
	Signature     string
	Exported      bool
	Doc           string
	Parent        string // enclosing class/module name, for methods/members
	Body          string // truncated to IngestionConfig.MaxCodeTextBytes during extraction

	// Computed structural fields, populated by the graph-analysis engine.
	FanIn              int
	FanOut             int
	RiskLevel          RiskLevel
	PageRank           float64
	PageRankPercentile int

	// Quarantine fields.
	Quarantined       bool
	QuarantineReason  QuarantineReason
}

// Quarantine marks e as a placeholder produced when extraction could not
// run to completion for its file.
func (e *Entity) Quarantine(reason QuarantineReason) {
	e.Quarantined = true
	e.QuarantineReason = reason
}

// EdgeKind identifies the taxonomy of a directed relationship.
type EdgeKind string

const (
	EdgeCalls      EdgeKind = "calls"
	EdgeContains   EdgeKind = "contains"
	EdgeImports    EdgeKind = "imports"
	EdgeImplements EdgeKind = "implements"
	EdgeInherits   EdgeKind = "inherits"
	EdgeReferences EdgeKind = "references"
	EdgeExports    EdgeKind = "exports"
)

// ValidEdgeKinds enumerates every edge kind recognized by the validator.
var ValidEdgeKinds = map[EdgeKind]bool{
	EdgeCalls:      true,
	EdgeContains:   true,
	EdgeImports:    true,
	EdgeImplements: true,
	EdgeInherits:   true,
	EdgeReferences: true,
	EdgeExports:    true,
}

// Edge is a typed, directed relationship between two entities, addressed
// by collection-qualified IDs ("entities/<id>") so the same edge shape can
// point at any collection the store happens to use.
type Edge struct {
	Key  string // deterministic hash of (From, To, Kind)
	From string
	To   string
	Kind EdgeKind
}
