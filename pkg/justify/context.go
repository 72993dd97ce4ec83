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
	"sort"
	"strings"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// NeighborRef names a related entity without carrying its body, so
// assembled context stays prompt-sized text rather than another body
// payload (the same payload-discipline principle  states for
// the workflow boundary, applied one level earlier).
type NeighborRef struct {
	EntityID string
	Name     string
	Kind     graph.Kind
}

// EntityContext is everything assembled before an entity is justified:
// its callers, callees, nearby test assertions, and its parent's and
// callees' own justifications. CalleeJustifications is the grounding
// signal: without it, generation would infer purpose from names alone.
type EntityContext struct {
	Callers               []NeighborRef
	Callees               []NeighborRef
	TestAssertions        []string
	ParentJustification   *graph.Justification
	SiblingNames          []string
	CalleeJustifications  map[string]graph.Justification
}

// Assembler indexes entities/edges once so AssembleContext runs as a pure
// lookup per entity, following pkg/graphanalysis's build-an-index-once
// convention.
type Assembler struct {
	byID        map[string]graph.Entity
	callers     map[string][]string
	callees     map[string][]string
	testAsserts map[string][]string
}

// NewAssembler builds an Assembler over entities/edges. testAssertions
// maps an entity ID to assertion snippets extracted from tests that reach
// it; nil is a valid input for callers that have not wired
// test-assertion extraction.
func NewAssembler(entities []graph.Entity, edges []graph.Edge, testAssertions map[string][]string) *Assembler {
	a := &Assembler{
		byID:        make(map[string]graph.Entity, len(entities)),
		callers:     make(map[string][]string),
		callees:     make(map[string][]string),
		testAsserts: testAssertions,
	}
	for _, e := range entities {
		a.byID[e.ID] = e
	}
	for _, e := range edges {
		switch e.Kind {
		case graph.EdgeCalls, graph.EdgeReferences:
			a.callees[e.From] = append(a.callees[e.From], e.To)
			a.callers[e.To] = append(a.callers[e.To], e.From)
		}
	}
	return a
}

func (a *Assembler) refs(ids []string) []NeighborRef {
	out := make([]NeighborRef, 0, len(ids))
	for _, id := range ids {
		if e, ok := a.byID[id]; ok {
			out = append(out, NeighborRef{EntityID: e.ID, Name: e.Name, Kind: e.Kind})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// AssembleContext builds the context for entity e. justified holds every
// justification resolved at or below e's topological level; since Levels
// orders callees before their callers, e's callees are present here
// whenever they needed generation at all.
func (a *Assembler) AssembleContext(e graph.Entity, justified map[string]graph.Justification) EntityContext {
	ctx := EntityContext{
		Callers:              a.refs(a.callers[e.ID]),
		Callees:              a.refs(a.callees[e.ID]),
		TestAssertions:       a.testAsserts[e.ID],
		CalleeJustifications: make(map[string]graph.Justification),
	}

	for _, callee := range a.callees[e.ID] {
		if j, ok := justified[callee]; ok {
			ctx.CalleeJustifications[callee] = j
		}
	}

	if e.Kind == graph.KindMethod && e.Parent != "" {
		for _, other := range a.byID {
			if other.ID == e.ID {
				continue
			}
			if other.Parent == e.Parent {
				ctx.SiblingNames = append(ctx.SiblingNames, other.Name)
			}
			if other.Name == e.Parent && (other.Kind == graph.KindClass || other.Kind == graph.KindStruct) {
				if j, ok := justified[other.ID]; ok {
					jCopy := j
					ctx.ParentJustification = &jCopy
				}
			}
		}
		sort.Strings(ctx.SiblingNames)
	}

	return ctx
}

// Summarize renders ctx as plain-text prompt material.
func (ctx EntityContext) Summarize() string {
	var sb strings.Builder

	if len(ctx.Callers) > 0 {
		sb.WriteString("Called by: " + joinNames(ctx.Callers) + "\n")
	}
	if len(ctx.Callees) > 0 {
		sb.WriteString("Calls: " + joinNames(ctx.Callees) + "\n")
	}
	if len(ctx.CalleeJustifications) > 0 {
		sb.WriteString("Known purpose of callees:\n")
		ids := make([]string, 0, len(ctx.CalleeJustifications))
		for id := range ctx.CalleeJustifications {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			sb.WriteString("- " + ctx.CalleeJustifications[id].BusinessPurpose + "\n")
		}
	}
	if ctx.ParentJustification != nil {
		sb.WriteString("Enclosing type's purpose: " + ctx.ParentJustification.BusinessPurpose + "\n")
	}
	if len(ctx.SiblingNames) > 0 {
		sb.WriteString("Sibling members: " + strings.Join(ctx.SiblingNames, ", ") + "\n")
	}
	if len(ctx.TestAssertions) > 0 {
		sb.WriteString("Test assertions:\n")
		for _, assertion := range ctx.TestAssertions {
			sb.WriteString("- " + assertion + "\n")
		}
	}
	return sb.String()
}

func joinNames(refs []NeighborRef) string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = r.Name
	}
	return strings.Join(names, ", ")
}
