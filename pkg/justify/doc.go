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

// Package justify implements the justification engine: turning a repo's
// raw graph of entities and edges into a judgment about what each entity
// is *for*, grounded in how it is actually used rather than its name
// alone.
//
// The pass runs in five stages, in order:
//
//  1. Levels (toposort.go) orders entities so every calls/imports/
//     references dependency is justified before its dependent, breaking
//     cycles at the lowest entity ID.
//  2. Per level, each entity is short-circuited by a dead-code check
//     (heuristics.go), then a name/path heuristic (heuristics.go), before
//     falling through to model routing (routing.go) and structured
//     generation (batch.go, engine.go).
//  3. Context assembly (context.go) gathers graph neighbors, test
//     assertions, and — critically — the justifications already produced
//     for an entity's callees, since those are the grounding signal a bare
//     name can't provide.
//  4. After every level is justified, propagation (propagate.go) spreads
//     feature tags and domain concepts between parents and children.
//  5. Aggregation (aggregate.go, adr.go) rolls the per-entity results up
//     into feature groups, a health report, and synthesized ADRs.
//
// Engine (engine.go) is the only exported entry point most callers need;
// the rest of the package is exported so pkg/incremental can reuse the
// same building blocks for its narrower cascade re-justification pass
// (following pkg/graphanalysis's build-an-index-once, run-pure-functions
// layout).
package justify
