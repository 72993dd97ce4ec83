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

// Package incremental implements one push-triggered reindex cycle: diff the
// two commits, bail out to a full reindex if too much changed, reindex the
// changed files, repair the edges that touched them, refresh embeddings,
// cascade re-justification to affected callers, and log the result as an
// IndexEvent.
//
// This package holds the pure, unit-testable pieces (Diff, ShouldFallback,
// ComputeCascade, RepairEdges, BuildIndexEvent) plus Engine, which wires
// them together against the ports. The debounce loop that decides *when*
// to call Engine.Run lives in pkg/workflows, since it is a Temporal
// workflow body and must stay deterministic; Engine itself is plain,
// side-effecting Go that a Temporal activity calls into, matching the
// split pkg/embedding and pkg/justify already use between workflow
// orchestration and engine logic.
package incremental
