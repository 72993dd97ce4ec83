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

// Package workflows wires the pipeline's engines (pkg/ingestion,
// pkg/embedding, pkg/graphanalysis, pkg/justify, pkg/incremental) behind
// Temporal workflows and activities, so a full or incremental index run
// survives a worker restart and reports per-step progress to the status
// CLI.
//
// IndexRepoWorkflow is the full-pipeline entry point. It runs as a chain
// of child workflows — indexRepo's own steps, then EmbedRepoWorkflow,
// DiscoverOntologyWorkflow, JustifyRepoWorkflow, and
// GenerateHealthReportWorkflow in that fixed order (pkg/graph.OrderedSteps
// is the list of tracked PipelineSteps, not this chain) — plus two
// ParentClosePolicy-ABANDON children,
// SyncLocalGraphWorkflow and DetectPatternsWorkflow, that run alongside
// without blocking completion.
//
// IncrementalIndexWorkflow is the long-lived per-repo debounce loop a
// webhook push signals into: it waits for either another push signal or
// a debounce timeout, and only calls into pkg/incremental once pushes
// stop arriving for the debounce window.
//
// Every activity here is a thin wrapper: it re-fetches what it needs from
// the ports and returns only counts/IDs, so workflow history never has to
// serialize an entity body or an embedding vector. Activities are
// registered on one of two task queues (QueueHeavy, QueueLight) so a
// worker can reserve heavy LLM/embedding capacity separately from cheap
// bookkeeping work.
package workflows
