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

// Package embedding builds the per-entity embeddable documents 
// §4.5 describes and drives them through a pluggable text-embedding
// Provider into a ports.VectorIndex, one file at a time.
//
// Embedding is deliberately a separate pass from extraction (pkg/ingestion)
// and justification (pkg/justify): it reads graph.Entity/graph.Justification
// back out of the ports.GraphStore rather than taking them as in-memory
// arguments, so the workflow boundary between indexRepo and embedRepo never
// has to carry entity bodies across an activity/task-queue hop.
package embedding
