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

import "github.com/kraklabs/cartograph/pkg/graph"

// IsStale reports whether an entity needs re-justification: the prior
// justification is reusable only when its body hash is unchanged AND none
// of the entity's outbound callees are in calleeChangedSet. On a full
// (non-incremental) pass calleeChangedSet is nil and this always reports
// stale once there is no prior justification.
func IsStale(prev *graph.Justification, currentBodyHash string, calleeIDs []string, calleeChangedSet map[string]bool) bool {
	if prev == nil {
		return true
	}
	if prev.BodyHash != currentBodyHash {
		return true
	}
	for _, callee := range calleeIDs {
		if calleeChangedSet[callee] {
			return true
		}
	}
	return false
}
