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
	"regexp"
	"strings"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// HeuristicResult is a heuristic classification that bypasses the LLM
// entirely, derived from path and naming conventions alone.
type HeuristicResult struct {
	Taxonomy        graph.Taxonomy
	Confidence      float64
	BusinessPurpose string
	FeatureTag      string
}

var utilityPathSegments = []string{"lib/utils/", "pkg/util/", "internal/util/", "utils/", "/helpers/"}

var utilityNamePrefixes = []string{"format", "parse", "sanitize", "validate", "normalize", "convert"}

var verticalPathPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(^|/)api/.*route\.[a-zA-Z]+$`),
	regexp.MustCompile(`(^|/)main\.[a-zA-Z]+$`),
	regexp.MustCompile(`(^|/)cli\.[a-zA-Z]+$`),
	regexp.MustCompile(`(^|/)cmd/[^/]+/main\.go$`),
}

// Classify applies the name/path heuristics that can short-circuit LLM
// justification. A nil result means no heuristic
// matched and the entity proceeds to model routing and generation.
func Classify(e graph.Entity) *HeuristicResult {
	lowerPath := strings.ToLower(e.FilePath)
	lowerName := strings.ToLower(e.Name)

	for _, pat := range verticalPathPatterns {
		if pat.MatchString(lowerPath) {
			return &HeuristicResult{
				Taxonomy:        graph.TaxonomyVertical,
				Confidence:      0.6,
				BusinessPurpose: "Entry point identified by path convention (" + e.FilePath + ").",
				FeatureTag:      "entrypoint",
			}
		}
	}

	for _, seg := range utilityPathSegments {
		if strings.Contains(lowerPath, seg) {
			return &HeuristicResult{
				Taxonomy:        graph.TaxonomyUtility,
				Confidence:      0.6,
				BusinessPurpose: "Generic helper under a utility directory (" + e.FilePath + ").",
				FeatureTag:      "utility",
			}
		}
	}

	for _, prefix := range utilityNamePrefixes {
		if strings.HasPrefix(lowerName, prefix) {
			return &HeuristicResult{
				Taxonomy:        graph.TaxonomyUtility,
				Confidence:      0.55,
				BusinessPurpose: "Name matches a generic " + prefix + "-style helper.",
				FeatureTag:      "utility",
			}
		}
	}

	return nil
}

// IsDeadCode reports whether e is unexported with zero inbound
// calls/imports/references.
func IsDeadCode(e graph.Entity, inboundCount int) bool {
	return !e.Exported && inboundCount == 0
}
