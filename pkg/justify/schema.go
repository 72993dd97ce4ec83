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

// ResultSchema constrains single-entity structured generation, per
// .
var ResultSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"taxonomy":        map[string]any{"type": "string", "enum": []any{"VERTICAL", "HORIZONTAL", "UTILITY"}},
		"confidence":      map[string]any{"type": "number"},
		"businessPurpose": map[string]any{"type": "string"},
		"domainConcepts":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"featureTag":      map[string]any{"type": "string"},
		"semanticTriples": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"subject":   map[string]any{"type": "string"},
					"predicate": map[string]any{"type": "string"},
					"object":    map[string]any{"type": "string"},
				},
			},
		},
		"complianceTags":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"architecturalPattern": map[string]any{"type": "string"},
	},
	"required": []any{"taxonomy", "confidence", "businessPurpose", "domainConcepts", "featureTag"},
}

// BatchResultSchema wraps ResultSchema's fields under an explicit
// entityId per entry, so batch.go can match each response back to the
// entity that requested it.
var BatchResultSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"results": map[string]any{
			"type":  "array",
			"items": batchItemSchema(),
		},
	},
	"required": []any{"results"},
}

func batchItemSchema() map[string]any {
	baseProps := ResultSchema["properties"].(map[string]any)
	props := make(map[string]any, len(baseProps)+1)
	for k, v := range baseProps {
		props[k] = v
	}
	props["entityId"] = map[string]any{"type": "string"}

	baseRequired := ResultSchema["required"].([]any)
	required := append([]any{}, baseRequired...)
	required = append(required, "entityId")

	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
