// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package incremental

import (
	"sort"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// DefaultCascadeMaxDepth bounds how many caller-levels the cascade
// re-justification step walks:  stops "after 2 levels
// or once a level produces no new entities", whichever comes first.
const DefaultCascadeMaxDepth = 2

// ComputeCascade walks the call/reference graph backward from changed,
// breadth-first, up to maxDepth levels, and returns every entity ID —
// changed entities included — that the justify engine must re-run over.
// A level that adds nothing new stops the walk early even if maxDepth has
// not been reached.
func ComputeCascade(edges []graph.Edge, changed []string, maxDepth int) map[string]bool {
	if maxDepth <= 0 {
		maxDepth = DefaultCascadeMaxDepth
	}

	callers := make(map[string][]string)
	for _, e := range edges {
		if e.Kind == graph.EdgeCalls || e.Kind == graph.EdgeReferences {
			callers[e.To] = append(callers[e.To], e.From)
		}
	}

	result := make(map[string]bool, len(changed))
	frontier := make([]string, 0, len(changed))
	for _, id := range changed {
		result[id] = true
		frontier = append(frontier, id)
	}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		seen := map[string]bool{}
		var next []string
		for _, id := range frontier {
			for _, caller := range callers[id] {
				if result[caller] || seen[caller] {
					continue
				}
				seen[caller] = true
				next = append(next, caller)
			}
		}
		if len(next) == 0 {
			break
		}
		sort.Strings(next)
		for _, id := range next {
			result[id] = true
		}
		frontier = next
	}

	return result
}
