// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import "fmt"

// ValidateEntity rejects malformed or unknown-kind entities before they
// reach a store. This is the "unknown-kind inputs are rejected by the
// validator" redesign flag applied to the dynamic-typed payloads the
// original system passed around as maps.
func ValidateEntity(e Entity) error {
	if e.ID == "" {
		return fmt.Errorf("entity: id is required")
	}
	if e.RepoID == "" {
		return fmt.Errorf("entity %s: repo_id is required", e.ID)
	}
	if e.FilePath == "" {
		return fmt.Errorf("entity %s: file_path is required", e.ID)
	}
	if !ValidKinds[e.Kind] {
		return fmt.Errorf("entity %s: unknown kind %q", e.ID, e.Kind)
	}
	if e.Kind != KindFile && e.Kind != KindDirectory && e.Name == "" {
		return fmt.Errorf("entity %s: name is required for kind %q", e.ID, e.Kind)
	}
	return nil
}

// ValidateEdge rejects malformed or unknown-kind edges.
func ValidateEdge(e Edge) error {
	if e.From == "" || e.To == "" {
		return fmt.Errorf("edge %s: from/to are required", e.Key)
	}
	if !ValidEdgeKinds[e.Kind] {
		return fmt.Errorf("edge %s: unknown kind %q", e.Key, e.Kind)
	}
	return nil
}

// ValidateEntities validates every entity and edge in a batch, returning
// the first error encountered. Edges are also checked for dangling
// references against the entity set supplied (entityIDs), mirroring the
// invariant that contains/calls/etc. must never point at a missing node.
func ValidateEntities(entities []Entity, edges []Edge, entityIDs map[string]bool) error {
	for _, e := range entities {
		if err := ValidateEntity(e); err != nil {
			return err
		}
	}
	for _, e := range edges {
		if err := ValidateEdge(e); err != nil {
			return err
		}
		if entityIDs != nil {
			if !entityIDs[e.From] {
				return fmt.Errorf("edge %s: dangling reference, from=%s not in entity set", e.Key, e.From)
			}
			if !entityIDs[e.To] {
				return fmt.Errorf("edge %s: dangling reference, to=%s not in entity set", e.Key, e.To)
			}
		}
	}
	return nil
}
