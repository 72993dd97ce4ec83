// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ontology

import (
	"context"
	"fmt"
	"time"

	"github.com/kraklabs/cartograph/pkg/graph"
	"github.com/kraklabs/cartograph/pkg/ports"
)

// Engine runs Discover against a repo's current live entities and
// persists the result, the same index-once-then-pure-function shape
// pkg/graphanalysis.Engine and pkg/embedding.Engine use.
type Engine struct {
	graphStore ports.GraphStore
}

// NewEngine wires the graph store Engine reads entities from and writes
// the discovered ontology back to.
func NewEngine(graphStore ports.GraphStore) *Engine {
	return &Engine{graphStore: graphStore}
}

// Run discovers and persists repoID's DomainOntology.
func (e *Engine) Run(ctx context.Context, repoID string) error {
	entities, err := e.graphStore.GetAllEntities(ctx, repoID)
	if err != nil {
		return fmt.Errorf("get entities: %w", err)
	}

	var live []graph.Entity
	for _, ent := range entities {
		if !ent.Quarantined {
			live = append(live, ent)
		}
	}

	ont := Discover(repoID, live)
	ont.GeneratedAt = time.Now()
	if err := e.graphStore.PutDomainOntology(ctx, ont); err != nil {
		return fmt.Errorf("put domain ontology: %w", err)
	}
	return nil
}
