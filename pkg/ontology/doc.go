// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ontology discovers a repo's DomainOntology (the discoverOntology
// pipeline step): a compact vocabulary of domain terms,
// category labels, and feature areas mined from entity names and file
// paths, which pkg/justify then uses as a vocabulary constraint during
// structured generation so the model invents feature tags from a fixed
// list instead of free text.
//
// Like pkg/graphanalysis, this package does its work as one pure pass
// over in-memory entities (Discover) plus a thin Engine that reads from
// and writes to ports.GraphStore — no learned model, just frequency
// counting over identifiers and paths.
package ontology
