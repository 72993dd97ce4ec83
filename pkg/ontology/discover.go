// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package ontology

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kraklabs/cartograph/pkg/graph"
)

const (
	maxTerms        = 50
	maxCategories   = 12
	maxFeatureAreas = 20
	minTermCount    = 2
)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "for": true, "with": true, "on": true, "at": true,
	"get": true, "set": true, "new": true, "id": true, "test": true, "tests": true,
	"util": true, "utils": true, "helper": true, "helpers": true, "internal": true,
	"pkg": true, "cmd": true, "src": true, "main": true, "index": true,
}

// skipDirs are path segments too generic to count as a feature area.
var skipDirs = map[string]bool{
	"pkg": true, "cmd": true, "internal": true, "src": true, "test": true,
	"tests": true, "vendor": true, "node_modules": true, ".git": true,
	"bin": true, "build": true, "dist": true,
}

var wordSplit = regexp.MustCompile(`[_\-/.]+`)

var camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)

// splitWords breaks a camelCase/snake_case/path-separated identifier into
// lowercase words, dropping anything shorter than 3 characters or in
// stopWords.
func splitWords(s string) []string {
	s = camelBoundary.ReplaceAllString(s, "${1}_${2}")
	parts := wordSplit.Split(s, -1)
	var out []string
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if len(p) < 3 || stopWords[p] {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Discover mines a DomainOntology from entity names and file paths:
// Terms are the most frequent identifier/path words, Categories are the
// most frequent entity Kind values rendered as labels, and FeatureAreas
// are path segments (directories) that group a meaningful number of
// entities and aren't one of the generic skipDirs.
func Discover(repoID string, entities []graph.Entity) graph.DomainOntology {
	termCounts := make(map[string]int)
	categoryCounts := make(map[string]int)
	dirCounts := make(map[string]int)

	for _, e := range entities {
		for _, w := range splitWords(e.Name) {
			termCounts[w]++
		}
		for _, w := range splitWords(e.FilePath) {
			termCounts[w]++
		}
		if e.Kind != "" {
			categoryCounts[string(e.Kind)]++
		}
		for _, dir := range pathDirs(e.FilePath) {
			if !skipDirs[dir] {
				dirCounts[dir]++
			}
		}
	}

	return graph.DomainOntology{
		RepoID:       repoID,
		Terms:        topByCount(termCounts, minTermCount, maxTerms),
		Categories:   topByCount(categoryCounts, 1, maxCategories),
		FeatureAreas: topByCount(dirCounts, minTermCount, maxFeatureAreas),
	}
}

// pathDirs returns every directory segment of a file path, excluding the
// file name itself.
func pathDirs(filePath string) []string {
	segments := strings.Split(filePath, "/")
	if len(segments) <= 1 {
		return nil
	}
	return segments[:len(segments)-1]
}

// topByCount returns keys with count >= minCount, sorted by count
// descending (ties broken alphabetically for determinism), capped at max.
func topByCount(counts map[string]int, minCount, max int) []string {
	type kv struct {
		key   string
		count int
	}
	var kvs []kv
	for k, c := range counts {
		if c >= minCount {
			kvs = append(kvs, kv{k, c})
		}
	}
	sort.Slice(kvs, func(i, j int) bool {
		if kvs[i].count != kvs[j].count {
			return kvs[i].count > kvs[j].count
		}
		return kvs[i].key < kvs[j].key
	})
	if len(kvs) > max {
		kvs = kvs[:max]
	}
	out := make([]string, len(kvs))
	for i, e := range kvs {
		out[i] = e.key
	}
	return out
}
