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

package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
)

// EntityHash computes the deterministic ID for an entity. It is a pure
// function of its inputs: two identical entities produced by two separate
// runs (same repo, path, kind, name, signature) hash to the same ID, so
// justifications and embeddings keyed by entity ID survive re-indexing.
//
// Signature is optional (files/directories have none). Body is
// deliberately excluded so whitespace-only edits don't change the ID;
// staleness is instead detected by the separate BodyHash below.
func EntityHash(repoID, filePath string, kind Kind, name, signature string) string {
	norm := normalizePath(filePath)
	idStr := fmt.Sprintf("%s|%s|%s|%s|%s", repoID, norm, kind, name, signature)
	sum := sha256.Sum256([]byte(idStr))
	return hex.EncodeToString(sum[:])
}

// EdgeHash computes the deterministic key for an edge from its endpoints
// and kind. Two edges with the same (from, to, kind) always collapse to
// the same key, which is what makes bulk-upsert-by-key idempotent.
func EdgeHash(from, to string, kind EdgeKind) string {
	idStr := fmt.Sprintf("%s|%s|%s", from, to, kind)
	sum := sha256.Sum256([]byte(idStr))
	return hex.EncodeToString(sum[:])
}

// BodyHash computes the content hash used to detect staleness: a
// justification is reused across re-indexes only while BodyHash(body)
// matches the body_hash stamped on the prior justification.
func BodyHash(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

// normalizePath makes path hashing stable across platforms: forward
// slashes, no leading "./", no leading "/", cleaned of redundant
// separators.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "./") {
		path = path[2:]
	}
	path = filepath.Clean(path)
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "/")
	return path
}
