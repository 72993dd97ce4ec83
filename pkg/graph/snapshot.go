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
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// CompactEntity is the wire-compact projection of Entity used in snapshot
// exports: short field names, no computed risk/pagerank fields (those are
// re-derived by graph-analysis on load rather than shipped).
type CompactEntity struct {
	ID        string `msgpack:"i"`
	RepoID    string `msgpack:"r"`
	Kind      Kind   `msgpack:"k"`
	Name      string `msgpack:"n"`
	FilePath  string `msgpack:"f"`
	StartLine int    `msgpack:"s"`
	EndLine   int    `msgpack:"e"`
	Language  string `msgpack:"l"`
	Signature string `msgpack:"g"`
	Exported  bool   `msgpack:"x"`
	Doc       string `msgpack:"d"`
	Parent    string `msgpack:"p"`
	Body      string `msgpack:"b"`
}

// CompactEdge is the wire-compact projection of Edge.
type CompactEdge struct {
	From string   `msgpack:"f"`
	To   string   `msgpack:"t"`
	Kind EdgeKind `msgpack:"k"`
}

// Snapshot is the full exportable contents of one repo's graph at a point
// in time: every non-quarantined entity and edge, msgpack-encoded, with a
// checksum so a restore can detect truncated or corrupted transfers before
// writing anything to the store.
type Snapshot struct {
	RepoID       string          `msgpack:"repo_id"`
	IndexVersion string          `msgpack:"index_version"`
	GeneratedAt  time.Time       `msgpack:"generated_at"`
	Entities     []CompactEntity `msgpack:"entities"`
	Edges        []CompactEdge   `msgpack:"edges"`
}

// ToCompactEntity drops e's computed and quarantine fields for transport.
func ToCompactEntity(e Entity) CompactEntity {
	return CompactEntity{
		ID:        e.ID,
		RepoID:    e.RepoID,
		Kind:      e.Kind,
		Name:      e.Name,
		FilePath:  e.FilePath,
		StartLine: e.StartLine,
		EndLine:   e.EndLine,
		Language:  e.Language,
		Signature: e.Signature,
		Exported:  e.Exported,
		Doc:       e.Doc,
		Parent:    e.Parent,
		Body:      e.Body,
	}
}

func ToCompactEdge(e Edge) CompactEdge {
	return CompactEdge{From: e.From, To: e.To, Kind: e.Kind}
}

// EncodeSnapshot msgpack-encodes s and returns the payload together with its
// hex-encoded SHA-256 checksum, computed over the encoded bytes so the
// checksum travels independently of any msgpack-library version skew
// between writer and reader.
func EncodeSnapshot(s Snapshot) (payload []byte, checksum string, err error) {
	payload, err = msgpack.Marshal(s)
	if err != nil {
		return nil, "", fmt.Errorf("encode snapshot: %w", err)
	}
	sum := sha256.Sum256(payload)
	return payload, hex.EncodeToString(sum[:]), nil
}

// DecodeSnapshot verifies payload against wantChecksum before decoding, so a
// truncated or bit-flipped transfer is rejected before any of its contents
// reach the graph store.
func DecodeSnapshot(payload []byte, wantChecksum string) (Snapshot, error) {
	sum := sha256.Sum256(payload)
	got := hex.EncodeToString(sum[:])
	if wantChecksum != "" && got != wantChecksum {
		return Snapshot{}, fmt.Errorf("snapshot checksum mismatch: want %s got %s", wantChecksum, got)
	}
	var s Snapshot
	if err := msgpack.Unmarshal(payload, &s); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return s, nil
}
