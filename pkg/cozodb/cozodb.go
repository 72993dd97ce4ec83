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

//go:build cgo

package cozodb

/*
#cgo LDFLAGS: -lcozo_c
#include <stdlib.h>
#include "cozo_c.h"
*/
import "C"

import (
	"encoding/json"
	"fmt"
	"sync"
	"unsafe"
)

// CozoDB wraps one open CozoDB instance handle.
type CozoDB struct {
	id int32
	mu sync.Mutex
}

// NamedRows is the decoded result of a Datalog query: column headers plus
// one []any per row, numbers surfacing as float64 per Cozo's JSON encoding.
type NamedRows struct {
	Headers []string
	Rows    [][]any
}

// New opens (or creates) a CozoDB instance at path using the given storage
// engine ("mem", "sqlite", or "rocksdb"). options is passed through as the
// engine-specific options JSON object; nil uses engine defaults.
func New(engine, path string, options map[string]any) (CozoDB, error) {
	optJSON := "{}"
	if options != nil {
		b, err := json.Marshal(options)
		if err != nil {
			return CozoDB{}, fmt.Errorf("marshal cozodb options: %w", err)
		}
		optJSON = string(b)
	}

	cEngine := C.CString(engine)
	defer C.free(unsafe.Pointer(cEngine))
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))
	cOpts := C.CString(optJSON)
	defer C.free(unsafe.Pointer(cOpts))

	var id C.int32_t
	ok := C.cozo_open_db(cEngine, cPath, cOpts, &id)
	if ok != 0 {
		return CozoDB{}, fmt.Errorf("cozodb: open failed (engine=%s path=%s): code %d", engine, path, int(ok))
	}
	return CozoDB{id: int32(id)}, nil
}

// Run executes a Datalog script, which may include mutations.
func (db *CozoDB) Run(script string, params map[string]any) (NamedRows, error) {
	return db.run(script, params, false)
}

// RunReadOnly executes a Datalog script under read-only semantics,
// enforced by the CozoDB engine itself rather than by convention.
func (db *CozoDB) RunReadOnly(script string, params map[string]any) (NamedRows, error) {
	return db.run(script, params, true)
}

func (db *CozoDB) run(script string, params map[string]any, readOnly bool) (NamedRows, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	paramJSON := "{}"
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return NamedRows{}, fmt.Errorf("marshal cozodb params: %w", err)
		}
		paramJSON = string(b)
	}

	cScript := C.CString(script)
	defer C.free(unsafe.Pointer(cScript))
	cParams := C.CString(paramJSON)
	defer C.free(unsafe.Pointer(cParams))

	var cReadOnly C.int32_t
	if readOnly {
		cReadOnly = 1
	}

	cResult := C.cozo_run_query(C.int32_t(db.id), cScript, cParams, cReadOnly)
	defer C.cozo_free_str(cResult)

	raw := C.GoString(cResult)
	var decoded struct {
		OK      bool             `json:"ok"`
		Headers []string         `json:"headers"`
		Rows    [][]any          `json:"rows"`
		Message string           `json:"display"`
		Display string           `json:"message"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return NamedRows{}, fmt.Errorf("cozodb: decode result: %w", err)
	}
	if !decoded.OK {
		msg := decoded.Message
		if msg == "" {
			msg = decoded.Display
		}
		return NamedRows{}, fmt.Errorf("cozodb: query failed: %s", msg)
	}

	return NamedRows{Headers: decoded.Headers, Rows: decoded.Rows}, nil
}

// Backup writes a full backup of the database to path.
func (db *CozoDB) Backup(path string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	ok := C.cozo_backup(C.int32_t(db.id), cPath)
	if ok != 0 {
		return fmt.Errorf("cozodb: backup failed: code %d", int(ok))
	}
	return nil
}

// Restore replaces the database's contents with a prior backup at path.
func (db *CozoDB) Restore(path string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	ok := C.cozo_restore(C.int32_t(db.id), cPath)
	if ok != 0 {
		return fmt.Errorf("cozodb: restore failed: code %d", int(ok))
	}
	return nil
}

// Close releases the underlying CozoDB handle. Safe to call once; a
// second call is a no-op from the caller's point of view since the
// engine-side handle is already gone.
func (db *CozoDB) Close() {
	db.mu.Lock()
	defer db.mu.Unlock()
	C.cozo_close_db(C.int32_t(db.id))
}
