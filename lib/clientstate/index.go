// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package clientstate

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// indexFileName is the optional lookup index kept alongside the flat
// *.narinfo files. It is purely an accelerator for ListInfoFiles on
// caches with many thousands of entries; the directory listing
// remains the single source of truth, so a missing, corrupt, or
// stale index is rebuilt rather than trusted.
const indexFileName = "index.cbor"

// indexEntry records one info file's name and modification time.
// ModTime is recorded only; staleness is detected by entry count alone
// (see loadIndex).
type indexEntry struct {
	Name    string    `cbor:"name"`
	ModTime time.Time `cbor:"modTime"`
}

type index struct {
	Entries []indexEntry `cbor:"entries"`
}

// rebuildIndex scans dir for *.narinfo files and writes a fresh
// index.cbor. Called whenever loadIndex finds the existing index
// missing, corrupt, or inconsistent with the directory listing.
func rebuildIndex(dir string) (index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return index{}, err
	}

	var idx index
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) != ".narinfo" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		idx.Entries = append(idx.Entries, indexEntry{Name: entry.Name(), ModTime: info.ModTime()})
	}

	data, err := cbor.Marshal(idx)
	if err != nil {
		return index{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, indexFileName), data, 0o644); err != nil {
		return index{}, err
	}
	return idx, nil
}

// loadIndex reads index.cbor from dir, rebuilding it from a directory
// scan if it is absent, unparseable, or lists a different number of
// entries than the directory's actual *.narinfo files. Names and
// modification times are not compared.
func loadIndex(dir string) (index, error) {
	data, err := os.ReadFile(filepath.Join(dir, indexFileName))
	if err != nil {
		return rebuildIndex(dir)
	}

	var idx index
	if err := cbor.Unmarshal(data, &idx); err != nil {
		return rebuildIndex(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return index{}, err
	}
	actualCount := 0
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".narinfo" {
			actualCount++
		}
	}
	if actualCount != len(idx.Entries) {
		return rebuildIndex(dir)
	}

	return idx, nil
}
