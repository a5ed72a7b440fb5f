// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package clientstate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRebuildIndexCountsNarinfoFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.narinfo", "b.narinfo", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	idx, err := rebuildIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Entries) != 2 {
		t.Fatalf("Entries = %v, want 2 narinfo entries", idx.Entries)
	}
	if _, err := os.Stat(filepath.Join(dir, indexFileName)); err != nil {
		t.Errorf("expected %s to be written: %v", indexFileName, err)
	}
}

func TestLoadIndexRebuildsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.narinfo"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	idx, err := loadIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Entries) != 1 {
		t.Fatalf("Entries = %v, want 1", idx.Entries)
	}
}

func TestLoadIndexRebuildsWhenStale(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.narinfo"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := rebuildIndex(dir); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.narinfo"), []byte("y"), 0o644); err != nil {
		t.Fatal(err)
	}

	idx, err := loadIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Entries) != 2 {
		t.Fatalf("Entries = %v, want 2 after stale index rebuild", idx.Entries)
	}
}

func TestLoadIndexRebuildsWhenCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.narinfo"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, indexFileName), []byte("not cbor"), 0o644); err != nil {
		t.Fatal(err)
	}

	idx, err := loadIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(idx.Entries) != 1 {
		t.Fatalf("Entries = %v, want 1", idx.Entries)
	}
}
