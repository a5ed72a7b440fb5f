// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/driftpack/driftpack/lib/errs"
	"github.com/driftpack/driftpack/lib/storepath"
)

func mustPath(t *testing.T, raw string) storepath.Path {
	t.Helper()
	p, err := storepath.ParsePath(raw)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", raw, err)
	}
	return p
}

func TestMakeSubsetCopiesOnlyRequestedEntries(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "subset")

	a := mustPath(t, "/nix/store/aaa-one")
	b := mustPath(t, "/nix/store/bbb-two")

	writeFile(t, filepath.Join(source, a.HashPrefix()), "data-a")
	writeFile(t, filepath.Join(source, b.HashPrefix()), "data-b")
	writeFile(t, filepath.Join(source, infoFileName(a)), "info-a")
	writeFile(t, filepath.Join(source, infoFileName(b)), "info-b")

	if err := MakeSubset(source, dest, []storepath.Path{a}, []storepath.Path{a, b}); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(dest, a.HashPrefix())); err != nil {
		t.Errorf("expected data entry for a: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, b.HashPrefix())); err != nil {
		t.Errorf("expected data entry for b: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, infoFileName(a))); err != nil {
		t.Errorf("expected info entry for a: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dest, infoFileName(b))); !os.IsNotExist(err) {
		t.Errorf("expected no info entry for b, got err=%v", err)
	}
}

func TestMakeSubsetMissingEntryIsArchiveIncomplete(t *testing.T) {
	source := t.TempDir()
	dest := filepath.Join(t.TempDir(), "subset")
	missing := mustPath(t, "/nix/store/ccc-missing")

	err := MakeSubset(source, dest, nil, []storepath.Path{missing})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errs.IsArchiveIncomplete(err) {
		t.Errorf("error = %v, want ArchiveIncomplete", err)
	}
}

func TestMakeSubsetClearsPriorContents(t *testing.T) {
	dest := t.TempDir()
	writeFile(t, filepath.Join(dest, "stale"), "leftover")

	source := t.TempDir()
	if err := MakeSubset(source, dest, nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dest, "stale")); !os.IsNotExist(err) {
		t.Errorf("expected stale entry removed, got err=%v", err)
	}
}

func TestListInfoFilesFiltersByHashPrefix(t *testing.T) {
	dir := t.TempDir()
	a := mustPath(t, "/nix/store/aaa-one")
	b := mustPath(t, "/nix/store/bbb-two")
	writeFile(t, filepath.Join(dir, infoFileName(a)), "info-a")
	writeFile(t, filepath.Join(dir, infoFileName(b)), "info-b")

	found, err := ListInfoFiles(dir, []storepath.Path{a})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || filepath.Base(found[0]) != infoFileName(a) {
		t.Errorf("found = %v, want only %s", found, infoFileName(a))
	}
}

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
