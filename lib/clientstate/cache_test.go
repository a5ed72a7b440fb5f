// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package clientstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/driftpack/driftpack/lib/storepath"
)

func mustPath(t *testing.T, s string) storepath.Path {
	t.Helper()
	p, err := storepath.ParsePath(s)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestOpenCreatesDirAndLocks(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	cache, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("Open did not create %s", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "cache.lock")); err != nil {
		t.Errorf("expected cache.lock to exist: %v", err)
	}
}

func TestImportAndListInfoFiles(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "abc-toplevel.narinfo"), []byte("StorePath: /nix/store/abc-toplevel\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	cache, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if err := cache.ImportInfoFiles([]string{filepath.Join(src, "abc-toplevel.narinfo")}); err != nil {
		t.Fatal(err)
	}

	files, err := cache.ListInfoFiles([]storepath.Path{mustPath(t, "/nix/store/abc-toplevel")})
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("ListInfoFiles = %v, want 1 entry", files)
	}
}

func TestImportInfoFilesOverwritesExisting(t *testing.T) {
	src := t.TempDir()
	path := filepath.Join(src, "abc-toplevel.narinfo")
	if err := os.WriteFile(path, []byte("first\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	cache, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer cache.Close()

	if err := cache.ImportInfoFiles([]string{path}); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("second\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := cache.ImportInfoFiles([]string{path}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "abc-toplevel.narinfo"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second\n" {
		t.Errorf("cached file = %q, want overwritten content", data)
	}
}
