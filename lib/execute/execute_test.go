// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package execute

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/driftpack/driftpack/lib/archive"
	"github.com/driftpack/driftpack/lib/build"
	"github.com/driftpack/driftpack/lib/clientstate"
	"github.com/driftpack/driftpack/lib/errs"
	"github.com/driftpack/driftpack/lib/storeio"
	"github.com/driftpack/driftpack/lib/storeio/fakestore"
	"github.com/driftpack/driftpack/lib/storepath"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mustPath(t *testing.T, s string) storepath.Path {
	t.Helper()
	p, err := storepath.ParsePath(s)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func mustRevision(t *testing.T, s string) storepath.Revision {
	t.Helper()
	r, err := storepath.ParseRevision(s)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

const oldRev = "3333333333333333333333333333333333333333"
const newRev = "4444444444444444444444444444444444444444"

func seedFakeStore(t *testing.T) (*fakestore.Store, string) {
	t.Helper()
	store := fakestore.New()
	targetStoreDir := t.TempDir()

	oldOutput := mustPath(t, "/nix/store/aaa-toplevel")
	base := mustPath(t, "/nix/store/bbb-base")
	newOutput := mustPath(t, "/nix/store/ccc-toplevel")
	extra := mustPath(t, "/nix/store/ddd-extra")

	store.Seed("web1", mustRevision(t, oldRev), targetStoreDir, fakestore.HostBuild{
		Output: oldOutput,
		Closure: map[string]storepath.PathInfo{
			oldOutput.String(): {Path: oldOutput, NarHash: "sha256-old", NarSize: 10, References: []storepath.Path{base}},
			base.String():      {Path: base, NarHash: "sha256-base", NarSize: 5},
		},
	})
	store.Builds["web1@"+newRev] = fakestore.HostBuild{
		Output: newOutput,
		Closure: map[string]storepath.PathInfo{
			newOutput.String(): {Path: newOutput, NarHash: "sha256-new", NarSize: 12, References: []storepath.Path{base, extra}},
			base.String():      {Path: base, NarHash: "sha256-base", NarSize: 5},
			extra.String():     {Path: extra, NarHash: "sha256-extra", NarSize: 7},
		},
	}
	return store, targetStoreDir
}

// buildInstructionFile runs the build pipeline end to end against the
// fake store to produce a real compressed instruction file, so the
// execute pipeline tests exercise the real decompression and
// validation path rather than a hand-assembled instruction.
func buildInstructionFile(t *testing.T, store *fakestore.Store) string {
	t.Helper()
	dest := filepath.Join(t.TempDir(), "instruction.driftpack")
	_, err := build.Instruction(context.Background(), store, build.InstructionParams{
		FlakeURI:          "github:example/flake",
		Hostname:          "web1",
		PastRevisions:     []storepath.Revision{mustRevision(t, oldRev)},
		NewRevision:       mustRevision(t, newRev),
		DestinationPath:   dest,
		PartialNarinfos:   true,
		CompressAlgorithm: archive.AlgorithmZstd,
		ActivationMode:    storeio.ActivateImmediate,
	}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	return dest
}

func TestApplyFailsWithoutDependencyMetadata(t *testing.T) {
	store, targetStoreDir := seedFakeStore(t)
	instructionFile := buildInstructionFile(t, store)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	err := Apply(context.Background(), store, Params{
		InstructionFile:     instructionFile,
		TargetStoreRoot:     targetStoreDir,
		ClientStateStoreDir: cacheDir,
	}, discardLogger())
	if err == nil {
		t.Fatal("expected an error: delta dependency metadata was never cached")
	}
	if !errs.IsMissingDependencyMetadata(err) {
		t.Errorf("error = %v, want MissingDependencyMetadata", err)
	}
}

func TestApplySucceedsWithCachedDependencyMetadata(t *testing.T) {
	store, targetStoreDir := seedFakeStore(t)
	instructionFile := buildInstructionFile(t, store)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	// Pre-populate the cache with the narinfo for the delta dependency
	// closure, as a prior successful Load would have left behind.
	cache, err := clientstate.Open(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	depInfoDir := t.TempDir()
	for _, name := range []string{"aaa-toplevel.narinfo", "bbb-base.narinfo"} {
		if err := os.WriteFile(filepath.Join(depInfoDir, name), []byte("StorePath: test\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := cache.ImportInfoFiles([]string{
		filepath.Join(depInfoDir, "aaa-toplevel.narinfo"),
		filepath.Join(depInfoDir, "bbb-base.narinfo"),
	}); err != nil {
		t.Fatal(err)
	}
	if err := cache.Close(); err != nil {
		t.Fatal(err)
	}

	err = Apply(context.Background(), store, Params{
		InstructionFile:     instructionFile,
		TargetStoreRoot:     targetStoreDir,
		ClientStateStoreDir: cacheDir,
	}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	newOutput := mustPath(t, "/nix/store/ccc-toplevel")
	if !store.HasPath(targetStoreDir, newOutput) {
		t.Error("expected new toplevel to be present in target store after import")
	}
	activated, mode, ok := store.Activated("/")
	if !ok {
		t.Fatal("expected a generation to have been activated")
	}
	if activated.String() != newOutput.String() || mode != storeio.ActivateImmediate {
		t.Errorf("activated = %s (%s), want %s (immediate)", activated, mode, newOutput)
	}
}

func TestApplyReturnsImportFailedOnImportError(t *testing.T) {
	store, targetStoreDir := seedFakeStore(t)
	store.ImportErr = errors.New("simulated import failure")
	instructionFile := buildInstructionFile(t, store)
	cacheDir := filepath.Join(t.TempDir(), "cache")

	cache, err := clientstate.Open(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	depInfoDir := t.TempDir()
	for _, name := range []string{"aaa-toplevel.narinfo", "bbb-base.narinfo"} {
		if err := os.WriteFile(filepath.Join(depInfoDir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	cache.ImportInfoFiles([]string{filepath.Join(depInfoDir, "aaa-toplevel.narinfo"), filepath.Join(depInfoDir, "bbb-base.narinfo")})
	cache.Close()

	err = Apply(context.Background(), store, Params{
		InstructionFile:     instructionFile,
		TargetStoreRoot:     targetStoreDir,
		ClientStateStoreDir: cacheDir,
	}, discardLogger())
	if err == nil {
		t.Fatal("expected import to fail")
	}
	if !errs.IsImportFailed(err) {
		t.Errorf("error = %v, want ImportFailed", err)
	}
}
