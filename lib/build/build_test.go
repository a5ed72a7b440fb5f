// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/driftpack/driftpack/lib/archive"
	"github.com/driftpack/driftpack/lib/instruction"
	"github.com/driftpack/driftpack/lib/storeio"
	"github.com/driftpack/driftpack/lib/storeio/fakestore"
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

func mustRevision(t *testing.T, s string) storepath.Revision {
	t.Helper()
	r, err := storepath.ParseRevision(s)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const oldRev = "1111111111111111111111111111111111111111"
const newRev = "2222222222222222222222222222222222222222"

func seedFakeStore(t *testing.T) *fakestore.Store {
	t.Helper()
	store := fakestore.New()
	store.Hostnames = []string{"web1"}

	oldOutput := mustPath(t, "/nix/store/aaa-toplevel")
	base := mustPath(t, "/nix/store/bbb-base")
	newOutput := mustPath(t, "/nix/store/ccc-toplevel")
	extra := mustPath(t, "/nix/store/ddd-extra")

	store.Builds["web1@"+oldRev] = fakestore.HostBuild{
		Output: oldOutput,
		Closure: map[string]storepath.PathInfo{
			oldOutput.String(): {Path: oldOutput, NarHash: "sha256-old", NarSize: 10, References: []storepath.Path{base}},
			base.String():      {Path: base, NarHash: "sha256-base", NarSize: 5},
		},
	}
	store.Builds["web1@"+newRev] = fakestore.HostBuild{
		Output: newOutput,
		Closure: map[string]storepath.PathInfo{
			newOutput.String(): {Path: newOutput, NarHash: "sha256-new", NarSize: 12, References: []storepath.Path{base, extra}},
			base.String():      {Path: base, NarHash: "sha256-base", NarSize: 5},
			extra.String():     {Path: extra, NarHash: "sha256-extra", NarSize: 7},
		},
	}
	return store
}

func TestBuildLoadMaterializesOnlyAddedData(t *testing.T) {
	store := seedFakeStore(t)
	workdir := t.TempDir()
	instrDir := filepath.Join(workdir, "instruction")
	if err := os.MkdirAll(instrDir, 0o755); err != nil {
		t.Fatal(err)
	}

	command, _, err := BuildLoad(context.Background(), store, LoadParams{
		FlakeURI:          "github:example/flake",
		Hostname:          "web1",
		NewRevision:       mustRevision(t, newRev),
		DeltaDepRevisions: []storepath.Revision{mustRevision(t, oldRev)},
		ArchiveFolderName: "archive",
		PartialNarinfos:   true,
		WorkdirStoreDir:   filepath.Join(workdir, "store"),
		WorkdirArchiveDir: filepath.Join(workdir, "srcarchive"),
		InstructionDir:    instrDir,
	}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if command.Kind != instruction.KindLoad || command.Load == nil {
		t.Fatalf("command = %+v, want a Load command", command)
	}
	if len(command.Load.DeltaDependencies) != 1 {
		t.Fatalf("DeltaDependencies = %v, want 1 entry", command.Load.DeltaDependencies)
	}

	archiveDir := filepath.Join(instrDir, "archive")
	// "base" is shared with the delta dependency's closure and is
	// excluded from added; the new toplevel and "extra" are both new
	// relative to the old closure. PartialNarinfos ships narinfos only
	// for the added set, not the whole resulting closure.
	for _, name := range []string{"ddd-extra.narinfo", "ddd-extra", "ccc-toplevel.narinfo", "ccc-toplevel"} {
		if _, err := os.Stat(filepath.Join(archiveDir, name)); err != nil {
			t.Errorf("expected %s to exist: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(archiveDir, "bbb-base.narinfo")); err == nil {
		t.Errorf("bbb-base.narinfo should not be present: it is already in the delta dependency's closure")
	}
}

func TestBuildLoadFullNarinfosIncludesWholeClosure(t *testing.T) {
	store := seedFakeStore(t)
	workdir := t.TempDir()
	instrDir := filepath.Join(workdir, "instruction")
	if err := os.MkdirAll(instrDir, 0o755); err != nil {
		t.Fatal(err)
	}

	_, _, err := BuildLoad(context.Background(), store, LoadParams{
		FlakeURI:          "github:example/flake",
		Hostname:          "web1",
		NewRevision:       mustRevision(t, newRev),
		DeltaDepRevisions: nil,
		ArchiveFolderName: "archive",
		PartialNarinfos:   false,
		WorkdirStoreDir:   filepath.Join(workdir, "store"),
		WorkdirArchiveDir: filepath.Join(workdir, "srcarchive"),
		InstructionDir:    instrDir,
	}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	archiveDir := filepath.Join(instrDir, "archive")
	for _, name := range []string{"ccc-toplevel.narinfo", "bbb-base.narinfo", "ddd-extra.narinfo"} {
		if _, err := os.Stat(filepath.Join(archiveDir, name)); err != nil {
			t.Errorf("expected %s to exist with full narinfos: %v", name, err)
		}
	}
}

func TestBuildSwitchEmitsActivationCommand(t *testing.T) {
	store := seedFakeStore(t)
	workdir := t.TempDir()

	command, err := BuildSwitch(context.Background(), store, SwitchParams{
		FlakeURI:        "github:example/flake",
		Hostname:        "web1",
		NewRevision:     mustRevision(t, newRev),
		Mode:            storeio.ActivateImmediate,
		WorkdirStoreDir: filepath.Join(workdir, "store"),
	}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if command.Kind != instruction.KindSwitch || command.Switch == nil {
		t.Fatalf("command = %+v, want a Switch command", command)
	}
	if command.Switch.Mode != storeio.ActivateImmediate {
		t.Errorf("Mode = %v", command.Switch.Mode)
	}
}

func TestInstructionProducesCompressedFile(t *testing.T) {
	store := seedFakeStore(t)
	dest := filepath.Join(t.TempDir(), "instruction.driftpack")

	_, err := Instruction(context.Background(), store, InstructionParams{
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

	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected compressed instruction at %s: %v", dest, err)
	}

	extractDir := t.TempDir()
	if err := archive.Unpack(dest, extractDir); err != nil {
		t.Fatal(err)
	}
	instr, err := instruction.ReadFile(extractDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(instr.Commands) != 2 {
		t.Fatalf("Commands = %v, want 2", instr.Commands)
	}
	if instr.Commands[0].Kind != instruction.KindLoad || instr.Commands[1].Kind != instruction.KindSwitch {
		t.Errorf("commands = %+v, want [load, switch]", instr.Commands)
	}
}

func TestInstructionDryRunSkipsDestinationFile(t *testing.T) {
	store := seedFakeStore(t)
	dest := filepath.Join(t.TempDir(), "instruction.driftpack")

	summary, err := Instruction(context.Background(), store, InstructionParams{
		FlakeURI:          "github:example/flake",
		Hostname:          "web1",
		PastRevisions:     []storepath.Revision{mustRevision(t, oldRev)},
		NewRevision:       mustRevision(t, newRev),
		DestinationPath:   dest,
		PartialNarinfos:   true,
		CompressAlgorithm: archive.AlgorithmZstd,
		ActivationMode:    storeio.ActivateImmediate,
		DryRun:            true,
	}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if summary.Commands != 2 {
		t.Errorf("summary.Commands = %d, want 2", summary.Commands)
	}
	if summary.DeltaDependencies != 1 {
		t.Errorf("summary.DeltaDependencies = %d, want 1", summary.DeltaDependencies)
	}
	if summary.AddedPaths != 2 {
		t.Errorf("summary.AddedPaths = %d, want 2 (new toplevel + extra)", summary.AddedPaths)
	}
	if summary.TotalPaths != 3 {
		t.Errorf("summary.TotalPaths = %d, want 3 (toplevel + base + extra)", summary.TotalPaths)
	}
	if summary.AddedBytes == 0 || summary.TotalBytes == 0 {
		t.Errorf("expected non-zero byte totals, got added=%d total=%d", summary.AddedBytes, summary.TotalBytes)
	}
	if _, err := os.Stat(dest); err == nil {
		t.Errorf("expected no file at %s in dry-run mode", dest)
	}
}
