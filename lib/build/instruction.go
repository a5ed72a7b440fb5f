// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/driftpack/driftpack/lib/archive"
	"github.com/driftpack/driftpack/lib/instruction"
	"github.com/driftpack/driftpack/lib/storeio"
	"github.com/driftpack/driftpack/lib/storepath"
)

// InstructionParams names the inputs to building one complete
// instruction file: a Load command followed by a Switch command.
type InstructionParams struct {
	FlakeURI          string
	Hostname          string
	PastRevisions     []storepath.Revision
	NewRevision       storepath.Revision
	DestinationPath   string
	PartialNarinfos   bool
	CompressAlgorithm archive.Algorithm
	ActivationMode    storeio.ActivationMode

	// DryRun runs the build and delta computation and validates the
	// resulting instruction, but skips writing instruction.json and
	// packing DestinationPath. Used by "build-instruction --dry-run"
	// to preview what a build would produce without the cost of
	// compressing and writing the archive.
	DryRun bool
}

// Summary describes what a build produced, for --dry-run reporting.
type Summary struct {
	Hostname          string
	NewRevision       string
	DeltaDependencies int
	Commands          int

	// AddedPaths and TotalPaths count, respectively, the store paths
	// new relative to every delta dependency and the whole resulting
	// closure; AddedBytes and TotalBytes are their NarSize totals.
	// PartialNarinfos ships info files for AddedPaths only; a full
	// build ships TotalPaths.
	AddedPaths  int
	AddedBytes  int64
	TotalPaths  int
	TotalBytes  int64
}

// Instruction builds a workdir, populates it with a Load command
// (archive folder "archive") and a trailing Switch command, writes
// instruction.json, compresses the workdir into DestinationPath, and
// removes the workdir. The workdir's temporary store directory is
// reused across both commands so the Switch command's toplevel build
// is a cache hit against the Load command's build, not a rebuild.
func Instruction(ctx context.Context, store storeio.Store, params InstructionParams, logger *slog.Logger) (Summary, error) {
	workdir, err := os.MkdirTemp("", "driftpack-build-*")
	if err != nil {
		return Summary{}, fmt.Errorf("build: create workdir: %w", err)
	}
	defer os.RemoveAll(workdir)

	storeDir := filepath.Join(workdir, "store")
	archiveDir := filepath.Join(workdir, "archive")
	instructionDir := filepath.Join(workdir, "instruction")
	for _, dir := range []string{storeDir, archiveDir, instructionDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return Summary{}, fmt.Errorf("build: create %s: %w", dir, err)
		}
	}

	loadCommand, computedDelta, err := BuildLoad(ctx, store, LoadParams{
		FlakeURI:          params.FlakeURI,
		Hostname:          params.Hostname,
		NewRevision:       params.NewRevision,
		DeltaDepRevisions: params.PastRevisions,
		ArchiveFolderName: "archive",
		PartialNarinfos:   params.PartialNarinfos,
		WorkdirStoreDir:   storeDir,
		WorkdirArchiveDir: archiveDir,
		InstructionDir:    instructionDir,
	}, logger)
	if err != nil {
		return Summary{}, err
	}

	switchCommand, err := BuildSwitch(ctx, store, SwitchParams{
		FlakeURI:        params.FlakeURI,
		Hostname:        params.Hostname,
		NewRevision:     params.NewRevision,
		Mode:            params.ActivationMode,
		WorkdirStoreDir: storeDir,
	}, logger)
	if err != nil {
		return Summary{}, err
	}

	instr := instruction.New([]instruction.Command{loadCommand, switchCommand})
	if issues := instruction.Validate(instr); len(issues) > 0 {
		return Summary{}, fmt.Errorf("build: assembled instruction failed validation: %v", issues)
	}

	summary := Summary{
		Hostname:          params.Hostname,
		NewRevision:       params.NewRevision.String(),
		DeltaDependencies: len(params.PastRevisions),
		Commands:          len(instr.Commands),
		AddedPaths:        len(computedDelta.Added),
		TotalPaths:        len(computedDelta.AllResultingItems),
	}
	for _, info := range computedDelta.Added {
		summary.AddedBytes += info.NarSize
	}
	for _, info := range computedDelta.AllResultingItems {
		summary.TotalBytes += info.NarSize
	}

	if params.DryRun {
		logger.Info("build: dry run, skipping instruction write and compression")
		return summary, nil
	}

	if err := instr.WriteFile(instructionDir); err != nil {
		return Summary{}, err
	}

	logger.Info("build: compressing instruction", "destination", params.DestinationPath, "algorithm", params.CompressAlgorithm.String())
	if err := archive.Pack(instructionDir, params.DestinationPath, params.CompressAlgorithm); err != nil {
		return Summary{}, fmt.Errorf("build: pack instruction: %w", err)
	}

	return summary, nil
}
