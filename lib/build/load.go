// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package build implements the build-host half of the instruction
// pipeline: producing Load and Switch commands against the store
// toolchain, and assembling them into a compressed instruction file.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/driftpack/driftpack/lib/archive"
	"github.com/driftpack/driftpack/lib/delta"
	"github.com/driftpack/driftpack/lib/instruction"
	"github.com/driftpack/driftpack/lib/storeio"
	"github.com/driftpack/driftpack/lib/storepath"
)

// LoadParams names everything needed to build one Load command.
type LoadParams struct {
	FlakeURI          string
	Hostname          string
	NewRevision       storepath.Revision
	DeltaDepRevisions []storepath.Revision
	ArchiveFolderName string
	PartialNarinfos   bool

	WorkdirStoreDir   string
	WorkdirArchiveDir string
	InstructionDir    string
}

// BuildLoad builds the new and delta-dependency revisions, computes
// the delta between them, and materializes the resulting archive
// subset inside InstructionDir/ArchiveFolderName. The returned Command
// is ready to append to an Instruction.
func BuildLoad(ctx context.Context, store storeio.Store, params LoadParams, logger *slog.Logger) (instruction.Command, delta.Delta, error) {
	var oldRoots []storepath.StoreRoot
	oldClosures := make([]delta.PathInfoByPath, 0, len(params.DeltaDepRevisions))

	for _, rev := range params.DeltaDepRevisions {
		logger.Info("build: resolving delta dependency", "revision", rev.String())
		result, err := store.BuildToplevel(ctx, params.FlakeURI, rev, params.Hostname, params.WorkdirStoreDir)
		if err != nil {
			return instruction.Command{}, delta.Delta{}, fmt.Errorf("build: build delta dependency %s: %w", rev.String(), err)
		}
		closure, err := store.QueryPathInfo(ctx, params.WorkdirStoreDir, []storepath.Path{result.Output})
		if err != nil {
			return instruction.Command{}, delta.Delta{}, fmt.Errorf("build: query path info for %s: %w", rev.String(), err)
		}
		oldRoots = append(oldRoots, storepath.StoreRoot{NixPath: result.Output, GitRevision: result.Revision})
		oldClosures = append(oldClosures, closure)
	}

	logger.Info("build: building toplevel", "hostname", params.Hostname, "revision", params.NewRevision.String())
	newResult, err := store.BuildToplevel(ctx, params.FlakeURI, params.NewRevision, params.Hostname, params.WorkdirStoreDir)
	if err != nil {
		return instruction.Command{}, delta.Delta{}, fmt.Errorf("build: build toplevel: %w", err)
	}
	newRoot := storepath.StoreRoot{NixPath: newResult.Output, GitRevision: newResult.Revision}

	logger.Info("build: exporting to archive", "output", newResult.Output.String())
	if err := store.ExportToArchive(ctx, params.WorkdirStoreDir, params.WorkdirArchiveDir, newResult.Output); err != nil {
		return instruction.Command{}, delta.Delta{}, fmt.Errorf("build: export to archive: %w", err)
	}

	newClosure, err := store.QueryPathInfo(ctx, params.WorkdirStoreDir, []storepath.Path{newResult.Output})
	if err != nil {
		return instruction.Command{}, delta.Delta{}, fmt.Errorf("build: query path info for new output: %w", err)
	}

	logger.Info("build: computing delta", "fromRevisions", len(oldClosures))
	computed, err := delta.Compute(oldClosures, newClosure)
	if err != nil {
		return instruction.Command{}, delta.Delta{}, fmt.Errorf("build: compute delta: %w", err)
	}

	addedPaths := pathsOf(computed.Added)
	var infoPaths []storepath.Path
	if params.PartialNarinfos {
		infoPaths = addedPaths
	} else {
		infoPaths = pathsOf(computed.AllResultingItems)
	}

	destDir := filepath.Join(params.InstructionDir, params.ArchiveFolderName)
	logger.Info("build: materializing archive subset", "dir", destDir, "added", len(addedPaths), "info", len(infoPaths))
	if err := archive.MakeSubset(params.WorkdirArchiveDir, destDir, infoPaths, addedPaths); err != nil {
		return instruction.Command{}, delta.Delta{}, fmt.Errorf("build: make archive subset: %w", err)
	}

	return instruction.NewLoad(params.ArchiveFolderName, newRoot, oldRoots, params.PartialNarinfos), computed, nil
}

func pathsOf(infos []storepath.PathInfo) []storepath.Path {
	paths := make([]storepath.Path, len(infos))
	for i, info := range infos {
		paths[i] = info.Path
	}
	return paths
}
