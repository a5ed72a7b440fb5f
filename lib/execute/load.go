// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package execute implements the target-host half of the instruction
// pipeline: consuming a decompressed instruction directory and
// running its commands against the local store, enriching delta
// dependency metadata from the client-state cache along the way.
package execute

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/driftpack/driftpack/lib/clientstate"
	"github.com/driftpack/driftpack/lib/errs"
	"github.com/driftpack/driftpack/lib/instruction"
	"github.com/driftpack/driftpack/lib/storeio"
	"github.com/driftpack/driftpack/lib/storepath"
)

// LoadContext names the shared state an executor run threads through
// every Load command.
type LoadContext struct {
	TargetStoreRoot string
	ClientState     *clientstate.Cache
	InstructionDir  string
}

// RunLoad executes one Load command, in the order the design
// requires: dependency metadata enrichment, then store import, then
// client-state cache append.
func RunLoad(ctx context.Context, store storeio.Store, load *instruction.Load, loadCtx LoadContext, logger *slog.Logger) error {
	absoluteArchive := filepath.Join(loadCtx.InstructionDir, load.ArchivePath)

	before, err := listInfoFiles(absoluteArchive)
	if err != nil {
		return fmt.Errorf("execute: snapshot archive info files: %w", err)
	}

	if load.PartialNarinfos {
		logger.Info("execute: enriching delta dependency metadata", "dependencies", len(load.DeltaDependencies))
		if err := enrichDependencyMetadata(ctx, store, loadCtx, load, absoluteArchive); err != nil {
			return err
		}
	}

	logger.Info("execute: importing archive", "item", load.Item.NixPath.String())
	if err := store.ImportFromArchive(ctx, absoluteArchive, load.Item.NixPath, loadCtx.TargetStoreRoot); err != nil {
		if errs.IsImportFailed(err) {
			return err
		}
		return &errs.ImportFailed{Path: load.Item.NixPath.String(), Err: err}
	}

	logger.Info("execute: appending to client-state cache", "files", len(before))
	if err := loadCtx.ClientState.ImportInfoFiles(before); err != nil {
		return fmt.Errorf("execute: append to client-state cache: %w", err)
	}

	return nil
}

// listInfoFiles returns the absolute paths of every *.narinfo file
// directly inside dir.
func listInfoFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".narinfo" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// enrichDependencyMetadata copies, into absoluteArchive, the info
// files for every path in the closures of load's delta dependencies,
// drawn from the target store's own metadata and the client-state
// cache. A dependency path with no cached info file is a hard error:
// PartialNarinfos asserts the target can supply it.
func enrichDependencyMetadata(ctx context.Context, store storeio.Store, loadCtx LoadContext, load *instruction.Load, absoluteArchive string) error {
	var roots []storepath.Path
	for _, dep := range load.DeltaDependencies {
		roots = append(roots, dep.NixPath)
	}
	if len(roots) == 0 {
		return nil
	}

	closure, err := store.QueryPathInfo(ctx, loadCtx.TargetStoreRoot, roots)
	if err != nil {
		return fmt.Errorf("execute: query delta dependency path info: %w", err)
	}

	for _, info := range closure {
		files, err := loadCtx.ClientState.ListInfoFiles([]storepath.Path{info.Path})
		if err != nil {
			return fmt.Errorf("execute: look up cached metadata for %s: %w", info.Path.String(), err)
		}
		if len(files) == 0 {
			return &errs.MissingDependencyMetadata{Path: info.Path.String()}
		}
		if err := copyIntoArchive(files[0], absoluteArchive); err != nil {
			return err
		}
	}
	return nil
}

func copyIntoArchive(src string, destDir string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("execute: read cached metadata %s: %w", src, err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	dest := filepath.Join(destDir, filepath.Base(src))
	return os.WriteFile(dest, data, 0o644)
}
