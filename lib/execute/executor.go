// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package execute

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/driftpack/driftpack/lib/archive"
	"github.com/driftpack/driftpack/lib/clientstate"
	"github.com/driftpack/driftpack/lib/instruction"
	"github.com/driftpack/driftpack/lib/storeio"
)

// Params names the inputs to applying one instruction file.
type Params struct {
	InstructionFile     string
	TargetStoreRoot     string
	ClientStateStoreDir string

	// WorkdirRoot is the parent directory for the scratch directory
	// the instruction is decompressed into. Empty means the system
	// temp directory.
	WorkdirRoot string
}

// Apply decompresses instructionFile, validates it, and runs its
// commands against store in order, stopping at the first failure. The
// temporary decompression directory is removed on success and left in
// place on failure, for diagnosis.
func Apply(ctx context.Context, store storeio.Store, params Params, logger *slog.Logger) error {
	workdir, err := os.MkdirTemp(params.WorkdirRoot, "driftpack-apply-*")
	if err != nil {
		return fmt.Errorf("execute: create workdir: %w", err)
	}

	logger.Info("execute: decompressing instruction", "file", params.InstructionFile, "workdir", workdir)
	if err := archive.Unpack(params.InstructionFile, workdir); err != nil {
		return fmt.Errorf("execute: unpack instruction: %w", err)
	}

	instr, err := instruction.ValidateDir(workdir)
	if err != nil {
		// Validation failures leave the workdir for diagnosis, same
		// as a command execution failure, since the shape of the
		// decompressed instruction is itself the thing under
		// inspection.
		return err
	}

	cache, err := clientstate.Open(params.ClientStateStoreDir)
	if err != nil {
		return fmt.Errorf("execute: open client-state cache: %w", err)
	}
	defer cache.Close()

	loadCtx := LoadContext{
		TargetStoreRoot: params.TargetStoreRoot,
		ClientState:     cache,
		InstructionDir:  workdir,
	}

	for index, command := range instr.Commands {
		logger.Info("execute: running command", "index", index, "kind", command.Kind)
		switch command.Kind {
		case instruction.KindLoad:
			if err := RunLoad(ctx, store, command.Load, loadCtx, logger); err != nil {
				return fmt.Errorf("execute: command %d (load): %w", index, err)
			}
		case instruction.KindSwitch:
			if err := RunSwitch(ctx, store, command.Switch, logger); err != nil {
				return fmt.Errorf("execute: command %d (switch): %w", index, err)
			}
		}
	}

	logger.Info("execute: removing workdir", "workdir", workdir)
	if err := os.RemoveAll(workdir); err != nil {
		return fmt.Errorf("execute: remove workdir: %w", err)
	}
	return nil
}
