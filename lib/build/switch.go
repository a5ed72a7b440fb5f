// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package build

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftpack/driftpack/lib/instruction"
	"github.com/driftpack/driftpack/lib/storeio"
	"github.com/driftpack/driftpack/lib/storepath"
)

// SwitchParams names everything needed to build a Switch command.
type SwitchParams struct {
	FlakeURI    string
	Hostname    string
	NewRevision storepath.Revision
	Mode        storeio.ActivationMode

	WorkdirStoreDir string
}

// BuildSwitch builds the new revision's toplevel output and emits a
// Switch command activating it. The build reuses the same toplevel
// output BuildLoad produced when the two share a workdir and
// revision; callers building both commands for one instruction should
// pass the same WorkdirStoreDir and NewRevision to both.
func BuildSwitch(ctx context.Context, store storeio.Store, params SwitchParams, logger *slog.Logger) (instruction.Command, error) {
	logger.Info("build: building toplevel for switch", "hostname", params.Hostname, "revision", params.NewRevision.String())
	result, err := store.BuildToplevel(ctx, params.FlakeURI, params.NewRevision, params.Hostname, params.WorkdirStoreDir)
	if err != nil {
		return instruction.Command{}, fmt.Errorf("build: build toplevel for switch: %w", err)
	}
	root := storepath.StoreRoot{NixPath: result.Output, GitRevision: result.Revision}
	return instruction.NewSwitch(root, params.Mode), nil
}
