// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package execute

import (
	"context"
	"log/slog"

	"github.com/driftpack/driftpack/lib/errs"
	"github.com/driftpack/driftpack/lib/instruction"
	"github.com/driftpack/driftpack/lib/storeio"
)

// RunSwitch activates sw.Item as a new generation of the system
// rooted at "/". Target store root for activation is always the root
// filesystem; the parameter exists on [storeio.Store] only for
// symmetry with the other store operations, which do operate against
// arbitrary store directories during testing and archive staging.
func RunSwitch(ctx context.Context, store storeio.Store, sw *instruction.Switch, logger *slog.Logger) error {
	logger.Info("execute: activating generation", "item", sw.Item.NixPath.String(), "mode", sw.Mode)
	if err := store.ActivateGeneration(ctx, "/", sw.Item.NixPath, sw.Mode); err != nil {
		return &errs.ActivationFailed{Path: sw.Item.NixPath.String(), Mode: string(sw.Mode), Err: err}
	}
	return nil
}
