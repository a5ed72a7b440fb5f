// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package storeio

import (
	"context"

	"github.com/driftpack/driftpack/lib/storepath"
)

// ActivationMode selects how a generation is made active.
type ActivationMode string

const (
	// ActivateImmediate switches the running system to the new
	// generation right away.
	ActivateImmediate ActivationMode = "immediate"
	// ActivateNextReboot registers the new generation as the boot
	// default without switching the running system.
	ActivateNextReboot ActivationMode = "next-reboot"
)

// BuildResult is the outcome of building one flake attribute.
type BuildResult struct {
	Derivation storepath.Path
	Output     storepath.Path
	Revision   storepath.Revision
}

// Store is the capability interface over the external store
// toolchain. It is the only thing in the build and execute pipelines
// that performs subprocess I/O; everything else is pure or operates
// on already-resolved data. Tests use the in-memory implementation in
// lib/storeio/fakestore instead of the real, subprocess-backed one.
type Store interface {
	// ResolveRevision resolves ref (a branch, tag, or empty for the
	// default) against flakeURI to a 40-char commit id.
	ResolveRevision(ctx context.Context, flakeURI string, ref string) (storepath.Revision, error)

	// BuildToplevel builds the toplevel output of
	// nixosConfigurations.<hostname> at revision, in the store rooted
	// at storeDir. Returns errs.UnknownHostname if hostname is not
	// declared by the flake.
	BuildToplevel(ctx context.Context, flakeURI string, revision storepath.Revision, hostname string, storeDir string) (BuildResult, error)

	// QueryPathInfo returns PathInfo for the full closure of every
	// root in roots, as queried against storeDir.
	QueryPathInfo(ctx context.Context, storeDir string, roots []storepath.Path) (map[string]storepath.PathInfo, error)

	// ExportToArchive copies the closure of root, from storeDir, into
	// archiveDir (a plain directory in the native archive layout).
	ExportToArchive(ctx context.Context, storeDir string, archiveDir string, root storepath.Path) error

	// ImportFromArchive imports the closure of root from archiveDir
	// into the store rooted at targetStoreDir.
	ImportFromArchive(ctx context.Context, archiveDir string, root storepath.Path, targetStoreDir string) error

	// ActivateGeneration activates path as a new generation of the
	// system rooted at targetStoreRoot (almost always "/" — see the
	// package-level note in lib/execute about non-root activation).
	ActivateGeneration(ctx context.Context, targetStoreRoot string, path storepath.Path, mode ActivationMode) error
}
