// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package storeio is the only place in the build and execute pipelines
// that shells out to the external store toolchain (the list-generations
// command runs nix-env on its own). It defines the [Store] capability
// interface the rest of the pipelines depend on, plus a
// subprocess-backed implementation. Tests exercise the pipelines
// against the in-memory fakestore package instead of this one.
package storeio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/driftpack/driftpack/lib/errs"
)

// fallbackBinDir is where the reference store toolchain installs its
// binaries when it is not on PATH (e.g. a single-user Determinate Nix
// install). Checked only after a PATH lookup fails.
const fallbackBinDir = "/nix/var/nix/profiles/default/bin"

// findBinary resolves a toolchain binary by name, checking PATH first
// and then fallbackBinDir.
func findBinary(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	fallback := filepath.Join(fallbackBinDir, name)
	if _, err := os.Stat(fallback); err == nil {
		return fallback, nil
	}
	return "", fmt.Errorf("%s not found on PATH or at %s", name, fallback)
}

// runTool resolves binaryName and executes it with args, returning
// stdout. Stderr is captured separately and surfaced through
// [errs.ExternalToolFailure] on non-zero exit, since the store
// toolchain writes its diagnostic output there.
func runTool(ctx context.Context, op string, binaryName string, args ...string) (string, error) {
	binaryPath, err := findBinary(binaryName)
	if err != nil {
		return "", &errs.ExternalToolFailure{Op: op, Err: err}
	}

	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, binaryPath, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", &errs.ExternalToolFailure{
			Op:     fmt.Sprintf("%s (%s %s)", op, binaryName, strings.Join(args, " ")),
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return stdout.String(), nil
}
