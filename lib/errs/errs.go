// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package errs defines the structured error taxonomy raised by the
// build and execute pipelines. Each kind is its own exported type
// satisfying error, with a matching IsXxx predicate so callers can
// branch on kind without inspecting message text.
package errs

import (
	"errors"
	"fmt"
)

// ExternalToolFailure is raised when an external subprocess (the
// store toolchain or the activation verb) exits non-zero.
type ExternalToolFailure struct {
	Op     string
	Stderr string
	Err    error
}

func (e *ExternalToolFailure) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalToolFailure) Unwrap() error { return e.Err }

func IsExternalToolFailure(err error) bool {
	var target *ExternalToolFailure
	return errors.As(err, &target)
}

// ExternalOutputMalformed is raised when a subprocess's stdout cannot
// be parsed into the expected shape.
type ExternalOutputMalformed struct {
	Op  string
	Raw string
	Err error
}

func (e *ExternalOutputMalformed) Error() string {
	return fmt.Sprintf("%s: malformed output: %v", e.Op, e.Err)
}

func (e *ExternalOutputMalformed) Unwrap() error { return e.Err }

func IsExternalOutputMalformed(err error) bool {
	var target *ExternalOutputMalformed
	return errors.As(err, &target)
}

// UnknownHostname is raised when the requested hostname is absent
// from the flake's declared configurations.
type UnknownHostname struct {
	Hostname  string
	Available []string
}

func (e *UnknownHostname) Error() string {
	return fmt.Sprintf("unknown hostname %q (available: %v)", e.Hostname, e.Available)
}

func IsUnknownHostname(err error) bool {
	var target *UnknownHostname
	return errors.As(err, &target)
}

// ClosureCycle is raised when the delta engine detects a cycle in
// store-path references, which should never happen if the store is
// well formed.
type ClosureCycle struct {
	Path string
}

func (e *ClosureCycle) Error() string {
	return fmt.Sprintf("closure cycle detected at %s", e.Path)
}

func IsClosureCycle(err error) bool {
	var target *ClosureCycle
	return errors.As(err, &target)
}

// ArchiveIncomplete is raised when the archive subsetter cannot find
// a requested data or info entry in the source archive.
type ArchiveIncomplete struct {
	Kind string // "data" or "info"
	Path string
}

func (e *ArchiveIncomplete) Error() string {
	return fmt.Sprintf("archive missing %s entry for %s", e.Kind, e.Path)
}

func IsArchiveIncomplete(err error) bool {
	var target *ArchiveIncomplete
	return errors.As(err, &target)
}

// InvalidInstruction is raised when instruction.json or the
// instruction directory layout fails validation. Reasons holds every
// issue found, not just the first.
type InvalidInstruction struct {
	Reasons []string
}

func (e *InvalidInstruction) Error() string {
	if len(e.Reasons) == 1 {
		return fmt.Sprintf("invalid instruction: %s", e.Reasons[0])
	}
	return fmt.Sprintf("invalid instruction: %d issues (first: %s)", len(e.Reasons), e.Reasons[0])
}

func IsInvalidInstruction(err error) bool {
	var target *InvalidInstruction
	return errors.As(err, &target)
}

// UnknownCommandKind is raised when an instruction contains a
// discriminator not present in the command registry.
type UnknownCommandKind struct {
	Kind string
}

func (e *UnknownCommandKind) Error() string {
	return fmt.Sprintf("unknown command kind %q", e.Kind)
}

func IsUnknownCommandKind(err error) bool {
	var target *UnknownCommandKind
	return errors.As(err, &target)
}

// MissingDependencyMetadata is raised when a partial-narinfo Load
// needs an info file for a delta dependency and finds it in neither
// the target store nor the client state cache.
type MissingDependencyMetadata struct {
	Path string
}

func (e *MissingDependencyMetadata) Error() string {
	return fmt.Sprintf("missing dependency metadata for %s", e.Path)
}

func IsMissingDependencyMetadata(err error) bool {
	var target *MissingDependencyMetadata
	return errors.As(err, &target)
}

// ImportFailed is raised when the store tool refuses an import (hash
// mismatch, disk full, and similar).
type ImportFailed struct {
	Path string
	Err  error
}

func (e *ImportFailed) Error() string {
	return fmt.Sprintf("import failed for %s: %v", e.Path, e.Err)
}

func (e *ImportFailed) Unwrap() error { return e.Err }

func IsImportFailed(err error) bool {
	var target *ImportFailed
	return errors.As(err, &target)
}

// ActivationFailed is raised when the activation verb exits non-zero.
type ActivationFailed struct {
	Path string
	Mode string
	Err  error
}

func (e *ActivationFailed) Error() string {
	return fmt.Sprintf("activation of %s (%s) failed: %v", e.Path, e.Mode, e.Err)
}

func (e *ActivationFailed) Unwrap() error { return e.Err }

func IsActivationFailed(err error) bool {
	var target *ActivationFailed
	return errors.As(err, &target)
}

// ExitCode maps an error kind to a process exit code category,
// following the convention the CLI's main function checks for via
// the ExitCode() int interface.
func ExitCode(err error) int {
	switch {
	case IsUnknownHostname(err), IsInvalidInstruction(err), IsUnknownCommandKind(err):
		return 2
	case IsArchiveIncomplete(err), IsMissingDependencyMetadata(err):
		return 3
	case IsExternalToolFailure(err), IsExternalOutputMalformed(err):
		return 4
	case IsImportFailed(err), IsActivationFailed(err), IsClosureCycle(err):
		return 5
	default:
		return 1
	}
}
