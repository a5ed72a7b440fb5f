// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides the one binary entrypoint helper every
// driftpack command-line tool under cmd/driftpack shares: reporting an
// unrecoverable error to stderr and exiting, for errors surfaced
// before a structured logger exists or outside of one entirely.
package process
