// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for driftpack
// packages.
//
// [SocketDir] creates a short-named temporary directory suitable for
// Unix domain sockets. Unix domain sockets have a 108-byte path limit
// (sun_path in sockaddr_un), and a nested per-test t.TempDir() path
// can exceed that on some CI setups. The directory is automatically
// removed when the test completes.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with time.After fallback) so
// that individual tests do not need direct time.After calls.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no driftpack-internal dependencies.
package testutil
