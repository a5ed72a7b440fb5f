// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package binhash converts between the [32]byte SHA256 digest type and
// its canonical hex string representation.
//
// driftpack uses this to verify instruction archives end to end across
// a peer-to-peer transfer: [lib/transfer]'s SendFile and ReceiveFile
// each hash the archive bytes in a single pass as they stream (via
// io.TeeReader/io.MultiWriter), then exchange the resulting digest as
// a trailing 32-byte trailer; a mismatch means the transfer is
// rejected rather than handed to the apply pipeline.
//
// The API surface is two functions:
//
//   - [FormatDigest] -- converts a [32]byte digest to its canonical
//     hex-encoded string representation, used on the wire and in log
//     output
//   - [ParseDigest] -- parses a hex-encoded digest string back to a
//     [32]byte array, validating length and encoding
//
// This package has no dependencies on other driftpack packages.
package binhash
