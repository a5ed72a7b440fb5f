// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package transfer

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/driftpack/driftpack/lib/binhash"
)

// SendFile streams path across conn, preceded by its size and followed
// by its SHA256 digest, so the receiver knows when the transfer is
// complete and can detect corruption introduced by the relay without
// trusting the data channel's own delivery guarantees.
func SendFile(conn net.Conn, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("transfer: opening %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("transfer: stat %s: %w", path, err)
	}

	var header [8]byte
	binary.BigEndian.PutUint64(header[:], uint64(info.Size()))
	if _, err := conn.Write(header[:]); err != nil {
		return fmt.Errorf("transfer: writing size header: %w", err)
	}

	hasher := sha256.New()
	if _, err := io.Copy(conn, io.TeeReader(file, hasher)); err != nil {
		return fmt.Errorf("transfer: sending %s: %w", path, err)
	}

	var digest [32]byte
	copy(digest[:], hasher.Sum(nil))
	if _, err := conn.Write(digest[:]); err != nil {
		return fmt.Errorf("transfer: writing digest trailer: %w", err)
	}
	return nil
}

// ReceiveFile reads a size-prefixed, digest-suffixed stream from conn
// (as written by SendFile) and writes it to path. Returns an error if
// the trailing digest does not match what was actually received,
// rather than handing a possibly corrupt archive to the caller.
func ReceiveFile(conn net.Conn, path string) error {
	var header [8]byte
	if _, err := io.ReadFull(conn, header[:]); err != nil {
		return fmt.Errorf("transfer: reading size header: %w", err)
	}
	size := binary.BigEndian.Uint64(header[:])

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("transfer: creating %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.CopyN(io.MultiWriter(file, hasher), conn, int64(size)); err != nil {
		return fmt.Errorf("transfer: receiving %s: %w", path, err)
	}

	var wantDigest [32]byte
	if _, err := io.ReadFull(conn, wantDigest[:]); err != nil {
		return fmt.Errorf("transfer: reading digest trailer: %w", err)
	}
	var gotDigest [32]byte
	copy(gotDigest[:], hasher.Sum(nil))
	if gotDigest != wantDigest {
		return fmt.Errorf("transfer: %s: digest mismatch, got %s want %s",
			path, binhash.FormatDigest(gotDigest), binhash.FormatDigest(wantDigest))
	}
	return nil
}
