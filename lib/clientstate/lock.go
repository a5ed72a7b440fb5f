// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package clientstate

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock is an advisory exclusive lock held over a cache directory for
// the duration of one executor run, resolving the original design's
// open question about concurrent cache access: two executor
// processes racing to update the same cache now serialize on this
// lock instead of interleaving writes.
type Lock struct {
	file *os.File
}

// AcquireLock opens (creating if necessary) the file at path and
// takes an exclusive flock on it, blocking until available.
func AcquireLock(path string) (*Lock, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("clientstate: open lock file %s: %w", path, err)
	}
	if err := unix.Flock(int(file.Fd()), unix.LOCK_EX); err != nil {
		file.Close()
		return nil, fmt.Errorf("clientstate: lock %s: %w", path, err)
	}
	return &Lock{file: file}, nil
}

// Release unlocks and closes the lock file.
func (l *Lock) Release() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return fmt.Errorf("clientstate: unlock: %w", err)
	}
	return l.file.Close()
}
