// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package clientstate is the target-host cache remembering which
// info files have already been received, so future deltas can
// reference their store paths as dependencies without re-shipping
// the metadata. The canonical layout is a flat directory of
// *.narinfo files (lib/archive's naming convention); this package
// adds advisory locking and an optional lookup index on top.
package clientstate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftpack/driftpack/lib/archive"
	"github.com/driftpack/driftpack/lib/storepath"
)

// Cache is a handle on a target-local client metadata cache
// directory. It is created on first use and appended to after every
// successful Load command.
type Cache struct {
	dir  string
	lock *Lock
}

// Open prepares dir as a client metadata cache, creating it if
// necessary, and acquires the cache's advisory exclusive lock for the
// lifetime of the returned Cache. Callers must call Close when done.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("clientstate: mkdir %s: %w", dir, err)
	}
	lock, err := AcquireLock(filepath.Join(dir, "cache.lock"))
	if err != nil {
		return nil, err
	}
	return &Cache{dir: dir, lock: lock}, nil
}

// Close releases the cache's advisory lock.
func (c *Cache) Close() error {
	return c.lock.Release()
}

// Dir returns the cache directory.
func (c *Cache) Dir() string {
	return c.dir
}

// ListInfoFiles returns the absolute paths of every info file in the
// cache whose store-hash prefix matches one of nixPaths. The cache's
// index.cbor is consulted first to avoid a full directory scan; it is
// transparently rebuilt if stale or missing.
func (c *Cache) ListInfoFiles(nixPaths []storepath.Path) ([]string, error) {
	idx, err := loadIndex(c.dir)
	if err != nil {
		return archive.ListInfoFiles(c.dir, nixPaths)
	}

	wanted := make(map[string]struct{}, len(nixPaths))
	for _, path := range nixPaths {
		wanted[path.HashPrefix()+".narinfo"] = struct{}{}
	}

	var found []string
	for _, entry := range idx.Entries {
		if _, ok := wanted[entry.Name]; ok {
			found = append(found, filepath.Join(c.dir, entry.Name))
		}
	}
	return found, nil
}

// ImportInfoFiles copies each file in files into the cache by
// basename, overwriting any existing entry with the same name, then
// refreshes the lookup index to include the new entries.
func (c *Cache) ImportInfoFiles(files []string) error {
	for _, src := range files {
		dest := filepath.Join(c.dir, filepath.Base(src))
		if err := copyFile(src, dest); err != nil {
			return fmt.Errorf("clientstate: import %s: %w", src, err)
		}
	}
	if len(files) > 0 {
		if _, err := rebuildIndex(c.dir); err != nil {
			return fmt.Errorf("clientstate: rebuild index: %w", err)
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}
