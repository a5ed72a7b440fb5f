// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/driftpack/driftpack/lib/errs"
	"github.com/driftpack/driftpack/lib/storepath"
)

// infoSuffix is the file extension for a store path's metadata
// record within an archive directory.
const infoSuffix = ".narinfo"

// MakeSubset materializes destDir with exactly the info entries for
// infoPaths and the data entries for dataPaths, drawn from
// sourceArchive. Prior contents of destDir are removed first. Neither
// list need be a subset of the other.
func MakeSubset(sourceArchive string, destDir string, infoPaths []storepath.Path, dataPaths []storepath.Path) error {
	if err := os.RemoveAll(destDir); err != nil {
		return fmt.Errorf("archive: remove %s: %w", destDir, err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("archive: mkdir %s: %w", destDir, err)
	}

	for _, path := range infoPaths {
		if err := copyEntry(sourceArchive, destDir, infoFileName(path), "info", path.String()); err != nil {
			return err
		}
	}
	for _, path := range dataPaths {
		if err := copyEntry(sourceArchive, destDir, path.HashPrefix(), "data", path.String()); err != nil {
			return err
		}
	}
	return nil
}

func infoFileName(path storepath.Path) string {
	return path.HashPrefix() + infoSuffix
}

func copyEntry(sourceArchive string, destDir string, name string, kind string, pathForError string) error {
	src := filepath.Join(sourceArchive, name)
	info, err := os.Stat(src)
	if err != nil || info.IsDir() {
		return &errs.ArchiveIncomplete{Kind: kind, Path: pathForError}
	}

	dest := filepath.Join(destDir, name)
	if kind == "data" {
		// Data entries may be directories (a store path's contents
		// are frequently a directory tree); copy recursively.
		return copyRecursive(src, dest)
	}
	return copyFile(src, dest, info.Mode())
}

func copyRecursive(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dest, info.Mode())
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := copyRecursive(filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// ListInfoFiles returns the absolute paths, within dir, of every
// *.narinfo file whose store-hash prefix matches one of nixPaths.
func ListInfoFiles(dir string, nixPaths []storepath.Path) ([]string, error) {
	wanted := make(map[string]struct{}, len(nixPaths))
	for _, path := range nixPaths {
		wanted[infoFileName(path)] = struct{}{}
	}

	var found []string
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: read dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if _, ok := wanted[entry.Name()]; ok {
			found = append(found, filepath.Join(dir, entry.Name()))
		}
	}
	return found, nil
}
