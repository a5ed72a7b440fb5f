// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package fakestore is an in-memory implementation of
// [github.com/driftpack/driftpack/lib/storeio.Store] used by the
// build and execute pipeline tests in place of a real store
// toolchain. It models a "world" of flakes, hostnames, and the
// objects each build produces, and a set of named stores (directories
// in the real adapter, map keys here) each holding a subset of that
// world's objects.
package fakestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/driftpack/driftpack/lib/errs"
	"github.com/driftpack/driftpack/lib/storeio"
	"github.com/driftpack/driftpack/lib/storepath"
)

// HostBuild is one canned build result: what building hostname at a
// given revision produces.
type HostBuild struct {
	Output     storepath.Path
	Closure    map[string]storepath.PathInfo
	Derivation storepath.Path
}

// Store is a test double for [storeio.Store]. Configure it by
// populating Builds (keyed by "hostname@revision") before running a
// pipeline against it; the fake then tracks which store directories
// hold which paths and which targets have had which generations
// activated.
type Store struct {
	// Builds maps "hostname@revision" to its canned build result.
	Builds map[string]HostBuild
	// Hostnames lists every hostname the fake flake declares, used to
	// answer UnknownHostname with a populated Available list.
	Hostnames []string

	// contents maps a store directory name to the set of paths it
	// holds.
	contents map[string]map[string]struct{}
	// archives maps an archive directory to the set of paths it holds.
	archives map[string]map[string]struct{}
	// activations records, per target store root, the last path
	// activated and with which mode.
	activations map[string]activation

	// ImportErr, when set, is returned by every ImportFromArchive call.
	ImportErr error
	// ActivateErr, when set, is returned by every ActivateGeneration call.
	ActivateErr error
}

type activation struct {
	path storepath.Path
	mode storeio.ActivationMode
}

// New returns an empty fake store.
func New() *Store {
	return &Store{
		Builds:       make(map[string]HostBuild),
		contents:     make(map[string]map[string]struct{}),
		archives:     make(map[string]map[string]struct{}),
		activations:  make(map[string]activation),
	}
}

// Seed registers a canned build for hostname at revision and, as a
// convenience, adds its closure to storeDir's contents (mirroring
// what a real BuildToplevel would leave behind).
func (s *Store) Seed(hostname string, revision storepath.Revision, storeDir string, build HostBuild) {
	s.Builds[key(hostname, revision)] = build
	s.addToStore(storeDir, build.Closure)
}

func key(hostname string, revision storepath.Revision) string {
	return hostname + "@" + revision.String()
}

func (s *Store) addToStore(storeDir string, closure map[string]storepath.PathInfo) {
	set, ok := s.contents[storeDir]
	if !ok {
		set = make(map[string]struct{})
		s.contents[storeDir] = set
	}
	for path := range closure {
		set[path] = struct{}{}
	}
}

func (s *Store) ResolveRevision(ctx context.Context, flakeURI string, ref string) (storepath.Revision, error) {
	return storepath.Revision{}, fmt.Errorf("fakestore: ResolveRevision not configured; call Seed with explicit revisions instead")
}

func (s *Store) BuildToplevel(ctx context.Context, flakeURI string, revision storepath.Revision, hostname string, storeDir string) (storeio.BuildResult, error) {
	build, ok := s.Builds[key(hostname, revision)]
	if !ok {
		found := false
		for _, h := range s.Hostnames {
			if h == hostname {
				found = true
			}
		}
		if !found && len(s.Hostnames) > 0 {
			available := append([]string(nil), s.Hostnames...)
			sort.Strings(available)
			return storeio.BuildResult{}, &errs.UnknownHostname{Hostname: hostname, Available: available}
		}
		return storeio.BuildResult{}, fmt.Errorf("fakestore: no build seeded for %s", key(hostname, revision))
	}
	s.addToStore(storeDir, build.Closure)
	return storeio.BuildResult{Derivation: build.Derivation, Output: build.Output, Revision: revision}, nil
}

func (s *Store) QueryPathInfo(ctx context.Context, storeDir string, roots []storepath.Path) (map[string]storepath.PathInfo, error) {
	// The fake answers from the union of every seeded build's closure
	// whose output is in roots — in practice storeDir's recorded
	// contents already contain everything we need since Seed and
	// BuildToplevel populate it.
	result := make(map[string]storepath.PathInfo)
	for _, build := range s.Builds {
		rootMatches := false
		for _, root := range roots {
			if root.String() == build.Output.String() {
				rootMatches = true
			}
		}
		if !rootMatches {
			continue
		}
		for path, info := range build.Closure {
			result[path] = info
		}
	}
	return result, nil
}

func (s *Store) ExportToArchive(ctx context.Context, storeDir string, archiveDir string, root storepath.Path) error {
	set, ok := s.contents[storeDir]
	if !ok || !contains(set, root.String()) {
		return &errs.ExternalToolFailure{Op: "exportToArchive", Err: fmt.Errorf("path %s not present in %s", root, storeDir)}
	}
	// Export the whole closure reachable from root within storeDir's
	// known contents: since the fake only tracks builds by output,
	// find the matching build and copy its full closure.
	archiveSet, ok := s.archives[archiveDir]
	if !ok {
		archiveSet = make(map[string]struct{})
		s.archives[archiveDir] = archiveSet
	}
	for _, build := range s.Builds {
		if build.Output.String() == root.String() {
			for path, info := range build.Closure {
				archiveSet[path] = struct{}{}
				if err := writeArchiveEntry(archiveDir, info); err != nil {
					return err
				}
			}
			return nil
		}
	}
	archiveSet[root.String()] = struct{}{}
	return nil
}

func (s *Store) ImportFromArchive(ctx context.Context, archiveDir string, root storepath.Path, targetStoreDir string) error {
	if s.ImportErr != nil {
		return s.ImportErr
	}
	archiveSet, ok := s.archives[archiveDir]
	if !ok {
		// An archive that went through an instruction file is unpacked
		// into a different directory than it was exported to; read its
		// data entries from disk instead.
		archiveSet = make(map[string]struct{})
		entries, _ := os.ReadDir(archiveDir)
		for _, entry := range entries {
			if filepath.Ext(entry.Name()) != ".narinfo" {
				archiveSet["/nix/store/"+entry.Name()] = struct{}{}
			}
		}
	}
	if !contains(archiveSet, root.String()) {
		return &errs.ImportFailed{Path: root.String(), Err: fmt.Errorf("archive %s does not contain %s", archiveDir, root)}
	}
	set, ok := s.contents[targetStoreDir]
	if !ok {
		set = make(map[string]struct{})
		s.contents[targetStoreDir] = set
	}
	for path := range archiveSet {
		set[path] = struct{}{}
	}
	return nil
}

// writeArchiveEntry materializes a dummy info file and data file for
// info on disk under archiveDir, in the layout lib/archive expects:
// "<hashPrefix>.narinfo" and a "<hashPrefix>" data file. Real content
// bytes are irrelevant to the pipelines under test; only presence and
// naming matter.
func writeArchiveEntry(archiveDir string, info storepath.PathInfo) error {
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return err
	}
	hashPrefix := info.Path.HashPrefix()
	narinfo := fmt.Sprintf("StorePath: %s\nNarHash: %s\nNarSize: %d\n", info.Path.String(), info.NarHash, info.NarSize)
	if err := os.WriteFile(filepath.Join(archiveDir, hashPrefix+".narinfo"), []byte(narinfo), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(archiveDir, hashPrefix), []byte(hashPrefix), 0o644)
}

func (s *Store) ActivateGeneration(ctx context.Context, targetStoreRoot string, path storepath.Path, mode storeio.ActivationMode) error {
	if s.ActivateErr != nil {
		return s.ActivateErr
	}
	s.activations[targetStoreRoot] = activation{path: path, mode: mode}
	return nil
}

// Activated returns the path and mode last activated against
// targetStoreRoot, or the zero value and false if nothing has been
// activated there yet.
func (s *Store) Activated(targetStoreRoot string) (storepath.Path, storeio.ActivationMode, bool) {
	a, ok := s.activations[targetStoreRoot]
	return a.path, a.mode, ok
}

// HasPath reports whether storeDir's recorded contents include path.
func (s *Store) HasPath(storeDir string, path storepath.Path) bool {
	set, ok := s.contents[storeDir]
	if !ok {
		return false
	}
	return contains(set, path.String())
}

func contains(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}
