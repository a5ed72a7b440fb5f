// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package delta computes the set of store objects that differ between
// one or more "from" closures and a single "to" closure. It is a pure
// function over [storepath.PathInfo] data; it never touches the
// store itself.
package delta

import (
	"fmt"
	"sort"

	"github.com/driftpack/driftpack/lib/errs"
	"github.com/driftpack/driftpack/lib/storepath"
)

// Delta is the result of comparing a "to" closure against the union
// of zero or more "from" closures.
type Delta struct {
	// Added holds every PathInfo in the "to" closure whose path is
	// not present in any "from" closure.
	Added []storepath.PathInfo
	// AllResultingItems holds the full "to" closure.
	AllResultingItems []storepath.PathInfo
}

// PathInfoByPath is the minimal lookup the engine needs from the
// store I/O adapter: given a set of roots, the PathInfo for every
// path in the union of their closures.
type PathInfoByPath = map[string]storepath.PathInfo

// Compute builds the Delta between the union of fromClosures and
// toClosure. Both arguments are already-resolved closures (keyed by
// path string) as returned by the store I/O adapter's path-info
// query; Compute does no I/O of its own.
func Compute(fromClosures []PathInfoByPath, toClosure PathInfoByPath) (Delta, error) {
	fromUnion := make(map[string]struct{})
	for _, closure := range fromClosures {
		for path := range closure {
			fromUnion[path] = struct{}{}
		}
	}

	ordered, err := topoSort(toClosure)
	if err != nil {
		return Delta{}, err
	}

	added := make([]storepath.PathInfo, 0, len(ordered))
	for _, info := range ordered {
		if _, present := fromUnion[info.Path.String()]; !present {
			added = append(added, info)
		}
	}

	return Delta{Added: added, AllResultingItems: ordered}, nil
}

// topoSort orders closure so that every path appears after all paths
// it references, breaking ties lexicographically on path string for
// determinism. Detects reference cycles, which should never occur in
// a well-formed store.
func topoSort(closure PathInfoByPath) ([]storepath.PathInfo, error) {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[string]int, len(closure))
	result := make([]storepath.PathInfo, 0, len(closure))

	// Visit in a deterministic starting order so that, absent a
	// dependency constraint, output order is also deterministic.
	keys := make([]string, 0, len(closure))
	for k := range closure {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var visit func(path string) error
	visit = func(path string) error {
		switch state[path] {
		case done:
			return nil
		case visiting:
			return &errs.ClosureCycle{Path: path}
		}
		info, ok := closure[path]
		if !ok {
			// Referenced path outside the supplied closure: treat as
			// an external leaf with no further references.
			state[path] = done
			return nil
		}
		state[path] = visiting

		refs := make([]string, 0, len(info.References))
		for _, ref := range info.References {
			if ref.String() != path {
				refs = append(refs, ref.String())
			}
		}
		sort.Strings(refs)
		for _, ref := range refs {
			if err := visit(ref); err != nil {
				return err
			}
		}

		state[path] = done
		result = append(result, info)
		return nil
	}

	for _, k := range keys {
		if err := visit(k); err != nil {
			return nil, fmt.Errorf("delta: %w", err)
		}
	}
	return result, nil
}
