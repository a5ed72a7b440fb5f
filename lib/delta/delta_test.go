// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package delta

import (
	"testing"

	"github.com/driftpack/driftpack/lib/storepath"
)

func mustPath(t *testing.T, raw string) storepath.Path {
	t.Helper()
	p, err := storepath.ParsePath(raw)
	if err != nil {
		t.Fatalf("ParsePath(%q): %v", raw, err)
	}
	return p
}

func TestComputeEmptyFromYieldsFullClosureAsAdded(t *testing.T) {
	root := mustPath(t, "/nix/store/aaa-root")
	leaf := mustPath(t, "/nix/store/bbb-leaf")
	to := PathInfoByPath{
		root.String(): {Path: root, References: []storepath.Path{leaf}},
		leaf.String(): {Path: leaf},
	}

	got, err := Compute(nil, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Added) != 2 {
		t.Fatalf("Added = %d items, want 2", len(got.Added))
	}
	if len(got.AllResultingItems) != 2 {
		t.Fatalf("AllResultingItems = %d items, want 2", len(got.AllResultingItems))
	}
	// leaf must precede root since root references leaf.
	if got.Added[0].Path.String() != leaf.String() {
		t.Errorf("Added[0] = %s, want leaf %s first", got.Added[0].Path, leaf)
	}
}

func TestComputeExcludesFromUnion(t *testing.T) {
	shared := mustPath(t, "/nix/store/aaa-shared")
	newOnly := mustPath(t, "/nix/store/bbb-new")

	from := PathInfoByPath{shared.String(): {Path: shared}}
	to := PathInfoByPath{
		shared.String():  {Path: shared},
		newOnly.String(): {Path: newOnly, References: []storepath.Path{shared}},
	}

	got, err := Compute([]PathInfoByPath{from}, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Added) != 1 || got.Added[0].Path.String() != newOnly.String() {
		t.Fatalf("Added = %v, want only %s", got.Added, newOnly)
	}
	if len(got.AllResultingItems) != 2 {
		t.Fatalf("AllResultingItems = %d, want 2", len(got.AllResultingItems))
	}
}

func TestComputeSameRootIsNoOp(t *testing.T) {
	root := mustPath(t, "/nix/store/aaa-root")
	closure := PathInfoByPath{root.String(): {Path: root}}

	got, err := Compute([]PathInfoByPath{closure}, closure)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Added) != 0 {
		t.Fatalf("Added = %v, want empty", got.Added)
	}
}

func TestComputeDetectsCycle(t *testing.T) {
	a := mustPath(t, "/nix/store/aaa-a")
	b := mustPath(t, "/nix/store/bbb-b")
	to := PathInfoByPath{
		a.String(): {Path: a, References: []storepath.Path{b}},
		b.String(): {Path: b, References: []storepath.Path{a}},
	}
	if _, err := Compute(nil, to); err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestTopoOrderRespectsReferences(t *testing.T) {
	a := mustPath(t, "/nix/store/aaa-a")
	b := mustPath(t, "/nix/store/bbb-b")
	c := mustPath(t, "/nix/store/ccc-c")
	to := PathInfoByPath{
		a.String(): {Path: a, References: []storepath.Path{b, c}},
		b.String(): {Path: b, References: []storepath.Path{c}},
		c.String(): {Path: c},
	}
	got, err := Compute(nil, to)
	if err != nil {
		t.Fatal(err)
	}
	index := make(map[string]int, len(got.AllResultingItems))
	for i, info := range got.AllResultingItems {
		index[info.Path.String()] = i
	}
	if index[c.String()] > index[b.String()] || index[b.String()] > index[a.String()] {
		t.Fatalf("expected order c, b, a; got %v", got.AllResultingItems)
	}
}
