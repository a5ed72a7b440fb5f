// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package fuzzy

import "testing"

func TestSuggestRanksCloseMatchFirst(t *testing.T) {
	candidates := []string{"web1", "web2", "database-primary", "cache-node"}
	got := Suggest("wb1", candidates, 3)
	if len(got) == 0 || got[0] != "web1" {
		t.Fatalf("Suggest(%q) = %v, want web1 first", "wb1", got)
	}
}

func TestSuggestEmptyInputReturnsNothing(t *testing.T) {
	if got := Suggest("", []string{"web1"}, 5); got != nil {
		t.Errorf("Suggest(\"\", ...) = %v, want nil", got)
	}
}

func TestSuggestRespectsLimit(t *testing.T) {
	candidates := []string{"web1", "web2", "web3", "web4"}
	got := Suggest("web", candidates, 2)
	if len(got) != 2 {
		t.Fatalf("Suggest with limit=2 returned %d results: %v", len(got), got)
	}
}

func TestBestReturnsEmptyWhenNothingMatches(t *testing.T) {
	if got := Best("zzz-no-match-xyz", []string{"web1", "web2"}); got != "" {
		t.Errorf("Best() = %q, want empty for no match", got)
	}
}
