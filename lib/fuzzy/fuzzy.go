// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package fuzzy ranks candidate strings against user input using the
// same fuzzy-matching scorer fzf uses for its interactive filter,
// so "did you mean" suggestions (unknown subcommands, unknown flags)
// rank the way an interactive fuzzy-finder would rather than by raw
// edit distance alone.
package fuzzy

import (
	"sort"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// slab16Size and slab32Size mirror fzf's own default working-memory allocation for
// the matcher; the slab is reused across every candidate in one
// Suggest call to avoid an allocation per candidate.
const (
	slab16Size = 100 * 1024
	slab32Size = 2048
)

// Suggest ranks candidates by fuzzy match quality against input and
// returns up to limit names, best match first. Candidates that do not
// match input as a fuzzy subsequence at all are excluded. A limit of
// 0 or less returns every matching candidate.
func Suggest(input string, candidates []string, limit int) []string {
	if input == "" || len(candidates) == 0 {
		return nil
	}

	pattern := []rune(input)
	slab := util.MakeSlab(slab16Size, slab32Size)

	type scored struct {
		text  string
		score int
	}
	var matches []scored

	for _, candidate := range candidates {
		chars := util.ToChars([]byte(candidate))
		result, _ := algo.FuzzyMatchV2(false, true, true, &chars, pattern, false, slab)
		if result.Score <= 0 {
			continue
		}
		matches = append(matches, scored{text: candidate, score: result.Score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.text
	}
	return out
}

// Best returns the single best match for input among candidates, or
// "" if nothing matched.
func Best(input string, candidates []string) string {
	suggestions := Suggest(input, candidates, 1)
	if len(suggestions) == 0 {
		return ""
	}
	return suggestions[0]
}
