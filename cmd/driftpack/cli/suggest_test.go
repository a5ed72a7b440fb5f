// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestSuggestCommandFindsCloseMatch(t *testing.T) {
	commands := []*Command{
		{Name: "build-instruction"},
		{Name: "apply-instruction"},
		{Name: "list-generations"},
	}

	got := suggestCommand("bild-instruction", commands)
	if got != "build-instruction" {
		t.Errorf("suggestCommand() = %q, want %q", got, "build-instruction")
	}
}

func TestSuggestCommandReturnsEmptyForNoMatch(t *testing.T) {
	commands := []*Command{{Name: "build-instruction"}}
	if got := suggestCommand("zzzzzzzzzz", commands); got != "" {
		t.Errorf("suggestCommand() = %q, want empty", got)
	}
}

func TestSuggestFlagFindsCloseMatch(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.String("hostname", "", "target hostname")
	flagSet.String("flake-uri", "", "flake URI")

	got := suggestFlag([]string{"--hostnam"}, flagSet)
	if got != "--hostname" {
		t.Errorf("suggestFlag() = %q, want %q", got, "--hostname")
	}
}

func TestSuggestFlagIgnoresDefinedFlags(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.String("hostname", "", "target hostname")

	if got := suggestFlag([]string{"--hostname"}, flagSet); got != "" {
		t.Errorf("suggestFlag() = %q, want empty for a flag that is already defined", got)
	}
}
