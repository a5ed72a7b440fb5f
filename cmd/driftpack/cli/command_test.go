// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommandExecuteDispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "driftpack",
		Subcommands: []*Command{
			{Name: "build-instruction", Run: func(args []string) error { called = "build-instruction"; return nil }},
			{Name: "apply-instruction", Run: func(args []string) error { called = "apply-instruction"; return nil }},
		},
	}

	if err := root.Execute([]string{"apply-instruction"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "apply-instruction" {
		t.Errorf("dispatched to %q, want %q", called, "apply-instruction")
	}
}

func TestCommandExecuteUnknownSubcommandSuggests(t *testing.T) {
	root := &Command{
		Name: "driftpack",
		Subcommands: []*Command{
			{Name: "build-instruction"},
		},
	}

	err := root.Execute([]string{"build-instrction"})
	if err == nil {
		t.Fatal("expected error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "build-instruction") {
		t.Errorf("error = %q, want a suggestion mentioning build-instruction", err.Error())
	}
}

func TestCommandExecuteFlagParsing(t *testing.T) {
	var hostname string

	root := &Command{
		Name: "build-instruction",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("build-instruction", pflag.ContinueOnError)
			fs.StringVar(&hostname, "hostname", "", "target hostname")
			return fs
		},
		Run: func(args []string) error { return nil },
	}

	if err := root.Execute([]string{"--hostname", "workstation"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if hostname != "workstation" {
		t.Errorf("hostname = %q, want %q", hostname, "workstation")
	}
}

func TestCommandExecuteUnknownFlagSuggests(t *testing.T) {
	root := &Command{
		Name: "build-instruction",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("build-instruction", pflag.ContinueOnError)
			fs.String("hostname", "", "target hostname")
			return fs
		},
		Run: func(args []string) error { return nil },
	}

	err := root.Execute([]string{"--hostnam", "workstation"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
	if !strings.Contains(err.Error(), "hostname") {
		t.Errorf("error = %q, want a suggestion mentioning hostname", err.Error())
	}
}

func TestCommandExecuteNoSubcommandMatchShowsHelp(t *testing.T) {
	root := &Command{
		Name:        "driftpack",
		Subcommands: []*Command{{Name: "build-instruction"}},
	}

	err := root.Execute(nil)
	if err == nil {
		t.Fatal("expected error when no subcommand is given")
	}
}
