// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package inspect implements "driftpack inspect": decompress an
// instruction file to a scratch directory and pretty-print its
// instruction.json, syntax-highlighted when stdout is a terminal.
package inspect

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/driftpack/driftpack/cmd/driftpack/cli"
	"github.com/driftpack/driftpack/lib/archive"
	"github.com/driftpack/driftpack/lib/instruction"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

type params struct {
	cli.JSONOutput
	InstructionFile string
}

// Command returns the "driftpack inspect" command.
func Command() *cli.Command {
	p := &params{}
	return &cli.Command{
		Name:        "inspect",
		Summary:     "Print the contents of an instruction file",
		Description: "inspect decompresses an instruction file and prints its instruction.json,\nsyntax-highlighted when stdout is a terminal.",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			fs.StringVar(&p.InstructionFile, "instruction", "", "path to the instruction file to inspect")
			fs.BoolVar(&p.OutputJSON, "json", false, "emit compact JSON instead of highlighted output")
			return fs
		},
		Run: func(args []string) error {
			return run(p)
		},
	}
}

func run(p *params) error {
	if p.InstructionFile == "" {
		return fmt.Errorf("inspect: --instruction is required")
	}

	dir, err := os.MkdirTemp("", "driftpack-inspect-*")
	if err != nil {
		return fmt.Errorf("inspect: create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := archive.Unpack(p.InstructionFile, dir); err != nil {
		return fmt.Errorf("inspect: unpack: %w", err)
	}

	instr, err := instruction.ReadFile(dir)
	if err != nil {
		return err
	}

	if done, err := p.EmitJSON(instr); done {
		return err
	}

	pretty, err := json.MarshalIndent(instr, "", "  ")
	if err != nil {
		return fmt.Errorf("inspect: marshal: %w", err)
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		if err := quick.Highlight(os.Stdout, string(pretty), "json", "terminal256", "monokai"); err == nil {
			return nil
		}
		// Fall through to plain output if highlighting fails, e.g. an
		// unrecognized TERM value chroma's lexer table doesn't cover.
	}

	fmt.Println(string(pretty))
	return nil
}
