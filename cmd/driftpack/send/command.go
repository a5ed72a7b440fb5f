// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package send implements "driftpack send": the sending half of the
// manual peer-to-peer instruction transfer in lib/transfer. The
// operator pastes the printed SDP offer to the receiving operator,
// then pastes back the answer shown on that side.
package send

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/driftpack/driftpack/cmd/driftpack/cli"
	"github.com/driftpack/driftpack/lib/transfer"
	"github.com/spf13/pflag"
)

type params struct {
	InstructionFile string
	Verbose         bool
}

// Command returns the "driftpack send" command.
func Command() *cli.Command {
	p := &params{}
	return &cli.Command{
		Name:    "send",
		Summary: "Send an instruction file over a direct peer connection",
		Description: "send prints an SDP offer for the operator to paste into the receiving\n" +
			"side's \"driftpack receive\" prompt, then waits for the resulting answer\n" +
			"to be pasted back before transferring the file.",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("send", pflag.ContinueOnError)
			fs.StringVar(&p.InstructionFile, "instruction", "", "path to the instruction file to send")
			fs.BoolVar(&p.Verbose, "verbose", false, "log at debug level")
			return fs
		},
		Run: func(args []string) error {
			return run(p)
		},
	}
}

func run(p *params) error {
	if p.InstructionFile == "" {
		return fmt.Errorf("send: --instruction is required")
	}
	if _, err := os.Stat(p.InstructionFile); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	level := slog.LevelInfo
	if p.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx := context.Background()
	offerSDP, complete, err := transfer.Offer(ctx, logger)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Paste this offer into the receiving side's 'driftpack receive' prompt:")
	fmt.Println(offerSDP)
	fmt.Fprintln(os.Stderr, "\nPaste the answer SDP below, then press enter on a blank line:")

	answerSDP, err := readBlock(os.Stdin)
	if err != nil {
		return fmt.Errorf("send: reading answer: %w", err)
	}

	conn, err := complete(answerSDP)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer conn.Close()

	if err := transfer.SendFile(conn, p.InstructionFile); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	fmt.Fprintln(os.Stderr, "transfer complete")
	return nil
}

// readBlock reads lines from r until a blank line or EOF and joins
// them, since a pasted SDP blob may span many lines.
func readBlock(r *os.File) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" && len(lines) > 0 {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
