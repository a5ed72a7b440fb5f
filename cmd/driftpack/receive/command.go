// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package receive implements "driftpack receive": the receiving half
// of the manual peer-to-peer instruction transfer in lib/transfer.
package receive

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
	DestinationPath string
	Verbose         bool
}

// Command returns the "driftpack receive" command.
func Command() *cli.Command {
	p := &params{}
	return &cli.Command{
		Name:    "receive",
		Summary: "Receive an instruction file over a direct peer connection",
		Description: "receive prompts for the SDP offer pasted from the sending side's\n" +
			"\"driftpack send\", prints the resulting answer to paste back, and writes\n" +
			"the transferred file to --out.",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("receive", pflag.ContinueOnError)
			fs.StringVar(&p.DestinationPath, "out", "", "path to write the received instruction file to")
			fs.BoolVar(&p.Verbose, "verbose", false, "log at debug level")
			return fs
		},
		Run: func(args []string) error {
			return run(p)
		},
	}
}

func run(p *params) error {
	if p.DestinationPath == "" {
		return fmt.Errorf("receive: --out is required")
	}

	level := slog.LevelInfo
	if p.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	fmt.Fprintln(os.Stderr, "Paste the offer SDP from the sending side below, then press enter on a blank line:")
	offerSDP, err := readBlock(os.Stdin)
	if err != nil {
		return fmt.Errorf("receive: reading offer: %w", err)
	}

	ctx := context.Background()
	answerSDP, conn, err := transfer.Answer(ctx, logger, offerSDP)
	if err != nil {
		return fmt.Errorf("receive: %w", err)
	}
	defer conn.Close()

	fmt.Fprintln(os.Stderr, "Paste this answer back into the sending side's prompt:")
	fmt.Println(answerSDP)

	if err := transfer.ReceiveFile(conn, p.DestinationPath); err != nil {
		return fmt.Errorf("receive: %w", err)
	}

	fmt.Fprintf(os.Stderr, "wrote %s\n", p.DestinationPath)
	return nil
}

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
