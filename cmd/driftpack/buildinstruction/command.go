// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildinstruction implements "driftpack build-instruction",
// the build-host front end over lib/build.Instruction.
package buildinstruction

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/driftpack/driftpack/cmd/driftpack/cli"
	"github.com/driftpack/driftpack/lib/archive"
	"github.com/driftpack/driftpack/lib/build"
	"github.com/driftpack/driftpack/lib/config"
	"github.com/driftpack/driftpack/lib/progress"
	"github.com/driftpack/driftpack/lib/storeio"
	"github.com/driftpack/driftpack/lib/storepath"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

type params struct {
	cli.JSONOutput
	ConfigPath      string
	FlakeURI        string
	Hostname        string
	PastRevisions   []string
	NewRevision     string
	DestinationPath string
	Full            bool
	Compression     string
	ActivationMode  string
	DryRun          bool
	NoProgress      bool
	Verbose         bool
}

// Command returns the "driftpack build-instruction" command.
func Command() *cli.Command {
	p := &params{}
	return &cli.Command{
		Name:    "build-instruction",
		Summary: "Build a compressed instruction file from two flake revisions",
		Description: "build-instruction builds the target host's toplevel at --new-rev,\n" +
			"computes its delta against one or more --past-rev builds, and packs the\n" +
			"result into a single instruction file ready for apply-instruction.",
		Examples: []cli.Example{
			{
				Description: "build an incremental update from one known-good revision",
				Command:     "driftpack build-instruction --flake github:example/infra --host web1 --past-rev 1f0c2d9a4b7e8c3d5f6a1b2c3d4e5f60718293a4 --new-rev 9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2f1e0d --out web1.driftpack",
			},
		},
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("build-instruction", pflag.ContinueOnError)
			fs.StringVar(&p.ConfigPath, "config", "", "path to driftpack.yaml (default: $DRIFTPACK_CONFIG)")
			fs.StringVar(&p.FlakeURI, "flake", "", "flake URI to build (default: defaults.flake_uri from config)")
			fs.StringVar(&p.Hostname, "host", "", "nixosConfigurations attribute to build (default: defaults.hostname)")
			fs.StringArrayVar(&p.PastRevisions, "past-rev", nil, "a revision the target host may already be at (repeatable)")
			fs.StringVar(&p.NewRevision, "new-rev", "", "revision to build and switch to")
			fs.StringVar(&p.DestinationPath, "out", "", "path to write the compressed instruction file to")
			fs.BoolVar(&p.Full, "full", false, "ship narinfos for the whole resulting closure, not just what changed")
			fs.StringVar(&p.Compression, "compression", "", "archive compression: zstd or lz4 (default: defaults.compression)")
			fs.StringVar(&p.ActivationMode, "mode", "", "activation mode: immediate or next-reboot (default: defaults.activation_mode)")
			fs.BoolVar(&p.DryRun, "dry-run", false, "build and compute the delta, print a summary, write nothing")
			fs.BoolVar(&p.NoProgress, "no-progress", false, "disable the interactive progress display even on a terminal")
			fs.BoolVar(&p.Verbose, "verbose", false, "log at debug level")
			fs.BoolVar(&p.OutputJSON, "json", false, "emit machine-readable JSON instead of the progress display")
			return fs
		},
		Run: func(args []string) error {
			return run(p)
		},
	}
}

func run(p *params) error {
	cfg, err := loadConfig(p.ConfigPath)
	if err != nil {
		return err
	}

	flakeURI := firstNonEmpty(p.FlakeURI, cfg.Defaults.FlakeURI)
	hostname := firstNonEmpty(p.Hostname, cfg.Defaults.Hostname)
	compressionName := firstNonEmpty(p.Compression, cfg.Defaults.Compression)
	activationModeName := firstNonEmpty(p.ActivationMode, cfg.Defaults.ActivationMode)

	if flakeURI == "" {
		return fmt.Errorf("build-instruction: --flake is required (no defaults.flake_uri configured)")
	}
	if hostname == "" {
		return fmt.Errorf("build-instruction: --host is required (no defaults.hostname configured)")
	}
	if p.NewRevision == "" {
		return fmt.Errorf("build-instruction: --new-rev is required")
	}
	if p.DestinationPath == "" && !p.DryRun {
		return fmt.Errorf("build-instruction: --out is required unless --dry-run is set")
	}

	newRevision, err := storepath.ParseRevision(p.NewRevision)
	if err != nil {
		return fmt.Errorf("build-instruction: --new-rev: %w", err)
	}
	pastRevisions := make([]storepath.Revision, 0, len(p.PastRevisions))
	for _, raw := range p.PastRevisions {
		rev, err := storepath.ParseRevision(raw)
		if err != nil {
			return fmt.Errorf("build-instruction: --past-rev %q: %w", raw, err)
		}
		pastRevisions = append(pastRevisions, rev)
	}

	algorithm, err := archive.ParseAlgorithm(compressionName)
	if err != nil {
		return fmt.Errorf("build-instruction: --compression: %w", err)
	}
	mode, err := parseActivationMode(activationModeName)
	if err != nil {
		return fmt.Errorf("build-instruction: --mode: %w", err)
	}

	buildParams := build.InstructionParams{
		FlakeURI:          flakeURI,
		Hostname:          hostname,
		PastRevisions:     pastRevisions,
		NewRevision:       newRevision,
		DestinationPath:   p.DestinationPath,
		PartialNarinfos:   !p.Full,
		CompressAlgorithm: algorithm,
		ActivationMode:    mode,
		DryRun:            p.DryRun,
	}

	store := &storeio.NixStore{ActivationBinary: cfg.Store.ActivationBinary}

	var summary build.Summary
	runPipeline := func(logger *slog.Logger) error {
		var runErr error
		summary, runErr = build.Instruction(context.Background(), store, buildParams, logger)
		return runErr
	}

	level := slog.LevelInfo
	if p.Verbose {
		level = slog.LevelDebug
	}

	if p.NoProgress || p.OutputJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		if err := runPipeline(logger); err != nil {
			return err
		}
	} else {
		if err := progress.Run(context.Background(), level, runPipeline); err != nil {
			return err
		}
	}

	if done, err := p.EmitJSON(summary); done {
		return err
	}

	if p.DryRun {
		fmt.Printf("dry run: %s@%s against %d past revision(s): %d/%d paths added (%d/%d bytes), %d commands, nothing written\n",
			summary.Hostname, summary.NewRevision, summary.DeltaDependencies,
			summary.AddedPaths, summary.TotalPaths, summary.AddedBytes, summary.TotalBytes, summary.Commands)
		return nil
	}

	fmt.Printf("wrote %s (%d commands)\n", p.DestinationPath, summary.Commands)
	return nil
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseActivationMode(name string) (storeio.ActivationMode, error) {
	switch name {
	case "immediate", "":
		return storeio.ActivateImmediate, nil
	case "next-reboot":
		return storeio.ActivateNextReboot, nil
	default:
		return "", fmt.Errorf("unknown activation mode %q (want immediate or next-reboot)", name)
	}
}
