// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package applyinstruction implements "driftpack apply-instruction",
// the target-host front end over lib/execute.Apply.
package applyinstruction

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/driftpack/driftpack/cmd/driftpack/cli"
	"github.com/driftpack/driftpack/lib/config"
	"github.com/driftpack/driftpack/lib/execute"
	"github.com/driftpack/driftpack/lib/progress"
	"github.com/driftpack/driftpack/lib/storeio"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

type params struct {
	ConfigPath      string
	InstructionFile string
	Workdir         string
	StoreDir        string
	ClientStateDir  string
	NoProgress      bool
	Verbose         bool
}

// Command returns the "driftpack apply-instruction" command.
func Command() *cli.Command {
	p := &params{}
	return &cli.Command{
		Name:    "apply-instruction",
		Summary: "Apply a compressed instruction file to this host",
		Description: "apply-instruction decompresses an instruction file, validates it, and\n" +
			"runs its commands against the local store in order.",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("apply-instruction", pflag.ContinueOnError)
			fs.StringVar(&p.ConfigPath, "config", "", "path to driftpack.yaml (default: $DRIFTPACK_CONFIG)")
			fs.StringVar(&p.InstructionFile, "instruction", "", "path to the instruction file to apply")
			fs.StringVar(&p.Workdir, "workdir", "", "parent directory for the decompression scratch dir (default: paths.workdir or OS temp)")
			fs.StringVar(&p.StoreDir, "store", "", "target store root (default: store.target_store_root, almost always \"/\")")
			fs.StringVar(&p.ClientStateDir, "client-state", "", "client metadata cache directory (default: paths.client_state)")
			fs.BoolVar(&p.NoProgress, "no-progress", false, "disable the interactive progress display even on a terminal")
			fs.BoolVar(&p.Verbose, "verbose", false, "log at debug level")
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

	if p.InstructionFile == "" {
		return fmt.Errorf("apply-instruction: --instruction is required")
	}

	execParams := execute.Params{
		InstructionFile:     p.InstructionFile,
		TargetStoreRoot:     firstNonEmpty(p.StoreDir, cfg.Store.TargetStoreRoot),
		ClientStateStoreDir: firstNonEmpty(p.ClientStateDir, cfg.Paths.ClientState),
		WorkdirRoot:         firstNonEmpty(p.Workdir, cfg.Paths.Workdir),
	}
	if execParams.ClientStateStoreDir == "" {
		return fmt.Errorf("apply-instruction: --client-state is required (no paths.client_state configured)")
	}

	store := &storeio.NixStore{ActivationBinary: cfg.Store.ActivationBinary}

	level := slog.LevelInfo
	if p.Verbose {
		level = slog.LevelDebug
	}

	runPipeline := func(logger *slog.Logger) error {
		return execute.Apply(context.Background(), store, execParams, logger)
	}

	if p.NoProgress || !term.IsTerminal(int(os.Stdout.Fd())) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		if err := runPipeline(logger); err != nil {
			return err
		}
	} else if err := progress.Run(context.Background(), level, runPipeline); err != nil {
		return err
	}

	fmt.Printf("applied %s\n", p.InstructionFile)
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
