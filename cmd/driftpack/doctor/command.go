// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/driftpack/driftpack/cmd/driftpack/cli"
	"github.com/driftpack/driftpack/lib/config"
	"github.com/spf13/pflag"
)

type params struct {
	cli.JSONOutput
	ConfigPath string
}

// Command returns the "driftpack doctor" command: start here when a
// build or apply fails for an unclear reason.
func Command() *cli.Command {
	p := &params{}
	return &cli.Command{
		Name:    "doctor",
		Summary: "Diagnose the local environment",
		Description: "doctor checks that the external store toolchain resolves, that the\n" +
			"configured directories exist and are writable, and that the activation\n" +
			"verb is reachable. It makes no lasting changes: the writability check\n" +
			"creates a probe file and removes it again.",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("doctor", pflag.ContinueOnError)
			fs.StringVar(&p.ConfigPath, "config", "", "path to driftpack.yaml (default: $DRIFTPACK_CONFIG)")
			fs.BoolVar(&p.OutputJSON, "json", false, "emit machine-readable JSON instead of a checklist")
			return fs
		},
		Run: func(args []string) error {
			return run(p)
		},
	}
}

func run(p *params) error {
	cfg, cfgErr := loadConfig(p.ConfigPath)

	var results []Result
	results = append(results, checkBinary("nix")...)

	activationBinary := "switch-to-configuration"
	if cfgErr == nil && cfg.Store.ActivationBinary != "" {
		activationBinary = cfg.Store.ActivationBinary
	}
	results = append(results, checkBinary(activationBinary)...)

	if cfgErr != nil {
		results = append(results, FailWithHint(
			"configuration",
			cfgErr.Error(),
			"set DRIFTPACK_CONFIG to the path of your driftpack.yaml, or pass --config",
		))
	} else {
		results = append(results, checkWritableDir("paths.root", cfg.Paths.Root)...)
		results = append(results, checkWritableDir("paths.client_state", cfg.Paths.ClientState)...)
		if cfg.Paths.Workdir != "" {
			results = append(results, checkWritableDir("paths.workdir", cfg.Paths.Workdir)...)
		} else {
			results = append(results, Pass("paths.workdir", "unset, falls back to the OS temp directory"))
		}
		results = append(results, checkWritableDir("store.target_store_root", cfg.Store.TargetStoreRoot)...)
	}

	if done, err := p.EmitJSON(results); done {
		return err
	}

	for _, result := range results {
		fmt.Println(result.String())
		if result.Hint != "" {
			fmt.Printf("  hint: %s\n", result.Hint)
		}
	}

	if AnyFailed(results) {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

// checkBinary reports whether name resolves on PATH. It does not try
// the fallback installation directory that storeio.NixStore also
// searches, so a binary found only there is reported as missing.
func checkBinary(name string) []Result {
	if path, err := exec.LookPath(name); err == nil {
		return []Result{Pass(name, path)}
	}
	return []Result{FailWithHint(
		name,
		fmt.Sprintf("%s not found on PATH", name),
		fmt.Sprintf("install %s or add it to PATH", name),
	)}
}

// checkWritableDir reports whether dir exists (a missing dir is a
// failure with a mkdir hint; it is not created) and is writable, by
// probing a throwaway file rather than trusting the mode bits, since
// those can lie under unusual filesystems or ACLs.
func checkWritableDir(name, dir string) []Result {
	if dir == "" {
		return []Result{Fail(name, "not configured")}
	}

	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return []Result{FailWithHint(
			name,
			fmt.Sprintf("%s does not exist", dir),
			fmt.Sprintf("mkdir -p %s", dir),
		)}
	case err != nil:
		return []Result{Fail(name, err.Error())}
	case !info.IsDir():
		return []Result{Fail(name, fmt.Sprintf("%s is not a directory", dir))}
	}

	probe := filepath.Join(dir, ".driftpack-doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return []Result{FailWithHint(
			name,
			fmt.Sprintf("%s is not writable: %v", dir, err),
			fmt.Sprintf("check permissions on %s", dir),
		)}
	}
	os.Remove(probe)

	return []Result{Pass(name, dir)}
}
