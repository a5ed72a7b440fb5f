// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package listgenerations implements "driftpack list-generations": it
// shells out to the store toolchain's own generation-listing verb and
// reformats the result rather than reimplementing the toolchain's
// bookkeeping.
package listgenerations

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"text/tabwriter"

	"github.com/driftpack/driftpack/cmd/driftpack/cli"
	"github.com/spf13/pflag"
)

// Generation is one entry of "nix-env --list-generations", reformatted.
type Generation struct {
	Number    int    `json:"number"`
	StorePath string `json:"storePath,omitempty"`
	CreatedAt string `json:"createdAt"`
	Current   bool   `json:"current"`
}

type params struct {
	cli.JSONOutput
	ProfilePath string
}

// Command returns the "driftpack list-generations" command.
func Command() *cli.Command {
	p := &params{}
	return &cli.Command{
		Name:        "list-generations",
		Summary:     "List the generations registered in a system profile",
		Description: "list-generations prints every generation the activation verb knows about,\nmarking whichever one is currently active.",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("list-generations", pflag.ContinueOnError)
			fs.StringVar(&p.ProfilePath, "profile", "/nix/var/nix/profiles/system", "system profile to list generations for")
			fs.BoolVar(&p.OutputJSON, "json", false, "emit machine-readable JSON instead of a table")
			return fs
		},
		Run: func(args []string) error {
			return run(p)
		},
	}
}

func run(p *params) error {
	generations, err := list(context.Background(), p.ProfilePath)
	if err != nil {
		return err
	}

	if done, err := p.EmitJSON(generations); done {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GENERATION\tSTORE PATH\tCREATED\tCURRENT")
	for _, gen := range generations {
		current := ""
		if gen.Current {
			current = "*"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", gen.Number, gen.StorePath, gen.CreatedAt, current)
	}
	return tw.Flush()
}

// generationLine matches one row of "nix-env --list-generations"
// output, e.g. "  42   2026-01-15 09:30:12   (current)".
var generationLine = regexp.MustCompile(`^\s*(\d+)\s+(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s*(\(current\))?\s*$`)

func list(ctx context.Context, profilePath string) ([]Generation, error) {
	binaryPath, err := exec.LookPath("nix-env")
	if err != nil {
		return nil, fmt.Errorf("list-generations: nix-env not found on PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, binaryPath, "--list-generations", "-p", profilePath)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("list-generations: nix-env --list-generations: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	generations, err := parse(stdout.String())
	if err != nil {
		return nil, err
	}
	for i := range generations {
		// Best-effort: a generation link that has since been garbage
		// collected leaves StorePath empty rather than failing the
		// whole listing.
		if path, err := resolveGenerationPath(profilePath, generations[i].Number); err == nil {
			generations[i].StorePath = path
		}
	}
	return generations, nil
}

// resolveGenerationPath resolves the store path a generation's own
// profile symlink points at, e.g. "system-42-link" alongside
// profilePath.
func resolveGenerationPath(profilePath string, number int) (string, error) {
	linkPath := fmt.Sprintf("%s-%d-link", profilePath, number)
	target, err := os.Readlink(linkPath)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(target, "/") {
		target = filepath.Join(filepath.Dir(linkPath), target)
	}
	return target, nil
}

func parse(output string) ([]Generation, error) {
	var generations []Generation
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		match := generationLine.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		var number int
		if _, err := fmt.Sscanf(match[1], "%d", &number); err != nil {
			return nil, fmt.Errorf("list-generations: parsing generation number %q: %w", match[1], err)
		}
		generations = append(generations, Generation{
			Number:    number,
			CreatedAt: match[2],
			Current:   match[3] != "",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("list-generations: reading output: %w", err)
	}
	return generations, nil
}
