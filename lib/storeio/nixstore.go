// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package storeio

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/driftpack/driftpack/lib/errs"
	"github.com/driftpack/driftpack/lib/storepath"
)

// NixStore is the production [Store] implementation, backed by the
// external store toolchain binaries "nix" and a system-activation
// verb. It holds no state beyond the activation binary name, which
// differs between a NixOS system (switch-to-configuration) and a
// standalone home-manager-style installation.
type NixStore struct {
	// ActivationBinary is the name of the switch/activation verb,
	// resolved the same way as the "nix" binary. Defaults to
	// "switch-to-configuration" when empty.
	ActivationBinary string
}

func (s *NixStore) activationBinary() string {
	if s.ActivationBinary != "" {
		return s.ActivationBinary
	}
	return "switch-to-configuration"
}

func (s *NixStore) ResolveRevision(ctx context.Context, flakeURI string, ref string) (storepath.Revision, error) {
	target := flakeURI
	if ref != "" {
		target = fmt.Sprintf("%s?ref=%s", flakeURI, ref)
	}
	out, err := runTool(ctx, "resolveRevision", "nix", "flake", "info", "--json", target)
	if err != nil {
		return storepath.Revision{}, err
	}

	var parsed struct {
		Revision string `json:"revision"`
	}
	if err := json.Unmarshal([]byte(out), &parsed); err != nil {
		return storepath.Revision{}, &errs.ExternalOutputMalformed{Op: "resolveRevision", Raw: out, Err: err}
	}
	revision, err := storepath.ParseRevision(parsed.Revision)
	if err != nil {
		return storepath.Revision{}, &errs.ExternalOutputMalformed{Op: "resolveRevision", Raw: out, Err: err}
	}
	return revision, nil
}

func (s *NixStore) BuildToplevel(ctx context.Context, flakeURI string, revision storepath.Revision, hostname string, storeDir string) (BuildResult, error) {
	showOut, err := runTool(ctx, "buildToplevel", "nix", "flake", "show", "--json", fmt.Sprintf("%s?rev=%s", flakeURI, revision.String()))
	if err != nil {
		return BuildResult{}, err
	}
	var shown struct {
		NixosConfigurations map[string]json.RawMessage `json:"nixosConfigurations"`
	}
	if err := json.Unmarshal([]byte(showOut), &shown); err != nil {
		return BuildResult{}, &errs.ExternalOutputMalformed{Op: "buildToplevel", Raw: showOut, Err: err}
	}
	if _, ok := shown.NixosConfigurations[hostname]; !ok {
		available := make([]string, 0, len(shown.NixosConfigurations))
		for name := range shown.NixosConfigurations {
			available = append(available, name)
		}
		sort.Strings(available)
		return BuildResult{}, &errs.UnknownHostname{Hostname: hostname, Available: available}
	}

	attr := fmt.Sprintf("%s?rev=%s#nixosConfigurations.%s.config.system.build.toplevel", flakeURI, revision.String(), hostname)
	buildOut, err := runTool(ctx, "buildToplevel", "nix", "build", "--json", "--no-link", "--store", storeDir, attr)
	if err != nil {
		return BuildResult{}, err
	}

	var built []struct {
		DrvPath string `json:"drvPath"`
		Outputs struct {
			Out string `json:"out"`
		} `json:"outputs"`
	}
	if err := json.Unmarshal([]byte(buildOut), &built); err != nil || len(built) != 1 {
		return BuildResult{}, &errs.ExternalOutputMalformed{Op: "buildToplevel", Raw: buildOut, Err: fmt.Errorf("expected a single build result")}
	}

	drv, err := storepath.ParsePath(built[0].DrvPath)
	if err != nil {
		return BuildResult{}, &errs.ExternalOutputMalformed{Op: "buildToplevel", Raw: buildOut, Err: err}
	}
	out, err := storepath.ParsePath(built[0].Outputs.Out)
	if err != nil {
		return BuildResult{}, &errs.ExternalOutputMalformed{Op: "buildToplevel", Raw: buildOut, Err: err}
	}

	return BuildResult{Derivation: drv, Output: out, Revision: revision}, nil
}

func (s *NixStore) QueryPathInfo(ctx context.Context, storeDir string, roots []storepath.Path) (map[string]storepath.PathInfo, error) {
	args := []string{"path-info", "--json", "--recursive", "--store", storeDir}
	for _, root := range roots {
		args = append(args, root.String())
	}
	out, err := runTool(ctx, "queryPathInfo", "nix", args...)
	if err != nil {
		return nil, err
	}

	var records []struct {
		Path       string   `json:"path"`
		NarHash    string   `json:"narHash"`
		NarSize    int64    `json:"narSize"`
		References []string `json:"references"`
	}
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		return nil, &errs.ExternalOutputMalformed{Op: "queryPathInfo", Raw: out, Err: err}
	}

	result := make(map[string]storepath.PathInfo, len(records))
	for _, record := range records {
		path, err := storepath.ParsePath(record.Path)
		if err != nil {
			return nil, &errs.ExternalOutputMalformed{Op: "queryPathInfo", Raw: out, Err: err}
		}
		refs := make([]storepath.Path, 0, len(record.References))
		for _, raw := range record.References {
			ref, err := storepath.ParsePath(raw)
			if err != nil {
				return nil, &errs.ExternalOutputMalformed{Op: "queryPathInfo", Raw: out, Err: err}
			}
			refs = append(refs, ref)
		}
		result[path.String()] = storepath.PathInfo{
			Path:       path,
			NarHash:    record.NarHash,
			NarSize:    record.NarSize,
			References: refs,
		}
	}
	return result, nil
}

func (s *NixStore) ExportToArchive(ctx context.Context, storeDir string, archiveDir string, root storepath.Path) error {
	_, err := runTool(ctx, "exportToArchive", "nix", "copy", "--to", "file://"+archiveDir, "--store", storeDir, root.String())
	return err
}

func (s *NixStore) ImportFromArchive(ctx context.Context, archiveDir string, root storepath.Path, targetStoreDir string) error {
	_, err := runTool(ctx, "importFromArchive", "nix", "copy", "--from", "file://"+archiveDir, "--to", targetStoreDir, root.String())
	if err != nil {
		return &errs.ImportFailed{Path: root.String(), Err: err}
	}
	return nil
}

func (s *NixStore) ActivateGeneration(ctx context.Context, targetStoreRoot string, path storepath.Path, mode ActivationMode) error {
	verb := "switch"
	if mode == ActivateNextReboot {
		verb = "boot"
	}
	_, err := runTool(ctx, "activateGeneration", s.activationBinary(), verb, strings.TrimSuffix(path.String(), "/"))
	if err != nil {
		return &errs.ActivationFailed{Path: path.String(), Mode: string(mode), Err: err}
	}
	return nil
}
