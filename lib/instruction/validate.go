// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package instruction

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/driftpack/driftpack/lib/errs"
)

// Validate checks an already-parsed Instruction for structural
// issues. Returns a list of human-readable issue descriptions; an
// empty list means the instruction is valid. Unlike a fail-fast
// check, every issue is collected so a caller can report the whole
// set at once.
//
// Checks performed:
//   - At most one Switch command, and it must be the last command.
//   - Every Load.ArchivePath is non-empty and unique within the
//     instruction.
//   - Switch.Mode, when set, is one of the two known modes.
//
// Load.DeltaDependencies and Switch.Item are not cross-checked against
// earlier Loads: a reference that matches no earlier Load.Item is
// presumed present on the target already, so no StoreRoot reference is
// ever invalid on its own. Execution-time absence of a presumed
// dependency surfaces as MissingDependencyMetadata, not as a
// validation issue.
func Validate(instr Instruction) []string {
	var issues []string

	archivePaths := make(map[string]int, len(instr.Commands))
	switchIndex := -1

	for index, command := range instr.Commands {
		prefix := fmt.Sprintf("commands[%d]", index)

		switch command.Kind {
		case KindLoad:
			issues = append(issues, validateLoad(command.Load, prefix)...)
			if command.Load != nil && command.Load.ArchivePath != "" {
				if firstIndex, exists := archivePaths[command.Load.ArchivePath]; exists {
					issues = append(issues, fmt.Sprintf(
						"%s: duplicate archivePath %q (first used at commands[%d])",
						prefix, command.Load.ArchivePath, firstIndex))
				} else {
					archivePaths[command.Load.ArchivePath] = index
				}
			}
		case KindSwitch:
			if switchIndex != -1 {
				issues = append(issues, fmt.Sprintf(
					"%s: at most one switch command is allowed (first at commands[%d])", prefix, switchIndex))
			}
			switchIndex = index
			issues = append(issues, validateSwitch(command.Switch, prefix)...)
		default:
			issues = append(issues, fmt.Sprintf("%s: %v", prefix, &errs.UnknownCommandKind{Kind: string(command.Kind)}))
		}
	}

	if switchIndex != -1 && switchIndex != len(instr.Commands)-1 {
		issues = append(issues, fmt.Sprintf("commands[%d]: switch command must be the last command", switchIndex))
	}

	return issues
}

func validateLoad(load *Load, prefix string) []string {
	var issues []string
	if load == nil {
		return []string{fmt.Sprintf("%s: load command has no payload", prefix)}
	}
	if load.ArchivePath == "" {
		issues = append(issues, fmt.Sprintf("%s: archivePath is required", prefix))
	} else if filepath.Base(load.ArchivePath) != load.ArchivePath {
		issues = append(issues, fmt.Sprintf("%s: archivePath %q must be a single path segment", prefix, load.ArchivePath))
	}
	if load.Item.IsZero() {
		issues = append(issues, fmt.Sprintf("%s: item is required", prefix))
	}
	return issues
}

func validateSwitch(sw *Switch, prefix string) []string {
	var issues []string
	if sw == nil {
		return []string{fmt.Sprintf("%s: switch command has no payload", prefix)}
	}
	if sw.Item.IsZero() {
		issues = append(issues, fmt.Sprintf("%s: item is required", prefix))
	}
	switch sw.Mode {
	case "immediate", "next-reboot":
	default:
		issues = append(issues, fmt.Sprintf("%s: mode must be \"immediate\" or \"next-reboot\", got %q", prefix, sw.Mode))
	}
	return issues
}

// ValidateDir reads and validates an instruction directory: parses
// instruction.json, runs Validate against it, and checks that every
// Load.ArchivePath names a directory that actually exists. Returns
// the parsed Instruction on success.
func ValidateDir(dir string) (Instruction, error) {
	instr, err := ReadFile(dir)
	if err != nil {
		return Instruction{}, err
	}

	issues := Validate(instr)
	for index, command := range instr.Commands {
		if command.Kind != KindLoad || command.Load == nil || command.Load.ArchivePath == "" {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, command.Load.ArchivePath))
		if err != nil || !info.IsDir() {
			issues = append(issues, fmt.Sprintf("commands[%d]: archivePath %q does not exist as a directory", index, command.Load.ArchivePath))
		}
	}

	if len(issues) > 0 {
		return Instruction{}, &errs.InvalidInstruction{Reasons: issues}
	}
	return instr, nil
}
