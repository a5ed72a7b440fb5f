// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package instruction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the name of the instruction document at the root of an
// instruction directory.
const FileName = "instruction.json"

// Instruction is a self-contained bundle of commands that moves a
// system from one generation to another.
type Instruction struct {
	Kind     string    `json:"kind"`
	Commands []Command `json:"commands"`
}

// New returns an Instruction with the fixed top-level kind the spec
// requires.
func New(commands []Command) Instruction {
	return Instruction{Kind: "switch", Commands: commands}
}

// WriteFile serializes i as indented JSON into dir/instruction.json.
func (i Instruction) WriteFile(dir string) error {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return fmt.Errorf("instruction: marshal: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, FileName), data, 0o644)
}

// ReadFile parses dir/instruction.json.
func ReadFile(dir string) (Instruction, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return Instruction{}, fmt.Errorf("instruction: read %s: %w", FileName, err)
	}
	var i Instruction
	if err := json.Unmarshal(data, &i); err != nil {
		return Instruction{}, fmt.Errorf("instruction: parse %s: %w", FileName, err)
	}
	return i, nil
}
