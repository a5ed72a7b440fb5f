// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package instruction defines the Command tagged variant, the
// Instruction document that bundles an ordered list of them, and the
// validation pass that checks an instruction directory before it is
// executed.
package instruction

import (
	"encoding/json"
	"fmt"

	"github.com/driftpack/driftpack/lib/errs"
	"github.com/driftpack/driftpack/lib/storeio"
	"github.com/driftpack/driftpack/lib/storepath"
)

// Kind discriminates the two Command variants.
type Kind string

const (
	KindLoad   Kind = "load"
	KindSwitch Kind = "switch"
)

// Load imports a delta archive into the store. ArchivePath is a
// single path segment, unique within an instruction, naming the
// subdirectory holding its payload. DeltaDependencies are the
// StoreRoots the build host assumed were already present on the
// target; PartialNarinfos, when true, means the archive ships info
// files only for newly added paths and the target must supply the
// rest from its own metadata cache.
type Load struct {
	ArchivePath       string              `json:"archivePath"`
	Item              storepath.StoreRoot `json:"item"`
	DeltaDependencies []storepath.StoreRoot `json:"deltaDependencies"`
	PartialNarinfos   bool                `json:"partialNarinfos"`
}

// Switch activates an already-present store path as a generation.
type Switch struct {
	Item storepath.StoreRoot   `json:"item"`
	Mode storeio.ActivationMode `json:"mode"`
}

// Command is one step of an Instruction: exactly one of Load or
// Switch is set, selected by Kind.
type Command struct {
	Kind   Kind
	Load   *Load
	Switch *Switch
}

// wireCommand is the JSON shape of a Command: the discriminator plus
// every field of both variants, flattened. Marshal/Unmarshal convert
// between this and the tagged Command above.
type wireCommand struct {
	Kind              Kind                   `json:"kind"`
	ArchivePath       string                 `json:"archivePath,omitempty"`
	Item              storepath.StoreRoot    `json:"item"`
	DeltaDependencies []storepath.StoreRoot  `json:"deltaDependencies,omitempty"`
	PartialNarinfos   bool                   `json:"partialNarinfos,omitempty"`
	Mode              storeio.ActivationMode `json:"mode,omitempty"`
}

func (c Command) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindLoad:
		if c.Load == nil {
			return nil, fmt.Errorf("instruction: command kind %q has no Load payload", KindLoad)
		}
		return json.Marshal(wireCommand{
			Kind:              KindLoad,
			ArchivePath:       c.Load.ArchivePath,
			Item:              c.Load.Item,
			DeltaDependencies: c.Load.DeltaDependencies,
			PartialNarinfos:   c.Load.PartialNarinfos,
		})
	case KindSwitch:
		if c.Switch == nil {
			return nil, fmt.Errorf("instruction: command kind %q has no Switch payload", KindSwitch)
		}
		return json.Marshal(wireCommand{
			Kind: KindSwitch,
			Item: c.Switch.Item,
			Mode: c.Switch.Mode,
		})
	default:
		return nil, &errs.UnknownCommandKind{Kind: string(c.Kind)}
	}
}

func (c *Command) UnmarshalJSON(data []byte) error {
	var wire wireCommand
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	switch wire.Kind {
	case KindLoad:
		*c = Command{Kind: KindLoad, Load: &Load{
			ArchivePath:       wire.ArchivePath,
			Item:              wire.Item,
			DeltaDependencies: wire.DeltaDependencies,
			PartialNarinfos:   wire.PartialNarinfos,
		}}
	case KindSwitch:
		*c = Command{Kind: KindSwitch, Switch: &Switch{
			Item: wire.Item,
			Mode: wire.Mode,
		}}
	default:
		return &errs.UnknownCommandKind{Kind: string(wire.Kind)}
	}
	return nil
}

// NewLoad constructs a Load command.
func NewLoad(archivePath string, item storepath.StoreRoot, deltaDeps []storepath.StoreRoot, partialNarinfos bool) Command {
	return Command{Kind: KindLoad, Load: &Load{
		ArchivePath:       archivePath,
		Item:              item,
		DeltaDependencies: deltaDeps,
		PartialNarinfos:   partialNarinfos,
	}}
}

// NewSwitch constructs a Switch command.
func NewSwitch(item storepath.StoreRoot, mode storeio.ActivationMode) Command {
	return Command{Kind: KindSwitch, Switch: &Switch{Item: item, Mode: mode}}
}
