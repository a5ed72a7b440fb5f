// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete driftpack CLI command tree.
package commands

import (
	applyinstructioncmd "github.com/driftpack/driftpack/cmd/driftpack/applyinstruction"
	buildinstructioncmd "github.com/driftpack/driftpack/cmd/driftpack/buildinstruction"
	"github.com/driftpack/driftpack/cmd/driftpack/cli"
	doctorcmd "github.com/driftpack/driftpack/cmd/driftpack/doctor"
	inspectcmd "github.com/driftpack/driftpack/cmd/driftpack/inspect"
	listgenerationscmd "github.com/driftpack/driftpack/cmd/driftpack/listgenerations"
	receivecmd "github.com/driftpack/driftpack/cmd/driftpack/receive"
	sendcmd "github.com/driftpack/driftpack/cmd/driftpack/send"
)

// Root builds and returns the complete driftpack CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "driftpack",
		Description: `driftpack: content-addressed system update instructions.

Build delta instruction files from a store's history and apply them
to a target host, with an optional peer-to-peer transfer mode for
hosts that don't share a network path to the build host.`,
		Subcommands: []*cli.Command{
			buildinstructioncmd.Command(),
			applyinstructioncmd.Command(),
			listgenerationscmd.Command(),
			inspectcmd.Command(),
			sendcmd.Command(),
			receivecmd.Command(),
			doctorcmd.Command(),
		},
	}
}
