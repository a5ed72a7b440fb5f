// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for driftpack.
//
// Configuration is loaded from a single file specified by either the
// DRIFTPACK_CONFIG environment variable (via [Load]) or a --config
// flag (via [LoadFile]). There are no fallbacks, no ~/.config
// discovery, and no automatic file search. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${DRIFTPACK_ROOT}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Paths, Store, and Defaults
//   - [Default] -- returns a Config with its zero-value defaults filled in
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other driftpack packages.
package config
