// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for driftpack.
type Config struct {
	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Store configures how the store toolchain is invoked.
	Store StoreConfig `yaml:"store"`

	// Defaults configures the default values applied when the
	// corresponding CLI flag is not given explicitly.
	Defaults DefaultsConfig `yaml:"defaults"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `yaml:"log_level"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for driftpack's own state.
	Root string `yaml:"root"`

	// ClientState is the target-host client metadata cache directory.
	ClientState string `yaml:"client_state"`

	// Workdir is the parent directory under which temporary build and
	// execute workdirs are created. Empty means the OS default
	// (os.MkdirTemp's behavior).
	Workdir string `yaml:"workdir"`
}

// StoreConfig configures the external store toolchain adapter.
type StoreConfig struct {
	// ActivationBinary overrides the name or path of the activation
	// verb invoked by ActivateGeneration. Empty means the adapter's
	// own default ("switch-to-configuration").
	ActivationBinary string `yaml:"activation_binary"`

	// TargetStoreRoot is the filesystem root the execute pipeline
	// imports into and activates against. Almost always "/"; a
	// non-root value is only meaningful for testing against a
	// sandboxed store tree.
	TargetStoreRoot string `yaml:"target_store_root"`
}

// DefaultsConfig configures default flag values for the CLI.
type DefaultsConfig struct {
	// FlakeURI is the flake reference built when --flake is omitted.
	FlakeURI string `yaml:"flake_uri"`

	// Hostname is the nixosConfigurations attribute built when
	// --host is omitted.
	Hostname string `yaml:"hostname"`

	// Compression names the archive.Algorithm used when --compression
	// is omitted ("zstd" or "lz4").
	Compression string `yaml:"compression"`

	// ActivationMode is "immediate" or "next-reboot", used when
	// --mode is omitted.
	ActivationMode string `yaml:"activation_mode"`

	// PartialNarinfos controls whether build-instruction ships
	// incremental (true) or full (false) metadata by default.
	PartialNarinfos bool `yaml:"partial_narinfos"`
}

// Default returns the configuration used as a base before loading the
// config file. It exists to give every field a sensible zero value,
// not as a fallback for a missing config file — the file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "driftpack")

	return &Config{
		Paths: PathsConfig{
			Root:        defaultRoot,
			ClientState: filepath.Join(defaultRoot, "client-state"),
		},
		Store: StoreConfig{
			TargetStoreRoot: "/",
		},
		Defaults: DefaultsConfig{
			Compression:     "zstd",
			ActivationMode:  "immediate",
			PartialNarinfos: true,
		},
		LogLevel: "info",
	}
}

// Load loads configuration from the DRIFTPACK_CONFIG environment
// variable. There is no fallback: if the variable is unset, this
// fails, since silent defaulting to no config file would make
// behavior depend on an undocumented search path.
func Load() (*Config, error) {
	configPath := os.Getenv("DRIFTPACK_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("DRIFTPACK_CONFIG environment variable not set; " +
			"set it to the path of your driftpack.yaml config file, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path. The config
// file is the single source of truth; environment variables other
// than DRIFTPACK_CONFIG never override its values. The only expansion
// performed is ${HOME}-style path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"DRIFTPACK_ROOT": c.Paths.Root,
		"HOME":           os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["DRIFTPACK_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.ClientState = expandVars(c.Paths.ClientState, vars)
	c.Paths.Workdir = expandVars(c.Paths.Workdir, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns in s,
// consulting vars before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors, collecting every
// problem rather than failing on the first.
func (c *Config) Validate() error {
	var issues []error

	if c.Paths.Root == "" {
		issues = append(issues, fmt.Errorf("paths.root is required"))
	}
	if c.Paths.ClientState == "" {
		issues = append(issues, fmt.Errorf("paths.client_state is required"))
	}
	if c.Store.TargetStoreRoot == "" {
		issues = append(issues, fmt.Errorf("store.target_store_root is required"))
	}
	switch c.Defaults.Compression {
	case "zstd", "lz4":
	default:
		issues = append(issues, fmt.Errorf("defaults.compression must be \"zstd\" or \"lz4\", got %q", c.Defaults.Compression))
	}
	switch c.Defaults.ActivationMode {
	case "immediate", "next-reboot":
	default:
		issues = append(issues, fmt.Errorf("defaults.activation_mode must be \"immediate\" or \"next-reboot\", got %q", c.Defaults.ActivationMode))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Errorf("log_level must be one of debug/info/warn/error, got %q", c.LogLevel))
	}

	if len(issues) > 0 {
		return errors.Join(issues...)
	}
	return nil
}

// EnsurePaths creates every configured directory if it does not
// already exist.
func (c *Config) EnsurePaths() error {
	for _, path := range []string{c.Paths.Root, c.Paths.ClientState} {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", path, err)
		}
	}
	return nil
}
