// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	for _, algorithm := range []Algorithm{AlgorithmZstd, AlgorithmLZ4} {
		t.Run(algorithm.String(), func(t *testing.T) {
			src := t.TempDir()
			writeFile(t, filepath.Join(src, "instruction.json"), `{"kind":"switch","commands":[]}`)
			writeFile(t, filepath.Join(src, "archive", "abc.narinfo"), "narHash: sha256-xyz")

			packed := filepath.Join(t.TempDir(), "instruction.tar.zst")
			if err := Pack(src, packed, algorithm); err != nil {
				t.Fatal(err)
			}

			dest := t.TempDir()
			if err := Unpack(packed, dest); err != nil {
				t.Fatal(err)
			}

			got, err := os.ReadFile(filepath.Join(dest, "instruction.json"))
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != `{"kind":"switch","commands":[]}` {
				t.Errorf("instruction.json = %q", got)
			}

			got, err = os.ReadFile(filepath.Join(dest, "archive", "abc.narinfo"))
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != "narHash: sha256-xyz" {
				t.Errorf("archive/abc.narinfo = %q", got)
			}
		})
	}
}

func TestParseAlgorithm(t *testing.T) {
	if a, err := ParseAlgorithm("zstd"); err != nil || a != AlgorithmZstd {
		t.Errorf("ParseAlgorithm(zstd) = %v, %v", a, err)
	}
	if a, err := ParseAlgorithm("lz4"); err != nil || a != AlgorithmLZ4 {
		t.Errorf("ParseAlgorithm(lz4) = %v, %v", a, err)
	}
	if _, err := ParseAlgorithm("gzip"); err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}
