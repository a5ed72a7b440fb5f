// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package listgenerations

import "testing"

func TestParseMarksCurrentGeneration(t *testing.T) {
	output := "" +
		"  40   2026-01-10 08:00:00   \n" +
		"  41   2026-01-12 11:05:33   \n" +
		"  42   2026-01-15 09:30:12   (current)\n"

	generations, err := parse(output)
	if err != nil {
		t.Fatal(err)
	}
	if len(generations) != 3 {
		t.Fatalf("len(generations) = %d, want 3", len(generations))
	}
	if generations[2].Number != 42 || !generations[2].Current {
		t.Errorf("generations[2] = %+v, want number 42, current", generations[2])
	}
	for _, gen := range generations[:2] {
		if gen.Current {
			t.Errorf("generation %d marked current unexpectedly", gen.Number)
		}
	}
}

func TestParseIgnoresBlankLines(t *testing.T) {
	generations, err := parse("\n\n  5   2026-01-01 00:00:00   \n\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(generations) != 1 {
		t.Fatalf("len(generations) = %d, want 1", len(generations))
	}
}
