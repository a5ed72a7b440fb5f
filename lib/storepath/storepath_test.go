// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package storepath

import (
	"encoding/json"
	"testing"
)

func TestParsePath(t *testing.T) {
	cases := []struct {
		raw     string
		wantErr bool
	}{
		{"/nix/store/abc123-hello", false},
		{"", true},
		{"/nix/store/", true},
		{"relative/path", true},
		{"/nix/store//leading-slash", true},
	}
	for _, c := range cases {
		_, err := ParsePath(c.raw)
		if (err != nil) != c.wantErr {
			t.Errorf("ParsePath(%q): err=%v, wantErr=%v", c.raw, err, c.wantErr)
		}
	}
}

func TestPathHashPrefix(t *testing.T) {
	p, err := ParsePath("/nix/store/abc123-hello")
	if err != nil {
		t.Fatal(err)
	}
	if got := p.HashPrefix(); got != "abc123-hello" {
		t.Errorf("HashPrefix() = %q, want %q", got, "abc123-hello")
	}
}

func TestPathJSONRoundTrip(t *testing.T) {
	p, err := ParsePath("/nix/store/abc123-hello")
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"/nix/store/abc123-hello"` {
		t.Errorf("Marshal = %s, want a bare JSON string", data)
	}
	var roundTripped Path
	if err := json.Unmarshal(data, &roundTripped); err != nil {
		t.Fatal(err)
	}
	if roundTripped.String() != p.String() {
		t.Errorf("round trip = %q, want %q", roundTripped.String(), p.String())
	}
}

func TestParseRevision(t *testing.T) {
	valid := "0123456789abcdef0123456789abcdef01234567"
	if _, err := ParseRevision(valid); err != nil {
		t.Errorf("ParseRevision(%q): unexpected error %v", valid, err)
	}
	if _, err := ParseRevision("too-short"); err == nil {
		t.Error("ParseRevision(short): want error")
	}
	if _, err := ParseRevision("0123456789ABCDEF0123456789abcdef0123456"); err == nil {
		t.Error("ParseRevision(uppercase): want error")
	}
}

func TestStoreRootEqual(t *testing.T) {
	p, _ := ParsePath("/nix/store/abc123-hello")
	r, _ := ParseRevision("0123456789abcdef0123456789abcdef01234567")
	a := StoreRoot{NixPath: p, GitRevision: r}
	b := StoreRoot{NixPath: p, GitRevision: r}
	if !a.Equal(b) {
		t.Error("expected equal StoreRoots to compare equal")
	}
}
