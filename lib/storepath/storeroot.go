// Copyright 2026 The Driftpack Authors
// SPDX-License-Identifier: Apache-2.0

package storepath

// StoreRoot anchors one built system configuration: the store path it
// produced and the git revision of the flake that produced it.
type StoreRoot struct {
	NixPath     Path     `json:"nixPath"`
	GitRevision Revision `json:"gitRevision"`
}

// IsZero reports whether r is the zero value.
func (r StoreRoot) IsZero() bool {
	return r.NixPath.IsZero() && r.GitRevision.IsZero()
}

// Equal reports whether r and other identify the same built output.
func (r StoreRoot) Equal(other StoreRoot) bool {
	return r.NixPath.String() == other.NixPath.String() && r.GitRevision.String() == other.GitRevision.String()
}

// PathInfo describes one store object's metadata: its content hash,
// byte size, and the set of store paths it references. The transitive
// closure of a root is the fixpoint of References.
type PathInfo struct {
	Path       Path   `json:"path"`
	NarHash    string `json:"narHash"`
	NarSize    int64  `json:"narSize"`
	References []Path `json:"references"`
}
