// Package graph owns the module data model and the dependency graph builder.
//
// Modules are discovered by breadth-first traversal from the configured entry
// points. Each module is resolved and transformed exactly once; the module
// table keyed by identity is the only shared mutable structure during
// concurrent discovery.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
)

// Capability tags a module with the kind of content it contributes to chunks.
type Capability string

const (
	CapabilityScript Capability = "script"
	CapabilityStyle  Capability = "style"
	CapabilityAsset  Capability = "asset"
)

// IsValid returns true if the capability is recognized.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityScript, CapabilityStyle, CapabilityAsset:
		return true
	default:
		return false
	}
}

// Import is one declared dependency of a module, in declaration order.
type Import struct {
	// Specifier is the raw import specifier as written in the source.
	Specifier string

	// Target is the resolved module identity the specifier maps to.
	Target string

	// DevOnly marks imports guarded by the dev-only pragma. They are only
	// present in the graph when the mode policy includes them.
	DevOnly bool
}

// Module is one node of the dependency graph. It is created on first
// resolution and immutable once transformed; ownership stays with the module
// table for the duration of the build.
type Module struct {
	// ID is the canonical identity: a cleaned slash path relative to the
	// project root.
	ID string

	// Hash is the hex sha256 of the raw content.
	Hash string

	// Capability routes the module through the transform chain and the
	// chunk planner.
	Capability Capability

	// Raw is the untransformed content as read from disk.
	Raw []byte

	// Output is the transformed representation serialized into chunks.
	// Empty for plain assets, which are forwarded from Raw.
	Output []byte

	// Stub is the script-side representation of a style module: a small
	// registration recording membership in a style bundle. Stubs are
	// hoisted into the runtime chunk by the planner.
	Stub []byte

	// Imports are the declared dependencies in declaration order, already
	// filtered by the mode policy's conditional-import selection.
	Imports []Import
}

// Ext returns the module's file extension (including the dot).
func (m *Module) Ext() string { return path.Ext(m.ID) }

// BaseName returns the module filename without directory or extension.
func (m *Module) BaseName() string {
	base := path.Base(m.ID)
	return base[:len(base)-len(path.Ext(base))]
}

// ContentHash computes the canonical content hash for raw module bytes.
func ContentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// CapabilityForPath maps a module path to its default capability. The loaders
// table from configuration overrides these defaults per extension.
func CapabilityForPath(id string, loaders map[string]Capability) Capability {
	ext := path.Ext(id)
	if loaders != nil {
		if c, ok := loaders[ext]; ok {
			return c
		}
	}
	switch ext {
	case ".js", ".mjs", ".jsx":
		return CapabilityScript
	case ".css":
		return CapabilityStyle
	case ".md":
		return CapabilityScript // lowered to a script module by the markdown unit
	default:
		return CapabilityAsset
	}
}
