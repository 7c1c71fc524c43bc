// Package manifest models the build's output index: the ordered mapping from
// logical names to emitted filenames that the HTML/template collaborator uses
// to inject correct script and style tags.
package manifest

import (
	"encoding/json"
	"fmt"
	"time"
)

// Manifest is produced fresh on every successful build.
type Manifest struct {
	BuildID     string    `json:"build_id"`
	Mode        string    `json:"mode"`
	GeneratedAt time.Time `json:"generated_at"`

	// Entries are ordered: the runtime chunk first, then chunks in plan
	// order, then forwarded assets.
	Entries []Entry `json:"entries"`
}

// Entry maps one logical name to its emitted file.
type Entry struct {
	// Name is the logical name: chunk name, or module identity for assets.
	Name string `json:"name"`

	// File is the emitted filename relative to the output directory.
	File string `json:"file"`

	// Kind is runtime, script, style or asset.
	Kind string `json:"kind"`

	// Integrity is the hex sha256 of the emitted bytes.
	Integrity string `json:"integrity,omitempty"`

	// Requires lists logical chunk names that must load before this one.
	Requires []string `json:"requires,omitempty"`
}

// Lookup returns the entry with the given logical name.
func (m *Manifest) Lookup(name string) (Entry, bool) {
	for _, e := range m.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// ByKind returns entries of one kind, preserving manifest order.
func (m *Manifest) ByKind(kind string) []Entry {
	var out []Entry
	for _, e := range m.Entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// ToJSON serializes the manifest.
func (m *Manifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}
