// Package emit serializes planned chunks into named artifacts and writes the
// output directory atomically: the previous output stays valid until the whole
// new artifact set is staged, then the directories are swapped.
package emit

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/bundler/internal/chunk"
	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/manifest"
	"git.home.luguber.info/inful/bundler/internal/mode"
)

// EmitError reports an I/O failure while writing output. It is fatal and the
// previous output directory is left untouched.
type EmitError struct {
	Path  string
	Cause error
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emit %s: %v", e.Path, e.Cause)
}

func (e *EmitError) Unwrap() error { return e.Cause }

// StaticAsset is one verbatim copy instruction from configuration. From is
// relative to the project root, To relative to the output directory.
type StaticAsset struct {
	From string
	To   string
}

// Emitter writes one build's artifacts.
type Emitter struct {
	root   string // project root for static asset sources
	outDir string
	policy mode.Policy
}

// New creates an emitter targeting the configured output directory.
func New(root, outDir string, policy mode.Policy) *Emitter {
	return &Emitter{root: root, outDir: outDir, policy: policy}
}

// Emit serializes every chunk, forwards assets, and swaps the staged result
// into place. Nothing is written until the whole chunk set is serialized; all
// chunks succeed or none are written.
func (e *Emitter) Emit(ctx context.Context, buildID string, chunks []*chunk.Chunk, statics []StaticAsset) (*manifest.Manifest, error) {
	// Asset filenames first: script chunks referencing assets embed the
	// emitted URL, so names must be fixed before chunk serialization.
	assetModules := collectAssetModules(chunks)
	assetFiles := make(map[string]string, len(assetModules))
	for _, m := range assetModules {
		assetFiles[m.ID] = assetFileName(m, e.policy)
	}

	files := make(map[string][]byte)
	m := &manifest.Manifest{
		BuildID:     buildID,
		Mode:        string(e.policy.Mode),
		GeneratedAt: time.Now().UTC(),
	}

	for _, c := range chunks {
		data := serializeChunk(c, e.policy, assetFiles)
		hash := graph.ContentHash(data)
		name := e.policy.ChunkFileName(c.Name, chunkExt(c.Kind), hash[:12])
		files[name] = data
		m.Entries = append(m.Entries, manifest.Entry{
			Name:      c.Name,
			File:      name,
			Kind:      string(c.Kind),
			Integrity: hash,
			Requires:  c.Requires,
		})
	}

	for _, am := range assetModules {
		name := assetFiles[am.ID]
		files[name] = am.Raw
		m.Entries = append(m.Entries, manifest.Entry{
			Name:      am.ID,
			File:      name,
			Kind:      string(graph.CapabilityAsset),
			Integrity: am.Hash,
		})
	}

	staticFiles, err := e.loadStatics(statics)
	if err != nil {
		return nil, err
	}
	for _, sf := range staticFiles {
		files[sf.to] = sf.data
		m.Entries = append(m.Entries, manifest.Entry{
			Name:      sf.to,
			File:      sf.to,
			Kind:      string(graph.CapabilityAsset),
			Integrity: graph.ContentHash(sf.data),
		})
	}

	manifestJSON, err := m.ToJSON()
	if err != nil {
		return nil, &EmitError{Path: "manifest.json", Cause: err}
	}
	files["manifest.json"] = manifestJSON

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.writeAtomic(buildID, files); err != nil {
		return nil, err
	}
	return m, nil
}

type staticFile struct {
	to   string
	data []byte
}

// loadStatics reads static copy sources up front so a missing source fails the
// build before anything is staged.
func (e *Emitter) loadStatics(statics []StaticAsset) ([]staticFile, error) {
	out := make([]staticFile, 0, len(statics))
	for _, s := range statics {
		data, err := os.ReadFile(filepath.Join(e.root, filepath.FromSlash(s.From)))
		if err != nil {
			return nil, &EmitError{Path: s.From, Cause: err}
		}
		to := path.Clean(s.To)
		if to == "." || to == "" {
			to = path.Base(s.From)
		}
		out = append(out, staticFile{to: to, data: data})
	}
	return out, nil
}

// collectAssetModules gathers asset-capability members across chunks, sorted
// by identity for deterministic manifest order.
func collectAssetModules(chunks []*chunk.Chunk) []*graph.Module {
	var out []*graph.Module
	for _, c := range chunks {
		for _, m := range c.Modules {
			if m.Capability == graph.CapabilityAsset {
				out = append(out, m)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// writeAtomic stages the complete file set next to the output directory, then
// swaps it into place. A failure at any point leaves the previous output
// directory in its prior valid state.
func (e *Emitter) writeAtomic(buildID string, files map[string][]byte) error {
	staging := e.outDir + ".staging-" + shortID(buildID)
	if err := os.RemoveAll(staging); err != nil {
		return &EmitError{Path: staging, Cause: err}
	}
	defer os.RemoveAll(staging) //nolint:errcheck // best-effort cleanup

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		full := filepath.Join(staging, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			return &EmitError{Path: name, Cause: err}
		}
		if err := os.WriteFile(full, files[name], 0o640); err != nil {
			return &EmitError{Path: name, Cause: err}
		}
	}

	previous := e.outDir + ".previous-" + shortID(buildID)
	hadPrevious := false
	if _, err := os.Stat(e.outDir); err == nil {
		if err := os.Rename(e.outDir, previous); err != nil {
			return &EmitError{Path: e.outDir, Cause: err}
		}
		hadPrevious = true
	}
	if err := os.Rename(staging, e.outDir); err != nil {
		if hadPrevious {
			_ = os.Rename(previous, e.outDir) // restore prior valid output
		}
		return &EmitError{Path: e.outDir, Cause: err}
	}
	if hadPrevious {
		if err := os.RemoveAll(previous); err != nil {
			return &EmitError{Path: previous, Cause: err}
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
