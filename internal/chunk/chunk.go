// Package chunk partitions the completed module graph into output chunks.
//
// Planning runs single-threaded after graph construction quiesces: it needs
// the complete, stable module set. Every module lands in exactly one chunk;
// the only exception is style stubs, which are hoisted into the designated
// runtime chunk as shared runtime helpers.
package chunk

import "git.home.luguber.info/inful/bundler/internal/graph"

// Kind classifies a chunk's artifact type.
type Kind string

const (
	KindRuntime Kind = "runtime"
	KindScript  Kind = "script"
	KindStyle   Kind = "style"
)

// Reserved chunk names assigned by the planner itself. Split rules may not
// target them.
const (
	RuntimeChunkName = "runtime"
	SharedChunkName  = "shared"
	StylesChunkName  = "styles"
)

// Chunk is a named, independently loadable group of modules emitted as one
// artifact.
type Chunk struct {
	Name string
	Kind Kind

	// Modules in the topological order induced by the module graph
	// restricted to members, guaranteeing correct evaluation order.
	Modules []*graph.Module

	// Requires lists logical names of chunks that must load before this
	// one. The runtime chunk is always first.
	Requires []string

	// EntryModules are entry-point roots living in this chunk; the
	// emitter appends a require call for each.
	EntryModules []string

	// Hoisted holds style modules whose script stubs are emitted into
	// this chunk. Only populated on the runtime chunk.
	Hoisted []*graph.Module
}

// ModuleIDs returns member identities in evaluation order.
func (c *Chunk) ModuleIDs() []string {
	ids := make([]string, len(c.Modules))
	for i, m := range c.Modules {
		ids[i] = m.ID
	}
	return ids
}
