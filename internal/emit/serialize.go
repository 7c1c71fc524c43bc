package emit

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/bundler/internal/chunk"
	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/mode"
)

// serializeChunk renders one chunk to its final artifact bytes. Module order
// is fixed by the planner; serialization adds nothing order-dependent of its
// own, so the content hash is a pure function of the chunk's resolved content.
func serializeChunk(c *chunk.Chunk, policy mode.Policy, assetFiles map[string]string) []byte {
	if c.Kind == chunk.KindStyle {
		return serializeStyleChunk(c)
	}
	return serializeScriptChunk(c, policy, assetFiles)
}

func serializeStyleChunk(c *chunk.Chunk) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "/* bundle: %s */\n", c.Name)
	for _, m := range c.Modules {
		fmt.Fprintf(&b, "/* %s */\n", m.ID)
		b.Write(m.Output)
		if len(m.Output) > 0 && m.Output[len(m.Output)-1] != '\n' {
			b.WriteByte('\n')
		}
	}
	return []byte(b.String())
}

func serializeScriptChunk(c *chunk.Chunk, policy mode.Policy, assetFiles map[string]string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "// bundle: %s\n", c.Name)

	if c.Kind == chunk.KindRuntime {
		b.WriteString(runtimeBootstrap)
		for _, m := range c.Hoisted {
			b.Write(m.Stub)
		}
	}

	for _, m := range c.Modules {
		fmt.Fprintf(&b, "__bundle.define(%s, function(module, exports, require) {\n", jsString(m.ID))
		b.WriteString(moduleBody(m, assetFiles))
		if policy.SourceMapDetail == mode.SourceMapInline {
			fmt.Fprintf(&b, "//# sourceURL=bundler:///%s\n", m.ID)
		}
		b.WriteString("});\n")
	}

	for _, id := range c.EntryModules {
		fmt.Fprintf(&b, "__bundle.require(%s);\n", jsString(id))
	}
	return []byte(b.String())
}

// moduleBody renders the registration body for one module. Style modules that
// land in script chunks inject their CSS at evaluation time; asset modules
// export the emitted asset URL.
func moduleBody(m *graph.Module, assetFiles map[string]string) string {
	switch m.Capability {
	case graph.CapabilityStyle:
		return fmt.Sprintf("__bundle.injectStyle(%s, %s);\nmodule.exports = {};\n",
			jsString(m.ID), jsString(string(m.Output)))
	case graph.CapabilityAsset:
		return fmt.Sprintf("module.exports = %s;\n", jsString(assetFiles[m.ID]))
	default:
		body := string(m.Output)
		if body != "" && !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		return body
	}
}

// jsString renders a Go string as a JS string literal. JSON quoting is a
// subset of JS literal syntax; HTML escaping is disabled so CSS and markup
// payloads stay readable.
func jsString(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimRight(b.String(), "\n")
}

// chunkExt maps a chunk kind to its artifact extension.
func chunkExt(kind chunk.Kind) string {
	if kind == chunk.KindStyle {
		return ".css"
	}
	return ".js"
}

// assetFileName computes the output-relative path for a module-referenced
// asset. Development names mirror the module identity for stability;
// production names embed the raw content hash.
func assetFileName(m *graph.Module, policy mode.Policy) string {
	if policy.Mode == mode.Development {
		return path.Join("assets", m.ID)
	}
	dir := path.Dir(m.ID)
	name := policy.AssetFileName(m.BaseName(), m.Ext(), m.Hash[:12])
	return path.Join("assets", dir, name)
}
