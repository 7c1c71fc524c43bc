package emit

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bundler/internal/chunk"
	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/mode"
)

func scriptModule(id, body string) *graph.Module {
	raw := []byte(body)
	return &graph.Module{
		ID:         id,
		Hash:       graph.ContentHash(raw),
		Capability: graph.CapabilityScript,
		Raw:        raw,
		Output:     raw,
	}
}

func styleModule(id, css string) *graph.Module {
	raw := []byte(css)
	return &graph.Module{
		ID:         id,
		Hash:       graph.ContentHash(raw),
		Capability: graph.CapabilityStyle,
		Raw:        raw,
		Output:     raw,
		Stub:       []byte(`__bundle.style("` + id + `");` + "\n"),
	}
}

func assetModule(id string, data []byte) *graph.Module {
	return &graph.Module{
		ID:         id,
		Hash:       graph.ContentHash(data),
		Capability: graph.CapabilityAsset,
		Raw:        data,
	}
}

func testChunks() []*chunk.Chunk {
	style := styleModule("src/app.css", "body { color: red }")
	return []*chunk.Chunk{
		{
			Name:    chunk.RuntimeChunkName,
			Kind:    chunk.KindRuntime,
			Hoisted: []*graph.Module{style},
		},
		{
			Name:         "index",
			Kind:         chunk.KindScript,
			Modules:      []*graph.Module{scriptModule("src/index.js", "console.log(1);")},
			Requires:     []string{chunk.RuntimeChunkName, chunk.StylesChunkName},
			EntryModules: []string{"src/index.js"},
		},
		{
			Name:     chunk.StylesChunkName,
			Kind:     chunk.KindStyle,
			Modules:  []*graph.Module{style},
			Requires: []string{chunk.RuntimeChunkName},
		},
	}
}

func devPolicy(t *testing.T) mode.Policy {
	t.Helper()
	p, err := mode.Resolve("development")
	require.NoError(t, err)
	return p
}

func prodPolicy(t *testing.T) mode.Policy {
	t.Helper()
	p, err := mode.Resolve("production")
	require.NoError(t, err)
	return p
}

func TestEmitDevelopmentStableNames(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	e := New(root, out, devPolicy(t))

	m, err := e.Emit(context.Background(), "build-1", testChunks(), nil)
	require.NoError(t, err)

	require.Len(t, m.Entries, 3)
	assert.Equal(t, "runtime.js", m.Entries[0].File)
	assert.Equal(t, "index.js", m.Entries[1].File)
	assert.Equal(t, "styles.css", m.Entries[2].File)

	for _, name := range []string{"runtime.js", "index.js", "styles.css", "manifest.json"} {
		_, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
	}
}

func TestEmitProductionNamesEmbedHash(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	e := New(root, out, prodPolicy(t))

	m, err := e.Emit(context.Background(), "build-1", testChunks(), nil)
	require.NoError(t, err)

	idx, ok := m.Lookup("index")
	require.True(t, ok)
	assert.Regexp(t, `^index\.[0-9a-f]{12}\.js$`, idx.File)
	assert.Equal(t, strings.Split(idx.File, ".")[1], idx.Integrity[:12])
}

func TestEmitProductionNameChangesWithContent(t *testing.T) {
	root := t.TempDir()
	policy := prodPolicy(t)

	emit := func(out, body string) string {
		chunks := []*chunk.Chunk{{
			Name:    "index",
			Kind:    chunk.KindScript,
			Modules: []*graph.Module{scriptModule("src/index.js", body)},
		}}
		m, err := New(root, filepath.Join(root, out), policy).Emit(context.Background(), "b", chunks, nil)
		require.NoError(t, err)
		e, ok := m.Lookup("index")
		require.True(t, ok)
		return e.File
	}

	same := emit("a", "console.log(1);")
	assert.Equal(t, same, emit("b", "console.log(1);"))
	assert.NotEqual(t, same, emit("c", "console.log(2);"))
}

func TestEmitRuntimeCarriesBootstrapAndStubs(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	_, err := New(root, out, devPolicy(t)).Emit(context.Background(), "b", testChunks(), nil)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "runtime.js"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "global.__bundle")
	assert.Contains(t, string(data), `__bundle.style("src/app.css");`)

	idx, err := os.ReadFile(filepath.Join(out, "index.js"))
	require.NoError(t, err)
	assert.Contains(t, string(idx), `__bundle.define("src/index.js"`)
	assert.Contains(t, string(idx), `__bundle.require("src/index.js");`)
	assert.Contains(t, string(idx), "//# sourceURL=bundler:///src/index.js")
}

func TestEmitProductionOmitsSourceAnnotations(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	m, err := New(root, out, prodPolicy(t)).Emit(context.Background(), "b", testChunks(), nil)
	require.NoError(t, err)

	idx, ok := m.Lookup("index")
	require.True(t, ok)
	data, err := os.ReadFile(filepath.Join(out, idx.File))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sourceURL")
}

func TestEmitAssetModules(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	logo := assetModule("src/logo.png", []byte{0x89, 'P', 'N', 'G'})
	chunks := []*chunk.Chunk{{
		Name: "index",
		Kind: chunk.KindScript,
		Modules: []*graph.Module{
			scriptModule("src/index.js", "require('./logo.png');"),
			logo,
		},
	}}

	m, err := New(root, out, prodPolicy(t)).Emit(context.Background(), "b", chunks, nil)
	require.NoError(t, err)

	e, ok := m.Lookup("src/logo.png")
	require.True(t, ok)
	assert.Equal(t, "asset", e.Kind)
	assert.Regexp(t, `^assets/src/logo\.[0-9a-f]{12}\.png$`, e.File)

	data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(e.File)))
	require.NoError(t, err)
	assert.Equal(t, logo.Raw, data)

	// The owning script chunk exports the emitted URL.
	idx, ok := m.Lookup("index")
	require.True(t, ok)
	js, err := os.ReadFile(filepath.Join(out, idx.File))
	require.NoError(t, err)
	assert.Contains(t, string(js), `module.exports = "`+e.File+`";`)
}

func TestEmitStaticAssets(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "public"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "public", "robots.txt"), []byte("User-agent: *\n"), 0o640))

	out := filepath.Join(root, "dist")
	statics := []StaticAsset{{From: "public/robots.txt", To: "robots.txt"}}
	m, err := New(root, out, devPolicy(t)).Emit(context.Background(), "b", testChunks(), statics)
	require.NoError(t, err)

	e, ok := m.Lookup("robots.txt")
	require.True(t, ok)
	assert.Equal(t, "asset", e.Kind)

	data, err := os.ReadFile(filepath.Join(out, "robots.txt"))
	require.NoError(t, err)
	assert.Equal(t, "User-agent: *\n", string(data))
}

func TestEmitMissingStaticLeavesOutputIntact(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	e := New(root, out, devPolicy(t))

	_, err := e.Emit(context.Background(), "b1", testChunks(), nil)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(out, "manifest.json"))
	require.NoError(t, err)

	_, err = e.Emit(context.Background(), "b2", testChunks(), []StaticAsset{{From: "public/missing.txt", To: "missing.txt"}})
	require.Error(t, err)
	var emitErr *EmitError
	require.ErrorAs(t, err, &emitErr)
	assert.Equal(t, "public/missing.txt", emitErr.Path)

	after, err := os.ReadFile(filepath.Join(out, "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed build must not disturb previous output")
}

func TestEmitReplacesPreviousOutput(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	e := New(root, out, prodPolicy(t))

	first := func(body string) string {
		chunks := []*chunk.Chunk{{
			Name:    "index",
			Kind:    chunk.KindScript,
			Modules: []*graph.Module{scriptModule("src/index.js", body)},
		}}
		m, err := e.Emit(context.Background(), "b", chunks, nil)
		require.NoError(t, err)
		entry, ok := m.Lookup("index")
		require.True(t, ok)
		return entry.File
	}

	old := first("console.log(1);")
	updated := first("console.log(2);")
	require.NotEqual(t, old, updated)

	_, err := os.Stat(filepath.Join(out, old))
	assert.True(t, os.IsNotExist(err), "stale artifact must be gone after swap")
	_, err = os.Stat(filepath.Join(out, updated))
	assert.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, de := range entries {
		assert.NotContains(t, de.Name(), ".staging-")
		assert.NotContains(t, de.Name(), ".previous-")
	}
}

func TestEmitCanceledContext(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "dist")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(root, out, devPolicy(t)).Emit(ctx, "b", testChunks(), nil)
	require.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "canceled build must write nothing")
}
