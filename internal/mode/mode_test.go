package mode

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRecognizedModes(t *testing.T) {
	dev, err := Resolve("development")
	require.NoError(t, err)
	assert.Equal(t, Development, dev.Mode)
	assert.True(t, dev.IncludeDevImports)
	assert.Equal(t, SourceMapInline, dev.SourceMapDetail)

	prod, err := Resolve("production")
	require.NoError(t, err)
	assert.Equal(t, Production, prod.Mode)
	assert.False(t, prod.IncludeDevImports)
	assert.Equal(t, SourceMapNone, prod.SourceMapDetail)
}

func TestResolveNormalizesCase(t *testing.T) {
	p, err := Resolve("  Production ")
	require.NoError(t, err)
	assert.Equal(t, Production, p.Mode)
}

func TestResolveRejectsUnknownMode(t *testing.T) {
	_, err := Resolve("staging")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestChunkFileNameByMode(t *testing.T) {
	dev, _ := Resolve("development")
	prod, _ := Resolve("production")

	assert.Equal(t, "index.js", dev.ChunkFileName("index", ".js", "abc123def456"))
	assert.Equal(t, "index.abc123def456.js", prod.ChunkFileName("index", ".js", "abc123def456"))
}

func TestDefineValues(t *testing.T) {
	dev, _ := Resolve("development")
	prod, _ := Resolve("production")

	v, ok := dev.DefineValue("process.env.NODE_ENV")
	require.True(t, ok)
	assert.Equal(t, `"development"`, v)

	v, ok = prod.DefineValue("__DEV__")
	require.True(t, ok)
	assert.Equal(t, "false", v)

	_, ok = prod.DefineValue("UNKNOWN_TOKEN")
	assert.False(t, ok)
}
