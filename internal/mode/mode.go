// Package mode is the single source of truth for the development/production
// switch. Every other component takes its mode-dependent behavior from a
// resolved Policy rather than re-inspecting the mode string.
package mode

import (
	"fmt"
	"strings"
)

// Mode is a validated build mode.
type Mode string

const (
	Development Mode = "development"
	Production  Mode = "production"
)

// ErrUnknownMode is wrapped into the error returned by Resolve for any mode
// value outside the recognized set. There is no silent default.
var ErrUnknownMode = fmt.Errorf("unknown build mode")

// SourceMapDetail enumerates how much source mapping detail chunks carry.
type SourceMapDetail string

const (
	SourceMapNone   SourceMapDetail = "none"
	SourceMapInline SourceMapDetail = "inline"
)

// Policy parameterizes the pipeline for one mode. It is a pure value: resolving
// the same mode always yields an equivalent policy.
type Policy struct {
	Mode Mode

	// SourceMapDetail controls per-chunk source annotations at emit time.
	SourceMapDetail SourceMapDetail

	// IncludeDevImports selects whether dev-only conditional imports are
	// followed during graph construction.
	IncludeDevImports bool
}

// Resolve maps a raw mode string to its Policy. Unrecognized values fail before
// any graph work begins.
func Resolve(raw string) (Policy, error) {
	switch Mode(strings.TrimSpace(strings.ToLower(raw))) {
	case Development:
		return Policy{
			Mode:              Development,
			SourceMapDetail:   SourceMapInline,
			IncludeDevImports: true,
		}, nil
	case Production:
		return Policy{
			Mode:              Production,
			SourceMapDetail:   SourceMapNone,
			IncludeDevImports: false,
		}, nil
	default:
		return Policy{}, fmt.Errorf("%w: %q (expected development or production)", ErrUnknownMode, raw)
	}
}

// ChunkFileName returns the output filename for a chunk with the given logical
// name, extension and content hash. Development names are stable across runs;
// production names embed the content hash for cache busting.
func (p Policy) ChunkFileName(name, ext, hash string) string {
	if p.Mode == Development {
		return name + ext
	}
	return name + "." + hash + ext
}

// AssetFileName returns the output filename for a module-referenced asset.
// Follows the same naming contract as chunks.
func (p Policy) AssetFileName(base, ext, hash string) string {
	if p.Mode == Development {
		return base + ext
	}
	return base + "." + hash + ext
}

// DefineValue returns the substitution for a define token, e.g. the value
// spliced in place of process.env.NODE_ENV by the define transform.
func (p Policy) DefineValue(token string) (string, bool) {
	switch token {
	case "process.env.NODE_ENV":
		return fmt.Sprintf("%q", string(p.Mode)), true
	case "__DEV__":
		if p.Mode == Development {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}
