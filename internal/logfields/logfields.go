package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyEntry      = "entry"
	KeyModule     = "module"
	KeyChunk      = "chunk"
	KeySpecifier  = "specifier"
	KeyPath       = "path"
	KeyMode       = "mode"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Entry(name string) slog.Attr     { return slog.String(KeyEntry, name) }
func Module(id string) slog.Attr      { return slog.String(KeyModule, id) }
func Chunk(name string) slog.Attr     { return slog.String(KeyChunk, name) }
func Specifier(spec string) slog.Attr { return slog.String(KeySpecifier, spec) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
