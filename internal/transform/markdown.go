package transform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/bundler/internal/graph"
	"git.home.luguber.info/inful/bundler/internal/mode"
)

// markdownUnit lowers .md modules into script modules exporting the rendered
// HTML, so application code can import documentation and templates the same
// way it imports any other module.
type markdownUnit struct {
	md goldmark.Markdown
}

func newMarkdownUnit(_ mode.Policy, options map[string]string) (Unit, error) {
	var exts []goldmark.Option
	switch options["flavor"] {
	case "", "gfm":
		exts = append(exts, goldmark.WithExtensions(extension.GFM))
	case "commonmark":
		// Plain CommonMark, no extensions.
	default:
		return nil, fmt.Errorf("invalid flavor option %q", options["flavor"])
	}
	return &markdownUnit{md: goldmark.New(exts...)}, nil
}

func (u *markdownUnit) Name() string { return "markdown" }

func (u *markdownUnit) Capabilities() []graph.Capability {
	return []graph.Capability{graph.CapabilityScript}
}

func (u *markdownUnit) Apply(m *graph.Module) error {
	if !strings.HasSuffix(m.ID, ".md") {
		return nil
	}
	src := m.Output
	if src == nil {
		src = m.Raw
	}
	var buf bytes.Buffer
	if err := u.md.Convert(src, &buf); err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	// JSON string quoting is a valid JS string literal. HTML escaping is
	// disabled so the rendered markup stays readable in the bundle.
	var quoted bytes.Buffer
	enc := json.NewEncoder(&quoted)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(buf.String()); err != nil {
		return fmt.Errorf("quote rendered markdown: %w", err)
	}
	m.Output = []byte(fmt.Sprintf("module.exports = %s;\n", bytes.TrimRight(quoted.Bytes(), "\n")))
	return nil
}
