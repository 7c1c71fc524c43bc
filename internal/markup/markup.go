// Package markup extracts bundle-relevant references from HTML entry
// documents: script sources and stylesheet links become imports of the entry,
// so an HTML page can act as an entry point without a hand-written root
// script.
package markup

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Scanner extracts script/stylesheet references from HTML content.
type Scanner struct{}

// NewScanner returns a markup scanner.
func NewScanner() *Scanner { return &Scanner{} }

// ExtractRefs returns local script src and stylesheet href values in document
// order. External (scheme-qualified or protocol-relative) references are left
// to the browser and never enter the graph.
func (s *Scanner) ExtractRefs(content []byte) []string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		// A malformed document simply contributes no references; the
		// document itself is still forwarded as an asset.
		return nil
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if ref, ok := elementRef(n); ok && isLocalRef(ref) {
				refs = append(refs, ref)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs
}

// elementRef returns the reference carried by a script or stylesheet element.
func elementRef(n *html.Node) (string, bool) {
	switch n.Data {
	case "script":
		if src := attr(n, "src"); src != "" {
			return src, true
		}
	case "link":
		if strings.EqualFold(attr(n, "rel"), "stylesheet") {
			if href := attr(n, "href"); href != "" {
				return href, true
			}
		}
	}
	return "", false
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func isLocalRef(ref string) bool {
	return !strings.Contains(ref, "://") && !strings.HasPrefix(ref, "//") && !strings.HasPrefix(ref, "data:")
}
