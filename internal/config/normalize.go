package config

import (
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalize canonicalizes user input after YAML load and before validation:
// Unicode NFC on names and paths, whitespace trimming, case-folded
// enumerations, and slash-path cleanup. Validation then runs against canonical
// values only.
func normalize(c *Config) {
	c.Mode = strings.ToLower(strings.TrimSpace(c.Mode))
	c.Root = cleanPath(c.Root)
	if c.Root == "" {
		c.Root = "."
	}
	c.Output = cleanPath(c.Output)
	if c.Output == "" {
		c.Output = "dist"
	}

	if len(c.Entries) > 0 {
		entries := make(map[string]string, len(c.Entries))
		for name, p := range c.Entries {
			entries[canon(name)] = cleanPath(p)
		}
		c.Entries = entries
	}

	if len(c.Resolve.VendorDirs) == 0 {
		c.Resolve.VendorDirs = []string{"node_modules"}
	}
	for i, d := range c.Resolve.VendorDirs {
		c.Resolve.VendorDirs[i] = cleanPath(d)
	}
	for i, p := range c.Resolve.Exclude {
		c.Resolve.Exclude[i] = canon(p)
	}

	for i := range c.Split {
		c.Split[i].Target = canon(c.Split[i].Target)
		c.Split[i].Path = canon(c.Split[i].Path)
		c.Split[i].Capability = strings.ToLower(strings.TrimSpace(c.Split[i].Capability))
	}

	for i := range c.Transforms {
		c.Transforms[i].Name = strings.ToLower(strings.TrimSpace(c.Transforms[i].Name))
	}

	for i := range c.Assets {
		c.Assets[i].From = cleanPath(c.Assets[i].From)
		c.Assets[i].To = canon(c.Assets[i].To)
	}

	if len(c.Loaders) > 0 {
		loaders := make(map[string]string, len(c.Loaders))
		for ext, capability := range c.Loaders {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			loaders[ext] = strings.ToLower(strings.TrimSpace(capability))
		}
		c.Loaders = loaders
	}

	if c.Build.Concurrency < 0 {
		c.Build.Concurrency = 0
	}
	c.Build.HistoryDB = canon(c.Build.HistoryDB)
}

// canon trims and NFC-normalizes a string.
func canon(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// cleanPath canonicalizes a slash path.
func cleanPath(s string) string {
	s = canon(s)
	if s == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(s, "\\", "/"))
}
