package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nesalia/fresh"
)

// writeJSON writes v as indented JSON followed by a newline.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderPage formats a converted page for output.
func renderPage(deps *Dependencies, res *fresh.CrawlResult) (string, error) {
	switch deps.Config.Format {
	case "json":
		res.Sections = deps.Renderer.Outline(res.Markdown)
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", err
		}
		return string(b) + "\n", nil
	case "html":
		html, err := deps.Renderer.Render(res.Markdown)
		if err != nil {
			return "", fmt.Errorf("rendering %s: %w", res.Page, err)
		}
		return withNewline(html), nil
	}
	return withNewline(res.Markdown), nil
}

// manifestMarkdown lists the manifest pages as Markdown links.
func manifestMarkdown(m *fresh.Manifest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.RootURL.Name())
	for _, p := range m.Pages {
		fmt.Fprintf(&b, "- [%s](%s)\n", p.Path(), p)
	}
	return b.String()
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
