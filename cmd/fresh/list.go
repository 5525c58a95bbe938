package main

import (
	"fmt"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	m, err := deps.Discoverer.Discover(deps.Ctx, c.URL)
	if err != nil {
		return err
	}

	switch deps.Config.Format {
	case "json":
		return writeJSON(deps.Stdout, m)
	case "html":
		html, err := deps.Renderer.Render(manifestMarkdown(m))
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(deps.Stdout, withNewline(html))
		return err
	}

	for _, p := range m.Paths() {
		fmt.Fprintln(deps.Stdout, p)
	}
	return nil
}
