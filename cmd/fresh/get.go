package main

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"

	"github.com/nesalia/fresh/crawl"
)

// Run executes the get command.
func (c *GetCmd) Run(deps *Dependencies) error {
	res, err := deps.Crawler.Get(deps.Ctx, c.URL)
	if err != nil {
		return err
	}
	if res.Degraded {
		fmt.Fprintf(deps.Stderr, "warning: no main content found on %s\n", res.Page)
	}

	out, err := renderPage(deps, res)
	if err != nil {
		return err
	}

	if c.Output == "" {
		_, err = fmt.Fprint(deps.Stdout, out)
		return err
	}
	return writeIfChanged(deps, c.Output, out)
}

// writeIfChanged writes content to path unless the file already holds the
// same content.
func writeIfChanged(deps *Dependencies, path, content string) error {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && crawl.ComputeHash(string(existing)) == crawl.ComputeHash(content):
		fmt.Fprintf(deps.Stderr, "%s unchanged\n", path)
		return nil
	case err != nil && !errors.Is(err, iofs.ErrNotExist):
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return err
	}
	fmt.Fprintf(deps.Stderr, "Wrote %s (%s)\n", path, crawl.FormatBytes(len(content)))
	return nil
}
