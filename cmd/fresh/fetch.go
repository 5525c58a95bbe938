package main

import (
	"fmt"

	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/crawl"
)

// fetchSummary is printed by fetch with --format json.
type fetchSummary struct {
	Root       fresh.PageRef        `json:"root"`
	Dir        string               `json:"dir"`
	Source     fresh.ManifestSource `json:"source"`
	Summary    crawl.Summary        `json:"summary"`
	TimedOut   bool                 `json:"timedOut,omitempty"`
	Incomplete []fresh.PageRef      `json:"incomplete,omitempty"`
	Failures   map[string]string    `json:"failures,omitempty"`
}

// Run executes the fetch command.
func (c *FetchCmd) Run(deps *Dependencies) error {
	root, err := fresh.Canonicalize(c.URL)
	if err != nil {
		return err
	}
	dir := c.Dir
	if dir == "" {
		dir = root.URL().Hostname()
	}

	progress := func(e crawl.ProgressEvent) {
		switch e.Type {
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "\rskip %s: %s\n", e.URL, errorText(e.Error))
			fallthrough
		case crawl.ProgressCompleted:
			fmt.Fprintf(deps.Stderr, "\r[%d/%d] %s", e.Completed, e.Total, crawl.TruncateURL(e.URL, 40))
		case crawl.ProgressFinished:
			// Clear progress line
			fmt.Fprintf(deps.Stderr, "\r%80s\r", "")
		}
	}

	report, err := deps.Crawler.Run(deps.Ctx, root.String(), progress)
	if err != nil {
		return err
	}

	store := deps.NewPageStore(dir)
	fetched := deps.Now()
	failures := make(map[string]string)
	for _, res := range report.Results {
		if res.Err != nil {
			failures[res.Page.String()] = errorText(res.Err)
			continue
		}
		page := &fresh.Page{
			URL:       res.Page.String(),
			Title:     res.Title,
			Content:   res.Markdown,
			FetchedAt: fetched,
			Degraded:  res.Degraded,
		}
		if err := store.Save(deps.Ctx, page); err != nil {
			_ = store.Abort()
			return fmt.Errorf("saving %s: %w", page.URL, err)
		}
	}

	s := report.Summary
	if s.Succeeded == 0 {
		_ = store.Abort()
		if report.TimedOut {
			return fresh.Errorf(fresh.ENETWORK, "timed out before any page of %s was fetched", root)
		}
		return fresh.Errorf(fresh.ENETWORK, "all %d pages of %s failed", s.Total, root)
	}
	if err := store.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", dir, err)
	}

	if deps.Config.Format == "json" {
		out := fetchSummary{
			Root:       root,
			Dir:        dir,
			Source:     report.Manifest.Source,
			Summary:    s,
			TimedOut:   report.TimedOut,
			Incomplete: report.Incomplete,
		}
		if len(failures) > 0 {
			out.Failures = failures
		}
		return writeJSON(deps.Stdout, out)
	}

	fmt.Fprintf(deps.Stdout, "Saved %d pages to %s (%s)\n", s.Succeeded, dir, crawl.FormatBytes(s.Bytes))
	if s.Failed > 0 {
		fmt.Fprintf(deps.Stdout, "%d failed\n", s.Failed)
	}
	if s.FromCache > 0 {
		fmt.Fprintf(deps.Stdout, "%d from cache\n", s.FromCache)
	}
	if s.Degraded > 0 {
		fmt.Fprintf(deps.Stdout, "%d without main content\n", s.Degraded)
	}
	if report.TimedOut {
		fmt.Fprintf(deps.Stdout, "Timed out: %d pages not fetched\n", len(report.Incomplete))
	}
	return nil
}
