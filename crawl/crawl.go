// Package crawl provides documentation crawling orchestration.
// It coordinates page discovery, cached fetching, extraction and
// Markdown conversion of documentation pages.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nesalia/fresh"
	"golang.org/x/sync/errgroup"
)

// Crawler turns discovered pages into Markdown.
type Crawler struct {
	Discoverer fresh.Discoverer
	Loader     *Loader
	Pipeline   *MarkdownPipeline
	// LinkSelector, when set, fills CrawlResult.Links.
	LinkSelector fresh.LinkSelector
	Concurrency  int
}

// Report is the outcome of a run over a whole site.
type Report struct {
	Manifest *fresh.Manifest
	// Results holds one result per completed page in manifest order.
	Results []*fresh.CrawlResult
	// Incomplete lists pages abandoned when the run's deadline expired.
	Incomplete []fresh.PageRef
	TimedOut   bool
	Summary    Summary
}

// Summary counts page outcomes.
type Summary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	FromCache int `json:"fromCache"`
	Degraded  int `json:"degraded"`
	Bytes     int `json:"bytes"`
}

// ProgressEvent reports progress during a crawl operation.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	// State is set for ProgressState events.
	State fresh.PageState
	Error error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressState
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress. Calls are
// serialized.
type ProgressFunc func(event ProgressEvent)

// Get converts a single page without running discovery.
func (c *Crawler) Get(ctx context.Context, rawURL string) (*fresh.CrawlResult, error) {
	ref, err := fresh.Canonicalize(rawURL)
	if err != nil {
		return nil, err
	}
	res := c.processPage(ctx, ref, nil)
	if res.Err != nil {
		return res, res.Err
	}
	return res, nil
}

// Run discovers every page under rootURL and converts each one. Pages that
// fail are reported in their result; Run itself only fails when discovery
// fails. When ctx expires mid-run, the completed results are returned with
// TimedOut set.
func (c *Crawler) Run(ctx context.Context, rootURL string, progress ProgressFunc) (*Report, error) {
	manifest, err := c.Discoverer.Discover(ctx, rootURL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Report{TimedOut: errors.Is(ctxErr, context.DeadlineExceeded)}, fmt.Errorf("discovery: %w", err)
		}
		return nil, err
	}

	report := c.Process(ctx, manifest.Pages, progress)
	report.Manifest = manifest
	return report, nil
}

// Process converts pages concurrently, keeping results in input order.
func (c *Crawler) Process(ctx context.Context, pages []fresh.PageRef, progress ProgressFunc) *Report {
	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	var mu sync.Mutex
	completed := 0
	emit := func(e ProgressEvent) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if e.Type == ProgressCompleted || e.Type == ProgressFailed {
			completed++
		}
		e.Completed = completed
		e.Total = len(pages)
		progress(e)
	}

	emit(ProgressEvent{Type: ProgressStarted})

	results := make([]*fresh.CrawlResult, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, ref := range pages {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := c.processPage(gctx, ref, emit)
			if gctx.Err() != nil && res.Err != nil {
				// Abandoned by the deadline; not a real outcome.
				return nil
			}
			results[i] = res
			if res.Err != nil {
				emit(ProgressEvent{Type: ProgressFailed, URL: ref.String(), Error: res.Err})
			} else {
				emit(ProgressEvent{Type: ProgressCompleted, URL: ref.String()})
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &Report{Summary: Summary{Total: len(pages)}}
	for i, res := range results {
		if res == nil {
			report.Incomplete = append(report.Incomplete, pages[i])
			continue
		}
		report.Results = append(report.Results, res)
		switch {
		case res.Err != nil:
			report.Summary.Failed++
		default:
			report.Summary.Succeeded++
			report.Summary.Bytes += len(res.Markdown)
		}
		if res.FromCache {
			report.Summary.FromCache++
		}
		if res.Degraded {
			report.Summary.Degraded++
		}
	}
	report.TimedOut = len(report.Incomplete) > 0 && ctx.Err() != nil

	emit(ProgressEvent{Type: ProgressFinished})
	return report
}

// processPage loads and converts a single page.
func (c *Crawler) processPage(ctx context.Context, ref fresh.PageRef, emit func(ProgressEvent)) *fresh.CrawlResult {
	res := &fresh.CrawlResult{Page: ref, State: fresh.StatePending}
	observe := func(s fresh.PageState) {
		res.State = s
		if emit != nil {
			emit(ProgressEvent{Type: ProgressState, URL: ref.String(), State: s})
		}
	}

	loaded, err := c.Loader.Load(ctx, ref, observe)
	if err != nil {
		res.Err = err
		return res
	}
	res.FromCache = loaded.FromCache

	observe(fresh.StateExtracting)
	md, err := c.Pipeline.Convert(string(loaded.Body))
	if err != nil {
		res.Err = fmt.Errorf("extracting %s: %w", ref, err)
		return res
	}
	res.Title = md.Title
	res.Markdown = md.Content
	res.Degraded = md.Degraded
	res.Links = c.links(loaded)

	observe(fresh.StateDone)
	return res
}

// links returns the same-host pages linked from the loaded page in
// document order without duplicates.
func (c *Crawler) links(loaded *Loaded) []fresh.PageRef {
	if c.LinkSelector == nil || !isHTML(loaded.ContentType) {
		return nil
	}
	found, err := c.LinkSelector.ExtractLinks(string(loaded.Body), loaded.Page.String())
	if err != nil {
		return nil
	}
	host := loaded.Page.Host()
	seen := make(map[fresh.PageRef]struct{}, len(found))
	var refs []fresh.PageRef
	for _, l := range found {
		ref, err := fresh.Canonicalize(l.URL)
		if err != nil || ref.Host() != host || ref == loaded.Page {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		refs = append(refs, ref)
	}
	return refs
}
