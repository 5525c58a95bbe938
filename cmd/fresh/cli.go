package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/crawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
	Config *Globals

	Cache      fresh.CacheStore
	Manifests  ManifestClearer
	Discoverer fresh.Discoverer
	Crawler    *crawl.Crawler
	Renderer   fresh.Renderer

	// NewPageStore opens the output directory written by fetch.
	NewPageStore func(dir string) fresh.PageStore
	Now          func() time.Time
}

// ManifestClearer drops every remembered manifest.
type ManifestClearer interface {
	Clear(ctx context.Context) error
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Globals

	List  ListCmd  `cmd:"" help:"List the documentation pages under a URL"`
	Get   GetCmd   `cmd:"" help:"Print one page as Markdown"`
	Fetch FetchCmd `cmd:"" help:"Save every page under a URL as Markdown files"`
	Cache CacheCmd `cmd:"" help:"Manage the page cache"`
}

// Globals are the options shared by every command. Values from the config
// file apply to flags not given on the command line.
type Globals struct {
	Config  string `name:"config" type:"path" placeholder:"PATH" help:"Config file (default ~/.config/fresh/config.toml, env FRESH_CONFIG)"`
	Verbose bool   `name:"verbose" short:"v" help:"Log requests and cache activity to stderr"`
	NoCache bool   `name:"no-cache" help:"Ignore cached pages and manifests; fresh responses are still cached"`
	Proxy   string `name:"proxy" placeholder:"URL" help:"HTTP proxy URL"`
	Format  string `name:"format" default:"md" placeholder:"md|html|json" help:"Output format: md, html or json"`

	CacheDir     string        `name:"cache-dir" type:"path" placeholder:"DIR" help:"Cache directory (env FRESH_CACHE_DIR)"`
	CacheBackend string        `name:"cache-backend" default:"file" placeholder:"file|leveldb" help:"Cache backend: file or leveldb"`
	CacheTTL     time.Duration `name:"cache-ttl" default:"24h" help:"How long a cached page is served without revalidation"`

	Concurrency    int           `name:"concurrency" short:"c" default:"4" help:"Pages fetched in parallel"`
	Timeout        time.Duration `name:"timeout" default:"0s" help:"Deadline for the whole run, 0 for none"`
	RequestTimeout time.Duration `name:"request-timeout" default:"30s" help:"Timeout for a single request"`
	MaxRetries     int           `name:"max-retries" default:"3" help:"Retries for transient failures"`
	Backoff        time.Duration `name:"backoff" default:"1s" help:"Base delay between retries, doubled on every retry"`
	Interval       time.Duration `name:"interval" default:"500ms" help:"Minimum gap between requests to one host"`

	MaxPages     int      `name:"max-pages" default:"100" help:"Maximum pages discovered by the link crawl"`
	MaxDepth     int      `name:"max-depth" default:"3" help:"Maximum link depth of the crawl"`
	Include      []string `name:"include" placeholder:"REGEXP" help:"Only keep URLs matching this regular expression (repeatable)"`
	Exclude      []string `name:"exclude" placeholder:"REGEXP" help:"Drop URLs matching this regular expression (repeatable)"`
	Match        []string `name:"match" placeholder:"GLOB" help:"Only keep URLs or paths matching this glob (repeatable)"`
	Extractor    string   `name:"extractor" default:"heuristic" placeholder:"NAME" help:"Content extractor: heuristic, trafilatura or readability"`
	IgnoreRobots bool     `name:"ignore-robots" help:"Do not apply robots.txt Disallow rules"`
	AllowPrivate bool     `name:"allow-private" help:"Allow fetching loopback and private network hosts"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct {
	URL string `arg:"" help:"Documentation root URL"`
}

// GetCmd is the "get" subcommand.
type GetCmd struct {
	URL    string `arg:"" help:"Page URL"`
	Output string `short:"o" type:"path" placeholder:"FILE" help:"Write to FILE instead of stdout"`
}

// FetchCmd is the "fetch" subcommand.
type FetchCmd struct {
	URL string `arg:"" help:"Documentation root URL"`
	Dir string `arg:"" optional:"" type:"path" help:"Output directory (default: the site's host name)"`
}

// CacheCmd groups the cache subcommands.
type CacheCmd struct {
	Clear CacheClearCmd `cmd:"" help:"Remove one page or every page from the cache"`
}

// CacheClearCmd is the "cache clear" subcommand.
type CacheClearCmd struct {
	URL string `arg:"" optional:"" help:"Page to remove; the whole cache when omitted"`
}
