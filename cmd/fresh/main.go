package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/crawl"
	"github.com/nesalia/fresh/fs"
	"github.com/nesalia/fresh/goldmark"
	"github.com/nesalia/fresh/goquery"
	"github.com/nesalia/fresh/htmltomarkdown"
	freshhttp "github.com/nesalia/fresh/http"
	"github.com/nesalia/fresh/leveldb"
	"github.com/nesalia/fresh/readability"
	freshslog "github.com/nesalia/fresh/slog"
	"github.com/nesalia/fresh/sqlite"
	"github.com/nesalia/fresh/trafilatura"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", errorText(err))
		stop()
		os.Exit(1)
	}
}

// errorText prefers the message of application errors over their
// diagnostic form.
func errorText(err error) string {
	if fresh.ErrorCode(err) == fresh.EINTERNAL {
		return err.Error()
	}
	return fresh.ErrorMessage(err)
}

// Main represents the program.
type Main struct {
	// ConfigPath is read when neither --config nor FRESH_CONFIG is given.
	// A missing file at this path is ignored. Empty disables it.
	ConfigPath string

	// Getenv looks up environment variables.
	Getenv func(string) string

	// Now is the clock used for fetched dates.
	Now func() time.Time

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		ConfigPath: DefaultConfigPath(),
		Getenv:     os.Getenv,
		Now:        time.Now,
	}
}

// Close releases the cache, the manifest database and idle connections.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Stdout: stdout,
		Stderr: stderr,
		Now:    m.Now,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("fresh"),
		kong.Description("List the pages of a documentation site and read them as Markdown."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fresh.Errorf(fresh.EINVALID, "no command specified. Run 'fresh --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if err := m.configure(&cli.Globals, changedFlags(kongCtx)); err != nil {
		return err
	}

	if cli.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cli.Timeout)
		defer cancel()
	}
	deps.Ctx = ctx
	deps.Config = &cli.Globals

	if err := m.wire(deps, &cli.Globals); err != nil {
		_ = m.Close()
		return err
	}
	defer m.Close()

	return kongCtx.Run(deps)
}

// changedFlags returns the names of the flags given on the command line.
func changedFlags(kongCtx *kong.Context) map[string]bool {
	changed := make(map[string]bool)
	for _, p := range kongCtx.Path {
		if p.Flag != nil && !p.Resolved {
			changed[p.Flag.Name] = true
		}
	}
	return changed
}

// configure merges the config file and environment into g and validates
// the result.
func (m *Main) configure(g *Globals, changed map[string]bool) error {
	getenv := m.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	path, required := g.Config, g.Config != ""
	if !required {
		if path = getenv(EnvConfig); path != "" {
			required = true
		} else {
			path = m.ConfigPath
		}
	}
	if path != "" {
		fc, err := LoadFileConfig(path)
		switch {
		case err == nil:
			if err := g.ApplyFileConfig(fc, changed); err != nil {
				return err
			}
		case errors.Is(err, iofs.ErrNotExist) && !required:
		default:
			return err
		}
	}

	g.ApplyEnv(getenv, changed)
	return g.Validate()
}

// wire builds the services used by the commands.
func (m *Main) wire(deps *Dependencies, g *Globals) error {
	level := slog.LevelWarn
	if g.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(deps.Stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	cacheDir, err := g.ResolveCacheDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory %q: %w", cacheDir, err)
	}

	store, err := m.openCacheStore(g.CacheBackend, cacheDir)
	if err != nil {
		return err
	}
	deps.Cache = freshslog.NewLoggingCacheStore(store, logger)

	db := sqlite.NewDB(filepath.Join(cacheDir, "manifests.db"))
	if err := db.Open(); err != nil {
		fmt.Fprintf(deps.Stderr, "Hint: Set %s or --cache-dir to use a different cache directory\n", EnvCacheDir)
		return fmt.Errorf("failed to open manifest database: %w", err)
	}
	m.closers = append(m.closers, db)
	manifests := sqlite.NewManifestStore(db)
	deps.Manifests = manifests

	opts := []freshhttp.Option{
		freshhttp.WithTimeout(g.RequestTimeout),
		freshhttp.WithAllowPrivateHosts(g.AllowPrivate),
	}
	if g.Proxy != "" {
		proxy, err := url.Parse(g.Proxy)
		if err != nil {
			return fresh.Errorf(fresh.EINVALID, "invalid proxy URL %q", g.Proxy)
		}
		opts = append(opts, freshhttp.WithProxy(proxy))
	}
	fetcher := freshslog.NewLoggingFetcher(freshhttp.NewFetcher(opts...), logger)

	policy := crawl.DefaultRetryPolicy()
	policy.MaxRetries = g.MaxRetries
	policy.BaseDelay = g.Backoff
	client := crawl.NewClient(fetcher, crawl.NewDomainLimiter(g.Interval), policy)
	client.OnRetry = func(rawURL string, attempt int, delay time.Duration, err error) {
		logger.Debug("retry", "url", rawURL, "attempt", attempt, "delay", delay, "err", err)
	}
	m.closers = append(m.closers, client)

	cache := crawl.NewCache(deps.Cache, g.CacheTTL)
	cache.Bypass = g.NoCache
	loader := &crawl.Loader{Fetcher: client, Cache: cache}

	filter, err := g.Filter()
	if err != nil {
		return err
	}

	robots := freshhttp.NewRobotsService(client)
	links := goquery.NewLinkSelector()
	discoverer := &crawl.Discoverer{
		Sitemaps:     freshslog.NewLoggingSitemapService(freshhttp.NewSitemapService(client, freshhttp.WithRobots(robots)), logger),
		Robots:       robots,
		Loader:       loader,
		LinkSelector: links,
		Manifests:    manifests,
		Filter:       filter,
		Concurrency:  g.Concurrency,
		MaxPages:     g.MaxPages,
		MaxDepth:     g.MaxDepth,
		Refresh:      g.NoCache,
		IgnoreRobots: g.IgnoreRobots,
	}
	deps.Discoverer = freshslog.NewLoggingDiscoverer(discoverer, logger)

	deps.Crawler = &crawl.Crawler{
		Discoverer: deps.Discoverer,
		Loader:     loader,
		Pipeline: &crawl.MarkdownPipeline{
			Extractor: newExtractor(g.Extractor),
			Converter: htmltomarkdown.NewConverter(),
			Title:     goquery.Title,
		},
		LinkSelector: links,
		Concurrency:  g.Concurrency,
	}
	deps.Renderer = goldmark.NewRenderer()
	deps.NewPageStore = func(dir string) fresh.PageStore {
		return fs.NewFileStore(dir)
	}
	return nil
}

func (m *Main) openCacheStore(backend, dir string) (fresh.CacheStore, error) {
	if backend == "leveldb" {
		store, err := leveldb.Open(filepath.Join(dir, "pages.ldb"))
		if err != nil {
			return nil, err
		}
		m.closers = append(m.closers, store)
		return store, nil
	}
	return fs.NewCacheStore(filepath.Join(dir, "pages")), nil
}

func newExtractor(name string) fresh.Extractor {
	switch name {
	case "trafilatura":
		return trafilatura.NewExtractor()
	case "readability":
		return readability.NewExtractor()
	}
	return goquery.NewExtractor()
}
