package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/nesalia/fresh"
	"github.com/nesalia/fresh/fs"
	toml "github.com/pelletier/go-toml/v2"
)

// Environment variables read by fresh.
const (
	EnvConfig   = "FRESH_CONFIG"
	EnvCacheDir = "FRESH_CACHE_DIR"
)

// FileConfig mirrors Globals with TOML-friendly types. Durations are
// strings such as "750ms"; pointers tell an absent key from a zero value.
type FileConfig struct {
	Verbose        *bool    `toml:"verbose"`
	NoCache        *bool    `toml:"no_cache"`
	Proxy          string   `toml:"proxy"`
	Format         string   `toml:"format"`
	CacheDir       string   `toml:"cache_dir"`
	CacheBackend   string   `toml:"cache_backend"`
	CacheTTL       string   `toml:"cache_ttl"`
	Concurrency    *int     `toml:"concurrency"`
	Timeout        string   `toml:"timeout"`
	RequestTimeout string   `toml:"request_timeout"`
	MaxRetries     *int     `toml:"max_retries"`
	Backoff        string   `toml:"backoff"`
	Interval       string   `toml:"interval"`
	MaxPages       *int     `toml:"max_pages"`
	MaxDepth       *int     `toml:"max_depth"`
	Include        []string `toml:"include"`
	Exclude        []string `toml:"exclude"`
	Match          []string `toml:"match"`
	Extractor      string   `toml:"extractor"`
	IgnoreRobots   *bool    `toml:"ignore_robots"`
	AllowPrivate   *bool    `toml:"allow_private"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fc FileConfig
	if err := toml.Unmarshal(b, &fc); err != nil {
		return nil, fresh.Errorf(fresh.EINVALID, "config %s: %v", path, err)
	}
	return &fc, nil
}

// DefaultConfigPath returns ~/.config/fresh/config.toml, or "" when the
// user config directory is unknown.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "fresh", "config.toml")
}

// ApplyFileConfig copies values from fc into g for every flag that was not
// set on the command line.
func (g *Globals) ApplyFileConfig(fc *FileConfig, changed map[string]bool) error {
	s := configSetter{changed: changed}

	s.setBool("verbose", fc.Verbose, &g.Verbose)
	s.setBool("no-cache", fc.NoCache, &g.NoCache)
	s.setBool("ignore-robots", fc.IgnoreRobots, &g.IgnoreRobots)
	s.setBool("allow-private", fc.AllowPrivate, &g.AllowPrivate)

	s.setString("proxy", fc.Proxy, &g.Proxy)
	s.setString("format", fc.Format, &g.Format)
	s.setString("cache-dir", expandHome(fc.CacheDir), &g.CacheDir)
	s.setString("cache-backend", fc.CacheBackend, &g.CacheBackend)
	s.setString("extractor", fc.Extractor, &g.Extractor)

	s.setInt("concurrency", fc.Concurrency, &g.Concurrency)
	s.setInt("max-retries", fc.MaxRetries, &g.MaxRetries)
	s.setInt("max-pages", fc.MaxPages, &g.MaxPages)
	s.setInt("max-depth", fc.MaxDepth, &g.MaxDepth)

	s.setStrings("include", fc.Include, &g.Include)
	s.setStrings("exclude", fc.Exclude, &g.Exclude)
	s.setStrings("match", fc.Match, &g.Match)

	return errors.Join(
		s.setDuration("cache-ttl", fc.CacheTTL, &g.CacheTTL),
		s.setDuration("timeout", fc.Timeout, &g.Timeout),
		s.setDuration("request-timeout", fc.RequestTimeout, &g.RequestTimeout),
		s.setDuration("backoff", fc.Backoff, &g.Backoff),
		s.setDuration("interval", fc.Interval, &g.Interval),
	)
}

// ApplyEnv applies environment overrides for flags not set on the command
// line. They take precedence over the config file.
func (g *Globals) ApplyEnv(getenv func(string) string, changed map[string]bool) {
	s := configSetter{changed: changed}
	s.setString("cache-dir", getenv(EnvCacheDir), &g.CacheDir)
}

// Validate checks the merged configuration.
func (g *Globals) Validate() error {
	err := validation.ValidateStruct(g,
		validation.Field(&g.Format, validation.Required, validation.In("md", "html", "json")),
		validation.Field(&g.CacheBackend, validation.Required, validation.In("file", "leveldb")),
		validation.Field(&g.Extractor, validation.Required, validation.In("heuristic", "trafilatura", "readability")),
		validation.Field(&g.Proxy, validation.By(validProxy)),
		validation.Field(&g.CacheTTL, validation.Min(time.Duration(0))),
		validation.Field(&g.Concurrency, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&g.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&g.RequestTimeout, validation.Required, validation.Min(time.Duration(0))),
		validation.Field(&g.MaxRetries, validation.Min(0), validation.Max(10)),
		validation.Field(&g.Backoff, validation.Min(time.Duration(0))),
		validation.Field(&g.Interval, validation.Min(time.Duration(0))),
		validation.Field(&g.MaxPages, validation.Required, validation.Min(1)),
		validation.Field(&g.MaxDepth, validation.Min(0)),
	)
	if err != nil {
		return fresh.Errorf(fresh.EINVALID, "invalid configuration: %v", err)
	}
	return nil
}

func validProxy(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("must be an absolute URL")
	}
	return nil
}

// Filter compiles the include, exclude and match options. The default
// exclusions always apply; globs starting with "/" match the URL path.
func (g *Globals) Filter() (*fresh.URLFilter, error) {
	include := append([]string(nil), g.Include...)
	for _, glob := range g.Match {
		re, err := fresh.GlobToRegexp(glob)
		if err != nil {
			return nil, err
		}
		expr := re.String()
		if strings.HasPrefix(glob, "/") {
			expr = `^[a-z]+://[^/]+` + strings.TrimPrefix(expr, "^")
		}
		include = append(include, expr)
	}
	exclude := append(append([]string(nil), fresh.DefaultExcludePatterns...), g.Exclude...)
	return fresh.NewURLFilter(include, exclude)
}

// ResolveCacheDir returns the configured cache directory or the per-user
// default.
func (g *Globals) ResolveCacheDir() (string, error) {
	if g.CacheDir != "" {
		return g.CacheDir, nil
	}
	dir, err := fs.DefaultCacheDir()
	if err != nil {
		return "", fmt.Errorf("cache directory: %w", err)
	}
	return dir, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// configSetter applies a value only when its flag was not set explicitly.
type configSetter struct {
	changed map[string]bool
}

func (s configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s configSetter) setStrings(flag string, value []string, dst *[]string) {
	if len(value) == 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fresh.Errorf(fresh.EINVALID, "config %s: %v", strings.ReplaceAll(flag, "-", "_"), err)
	}
	*dst = d
	return nil
}
