package main_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nesalia/fresh"
	main "github.com/nesalia/fresh/cmd/fresh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func defaultGlobals() *main.Globals {
	return &main.Globals{
		Format:         "md",
		CacheBackend:   "file",
		CacheTTL:       24 * time.Hour,
		Concurrency:    4,
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		Backoff:        time.Second,
		Interval:       500 * time.Millisecond,
		MaxPages:       100,
		MaxDepth:       3,
		Extractor:      "heuristic",
	}
}

func TestLoadFileConfig(t *testing.T) {
	t.Parallel()

	t.Run("parses every key", func(t *testing.T) {
		t.Parallel()

		path := writeConfig(t, `
format = "json"
cache_ttl = "1h"
concurrency = 8
max_retries = 0
include = ["/docs/"]
ignore_robots = true
`)

		fc, err := main.LoadFileConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "json", fc.Format)
		assert.Equal(t, "1h", fc.CacheTTL)
		require.NotNil(t, fc.Concurrency)
		assert.Equal(t, 8, *fc.Concurrency)
		require.NotNil(t, fc.MaxRetries)
		assert.Zero(t, *fc.MaxRetries)
		assert.Equal(t, []string{"/docs/"}, fc.Include)
		require.NotNil(t, fc.IgnoreRobots)
		assert.True(t, *fc.IgnoreRobots)
		assert.Nil(t, fc.AllowPrivate)
	})

	t.Run("rejects malformed TOML", func(t *testing.T) {
		t.Parallel()

		_, err := main.LoadFileConfig(writeConfig(t, "format = "))

		assert.Equal(t, fresh.EINVALID, fresh.ErrorCode(err))
	})
}

func TestGlobals_ApplyFileConfig(t *testing.T) {
	t.Parallel()

	t.Run("fills flags not set on the command line", func(t *testing.T) {
		t.Parallel()

		concurrency, retries := 8, 0
		g := defaultGlobals()
		fc := &main.FileConfig{
			Format:      "json",
			CacheTTL:    "90m",
			Interval:    "250ms",
			Concurrency: &concurrency,
			MaxRetries:  &retries,
			Exclude:     []string{"/v1/"},
		}

		require.NoError(t, g.ApplyFileConfig(fc, map[string]bool{"format": true}))

		assert.Equal(t, "md", g.Format, "command line wins")
		assert.Equal(t, 90*time.Minute, g.CacheTTL)
		assert.Equal(t, 250*time.Millisecond, g.Interval)
		assert.Equal(t, 8, g.Concurrency)
		assert.Zero(t, g.MaxRetries)
		assert.Equal(t, []string{"/v1/"}, g.Exclude)
	})

	t.Run("rejects bad durations", func(t *testing.T) {
		t.Parallel()

		err := defaultGlobals().ApplyFileConfig(&main.FileConfig{Timeout: "soon"}, nil)

		assert.Equal(t, fresh.EINVALID, fresh.ErrorCode(err))
		assert.Contains(t, fresh.ErrorMessage(err), "timeout")
	})
}

func TestGlobals_ApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{main.EnvCacheDir: "/tmp/fresh-env"}
	getenv := func(k string) string { return env[k] }

	g := defaultGlobals()
	g.CacheDir = "/from/config"
	g.ApplyEnv(getenv, nil)
	assert.Equal(t, "/tmp/fresh-env", g.CacheDir)

	g = defaultGlobals()
	g.CacheDir = "/from/flag"
	g.ApplyEnv(getenv, map[string]bool{"cache-dir": true})
	assert.Equal(t, "/from/flag", g.CacheDir)
}

func TestGlobals_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, defaultGlobals().Validate())

	g := defaultGlobals()
	g.MaxPages = 0
	err := g.Validate()
	assert.Equal(t, fresh.EINVALID, fresh.ErrorCode(err))
	assert.Contains(t, fresh.ErrorMessage(err), "MaxPages")

	g = defaultGlobals()
	g.Proxy = "http://proxy.internal:3128"
	assert.NoError(t, g.Validate())
}

func TestGlobals_Filter(t *testing.T) {
	t.Parallel()

	t.Run("applies default exclusions", func(t *testing.T) {
		t.Parallel()

		f, err := defaultGlobals().Filter()

		require.NoError(t, err)
		assert.True(t, f.Match("https://example.com/docs/intro"))
		assert.False(t, f.Match("https://example.com/blog/launch"))
	})

	t.Run("path globs match any host", func(t *testing.T) {
		t.Parallel()

		g := defaultGlobals()
		g.Match = []string{"/docs/api/**"}

		f, err := g.Filter()

		require.NoError(t, err)
		assert.True(t, f.Match("https://example.com/docs/api/users/list"))
		assert.False(t, f.Match("https://example.com/docs/guide"))
	})

	t.Run("URL globs are anchored", func(t *testing.T) {
		t.Parallel()

		g := defaultGlobals()
		g.Match = []string{"https://example.com/docs/*"}

		f, err := g.Filter()

		require.NoError(t, err)
		assert.True(t, f.Match("https://example.com/docs/intro"))
		assert.False(t, f.Match("https://example.com/docs/api/users"))
	})

	t.Run("user exclusions add to the defaults", func(t *testing.T) {
		t.Parallel()

		g := defaultGlobals()
		g.Exclude = []string{"/v1/"}

		f, err := g.Filter()

		require.NoError(t, err)
		assert.False(t, f.Match("https://example.com/docs/v1/intro"))
		assert.False(t, f.Match("https://example.com/blog/x"))
	})
}

// Story: Config file and environment
//
// A TOML config file sets defaults for every option; the command line
// always wins.

func TestCLI_ConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("file values apply to flags not given", func(t *testing.T) {
		t.Parallel()

		site := newDocsSite(t, map[string]string{}, []string{"/docs/a"})
		c := newCLI(t)
		cfg := writeConfig(t, `format = "json"`)

		stdout := c.mustRun(t, "list", site.URL+"/docs", "--config", cfg)

		assert.Contains(t, stdout, `"source": "sitemap"`)
	})

	t.Run("command line wins over the file", func(t *testing.T) {
		t.Parallel()

		site := newDocsSite(t, map[string]string{}, []string{"/docs/a"})
		c := newCLI(t)
		cfg := writeConfig(t, `format = "json"`)

		stdout := c.mustRun(t, "list", site.URL+"/docs", "--config", cfg, "--format", "md")

		assert.Equal(t, "/docs/a\n", stdout)
	})

	t.Run("FRESH_CONFIG names the file", func(t *testing.T) {
		t.Parallel()

		site := newDocsSite(t, map[string]string{}, []string{"/docs/a"})
		c := newCLI(t)
		c.env[main.EnvConfig] = writeConfig(t, `format = "json"`)

		stdout := c.mustRun(t, "list", site.URL+"/docs")

		assert.Contains(t, stdout, `"pages"`)
	})

	t.Run("invalid file values are rejected", func(t *testing.T) {
		t.Parallel()

		c := newCLI(t)
		cfg := writeConfig(t, "concurrency = 0")

		_, _, err := c.run("list", "https://example.com/docs", "--config", cfg)

		assert.Equal(t, fresh.EINVALID, fresh.ErrorCode(err))
	})

	t.Run("an explicit missing file is an error", func(t *testing.T) {
		t.Parallel()

		c := newCLI(t)

		_, _, err := c.run("list", "https://example.com/docs", "--config", filepath.Join(t.TempDir(), "nope.toml"))

		require.Error(t, err)
	})

	t.Run("FRESH_CACHE_DIR locates the cache", func(t *testing.T) {
		t.Parallel()

		site := newDocsSite(t, map[string]string{"/docs/a": page("A", "Alpha content.")}, nil)
		c := newCLI(t)
		dir := t.TempDir()
		c.cacheDir = ""
		c.env[main.EnvCacheDir] = dir

		c.mustRun(t, "get", site.URL+"/docs/a")

		assert.FileExists(t, filepath.Join(dir, "manifests.db"))
		assert.DirExists(t, filepath.Join(dir, "pages"))
	})
}
