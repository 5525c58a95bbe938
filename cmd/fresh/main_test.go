package main_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	main "github.com/nesalia/fresh/cmd/fresh"
	"github.com/stretchr/testify/require"
)

// docsSite is a small documentation site served over HTTP. Requests are
// counted per path.
type docsSite struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

// page renders a minimal documentation page.
func page(title, body string, links ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<html><head><title>%s</title></head><body><main><h1>%s</h1><p>%s</p>", title, title, body)
	for _, l := range links {
		fmt.Fprintf(&b, `<a href="%s">%s</a> `, l, l)
	}
	b.WriteString("</main></body></html>")
	return b.String()
}

// newDocsSite serves pages by path. When sitemap is non-nil it is served
// at /sitemap.xml with every path made absolute.
func newDocsSite(t *testing.T, pages map[string]string, sitemap []string) *docsSite {
	t.Helper()

	s := &docsSite{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		if r.URL.Path == "/sitemap.xml" && sitemap != nil {
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
			for _, p := range sitemap {
				fmt.Fprintf(w, "<url><loc>%s%s</loc></url>", s.URL, p)
			}
			fmt.Fprint(w, `</urlset>`)
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

// Hits returns how often path was requested.
func (s *docsSite) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Total returns the number of requests served.
func (s *docsSite) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, h := range s.hits {
		n += h
	}
	return n
}

// cli runs fresh against a private cache directory with no config file
// and no politeness delays.
type cli struct {
	cacheDir string
	env      map[string]string
	// flags are appended to every invocation.
	flags []string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	return &cli{
		cacheDir: t.TempDir(),
		env:      map[string]string{},
		flags:    []string{"--allow-private", "--interval", "0s", "--max-retries", "0"},
	}
}

func (c *cli) run(args ...string) (stdout, stderr string, err error) {
	m := main.NewMain()
	m.ConfigPath = ""
	m.Getenv = func(key string) string { return c.env[key] }

	full := append(append([]string(nil), args...), c.flags...)
	if c.cacheDir != "" {
		full = append(full, "--cache-dir", c.cacheDir)
	}
	var out, errOut bytes.Buffer
	err = m.Run(context.Background(), full, &out, &errOut)
	return out.String(), errOut.String(), err
}

func (c *cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := c.run(args...)
	require.NoError(t, err, "stderr: %s", stderr)
	return stdout
}
