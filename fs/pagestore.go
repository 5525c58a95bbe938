// Package fs provides file-based storage: the page cache and the
// Markdown output directory written by fetch.
package fs

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/nesalia/fresh"
	"gopkg.in/yaml.v3"
)

var _ fresh.PageStore = (*FileStore)(nil)

// FileStore implements fresh.PageStore with atomic update semantics.
// Pages are saved to a sibling temporary directory, which replaces the
// output directory on Commit.
type FileStore struct {
	baseDir string
	name    string
}

// NewFileStore creates a FileStore writing into dir.
// Files are saved to dir.tmp and moved to dir on Commit.
func NewFileStore(dir string) *FileStore {
	dir = filepath.Clean(dir)
	return &FileStore{
		baseDir: filepath.Dir(dir),
		name:    filepath.Base(dir),
	}
}

func (s *FileStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *FileStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Save writes page as a Markdown file with YAML frontmatter. It is safe for
// concurrent use with distinct pages.
func (s *FileStore) Save(ctx context.Context, page *fresh.Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	relPath, err := URLToPath(page.URL)
	if err != nil {
		return err
	}
	fullPath := filepath.Join(s.tempDir(), relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	content, err := FormatPage(page)
	if err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(content), 0644)
}

// Commit replaces the output directory with the saved pages.
func (s *FileStore) Commit() error {
	if err := os.MkdirAll(s.tempDir(), 0755); err != nil {
		return err
	}
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}
	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards the saved pages.
func (s *FileStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}

// URLToPath converts a documentation URL to a relative file path.
// Example: https://example.com/docs/api/users → docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fresh.Errorf(fresh.EINVALID, "invalid URL %q: %v", rawURL, err)
	}

	p := u.Path
	if p == "" || p == "/" {
		return "index.md", nil
	}

	// Clean as an absolute path so ".." cannot climb out of the output dir.
	p = strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+p)), "/")
	if strings.HasSuffix(u.Path, "/") {
		return filepath.FromSlash(p + "/index.md"), nil
	}
	p = strings.TrimSuffix(p, ".html")
	return filepath.FromSlash(p + ".md"), nil
}

// frontmatter is the YAML header of every written page.
type frontmatter struct {
	Source   string `yaml:"source"`
	Title    string `yaml:"title"`
	Fetched  string `yaml:"fetched"`
	Hash     string `yaml:"hash"`
	Degraded bool   `yaml:"degraded,omitempty"`
}

// FormatPage formats a page with YAML frontmatter. The hash is the xxhash
// of the Markdown body, so unchanged pages produce identical files.
func FormatPage(page *fresh.Page) (string, error) {
	fetched := page.FetchedAt
	if fetched.IsZero() {
		fetched = time.Now()
	}
	header, err := yaml.Marshal(frontmatter{
		Source:   page.URL,
		Title:    page.Title,
		Fetched:  fetched.UTC().Format("2006-01-02"),
		Hash:     fmt.Sprintf("%016x", xxhash.Sum64String(page.Content)),
		Degraded: page.Degraded,
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(page.Content)
	if !strings.HasSuffix(page.Content, "\n") {
		b.WriteString("\n")
	}
	return b.String(), nil
}
