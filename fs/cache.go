package fs

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/nesalia/fresh"
)

// entryExt marks cache entry files; Clear removes nothing else.
const entryExt = ".entry"

// lockStripes is the number of per-key write locks.
const lockStripes = 64

var _ fresh.CacheStore = (*CacheStore)(nil)

// CacheStore implements fresh.CacheStore with one file per entry. Files are
// named by the xxhash of the canonical URL and sharded by its first two hex
// digits. Each file holds a MIME-style header followed by the raw body.
//
// Writes to the same key are serialized and land via temp file and rename,
// so readers never observe a torn entry.
type CacheStore struct {
	dir   string
	locks [lockStripes]sync.Mutex
}

// NewCacheStore creates a CacheStore rooted at dir.
func NewCacheStore(dir string) *CacheStore {
	return &CacheStore{dir: dir}
}

// DefaultCacheDir returns the per-user cache directory for fresh.
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "fresh"), nil
}

func (s *CacheStore) path(ref fresh.PageRef) (string, uint64) {
	sum := xxhash.Sum64String(ref.String())
	name := fmt.Sprintf("%016x", sum)
	return filepath.Join(s.dir, name[:2], name+entryExt), sum
}

func (s *CacheStore) lock(sum uint64) *sync.Mutex {
	return &s.locks[sum%lockStripes]
}

// Get reads the entry for ref.
func (s *CacheStore) Get(ctx context.Context, ref fresh.PageRef) (*fresh.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, _ := s.path(ref)

	data, err := os.ReadFile(p)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, fresh.Errorf(fresh.ENOTFOUND, "no cache entry for %s", ref)
	} else if err != nil {
		return nil, err
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, fresh.Errorf(fresh.ECORRUPT, "corrupt cache entry for %s: %v", ref, err)
	}
	// A different key means a hash collision; treat the slot as empty.
	if entry.Key != ref {
		return nil, fresh.Errorf(fresh.ENOTFOUND, "no cache entry for %s", ref)
	}
	return entry, nil
}

// Put writes entry, replacing any existing entry for the same key.
func (s *CacheStore) Put(ctx context.Context, entry *fresh.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, sum := s.path(entry.Key)

	mu := s.lock(sum)
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(encodeEntry(entry)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Invalidate removes the entry for ref. Missing entries are not an error.
func (s *CacheStore) Invalidate(ctx context.Context, ref fresh.PageRef) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, sum := s.path(ref)

	mu := s.lock(sum)
	mu.Lock()
	defer mu.Unlock()

	if err := os.Remove(p); err != nil && !errors.Is(err, iofs.ErrNotExist) {
		return err
	}
	return nil
}

// Clear removes every entry file and leftover temp file under the store
// directory. Other files are left alone.
func (s *CacheStore) Clear(ctx context.Context) error {
	err := filepath.WalkDir(s.dir, func(path string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasSuffix(name, entryExt) || strings.HasPrefix(name, ".tmp-") {
			if err := os.Remove(path); err != nil && !errors.Is(err, iofs.ErrNotExist) {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, iofs.ErrNotExist) {
		return nil
	}
	return err
}

// Entry header fields.
const (
	hdrKey          = "Key"
	hdrURL          = "Url"
	hdrStatus       = "Status"
	hdrContentType  = "Content-Type"
	hdrETag         = "Etag"
	hdrLastModified = "Last-Modified"
	hdrFetchedAt    = "Fetched-At"
	hdrTTL          = "Ttl"
	hdrLength       = "Content-Length"
)

func encodeEntry(e *fresh.CacheEntry) []byte {
	var buf bytes.Buffer
	write := func(k, v string) {
		if v == "" {
			return
		}
		// Header values are single-line.
		v = strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
		buf.WriteString(k + ": " + v + "\r\n")
	}
	write(hdrKey, e.Key.String())
	write(hdrURL, e.URL)
	write(hdrStatus, strconv.Itoa(e.StatusCode))
	write(hdrContentType, e.ContentType)
	write(hdrETag, e.ETag)
	write(hdrLastModified, e.LastModified)
	write(hdrFetchedAt, e.FetchedAt.UTC().Format(time.RFC3339Nano))
	write(hdrTTL, e.TTL.String())
	write(hdrLength, strconv.Itoa(len(e.Body)))
	buf.WriteString("\r\n")
	buf.Write(e.Body)
	return buf.Bytes()
}

func decodeEntry(data []byte) (*fresh.CacheEntry, error) {
	r := bufio.NewReader(bytes.NewReader(data))
	hdr, err := textproto.NewReader(r).ReadMIMEHeader()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	key := hdr.Get(hdrKey)
	if key == "" {
		return nil, errors.New("missing key")
	}
	fetchedAt, err := time.Parse(time.RFC3339Nano, hdr.Get(hdrFetchedAt))
	if err != nil {
		return nil, fmt.Errorf("fetched-at: %w", err)
	}
	ttl, err := time.ParseDuration(hdr.Get(hdrTTL))
	if err != nil {
		return nil, fmt.Errorf("ttl: %w", err)
	}
	status, err := strconv.Atoi(hdr.Get(hdrStatus))
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	length, err := strconv.Atoi(hdr.Get(hdrLength))
	if err != nil {
		return nil, fmt.Errorf("content-length: %w", err)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(body) != length {
		return nil, fmt.Errorf("truncated body: %d of %d bytes", len(body), length)
	}

	return &fresh.CacheEntry{
		Key:          fresh.PageRef(key),
		URL:          hdr.Get(hdrURL),
		StatusCode:   status,
		ContentType:  hdr.Get(hdrContentType),
		ETag:         hdr.Get(hdrETag),
		LastModified: hdr.Get(hdrLastModified),
		FetchedAt:    fetchedAt,
		TTL:          ttl,
		Body:         body,
	}, nil
}
