package fresh

import (
	"context"
	"time"
)

// ManifestSource records where a manifest's pages came from.
type ManifestSource string

// Manifest sources.
const (
	ManifestSourceSitemap ManifestSource = "sitemap"
	ManifestSourceCrawl   ManifestSource = "crawl"
)

// Manifest is the ordered, duplicate-free set of pages discovered under a
// root URL.
type Manifest struct {
	RootURL      PageRef        `json:"rootUrl"`
	Pages        []PageRef      `json:"pages"`
	Source       ManifestSource `json:"source"`
	DiscoveredAt time.Time      `json:"discoveredAt"`
}

// Paths returns the path of each page in manifest order.
func (m *Manifest) Paths() []string {
	paths := make([]string, len(m.Pages))
	for i, p := range m.Pages {
		paths[i] = p.Path()
	}
	return paths
}

// Discoverer builds the manifest for a documentation root.
// Implementations hide the choice between sitemap and link crawl.
type Discoverer interface {
	// Discover returns the manifest for rootURL. Returns a *DiscoveryError
	// when no page could be found.
	Discover(ctx context.Context, rootURL string) (*Manifest, error)
}

// ManifestStore remembers manifests so repeated runs on the same day skip
// discovery.
type ManifestStore interface {
	// FindManifest returns the manifest discovered for root on the UTC day
	// containing day. Returns ENOTFOUND if there is none.
	FindManifest(ctx context.Context, root PageRef, day time.Time) (*Manifest, error)

	// SaveManifest stores m, replacing a manifest for the same root and day.
	SaveManifest(ctx context.Context, m *Manifest) error
}
