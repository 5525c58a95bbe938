package mock

import (
	"context"
	"time"

	"github.com/nesalia/fresh"
)

// Compile-time interface verification.
var (
	_ fresh.Discoverer    = (*Discoverer)(nil)
	_ fresh.ManifestStore = (*ManifestStore)(nil)
)

// Discoverer is a mock implementation of fresh.Discoverer.
type Discoverer struct {
	DiscoverFn func(ctx context.Context, rootURL string) (*fresh.Manifest, error)
}

func (d *Discoverer) Discover(ctx context.Context, rootURL string) (*fresh.Manifest, error) {
	return d.DiscoverFn(ctx, rootURL)
}

// ManifestStore is a mock implementation of fresh.ManifestStore.
type ManifestStore struct {
	FindManifestFn func(ctx context.Context, root fresh.PageRef, day time.Time) (*fresh.Manifest, error)
	SaveManifestFn func(ctx context.Context, m *fresh.Manifest) error
}

func (s *ManifestStore) FindManifest(ctx context.Context, root fresh.PageRef, day time.Time) (*fresh.Manifest, error) {
	return s.FindManifestFn(ctx, root, day)
}

func (s *ManifestStore) SaveManifest(ctx context.Context, m *fresh.Manifest) error {
	return s.SaveManifestFn(ctx, m)
}
