package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/nesalia/fresh"
)

// Compile-time interface verification.
var _ fresh.ManifestStore = (*ManifestStore)(nil)

// ManifestStore implements fresh.ManifestStore using SQLite. Manifests are
// keyed by root URL and the UTC day they were discovered on.
type ManifestStore struct {
	db *DB
}

// NewManifestStore creates a new ManifestStore.
func NewManifestStore(db *DB) *ManifestStore {
	return &ManifestStore{db: db}
}

// FindManifest returns the manifest discovered for root on day's UTC date.
func (s *ManifestStore) FindManifest(ctx context.Context, root fresh.PageRef, day time.Time) (*fresh.Manifest, error) {
	var (
		id           string
		source       string
		discoveredAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, discovered_at
		FROM manifests
		WHERE root_url = ? AND day = ?
	`, root.String(), dayKey(day)).Scan(&id, &source, &discoveredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fresh.Errorf(fresh.ENOTFOUND, "no manifest for %s on %s", root, dayKey(day))
	}
	if err != nil {
		return nil, err
	}

	m := &fresh.Manifest{
		RootURL: root,
		Source:  fresh.ManifestSource(source),
		Pages:   []fresh.PageRef{},
	}
	if m.DiscoveredAt, err = parseTimestamp(discoveredAt, "discovered_at"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT url
		FROM manifest_pages
		WHERE manifest_id = ?
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		m.Pages = append(m.Pages, fresh.PageRef(u))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// SaveManifest stores m, replacing any manifest for the same root and day.
func (s *ManifestStore) SaveManifest(ctx context.Context, m *fresh.Manifest) error {
	if m.RootURL == "" {
		return fresh.Errorf(fresh.EINVALID, "manifest root URL required")
	}
	if m.DiscoveredAt.IsZero() {
		m.DiscoveredAt = time.Now().UTC()
	}
	day := dayKey(m.DiscoveredAt)

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM manifests WHERE root_url = ? AND day = ?`, m.RootURL.String(), day); err != nil {
		return err
	}

	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO manifests (id, root_url, day, source, discovered_at)
		VALUES (?, ?, ?, ?, ?)
	`, id, m.RootURL.String(), day, string(m.Source), m.DiscoveredAt.UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO manifest_pages (manifest_id, position, url) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range m.Pages {
		if _, err := stmt.ExecContext(ctx, id, i, p.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Clear removes every stored manifest.
func (s *ManifestStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM manifests`)
	return err
}
