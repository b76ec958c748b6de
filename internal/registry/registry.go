// Package registry keeps the tenant roster in SQLite: which boards exist
// per platform, where they came from, and whether they are still harvested.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stapply-ai/job-map/internal/domain"
)

type Registry struct {
	db *sql.DB
}

func Open(path string) (*Registry, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1) // sqlite wants a single writer
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate tenant registry: %w", err)
	}
	return &Registry{db: db}, nil
}

func (r *Registry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS tenants (
  platform TEXT NOT NULL,
  slug TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL,
  discovered_at TEXT NOT NULL,
  active INTEGER NOT NULL DEFAULT 1,
  PRIMARY KEY (platform, slug)
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`
CREATE INDEX IF NOT EXISTS idx_tenants_platform_active
ON tenants(platform, active);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

// Upsert registers a tenant, reports whether it is new, and reactivates it
// when it had been retired. Existing rows keep their name and url unless
// those were empty.
func (r *Registry) Upsert(ctx context.Context, t domain.Tenant) (bool, error) {
	discovered := t.DiscoveredAt
	if discovered.IsZero() {
		discovered = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO tenants (platform, slug, name, url, discovered_at, active)
VALUES (?, ?, ?, ?, ?, 1);`,
		t.Platform, t.Slug, t.Name, t.URL, discovered.Format(time.RFC3339))
	if err != nil {
		return false, fmt.Errorf("insert tenant: %w", err)
	}

	var changes int
	if err := r.db.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); err != nil {
		return false, err
	}
	if changes > 0 {
		return true, nil
	}

	_, err = r.db.ExecContext(ctx, `
UPDATE tenants SET
  name = CASE WHEN name = '' THEN ? ELSE name END,
  url  = CASE WHEN url  = '' THEN ? ELSE url END,
  active = 1
WHERE platform = ? AND slug = ?;`,
		t.Name, t.URL, t.Platform, t.Slug)
	if err != nil {
		return false, fmt.Errorf("refresh tenant: %w", err)
	}
	return false, nil
}

// List returns active tenants ordered by slug. An empty platform lists
// every platform.
func (r *Registry) List(ctx context.Context, platform string) ([]domain.Tenant, error) {
	query := `
SELECT platform, slug, name, url, discovered_at
FROM tenants
WHERE active = 1`
	args := []any{}
	if platform != "" {
		query += ` AND platform = ?`
		args = append(args, platform)
	}
	query += ` ORDER BY platform, slug;`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Tenant
	for rows.Next() {
		var t domain.Tenant
		var discovered string
		if err := rows.Scan(&t.Platform, &t.Slug, &t.Name, &t.URL, &discovered); err != nil {
			return nil, err
		}
		t.DiscoveredAt, _ = time.Parse(time.RFC3339, discovered)
		t.Active = true
		out = append(out, t)
	}
	return out, rows.Err()
}

// Get looks up one tenant regardless of its active flag.
func (r *Registry) Get(ctx context.Context, platform, slug string) (domain.Tenant, bool, error) {
	var t domain.Tenant
	var discovered string
	var active int
	err := r.db.QueryRowContext(ctx, `
SELECT platform, slug, name, url, discovered_at, active
FROM tenants
WHERE platform = ? AND slug = ?
LIMIT 1;`, platform, slug).Scan(&t.Platform, &t.Slug, &t.Name, &t.URL, &discovered, &active)
	if err == sql.ErrNoRows {
		return domain.Tenant{}, false, nil
	}
	if err != nil {
		return domain.Tenant{}, false, err
	}
	t.DiscoveredAt, _ = time.Parse(time.RFC3339, discovered)
	t.Active = active != 0
	return t, true, nil
}

// Deactivate retires a tenant without losing its row; Upsert brings it
// back.
func (r *Registry) Deactivate(ctx context.Context, platform, slug string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE tenants SET active = 0
WHERE platform = ? AND slug = ? AND active = 1;`, platform, slug)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
