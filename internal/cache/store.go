// Package cache persists one JSON snapshot per tenant under
// <data_dir>/<platform>/companies/<slug>.json.
package cache

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/stapply-ai/job-map/internal/domain"
)

type Store struct {
	root string
}

func NewStore(dataDir string) *Store {
	return &Store{root: dataDir}
}

func (s *Store) Path(platform, slug string) string {
	return filepath.Join(s.root, platform, "companies", slug+".json")
}

// Load returns nil for a tenant that has never been scraped. A corrupt
// snapshot is logged and treated the same way; it never aborts a batch.
func (s *Store) Load(platform, slug string) (*domain.TenantCache, error) {
	path := s.Path(platform, slug)
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var c domain.TenantCache
	if err := json.Unmarshal(b, &c); err != nil {
		slog.Warn("tenant cache corrupt, treating as never scraped", "path", path, "err", err)
		return nil, nil
	}
	if c.Jobs == nil {
		c.Jobs = []domain.JobRecord{}
	}
	return &c, nil
}

// Save writes the snapshot atomically: marshal, write a sibling .tmp,
// rename over the target. A crash mid-save leaves the old file intact.
func (s *Store) Save(platform string, c *domain.TenantCache) error {
	c.JobCount = len(c.Jobs)
	if c.Jobs == nil {
		c.Jobs = []domain.JobRecord{}
	}

	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	path := s.Path(platform, c.Slug)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Slugs lists every cached tenant of a platform, for export and cleanup.
func (s *Store) Slugs(platform string) ([]string, error) {
	dir := filepath.Join(s.root, platform, "companies")
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var slugs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(name, ".json"))
	}
	return slugs, nil
}
