package registry

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/stapply-ai/job-map/internal/domain"
)

// ImportCSV registers every row of a name,url company sheet. Sheets with
// only a url column work too. slugFor is the platform's own url-to-slug
// rule. Returns how many tenants were newly added.
func (r *Registry) ImportCSV(ctx context.Context, platform, path string, slugFor func(url string) string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("read company sheet %s: %w", path, err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	urlCol, nameCol := 0, -1
	for i, h := range records[0] {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "url":
			urlCol = i
		case "name", "company":
			nameCol = i
		}
	}

	added := 0
	now := time.Now().UTC()
	for _, rec := range records[1:] {
		if urlCol >= len(rec) {
			continue
		}
		url := strings.TrimSpace(rec[urlCol])
		if url == "" {
			continue
		}
		name := "Unknown"
		if nameCol >= 0 && nameCol < len(rec) {
			if n := strings.TrimSpace(rec[nameCol]); n != "" {
				name = n
			}
		}

		isNew, err := r.Upsert(ctx, domain.Tenant{
			Platform:     platform,
			Slug:         slugFor(url),
			Name:         name,
			URL:          url,
			DiscoveredAt: now,
		})
		if err != nil {
			return added, err
		}
		if isNew {
			added++
		}
	}
	return added, nil
}
