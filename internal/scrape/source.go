// Package scrape walks ATS boards tenant by tenant: list pages through the
// rate-limited fetcher, leads through the platform normalizer, results into
// the tenant cache.
package scrape

import (
	"encoding/json"

	"github.com/stapply-ai/job-map/internal/domain"
)

// Lead is one posting discovered on a list page, before normalization.
// JSON platforms carry the list item in Raw; HTML platforms carry extracted
// card fields in Fields.
type Lead struct {
	URL    string
	Raw    json.RawMessage
	Fields map[string]string
}

// Source is one ATS platform. Implementations are stateless parsers and
// URL builders; all fetching happens in the walker, so a Source never
// touches the network.
type Source interface {
	Name() string

	// Slug derives the stable cache identity for a board URL.
	Slug(boardURL string) string

	// PageURL returns the list URL for a 1-based page, or "" when the
	// platform has no such page. Single-request APIs return "" from
	// page 2 on.
	PageURL(t domain.Tenant, page int) string

	// ParseList extracts leads from one list payload.
	ParseList(t domain.Tenant, page int, body []byte) ([]Lead, error)

	// DetailURL names the posting page that must be fetched before
	// normalizing, or "" when the list payload already carries
	// everything.
	DetailURL(l Lead) string

	// Normalize builds the cache record from the lead and, when
	// DetailURL returned one, the detail payload.
	Normalize(t domain.Tenant, l Lead, detail []byte) (domain.JobRecord, error)
}
