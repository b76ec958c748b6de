package domain

import "time"

// Tenant is one registered ATS board: a platform tag plus the canonical
// board URL and the slug derived from it.
type Tenant struct {
	Platform     string
	Slug         string
	Name         string
	URL          string
	DiscoveredAt time.Time
	Active       bool
}
