package domain

// JobRecord is one normalized posting inside a tenant cache. Field names
// match the cache files on disk; platform extras that do not fit the shared
// shape go into Tags and are ignored by the exporter.
type JobRecord struct {
	JobID           string            `json:"job_id"`
	JobTitle        string            `json:"job_title"`
	LocationFull    string            `json:"location_full,omitempty"`
	ApplyURL        string            `json:"apply_url,omitempty"`
	JobURL          string            `json:"job_url,omitempty"`
	PostedOn        string            `json:"posted_on,omitempty"`
	DescriptionHTML string            `json:"job_description_html,omitempty"`
	Tags            map[string]string `json:"tags,omitempty"`
}

// URL returns the posting's canonical link, preferring the direct apply
// link over the listing page.
func (j JobRecord) URL() string {
	if j.ApplyURL != "" {
		return j.ApplyURL
	}
	return j.JobURL
}
