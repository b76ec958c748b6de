package domain

// StatusTransportFailure is the cache status recorded when no HTTP response
// was obtained at all (DNS failure, refused connection, timeout).
const StatusTransportFailure = 0

// TenantCache is the on-disk snapshot for one tenant. LastRequest moves on
// every attempt; LastScraped only after a full successful pass, so
// LastRequest >= LastScraped always holds.
type TenantCache struct {
	Company     string      `json:"company"`
	URL         string      `json:"url"`
	Slug        string      `json:"slug"`
	Status      int         `json:"status"`
	LastRequest Time        `json:"last_request"`
	LastScraped *Time       `json:"last_scraped,omitempty"`
	JobCount    int         `json:"job_count"`
	Jobs        []JobRecord `json:"jobs"`
}

// NewTenantCache returns an empty snapshot for a tenant that has never been
// fetched.
func NewTenantCache(t Tenant) *TenantCache {
	return &TenantCache{
		Company: t.Name,
		URL:     t.URL,
		Slug:    t.Slug,
		Jobs:    []JobRecord{},
	}
}

// RecordScrape stamps a fully successful pass and replaces the job set.
func (c *TenantCache) RecordScrape(jobs []JobRecord, status int, at Time) {
	if jobs == nil {
		jobs = []JobRecord{}
	}
	c.Status = status
	c.LastRequest = at
	t := at
	c.LastScraped = &t
	c.Jobs = jobs
	c.JobCount = len(jobs)
}

// RecordFailure stamps a failed pass. The entry stays valid with an empty
// job set; LastScraped keeps the time of the last pass that worked.
func (c *TenantCache) RecordFailure(status int, at Time) {
	c.Status = status
	c.LastRequest = at
	c.Jobs = []JobRecord{}
	c.JobCount = 0
}

// RecordPartial stamps a pass that collected some pages before a later page
// failed. The collected jobs are kept, but the pass does not count as a
// full scrape.
func (c *TenantCache) RecordPartial(jobs []JobRecord, status int, at Time) {
	if jobs == nil {
		jobs = []JobRecord{}
	}
	c.Status = status
	c.LastRequest = at
	c.Jobs = jobs
	c.JobCount = len(jobs)
}
