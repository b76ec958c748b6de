// Package lever reads Lever boards through the public postings API:
// one JSON array per tenant, hosted and apply links per posting.
package lever

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/stapply-ai/job-map/internal/domain"
	"github.com/stapply-ai/job-map/internal/scrape"
	"github.com/stapply-ai/job-map/internal/scrape/util"
)

const Name = "lever"

type Source struct{}

func (Source) Name() string { return Name }

// Slug is the account name from the board URL:
// https://jobs.lever.co/acme -> acme.
func (Source) Slug(boardURL string) string {
	u, err := url.Parse(boardURL)
	if err != nil {
		return strings.Trim(boardURL, "/")
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return strings.Trim(u.Path, "/")
}

func (Source) PageURL(t domain.Tenant, page int) string {
	if page > 1 {
		return ""
	}
	return fmt.Sprintf("https://api.lever.co/v0/postings/%s?mode=json", t.Slug)
}

func (Source) ParseList(t domain.Tenant, page int, body []byte) ([]scrape.Lead, error) {
	var postings []json.RawMessage
	if err := json.Unmarshal(body, &postings); err != nil {
		return nil, fmt.Errorf("lever postings payload: %w", err)
	}

	leads := make([]scrape.Lead, 0, len(postings))
	for _, raw := range postings {
		var peek struct {
			HostedURL string `json:"hostedUrl"`
			ApplyURL  string `json:"applyUrl"`
		}
		if err := json.Unmarshal(raw, &peek); err != nil {
			continue
		}
		u := util.FirstNonEmpty(peek.HostedURL, peek.ApplyURL)
		if u == "" {
			continue
		}
		leads = append(leads, scrape.Lead{URL: u, Raw: raw})
	}
	return leads, nil
}

func (Source) DetailURL(scrape.Lead) string { return "" }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	ApplyURL   string `json:"applyUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Country    string `json:"country"`
	Categories struct {
		Location     string   `json:"location"`
		Team         string   `json:"team"`
		Commitment   string   `json:"commitment"`
		AllLocations []string `json:"allLocations"`
	} `json:"categories"`
	WorkplaceType string `json:"workplaceType"`
	Description   string `json:"description"` // html
}

func (Source) Normalize(t domain.Tenant, l scrape.Lead, _ []byte) (domain.JobRecord, error) {
	var p leverPosting
	if err := json.Unmarshal(l.Raw, &p); err != nil {
		return domain.JobRecord{}, fmt.Errorf("lever posting payload: %w", err)
	}

	title := util.CleanText(p.Text)
	if title == "" {
		return domain.JobRecord{}, fmt.Errorf("lever posting without title: %s", l.URL)
	}

	jobID := p.ID
	if jobID == "" {
		jobID = util.HashID(title, l.URL)
	}

	location := util.FirstNonEmpty(
		p.Categories.Location,
		strings.Join(p.Categories.AllLocations, ", "),
	)

	posted := ""
	if p.CreatedAt > 0 {
		posted = util.TimestampUTC(time.UnixMilli(p.CreatedAt))
	}

	rec := domain.JobRecord{
		JobID:           jobID,
		JobTitle:        title,
		LocationFull:    util.NormalizeLocation(location),
		JobURL:          p.HostedURL,
		ApplyURL:        p.ApplyURL,
		PostedOn:        posted,
		DescriptionHTML: p.Description,
	}

	tags := map[string]string{}
	if p.Categories.Team != "" {
		tags["team"] = p.Categories.Team
	}
	if p.Categories.Commitment != "" {
		tags["commitment"] = p.Categories.Commitment
	}
	if p.WorkplaceType != "" {
		tags["workplace_type"] = p.WorkplaceType
	}
	if len(tags) > 0 {
		rec.Tags = tags
	}
	return rec, nil
}
