// Package workable reads Workable boards through the widget accounts API.
// The widget payload carries no description, so records stay list-only.
package workable

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/stapply-ai/job-map/internal/domain"
	"github.com/stapply-ai/job-map/internal/scrape"
	"github.com/stapply-ai/job-map/internal/scrape/util"
)

const Name = "workable"

type Source struct{}

func (Source) Name() string { return Name }

// Slug is the account path: https://apply.workable.com/acme -> acme.
func (Source) Slug(boardURL string) string {
	u, err := url.Parse(boardURL)
	if err != nil {
		return strings.Trim(boardURL, "/")
	}
	return strings.Trim(u.Path, "/")
}

func (Source) PageURL(t domain.Tenant, page int) string {
	if page > 1 {
		return ""
	}
	return fmt.Sprintf("https://apply.workable.com/api/v1/widget/accounts/%s", t.Slug)
}

type widgetResponse struct {
	Jobs []json.RawMessage `json:"jobs"`
}

func (Source) ParseList(t domain.Tenant, page int, body []byte) ([]scrape.Lead, error) {
	var resp widgetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("workable widget payload: %w", err)
	}

	leads := make([]scrape.Lead, 0, len(resp.Jobs))
	for _, raw := range resp.Jobs {
		var peek struct {
			URL       string `json:"url"`
			Shortlink string `json:"shortlink"`
		}
		if err := json.Unmarshal(raw, &peek); err != nil {
			continue
		}
		u := util.FirstNonEmpty(peek.URL, peek.Shortlink)
		if u == "" {
			continue
		}
		leads = append(leads, scrape.Lead{URL: u, Raw: raw})
	}
	return leads, nil
}

func (Source) DetailURL(scrape.Lead) string { return "" }

type workableJob struct {
	Title          string `json:"title"`
	Shortcode      string `json:"shortcode"`
	Code           string `json:"code"`
	EmploymentType string `json:"employment_type"`
	Telecommuting  bool   `json:"telecommuting"`
	Department     string `json:"department"`
	URL            string `json:"url"`
	ApplicationURL string `json:"application_url"`
	PublishedOn    string `json:"published_on"`
	CreatedAt      string `json:"created_at"`
	Country        string `json:"country"`
	City           string `json:"city"`
	State          string `json:"state"`
	Locations      []struct {
		Country string `json:"country"`
		City    string `json:"city"`
		Region  string `json:"region"`
	} `json:"locations"`
}

func (Source) Normalize(t domain.Tenant, l scrape.Lead, _ []byte) (domain.JobRecord, error) {
	var j workableJob
	if err := json.Unmarshal(l.Raw, &j); err != nil {
		return domain.JobRecord{}, fmt.Errorf("workable job payload: %w", err)
	}

	title := util.CleanText(j.Title)
	if title == "" {
		return domain.JobRecord{}, fmt.Errorf("workable job without title: %s", l.URL)
	}

	jobID := util.FirstNonEmpty(j.Shortcode, j.Code)
	if jobID == "" {
		jobID = util.HashID(title, l.URL)
	}

	location := joinParts(j.City, j.State, j.Country)
	if location == "" && len(j.Locations) > 0 {
		first := j.Locations[0]
		location = joinParts(first.City, first.Region, first.Country)
	}

	rec := domain.JobRecord{
		JobID:        jobID,
		JobTitle:     title,
		LocationFull: util.NormalizeLocation(location),
		JobURL:       j.URL,
		ApplyURL:     j.ApplicationURL,
		PostedOn:     util.ISOToUTC(util.FirstNonEmpty(j.PublishedOn, j.CreatedAt)),
	}

	tags := map[string]string{}
	if j.Telecommuting {
		tags["remote"] = "true"
	}
	if j.Department != "" {
		tags["department"] = j.Department
	}
	if j.EmploymentType != "" {
		tags["employment_type"] = j.EmploymentType
	}
	if len(tags) > 0 {
		rec.Tags = tags
	}
	return rec, nil
}

func joinParts(parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return strings.Join(out, ", ")
}
