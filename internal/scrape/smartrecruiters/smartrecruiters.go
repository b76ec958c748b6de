// Package smartrecruiters reads the public SmartRecruiters postings API.
// Pagination is offset-based; pages map to offsets of pageSize each.
package smartrecruiters

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/stapply-ai/job-map/internal/domain"
	"github.com/stapply-ai/job-map/internal/scrape"
	"github.com/stapply-ai/job-map/internal/scrape/util"
)

const Name = "smartrecruiters"

const pageSize = 100

type Source struct{}

func (Source) Name() string { return Name }

// Slug is the company identifier from board URLs like
// https://jobs.smartrecruiters.com/<slug>.
func (Source) Slug(boardURL string) string {
	u, err := url.Parse(boardURL)
	if err != nil {
		return strings.Trim(boardURL, "/")
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func (Source) PageURL(t domain.Tenant, page int) string {
	offset := (page - 1) * pageSize
	return fmt.Sprintf("https://api.smartrecruiters.com/v1/companies/%s/postings?limit=%d&offset=%d",
		url.PathEscape(t.Slug), pageSize, offset)
}

// The API wraps postings as
// { "content": [...], "totalFound": N, "offset": O, "limit": L };
// only content is read here.
type postingsResponse struct {
	Content []json.RawMessage `json:"content"`
}

func (Source) ParseList(t domain.Tenant, page int, body []byte) ([]scrape.Lead, error) {
	var resp postingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("smartrecruiters postings payload: %w", err)
	}

	leads := make([]scrape.Lead, 0, len(resp.Content))
	for _, raw := range resp.Content {
		var peek struct {
			ID   string `json:"id"`
			UUID string `json:"uuid"`
			Ref  string `json:"ref"`
		}
		if err := json.Unmarshal(raw, &peek); err != nil {
			continue
		}
		id := util.FirstNonEmpty(peek.ID, peek.UUID, peek.Ref)
		if id == "" {
			continue
		}
		leads = append(leads, scrape.Lead{
			URL: fmt.Sprintf("https://jobs.smartrecruiters.com/%s/%s", t.Slug, id),
			Raw: raw,
		})
	}
	return leads, nil
}

func (Source) DetailURL(scrape.Lead) string { return "" }

type posting struct {
	ID           string `json:"id"`
	UUID         string `json:"uuid"`
	Name         string `json:"name"`
	Ref          string `json:"ref"`
	ReleasedDate string `json:"releasedDate"`
	Location     struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
		Remote  bool   `json:"remote"`
	} `json:"location"`
	Department struct {
		Label string `json:"label"`
	} `json:"department"`
	TypeOfEmployment struct {
		Label string `json:"label"`
	} `json:"typeOfEmployment"`
}

func (Source) Normalize(t domain.Tenant, l scrape.Lead, _ []byte) (domain.JobRecord, error) {
	var p posting
	if err := json.Unmarshal(l.Raw, &p); err != nil {
		return domain.JobRecord{}, fmt.Errorf("smartrecruiters posting payload: %w", err)
	}

	title := util.CleanText(p.Name)
	if title == "" {
		return domain.JobRecord{}, fmt.Errorf("smartrecruiters posting without title: %s", l.URL)
	}

	jobID := util.FirstNonEmpty(p.ID, p.UUID, p.Ref)
	if jobID == "" {
		jobID = util.HashID(title, l.URL)
	}

	location := strings.Join(nonEmpty(p.Location.City, p.Location.Region, p.Location.Country), ", ")

	rec := domain.JobRecord{
		JobID:        jobID,
		JobTitle:     title,
		LocationFull: util.NormalizeLocation(location),
		JobURL:       l.URL,
		PostedOn:     util.ISOToUTC(p.ReleasedDate),
	}

	tags := map[string]string{}
	if p.Location.Remote {
		tags["remote"] = "true"
	}
	if p.Department.Label != "" {
		tags["department"] = p.Department.Label
	}
	if p.TypeOfEmployment.Label != "" {
		tags["employment_type"] = p.TypeOfEmployment.Label
	}
	if len(tags) > 0 {
		rec.Tags = tags
	}
	return rec, nil
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
