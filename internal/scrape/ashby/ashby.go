// Package ashby reads Ashby boards through the posting API. One request
// returns every listed posting with description HTML inline.
package ashby

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/stapply-ai/job-map/internal/domain"
	"github.com/stapply-ai/job-map/internal/scrape"
	"github.com/stapply-ai/job-map/internal/scrape/util"
)

const Name = "ashby"

type Source struct{}

func (Source) Name() string { return Name }

// Slug is the board path: https://jobs.ashbyhq.com/acme -> acme.
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
	return fmt.Sprintf("https://api.ashbyhq.com/posting-api/job-board/%s?includeCompensation=true", t.Slug)
}

type boardResponse struct {
	Jobs []json.RawMessage `json:"jobs"`
}

func (Source) ParseList(t domain.Tenant, page int, body []byte) ([]scrape.Lead, error) {
	var resp boardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ashby board payload: %w", err)
	}

	leads := make([]scrape.Lead, 0, len(resp.Jobs))
	for _, raw := range resp.Jobs {
		var peek struct {
			JobURL   string `json:"jobUrl"`
			ApplyURL string `json:"applyUrl"`
		}
		if err := json.Unmarshal(raw, &peek); err != nil {
			continue
		}
		u := util.FirstNonEmpty(peek.JobURL, peek.ApplyURL)
		if u == "" {
			continue
		}
		leads = append(leads, scrape.Lead{URL: u, Raw: raw})
	}
	return leads, nil
}

func (Source) DetailURL(scrape.Lead) string { return "" }

type ashbyJob struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Department         string   `json:"department"`
	Team               string   `json:"team"`
	EmploymentType     string   `json:"employmentType"`
	Location           string   `json:"location"`
	SecondaryLocations []string `json:"secondaryLocations"`
	PublishedAt        string   `json:"publishedAt"`
	IsListed           bool     `json:"isListed"`
	IsRemote           bool     `json:"isRemote"`
	JobURL             string   `json:"jobUrl"`
	ApplyURL           string   `json:"applyUrl"`
	DescriptionHTML    string   `json:"descriptionHtml"`
}

func (Source) Normalize(t domain.Tenant, l scrape.Lead, _ []byte) (domain.JobRecord, error) {
	var j ashbyJob
	if err := json.Unmarshal(l.Raw, &j); err != nil {
		return domain.JobRecord{}, fmt.Errorf("ashby job payload: %w", err)
	}

	title := util.CleanText(j.Title)
	if title == "" {
		return domain.JobRecord{}, fmt.Errorf("ashby job without title: %s", l.URL)
	}

	jobID := j.ID
	if jobID == "" {
		jobID = util.HashID(title, l.URL)
	}

	locations := append([]string{j.Location}, j.SecondaryLocations...)
	location := strings.Join(nonEmpty(locations), "; ")

	rec := domain.JobRecord{
		JobID:           jobID,
		JobTitle:        title,
		LocationFull:    util.NormalizeLocation(location),
		JobURL:          j.JobURL,
		ApplyURL:        j.ApplyURL,
		PostedOn:        util.ISOToUTC(j.PublishedAt),
		DescriptionHTML: j.DescriptionHTML,
	}

	tags := map[string]string{}
	if j.IsRemote {
		tags["remote"] = "true"
	}
	if j.Department != "" {
		tags["department"] = j.Department
	}
	if j.Team != "" {
		tags["team"] = j.Team
	}
	if j.EmploymentType != "" {
		tags["employment_type"] = j.EmploymentType
	}
	tags["listed"] = strconv.FormatBool(j.IsListed)
	rec.Tags = tags

	return rec, nil
}

func nonEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
