// Package greenhouse reads Greenhouse job boards through the public boards
// API, which returns every posting with content in a single response.
package greenhouse

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

const Name = "greenhouse"

type Source struct{}

func (Source) Name() string { return Name }

// Slug is the board token, the path of the board URL:
// https://boards.greenhouse.io/acme -> acme.
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
	return fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s/jobs?content=true", t.Slug)
}

type boardResponse struct {
	Jobs []json.RawMessage `json:"jobs"`
}

func (Source) ParseList(t domain.Tenant, page int, body []byte) ([]scrape.Lead, error) {
	var resp boardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("greenhouse board payload: %w", err)
	}

	leads := make([]scrape.Lead, 0, len(resp.Jobs))
	for _, raw := range resp.Jobs {
		var peek struct {
			AbsoluteURL string `json:"absolute_url"`
		}
		if err := json.Unmarshal(raw, &peek); err != nil || peek.AbsoluteURL == "" {
			continue
		}
		leads = append(leads, scrape.Lead{URL: peek.AbsoluteURL, Raw: raw})
	}
	return leads, nil
}

func (Source) DetailURL(scrape.Lead) string { return "" }

type ghJob struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	AbsoluteURL string `json:"absolute_url"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
	Offices []struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	} `json:"offices"`
	UpdatedAt      string `json:"updated_at"`
	FirstPublished string `json:"first_published"`
	RequisitionID  string `json:"requisition_id"`
	Content        string `json:"content"`
}

func (Source) Normalize(t domain.Tenant, l scrape.Lead, _ []byte) (domain.JobRecord, error) {
	var j ghJob
	if err := json.Unmarshal(l.Raw, &j); err != nil {
		return domain.JobRecord{}, fmt.Errorf("greenhouse job payload: %w", err)
	}

	title := util.CleanText(j.Title)
	if title == "" {
		return domain.JobRecord{}, fmt.Errorf("greenhouse job without title: %s", l.URL)
	}

	jobID := ""
	if j.ID > 0 {
		jobID = strconv.FormatInt(j.ID, 10)
	}
	if jobID == "" {
		jobID = util.FirstNonEmpty(j.RequisitionID, util.HashID(title, l.URL))
	}

	officeLoc := ""
	if len(j.Offices) > 0 {
		officeLoc = util.FirstNonEmpty(j.Offices[0].Location, j.Offices[0].Name)
	}

	rec := domain.JobRecord{
		JobID:           jobID,
		JobTitle:        title,
		LocationFull:    util.NormalizeLocation(util.FirstNonEmpty(j.Location.Name, officeLoc)),
		JobURL:          j.AbsoluteURL,
		PostedOn:        util.ISOToUTC(util.FirstNonEmpty(j.UpdatedAt, j.FirstPublished)),
		DescriptionHTML: j.Content,
	}
	if j.RequisitionID != "" {
		rec.Tags = map[string]string{"requisition_id": j.RequisitionID}
	}
	return rec, nil
}
