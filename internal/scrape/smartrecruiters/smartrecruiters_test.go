package smartrecruiters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stapply-ai/job-map/internal/domain"
)

var tenant = domain.Tenant{Platform: Name, Slug: "AcmeCorp", Name: "Acme", URL: "https://jobs.smartrecruiters.com/AcmeCorp"}

const postingsPayload = `{
  "content": [
    {
      "id": "743999912345678",
      "uuid": "3f8e2a10-9c7b-4a6e-8d21-0123456789ab",
      "name": "Data Engineer",
      "ref": "https://api.smartrecruiters.com/v1/companies/AcmeCorp/postings/743999912345678",
      "releasedDate": "2026-07-15T08:30:00.000Z",
      "location": {"city": "Amsterdam", "region": "North Holland", "country": "nl", "remote": false},
      "department": {"label": "Data"},
      "typeOfEmployment": {"label": "Full-time"}
    },
    {
      "id": "",
      "uuid": "99999999-8888-7777-6666-555555555555",
      "name": "Remote QA Analyst",
      "releasedDate": "2026-07-01T00:00:00.000Z",
      "location": {"city": "", "region": "", "country": "", "remote": true}
    },
    {
      "name": "Posting Without Any ID"
    }
  ],
  "totalFound": 3,
  "offset": 0,
  "limit": 100
}`

func TestSlug(t *testing.T) {
	src := Source{}
	assert.Equal(t, "AcmeCorp", src.Slug("https://jobs.smartrecruiters.com/AcmeCorp"))
	assert.Equal(t, "AcmeCorp", src.Slug("https://careers.smartrecruiters.com/AcmeCorp/some-page"))
}

func TestPageURLOffsets(t *testing.T) {
	src := Source{}
	assert.Equal(t,
		"https://api.smartrecruiters.com/v1/companies/AcmeCorp/postings?limit=100&offset=0",
		src.PageURL(tenant, 1))
	assert.Equal(t,
		"https://api.smartrecruiters.com/v1/companies/AcmeCorp/postings?limit=100&offset=200",
		src.PageURL(tenant, 3))
}

func TestParseList(t *testing.T) {
	src := Source{}
	leads, err := src.ParseList(tenant, 1, []byte(postingsPayload))
	require.NoError(t, err)
	require.Len(t, leads, 2, "posting without id, uuid or ref is dropped")
	assert.Equal(t, "https://jobs.smartrecruiters.com/AcmeCorp/743999912345678", leads[0].URL)
	assert.Equal(t, "https://jobs.smartrecruiters.com/AcmeCorp/99999999-8888-7777-6666-555555555555", leads[1].URL,
		"uuid fills in for missing id")
}

func TestParseListEmptyPageEndsWalk(t *testing.T) {
	src := Source{}
	leads, err := src.ParseList(tenant, 4, []byte(`{"content":[],"totalFound":3,"offset":300,"limit":100}`))
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestNormalize(t *testing.T) {
	src := Source{}
	leads, err := src.ParseList(tenant, 1, []byte(postingsPayload))
	require.NoError(t, err)

	rec, err := src.Normalize(tenant, leads[0], nil)
	require.NoError(t, err)
	assert.Equal(t, "743999912345678", rec.JobID)
	assert.Equal(t, "Data Engineer", rec.JobTitle)
	assert.Equal(t, "Amsterdam, North Holland, nl", rec.LocationFull)
	assert.Equal(t, "https://jobs.smartrecruiters.com/AcmeCorp/743999912345678", rec.JobURL)
	assert.Equal(t, "2026-07-15T08:30:00Z", rec.PostedOn)
	assert.Equal(t, "Data", rec.Tags["department"])
	assert.Equal(t, "Full-time", rec.Tags["employment_type"])
	assert.NotContains(t, rec.Tags, "remote")
}

func TestNormalizeRemote(t *testing.T) {
	src := Source{}
	leads, err := src.ParseList(tenant, 1, []byte(postingsPayload))
	require.NoError(t, err)

	rec, err := src.Normalize(tenant, leads[1], nil)
	require.NoError(t, err)
	assert.Equal(t, "99999999-8888-7777-6666-555555555555", rec.JobID)
	assert.Empty(t, rec.LocationFull)
	assert.Equal(t, "true", rec.Tags["remote"])
}
