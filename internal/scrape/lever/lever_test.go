package lever

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stapply-ai/job-map/internal/domain"
)

var tenant = domain.Tenant{Platform: Name, Slug: "acme", Name: "Acme", URL: "https://jobs.lever.co/acme"}

const postingsPayload = `[
  {
    "id": "a1b2c3d4-1111-2222-3333-444455556666",
    "text": "Staff Platform Engineer",
    "hostedUrl": "https://jobs.lever.co/acme/a1b2c3d4-1111-2222-3333-444455556666",
    "applyUrl": "https://jobs.lever.co/acme/a1b2c3d4-1111-2222-3333-444455556666/apply",
    "createdAt": 1700000000000,
    "categories": {
      "location": "New York, NY",
      "team": "Infrastructure",
      "commitment": "Full-time",
      "allLocations": ["New York, NY", "Remote - US"]
    },
    "workplaceType": "hybrid",
    "description": "<div>Run the platform.</div>"
  },
  {
    "text": "Account Executive",
    "hostedUrl": "https://jobs.lever.co/acme/dead-beef",
    "createdAt": 0,
    "categories": {"allLocations": ["London", "Dublin"]}
  },
  {
    "text": "Posting Without Links"
  }
]`

func TestSlug(t *testing.T) {
	src := Source{}
	assert.Equal(t, "acme", src.Slug("https://jobs.lever.co/acme"))
	assert.Equal(t, "acme", src.Slug("https://jobs.lever.co/acme/a1b2c3d4-1111"))
	assert.Equal(t, "acme", src.Slug("https://jobs.eu.lever.co/acme/"))
}

func TestPageURL(t *testing.T) {
	src := Source{}
	assert.Equal(t, "https://api.lever.co/v0/postings/acme?mode=json", src.PageURL(tenant, 1))
	assert.Empty(t, src.PageURL(tenant, 2))
}

func TestParseList(t *testing.T) {
	src := Source{}
	leads, err := src.ParseList(tenant, 1, []byte(postingsPayload))
	require.NoError(t, err)
	require.Len(t, leads, 2, "posting without any link is dropped")
	assert.Equal(t, "https://jobs.lever.co/acme/a1b2c3d4-1111-2222-3333-444455556666", leads[0].URL)
}

func TestNormalize(t *testing.T) {
	src := Source{}
	leads, err := src.ParseList(tenant, 1, []byte(postingsPayload))
	require.NoError(t, err)

	rec, err := src.Normalize(tenant, leads[0], nil)
	require.NoError(t, err)
	assert.Equal(t, "a1b2c3d4-1111-2222-3333-444455556666", rec.JobID)
	assert.Equal(t, "Staff Platform Engineer", rec.JobTitle)
	assert.Equal(t, "New York, NY", rec.LocationFull)
	assert.Equal(t, "https://jobs.lever.co/acme/a1b2c3d4-1111-2222-3333-444455556666/apply", rec.ApplyURL)
	assert.Equal(t, "2023-11-14T22:13:20Z", rec.PostedOn, "createdAt ms epoch rendered as UTC")
	assert.Equal(t, "Infrastructure", rec.Tags["team"])
	assert.Equal(t, "Full-time", rec.Tags["commitment"])
	assert.Equal(t, "hybrid", rec.Tags["workplace_type"])
}

func TestNormalizeLocationAndIDFallbacks(t *testing.T) {
	src := Source{}
	leads, err := src.ParseList(tenant, 1, []byte(postingsPayload))
	require.NoError(t, err)

	rec, err := src.Normalize(tenant, leads[1], nil)
	require.NoError(t, err)
	assert.Equal(t, "London, Dublin", rec.LocationFull, "allLocations joined when location is empty")
	assert.Len(t, rec.JobID, 40, "missing id replaced with content hash")
	assert.Empty(t, rec.PostedOn, "zero createdAt leaves posted_on empty")
}
