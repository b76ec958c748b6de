package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Senior Engineer  ", "Senior Engineer"},
		{"one\n\ttwo   three", "one two three"},
		{"", ""},
		{"  ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in))
	}
}

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Location: Berlin, Germany", "Berlin, Germany"},
		{"Remote, Remote, United States", "Remote, United States"},
		{"  ", ""},
		{"San Francisco , CA ,  san francisco", "San Francisco, CA"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLocation(tt.in))
	}
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", " ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
}

func TestISOToUTC(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-02-10T14:02:06-05:00", "2026-02-10T19:02:06Z"},
		{"2026-02-10T14:02:06.123456Z", "2026-02-10T14:02:06Z"},
		{"2026-02-10T14:02:06", "2026-02-10T14:02:06Z"},
		{"2026-04-12", "2026-04-12T00:00:00Z"},
		{"yesterday", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ISOToUTC(tt.in), tt.in)
	}
}

func TestHashIDDeterministic(t *testing.T) {
	a := HashID("Engineer", "https://x/jobs/1")
	b := HashID("Engineer", "https://x/jobs/1")
	c := HashID("Engineer", "https://x/jobs/2")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 40)
}
