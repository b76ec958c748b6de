package discover

import (
	"regexp"
	"sort"
	"strings"
)

// boardPattern recognizes one platform's board URLs in search results.
// Result URLs point anywhere on a board (individual postings included);
// the patterns capture just the board root.
type boardPattern struct {
	domains  []string
	patterns []*regexp.Regexp
}

var boardPatterns = map[string]boardPattern{
	"greenhouse": {
		domains: []string{"job-boards.greenhouse.io", "boards.greenhouse.io"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(https://(?:job-boards|boards)\.greenhouse\.io/[^/?#]+)`),
		},
	},
	"lever": {
		domains: []string{"jobs.lever.co"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(https://jobs\.lever\.co/[^/?#]+)`),
		},
	},
	"ashby": {
		domains: []string{"jobs.ashbyhq.com"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(https://jobs\.ashbyhq\.com/[^/?#]+)`),
		},
	},
	"workable": {
		domains: []string{"apply.workable.com", "jobs.workable.com"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(https://apply\.workable\.com/[^/?#]+)`),
			regexp.MustCompile(`^(https://jobs\.workable\.com/company/[^/?#]+/[^/?#]+)`),
		},
	},
	"smartrecruiters": {
		domains: []string{"jobs.smartrecruiters.com", "careers.smartrecruiters.com"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`^(https://(?:jobs|careers)\.smartrecruiters\.com/[^/?#]+)`),
		},
	},
	"workday": {
		domains: []string{"myworkdayjobs.com"},
		patterns: []*regexp.Regexp{
			// board root is an optional xx-XX locale plus the site name
			regexp.MustCompile(`^(https://[a-z0-9-]+\.wd\d+\.myworkdayjobs\.com/(?:[a-z]{2}-[A-Z]{2}/)?[^/?#]+)`),
		},
	},
}

// Platforms lists every platform discovery knows how to search for.
func Platforms() []string {
	names := make([]string, 0, len(boardPatterns))
	for name := range boardPatterns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// matchBoard extracts the board root from one result URL, or "" when the
// URL is not a board on this platform.
func (p boardPattern) matchBoard(resultURL string) string {
	onDomain := false
	for _, d := range p.domains {
		if strings.Contains(resultURL, d) {
			onDomain = true
			break
		}
	}
	if !onDomain {
		return ""
	}
	for _, re := range p.patterns {
		if m := re.FindStringSubmatch(resultURL); m != nil {
			return m[1]
		}
	}
	return ""
}
