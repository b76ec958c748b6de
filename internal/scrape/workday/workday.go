// Package workday scrapes Workday career sites through their HTML widget.
// Boards paginate with a page query parameter and every posting needs a
// detail fetch for the requisition id and description.
package workday

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/stapply-ai/job-map/internal/domain"
	"github.com/stapply-ai/job-map/internal/scrape"
	"github.com/stapply-ai/job-map/internal/scrape/util"
)

const Name = "workday"

type Source struct{}

func (Source) Name() string { return Name }

// Slug flattens the full board URL into a filesystem-safe identifier:
// host dots and path slashes become underscores, query separators dashes.
// Distinct boards on the same tenant keep distinct slugs that way.
func (Source) Slug(boardURL string) string {
	u, err := url.Parse(boardURL)
	if err != nil {
		return "workday"
	}
	host := strings.ReplaceAll(u.Host, ".", "_")
	if host == "" {
		host = "workday"
	}
	path := strings.ReplaceAll(strings.Trim(u.Path, "/"), "/", "_")
	query := strings.NewReplacer("=", "-", "&", "-").Replace(u.RawQuery)

	var parts []string
	for _, p := range []string{path, query} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return host
	}
	return host + "_" + strings.Join(parts, "_")
}

// PageURL keeps the board URL untouched for page 1 so boards with
// pre-filtered queries keep their filters.
func (Source) PageURL(t domain.Tenant, page int) string {
	if page <= 1 {
		return t.URL
	}
	u, err := url.Parse(t.URL)
	if err != nil {
		return ""
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

func (Source) ParseList(t domain.Tenant, page int, body []byte) ([]scrape.Lead, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("workday list page: %w", err)
	}
	base, err := url.Parse(t.URL)
	if err != nil {
		return nil, fmt.Errorf("workday board url %q: %w", t.URL, err)
	}

	var leads []scrape.Lead
	doc.Find("a[data-automation-id='jobTitle']").Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		ref, err := base.Parse(href)
		if err != nil {
			return
		}
		jobURL := ref.String()

		card := a.Closest("li")
		if card.Length() == 0 {
			card = a.Closest("article")
		}

		fields := map[string]string{
			"title":       util.CleanText(a.Text()),
			"job_id_hint": jobIDHint(jobURL),
		}
		if card.Length() > 0 {
			if v := util.CleanText(card.Find("[data-automation-id='locations'] dd").First().Text()); v != "" {
				fields["location_summary"] = v
			}
			if v := util.CleanText(card.Find("[data-automation-id='postedOn'] dd").First().Text()); v != "" {
				fields["posted_on_summary"] = v
			}
			var subtitle []string
			card.Find("ul[data-automation-id='subtitle'] li").Each(func(_ int, li *goquery.Selection) {
				if v := util.CleanText(li.Text()); v != "" {
					subtitle = append(subtitle, v)
				}
			})
			if len(subtitle) > 0 {
				fields["subtitle"] = strings.Join(subtitle, "; ")
			}
		}

		leads = append(leads, scrape.Lead{URL: jobURL, Fields: fields})
	})
	return leads, nil
}

// DetailURL is always the posting page itself; the list card never
// carries the requisition id or description.
func (Source) DetailURL(l scrape.Lead) string { return l.URL }

func (Source) Normalize(t domain.Tenant, l scrape.Lead, detail []byte) (domain.JobRecord, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(detail))
	if err != nil {
		return domain.JobRecord{}, fmt.Errorf("workday detail page %s: %w", l.URL, err)
	}

	title := util.CleanText(doc.Find("h2[data-automation-id='jobPostingHeader']").First().Text())
	if title == "" {
		title = l.Fields["title"]
	}
	if title == "" {
		return domain.JobRecord{}, fmt.Errorf("workday posting without title: %s", l.URL)
	}

	jobID := util.FirstNonEmpty(pickValue(doc, "requisitionId"), l.Fields["job_id_hint"])
	if jobID == "" {
		jobID = util.HashID(title, l.URL)
	}

	location := util.FirstNonEmpty(
		pickValue(doc, "locations"),
		l.Fields["location_summary"],
		l.Fields["subtitle"],
	)

	rec := domain.JobRecord{
		JobID:        jobID,
		JobTitle:     title,
		LocationFull: util.NormalizeLocation(location),
		JobURL:       l.URL,
		PostedOn:     util.FirstNonEmpty(pickValue(doc, "postedOn"), l.Fields["posted_on_summary"]),
	}

	if desc := doc.Find("div[data-automation-id='jobPostingDescription']").First(); desc.Length() > 0 {
		if h, err := desc.Html(); err == nil {
			rec.DescriptionHTML = strings.TrimSpace(h)
		}
	}

	if apply := doc.Find("a[data-automation-id='adventureButton']").First(); apply.Length() > 0 {
		if href, ok := apply.Attr("href"); ok {
			if ref, err := url.Parse(l.URL); err == nil {
				if abs, err := ref.Parse(strings.TrimSpace(href)); err == nil {
					rec.ApplyURL = abs.String()
				}
			}
		}
	}

	tags := map[string]string{}
	if v := pickValue(doc, "remoteType"); v != "" {
		tags["remote_type"] = v
	}
	if v := pickValue(doc, "time"); v != "" {
		tags["time_type"] = v
	}
	if v := pickValue(doc, "timeLeftToApply"); v != "" {
		tags["time_left_to_apply"] = v
	}
	if len(tags) > 0 {
		rec.Tags = tags
	}
	return rec, nil
}

// pickValue reads a labeled detail block, preferring the dd value over
// the block text so the dt label does not leak in.
func pickValue(doc *goquery.Document, automationID string) string {
	block := doc.Find(fmt.Sprintf("[data-automation-id='%s']", automationID)).First()
	if block.Length() == 0 {
		return ""
	}
	if dd := block.Find("dd").First(); dd.Length() > 0 {
		return util.CleanText(dd.Text())
	}
	return util.CleanText(block.Text())
}

// jobIDHint pulls the trailing requisition token from posting URLs like
// .../job/Some-City/Title_JR-12345. Detail pages override it when they
// expose the real requisition id.
func jobIDHint(jobURL string) string {
	path := strings.TrimRight(urlPath(jobURL), "/")
	if path == "" {
		return ""
	}
	tail := path[strings.LastIndex(path, "/")+1:]
	if i := strings.LastIndex(tail, "_"); i >= 0 {
		tail = tail[i+1:]
	}
	if i := strings.Index(tail, "?"); i >= 0 {
		tail = tail[:i]
	}
	return tail
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}
