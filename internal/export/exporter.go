// Package export flattens tenant caches into flat jobs tables and tracks
// what changed between consecutive exports.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/stapply-ai/job-map/internal/cache"
)

// header is the column order of every jobs table.
var header = []string{"url", "title", "location", "company", "posted_at", "ats_id", "id"}

// Row is one line of the flat jobs table.
type Row struct {
	URL      string
	Title    string
	Location string
	Company  string
	PostedAt string
	ATSID    string
	ID       string
}

func (r Row) record() []string {
	return []string{r.URL, r.Title, r.Location, r.Company, r.PostedAt, r.ATSID, r.ID}
}

// RowID derives the stable export identity of one posting. Native job ids
// repeat across tenants, so the slug is part of the key.
func RowID(slug, jobID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(slug+":"+jobID)).String()
}

// Exporter reads tenant caches and writes jobs tables under the data dir:
// one per platform, plus the gathered table at the root.
type Exporter struct {
	Store   *cache.Store
	DataDir string
}

// Export flattens one platform's caches into <data_dir>/<platform>/jobs.csv,
// sorted by (slug, job id) so an unchanged cache set reproduces the file
// byte for byte. When a previous table exists and differs, a timestamped
// diff table is written alongside; its path is returned, or "" when the
// export changed nothing.
func (e *Exporter) Export(platform string) (string, string, error) {
	slugs, err := e.Store.Slugs(platform)
	if err != nil {
		return "", "", fmt.Errorf("list %s caches: %w", platform, err)
	}

	type keyed struct {
		slug string
		row  Row
	}
	var rows []keyed
	for _, slug := range slugs {
		entry, err := e.Store.Load(platform, slug)
		if err != nil || entry == nil {
			continue
		}
		for _, j := range entry.Jobs {
			rows = append(rows, keyed{slug, Row{
				URL:      j.URL(),
				Title:    j.JobTitle,
				Location: j.LocationFull,
				Company:  entry.Company,
				PostedAt: j.PostedOn,
				ATSID:    j.JobID,
				ID:       RowID(slug, j.JobID),
			}})
		}
	}
	sort.Slice(rows, func(i, k int) bool {
		if rows[i].slug != rows[k].slug {
			return rows[i].slug < rows[k].slug
		}
		return rows[i].row.ATSID < rows[k].row.ATSID
	})

	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = r.row
	}

	path := filepath.Join(e.DataDir, platform, "jobs.csv")
	diffPath, err := e.write(path, out)
	if err != nil {
		return "", "", err
	}
	return path, diffPath, nil
}

// Gather merges every per-platform table into <data_dir>/jobs.csv. Rows are
// de-duplicated by url, first platform wins, matching the per-platform
// order given. Returns the table path and the merged row count.
func (e *Exporter) Gather(platforms []string) (string, int, error) {
	seen := mapset.NewSet[string]()
	var merged []Row

	for _, platform := range platforms {
		rows, err := readRows(filepath.Join(e.DataDir, platform, "jobs.csv"))
		if err != nil {
			slog.Warn("platform table unreadable, skipping", "platform", platform, "err", err)
			continue
		}
		for _, r := range rows {
			if r.URL != "" && !seen.Add(r.URL) {
				continue
			}
			merged = append(merged, r)
		}
	}

	path := filepath.Join(e.DataDir, "jobs.csv")
	if err := writeTable(path, merged); err != nil {
		return "", 0, err
	}
	return path, len(merged), nil
}

// write stores the table at path and, when a previous version exists and
// differs, a sibling diff table. First exports never produce a diff.
func (e *Exporter) write(path string, rows []Row) (string, error) {
	prev, err := readRows(path)
	if err != nil {
		slog.Warn("previous export unreadable, diff suppressed", "path", path, "err", err)
		prev = nil
	}

	diffPath := ""
	if prev != nil {
		if changes := diffRows(prev, rows); len(changes) > 0 {
			stamp := time.Now().Format("20060102_150405")
			diffPath = filepath.Join(filepath.Dir(path), fmt.Sprintf("jobs_diff_%s.csv", stamp))
			if err := writeDiff(diffPath, changes); err != nil {
				return "", err
			}
		}
	}

	if err := writeTable(path, rows); err != nil {
		return "", err
	}
	return diffPath, nil
}

// change is one diff line: what happened to a row between two exports.
type change struct {
	kind string // added, removed, changed
	row  Row
}

// diffRows compares exports by row ID. Changed rows carry their new
// values, removed rows their last known ones.
func diffRows(prev, next []Row) []change {
	prevByID := make(map[string]Row, len(prev))
	for _, r := range prev {
		prevByID[r.ID] = r
	}
	nextIDs := mapset.NewSet[string]()

	var changes []change
	for _, r := range next {
		nextIDs.Add(r.ID)
		old, ok := prevByID[r.ID]
		switch {
		case !ok:
			changes = append(changes, change{"added", r})
		case old != r:
			changes = append(changes, change{"changed", r})
		}
	}
	for _, r := range prev {
		if !nextIDs.Contains(r.ID) {
			changes = append(changes, change{"removed", r})
		}
	}
	return changes
}

// readRows loads an existing table, mapping columns by header name so
// older files with fewer columns still diff cleanly. A missing file reads
// as nil, nil.
func readRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []Row{}, nil
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[name] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, Row{
			URL:      field(rec, "url"),
			Title:    field(rec, "title"),
			Location: field(rec, "location"),
			Company:  field(rec, "company"),
			PostedAt: field(rec, "posted_at"),
			ATSID:    field(rec, "ats_id"),
			ID:       field(rec, "id"),
		})
	}
	return rows, nil
}

func writeTable(path string, rows []Row) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, r := range rows {
		records = append(records, r.record())
	}
	return writeCSV(path, records)
}

func writeDiff(path string, changes []change) error {
	records := make([][]string, 0, len(changes)+1)
	records = append(records, append([]string{"change"}, header...))
	for _, c := range changes {
		records = append(records, append([]string{c.kind}, c.row.record()...))
	}
	return writeCSV(path, records)
}

// writeCSV writes atomically: sibling .tmp, then rename.
func writeCSV(path string, records [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
