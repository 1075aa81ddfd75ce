// Package tracking turns raw report documents into the rows the resident
// tracker shows: defaulted fields, newest-first ordering, and a
// case-insensitive multi-field search.
package tracking

import (
	"sort"
	"strings"
	"time"
)

// TrackedReport is one row of the resident's report tracker.
type TrackedReport struct {
	ID              string `json:"id"`
	ReportID        string `json:"report_id"`
	Report          string `json:"report"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	CreatedAtMillis int64  `json:"created_at_millis"`
}

// FromDoc maps an untyped report document into a display row. Every field
// is defaulted: documents written by older app versions may miss any of
// them, and createdAt is unresolved until the server timestamp commits.
func FromDoc(id string, data map[string]interface{}, loc *time.Location) TrackedReport {
	row := TrackedReport{
		ID:        id,
		ReportID:  "No Report ID",
		Status:    "submitted",
		CreatedAt: "No date",
	}

	if v, ok := data["reportId"].(string); ok && v != "" {
		row.ReportID = v
	}
	if v, ok := data["report"].(string); ok {
		row.Report = v
	}
	if v, ok := data["status"].(string); ok && v != "" {
		row.Status = v
	}
	if t, ok := data["createdAt"].(time.Time); ok {
		row.CreatedAt = t.In(loc).Format("1/2/2006")
		row.CreatedAtMillis = t.UnixMilli()
	}

	return row
}

// SortNewestFirst orders rows descending by creation time. Rows whose
// timestamp has not resolved carry millis 0 and sort last.
func SortNewestFirst(reports []TrackedReport) {
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAtMillis > reports[j].CreatedAtMillis
	})
}

// Filter returns the rows matching the query as a case-insensitive
// substring of the report ID, body, status, or formatted date. An empty or
// whitespace-only query matches everything.
func Filter(reports []TrackedReport, query string) []TrackedReport {
	keyword := strings.ToLower(strings.TrimSpace(query))
	if keyword == "" {
		return reports
	}

	filtered := make([]TrackedReport, 0, len(reports))
	for _, row := range reports {
		if strings.Contains(strings.ToLower(row.ReportID), keyword) ||
			strings.Contains(strings.ToLower(row.Report), keyword) ||
			strings.Contains(strings.ToLower(row.Status), keyword) ||
			strings.Contains(strings.ToLower(row.CreatedAt), keyword) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
