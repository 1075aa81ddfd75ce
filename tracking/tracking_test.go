package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func row(id string, millis int64) TrackedReport {
	return TrackedReport{ID: id, CreatedAtMillis: millis}
}

func TestFromDocDefaults(t *testing.T) {
	got := FromDoc("doc1", map[string]interface{}{}, time.UTC)

	assert.Equal(t, "doc1", got.ID)
	assert.Equal(t, "No Report ID", got.ReportID)
	assert.Equal(t, "", got.Report)
	assert.Equal(t, "submitted", got.Status)
	assert.Equal(t, "No date", got.CreatedAt)
	assert.EqualValues(t, 0, got.CreatedAtMillis)
}

func TestFromDocMapsFields(t *testing.T) {
	created := time.Date(2025, 3, 15, 8, 30, 0, 0, time.UTC)
	got := FromDoc("doc2", map[string]interface{}{
		"reportId":  "IR-20250315-0007",
		"report":    "Flood warning issued",
		"status":    "responding",
		"createdAt": created,
	}, time.UTC)

	assert.Equal(t, "IR-20250315-0007", got.ReportID)
	assert.Equal(t, "Flood warning issued", got.Report)
	assert.Equal(t, "responding", got.Status)
	assert.Equal(t, "3/15/2025", got.CreatedAt)
	assert.Equal(t, created.UnixMilli(), got.CreatedAtMillis)
}

func TestFromDocFormatsDateInLocation(t *testing.T) {
	manila, _ := time.LoadLocation("Asia/Manila")

	// 22:00 UTC on the 14th is already the 15th in Manila
	created := time.Date(2025, 3, 14, 22, 0, 0, 0, time.UTC)
	got := FromDoc("doc3", map[string]interface{}{"createdAt": created}, manila)
	assert.Equal(t, "3/15/2025", got.CreatedAt)
}

func TestSortNewestFirst(t *testing.T) {
	reports := []TrackedReport{
		row("old", 100),
		row("pending", 0),
		row("new", 300),
		row("mid", 200),
	}

	SortNewestFirst(reports)

	ids := make([]string, len(reports))
	for i, r := range reports {
		ids[i] = r.ID
	}
	// Unresolved timestamps (millis 0) sort last
	assert.Equal(t, []string{"new", "mid", "old", "pending"}, ids)
}

func TestSortNewestFirstStable(t *testing.T) {
	reports := []TrackedReport{
		row("a", 0),
		row("b", 0),
		row("c", 0),
	}
	SortNewestFirst(reports)
	assert.Equal(t, "a", reports[0].ID)
	assert.Equal(t, "b", reports[1].ID)
	assert.Equal(t, "c", reports[2].ID)
}

func TestFilter(t *testing.T) {
	reports := []TrackedReport{
		{ID: "1", ReportID: "IR-20250315-0001", Report: "Flood warning issued", Status: "submitted", CreatedAt: "3/15/2025"},
		{ID: "2", ReportID: "IR-20250315-0002", Report: "Fallen tree on road", Status: "responding", CreatedAt: "3/15/2025"},
		{ID: "3", ReportID: "IR-20250316-0001", Report: "Power line down", Status: "resolved", CreatedAt: "3/16/2025"},
	}

	t.Run("empty query matches everything", func(t *testing.T) {
		assert.Len(t, Filter(reports, ""), 3)
		assert.Len(t, Filter(reports, "   "), 3)
	})

	t.Run("case-insensitive body match", func(t *testing.T) {
		got := Filter(reports, "flood")
		assert.Len(t, got, 1)
		assert.Equal(t, "1", got[0].ID)
	})

	t.Run("report ID match", func(t *testing.T) {
		got := Filter(reports, "20250316")
		assert.Len(t, got, 1)
		assert.Equal(t, "3", got[0].ID)
	})

	t.Run("status match", func(t *testing.T) {
		got := Filter(reports, "RESPONDING")
		assert.Len(t, got, 1)
		assert.Equal(t, "2", got[0].ID)
	})

	t.Run("formatted date match", func(t *testing.T) {
		got := Filter(reports, "3/16/2025")
		assert.Len(t, got, 1)
		assert.Equal(t, "3", got[0].ID)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Filter(reports, "earthquake"))
	})
}
