package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bantay/models"
	"bantay/tracking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWatcher struct {
	updates chan []tracking.TrackedReport
	errs    chan error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{
		updates: make(chan []tracking.TrackedReport, 4),
		errs:    make(chan error, 1),
	}
}

func (f *fakeWatcher) WatchUserReports(_ context.Context, _ string, _ *time.Location) (<-chan []tracking.TrackedReport, <-chan error) {
	return f.updates, f.errs
}

func decodeEvents(t *testing.T, body string) []ReportListResponse {
	t.Helper()
	var events []ReportListResponse
	for _, line := range strings.Split(body, "\n") {
		if payload, ok := strings.CutPrefix(line, "data: "); ok {
			var event ReportListResponse
			require.NoError(t, json.Unmarshal([]byte(payload), &event))
			events = append(events, event)
		}
	}
	return events
}

func TestStreamUnauthenticatedEmitsEmptySnapshot(t *testing.T) {
	h := NewTrackerHandler(newFakeWatcher(), time.UTC)

	w := httptest.NewRecorder()
	h.Stream(w, httptest.NewRequest(http.MethodGet, "/api/reports/stream", nil))

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	events := decodeEvents(t, w.Body.String())
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Reports)
	assert.Zero(t, events[0].Count)
}

func TestStreamEmitsSortedFilteredSnapshots(t *testing.T) {
	watcher := newFakeWatcher()
	watcher.updates <- []tracking.TrackedReport{
		{ID: "old", Report: "Flooded underpass", CreatedAtMillis: 100},
		{ID: "new", Report: "Flood warning issued", CreatedAtMillis: 300},
		{ID: "other", Report: "Fallen tree", CreatedAtMillis: 200},
	}
	close(watcher.updates)

	h := NewTrackerHandler(watcher, time.UTC)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/stream?q=flood", nil)
	req = withIdentity(req, &models.Identity{UID: "resident-1"})

	w := httptest.NewRecorder()
	h.Stream(w, req)

	events := decodeEvents(t, w.Body.String())
	require.Len(t, events, 1)
	require.Equal(t, 2, events[0].Count)
	assert.Equal(t, "new", events[0].Reports[0].ID)
	assert.Equal(t, "old", events[0].Reports[1].ID)
}

// The watcher reports a fault and then closes the update channel; the
// handler's select can observe either channel first, and the viewer must
// get the final empty snapshot both ways. Iterated to exercise both select
// orderings.
func TestStreamListenerFaultEndsWithEmptySnapshot(t *testing.T) {
	for i := 0; i < 100; i++ {
		watcher := newFakeWatcher()
		watcher.errs <- errors.New("listener dropped")
		close(watcher.updates)

		h := NewTrackerHandler(watcher, time.UTC)

		req := httptest.NewRequest(http.MethodGet, "/api/reports/stream", nil)
		req = withIdentity(req, &models.Identity{UID: "resident-1"})

		w := httptest.NewRecorder()
		h.Stream(w, req)

		events := decodeEvents(t, w.Body.String())
		require.Len(t, events, 1)
		assert.Empty(t, events[0].Reports)
		assert.Zero(t, events[0].Count)
	}
}

func TestStreamStopsWhenClientDisconnects(t *testing.T) {
	watcher := newFakeWatcher()
	h := NewTrackerHandler(watcher, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/reports/stream", nil).WithContext(ctx)
	req = withIdentity(req, &models.Identity{UID: "resident-1"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.Stream(httptest.NewRecorder(), req)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after context cancellation")
	}
}
