package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"bantay/middleware"
	"bantay/tracking"
)

// ReportWatcher opens a live subscription on a resident's reports.
// Implemented by db.FirestoreDB.
type ReportWatcher interface {
	WatchUserReports(ctx context.Context, uid string, loc *time.Location) (<-chan []tracking.TrackedReport, <-chan error)
}

type TrackerHandler struct {
	db  ReportWatcher
	loc *time.Location
}

func NewTrackerHandler(watcher ReportWatcher, loc *time.Location) *TrackerHandler {
	return &TrackerHandler{
		db:  watcher,
		loc: loc,
	}
}

// Stream serves the resident's report tracker as server-sent events. Every
// change to the subscribed data re-emits the full sorted, filtered list.
// Exactly one listener runs per open stream; closing the connection cancels
// the request context and tears it down. A listener fault emits one final
// empty snapshot and ends the stream; reconnecting is the client's call.
func (h *TrackerHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	query := r.URL.Query().Get("q")

	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		// Unauthenticated viewers see an empty tracker, not an error
		writeEvent(w, flusher, nil)
		return
	}

	ctx := r.Context()
	updates, errs := h.db.WatchUserReports(ctx, identity.UID, h.loc)

	log.Printf("📡 Tracker stream opened for %s", identity.UID)
	defer log.Printf("📡 Tracker stream closed for %s", identity.UID)

	for {
		select {
		case reports, open := <-updates:
			if !open {
				// The watcher closes updates after reporting a fault; the
				// select may land here first with the error still buffered.
				// Drain it so the fault is logged and the viewer still gets
				// the final empty snapshot.
				select {
				case err := <-errs:
					log.Printf("❌ Tracker stream for %s: %v", identity.UID, err)
					writeEvent(w, flusher, nil)
				default:
				}
				return
			}
			tracking.SortNewestFirst(reports)
			writeEvent(w, flusher, tracking.Filter(reports, query))
		case err := <-errs:
			log.Printf("❌ Tracker stream for %s: %v", identity.UID, err)
			writeEvent(w, flusher, nil)
			return
		case <-ctx.Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, reports []tracking.TrackedReport) {
	if reports == nil {
		reports = []tracking.TrackedReport{}
	}
	payload, err := json.Marshal(ReportListResponse{Reports: reports, Count: len(reports)})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}
