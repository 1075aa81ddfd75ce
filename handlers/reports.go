package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"bantay/db"
	"bantay/middleware"
	"bantay/models"
	"bantay/tracking"
)

// ReportStore is the slice of the data layer the resident report flow
// needs. Implemented by db.FirestoreDB.
type ReportStore interface {
	SubmitReport(ctx context.Context, report *models.IncidentReport) error
	GetResidentProfile(ctx context.Context, uid string) (*models.ResidentProfile, error)
	GetUserReports(ctx context.Context, uid string, loc *time.Location) ([]tracking.TrackedReport, error)
}

type ReportHandler struct {
	db  ReportStore
	loc *time.Location
	now func() time.Time
}

func NewReportHandler(store ReportStore, loc *time.Location) *ReportHandler {
	return &ReportHandler{
		db:  store,
		loc: loc,
		now: time.Now,
	}
}

type SubmitReportResponse struct {
	ReportID string              `json:"report_id"`
	Status   models.ReportStatus `json:"status"`
}

// Submit validates the report form, allocates the day's next report ID and
// persists the report. Unauthenticated submissions are accepted; they carry
// no uid/email.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var form models.ReportForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Validation happens before any store call
	if missing := form.MissingFields(); len(missing) > 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":          "Please complete all required fields before submitting.",
			"missing_fields": missing,
		})
		return
	}

	trimmed := form.Trim()
	report := &models.IncidentReport{
		DateKey:       models.DateKey(h.now(), h.loc),
		FullName:      trimmed.FullName,
		Address:       trimmed.Address,
		ContactNumber: trimmed.ContactNumber,
		Report:        trimmed.Report,
	}

	if identity := middleware.GetIdentityFromContext(r.Context()); identity != nil {
		uid := identity.UID
		report.UID = &uid
		if identity.Email != "" {
			email := identity.Email
			report.Email = &email
		}
	}

	if err := h.db.SubmitReport(r.Context(), report); err != nil {
		log.Printf("❌ Failed to submit report: %v", err)
		writeError(w, "Unable to submit your report right now. Please try again.", http.StatusBadGateway)
		return
	}

	log.Printf("📋 Report submitted: %s", report.ReportID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SubmitReportResponse{
		ReportID: report.ReportID,
		Status:   report.Status,
	})
}

type PrefillResponse struct {
	FullName      string `json:"full_name"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
}

// Prefill returns the resident's saved profile shaped for the report form:
// the composed full name plus address and contact number. The client
// overwrites its form fields with these values wholesale.
func (h *ReportHandler) Prefill(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	profile, err := h.db.GetResidentProfile(r.Context(), identity.UID)
	if errors.Is(err, db.ErrProfileNotFound) {
		writeError(w, "No saved profile data found. Please complete your user form first.", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("❌ Failed to load profile for prefill: %v", err)
		writeError(w, "Unable to copy profile data right now.", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(PrefillResponse{
		FullName:      models.ComposeFullName(profile.FirstName, profile.MiddleInitial, profile.LastName),
		Address:       strings.TrimSpace(profile.Address),
		ContactNumber: strings.TrimSpace(profile.ContactNumber),
	})
}

type ReportListResponse struct {
	Reports []tracking.TrackedReport `json:"reports"`
	Count   int                      `json:"count"`
}

// List returns the resident's reports newest first, optionally filtered by
// the q query parameter. Unauthenticated callers get an empty list, not an
// error.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		writeJSON(w, ReportListResponse{Reports: []tracking.TrackedReport{}})
		return
	}

	reports, err := h.db.GetUserReports(r.Context(), identity.UID, h.loc)
	if err != nil {
		log.Printf("❌ Failed to load reports for %s: %v", identity.UID, err)
		writeError(w, "Failed to load reports", http.StatusInternalServerError)
		return
	}

	tracking.SortNewestFirst(reports)
	filtered := tracking.Filter(reports, r.URL.Query().Get("q"))
	if filtered == nil {
		filtered = []tracking.TrackedReport{}
	}

	writeJSON(w, ReportListResponse{Reports: filtered, Count: len(filtered)})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
