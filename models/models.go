// models.go
// Defines the core data structures for the barangay EOC resident-report backend.

package models

import (
	"fmt"
	"strings"
	"time"
)

// ReportStatus tracks where a report is in the EOC response pipeline.
type ReportStatus string

const (
	StatusSubmitted    ReportStatus = "submitted"
	StatusAcknowledged ReportStatus = "acknowledged"
	StatusResponding   ReportStatus = "responding"
	StatusResolved     ReportStatus = "resolved"
	StatusDismissed    ReportStatus = "dismissed"
)

// ValidStatus reports whether s is one of the known report statuses.
func ValidStatus(s ReportStatus) bool {
	switch s {
	case StatusSubmitted, StatusAcknowledged, StatusResponding, StatusResolved, StatusDismissed:
		return true
	}
	return false
}

// IncidentReport is a resident's distress report. One document per submission;
// reportId is assigned once from the day's counter and never changes.
type IncidentReport struct {
	DocID         string       `firestore:"-" json:"doc_id,omitempty"`
	ReportID      string       `firestore:"reportId" json:"report_id"`
	DateKey       string       `firestore:"dateKey" json:"date_key"`
	Sequence      int64        `firestore:"sequence" json:"sequence"`
	UID           *string      `firestore:"uid" json:"uid"`
	Email         *string      `firestore:"email" json:"email"`
	FullName      string       `firestore:"fullName" json:"full_name"`
	Address       string       `firestore:"address" json:"address"`
	ContactNumber string       `firestore:"contactNumber" json:"contact_number"`
	Report        string       `firestore:"report" json:"report"`
	Status        ReportStatus `firestore:"status" json:"status"`
	CreatedAt     time.Time    `firestore:"createdAt" json:"created_at"`
}

// DailyCounter is the per-calendar-day sequence source. Keyed by dateKey,
// created on first allocation, never deleted.
type DailyCounter struct {
	DateKey      string    `firestore:"dateKey" json:"date_key"`
	LastSequence int64     `firestore:"lastSequence" json:"last_sequence"`
	UpdatedAt    time.Time `firestore:"updatedAt" json:"updated_at"`
}

// ResidentProfile holds the saved personal details used to prefill the
// report form. Owned by the profile flow; the report flow only reads it.
type ResidentProfile struct {
	UID              string    `firestore:"uid" json:"uid"`
	Email            *string   `firestore:"email" json:"email"`
	FirstName        string    `firestore:"firstName" json:"first_name"`
	MiddleInitial    string    `firestore:"middleInitial" json:"middle_initial"`
	LastName         string    `firestore:"lastName" json:"last_name"`
	Address          string    `firestore:"address" json:"address"`
	ContactNumber    string    `firestore:"contactNumber" json:"contact_number"`
	EmergencyContact string    `firestore:"emergencyContact" json:"emergency_contact"`
	CreatedAt        time.Time `firestore:"createdAt" json:"created_at"`
	UpdatedAt        time.Time `firestore:"updatedAt" json:"updated_at"`
}

// Identity is the authenticated resident, as established from a Firebase ID
// token. Nil identity means an unauthenticated caller.
type Identity struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// StaffRole defines the access level of an EOC staff account.
type StaffRole string

const (
	RoleDispatcher StaffRole = "DISPATCHER"
	RoleAdmin      StaffRole = "ADMIN"
)

// StaffUser is an EOC desk account. Residents never appear here; they are
// Firebase Auth users.
type StaffUser struct {
	UserID    string    `firestore:"user_id" json:"user_id"`
	Username  string    `firestore:"username" json:"username"`
	Role      StaffRole `firestore:"role" json:"role"`
	LastLogin time.Time `firestore:"last_login" json:"last_login"`
}

// AuditLog records a staff action against the report store.
type AuditLog struct {
	LogID     string    `firestore:"log_id" json:"log_id"`
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
	UserID    string    `firestore:"user_id" json:"user_id"`
	Action    string    `firestore:"action" json:"action"`
	Details   string    `firestore:"details" json:"details"`
}

// ProfileForm is the payload for saving a resident profile. Merged into the
// stored document; the server supplies uid, email and timestamps.
type ProfileForm struct {
	FirstName        string `json:"first_name"`
	MiddleInitial    string `json:"middle_initial"`
	LastName         string `json:"last_name"`
	Address          string `json:"address"`
	ContactNumber    string `json:"contact_number"`
	EmergencyContact string `json:"emergency_contact"`
}

// ReportForm is the submission payload. All four fields are required after
// trimming.
type ReportForm struct {
	FullName      string `json:"full_name"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
	Report        string `json:"report"`
}

// Trim returns a copy of the form with surrounding whitespace removed from
// every field. Submitted reports always store the trimmed values.
func (f ReportForm) Trim() ReportForm {
	return ReportForm{
		FullName:      strings.TrimSpace(f.FullName),
		Address:       strings.TrimSpace(f.Address),
		ContactNumber: strings.TrimSpace(f.ContactNumber),
		Report:        strings.TrimSpace(f.Report),
	}
}

// MissingFields returns the names of required fields that are empty after
// trimming, in form order. An empty result means the form is valid.
func (f ReportForm) MissingFields() []string {
	trimmed := f.Trim()
	var missing []string
	if trimmed.FullName == "" {
		missing = append(missing, "full_name")
	}
	if trimmed.Address == "" {
		missing = append(missing, "address")
	}
	if trimmed.ContactNumber == "" {
		missing = append(missing, "contact_number")
	}
	if trimmed.Report == "" {
		missing = append(missing, "report")
	}
	return missing
}

// FormatReportID derives the human-readable report identifier from the day
// key and the allocated sequence. Padding is a minimum width: sequence 10000
// simply widens the ID.
func FormatReportID(dateKey string, sequence int64) string {
	return fmt.Sprintf("IR-%s-%04d", dateKey, sequence)
}

// DateKey formats a moment as the 8-digit YYYYMMDD key of its calendar day
// in the given location.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("20060102")
}

// ComposeFullName builds the display name used when copying profile data
// into the report form: non-empty parts joined by single spaces, a present
// middle initial followed by a period.
func ComposeFullName(firstName, middleInitial, lastName string) string {
	parts := make([]string, 0, 3)
	if s := strings.TrimSpace(firstName); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(middleInitial); s != "" {
		parts = append(parts, s+".")
	}
	if s := strings.TrimSpace(lastName); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
