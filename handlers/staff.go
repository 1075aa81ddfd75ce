package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"bantay/auth"
	"bantay/db"
	"bantay/middleware"
	"bantay/models"
)

type StaffHandler struct {
	db         *db.FirestoreDB
	jwtManager *auth.JWTManager
}

func NewStaffHandler(firestoreDB *db.FirestoreDB, jwtManager *auth.JWTManager) *StaffHandler {
	return &StaffHandler{
		db:         firestoreDB,
		jwtManager: jwtManager,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refresh_token"`
	User         *models.StaffUser `json:"user"`
}

// Login handles staff authentication
func (h *StaffHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.db.GetStaffByUsername(r.Context(), req.Username)
	if err != nil {
		log.Printf("Login failed for user %s: user not found", req.Username)
		writeError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	passwordHash, err := h.db.GetPasswordHash(r.Context(), user.UserID)
	if err != nil {
		log.Printf("Login failed for user %s: password hash not found", req.Username)
		writeError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	if err := auth.CheckPassword(req.Password, passwordHash); err != nil {
		log.Printf("Login failed for user %s: invalid password", req.Username)
		writeError(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	user.LastLogin = time.Now()
	if err := h.db.UpdateStaff(r.Context(), user); err != nil {
		log.Printf("Warning: failed to update last login for user %s: %v", req.Username, err)
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for user %s: %v", req.Username, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(user)
	if err != nil {
		log.Printf("Failed to generate refresh token for user %s: %v", req.Username, err)
		writeError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Staff logged in: %s (role: %s)", user.Username, user.Role)

	writeJSON(w, LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	Token string `json:"token"`
}

// RefreshToken handles token refresh
func (h *StaffHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		writeError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	user, err := h.db.GetStaff(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, "Staff user not found", http.StatusUnauthorized)
		return
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for user %s: %v", user.Username, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, RefreshTokenResponse{Token: token})
}

type StaffReportsResponse struct {
	Reports []models.IncidentReport `json:"reports"`
	Count   int                     `json:"count"`
}

// GetReports returns all resident reports for the EOC desk, optionally
// limited to those created after ?since=RFC3339.
func (h *StaffHandler) GetReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var reports []models.IncidentReport
	var err error

	if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
		sinceTime, parseErr := time.Parse(time.RFC3339, sinceParam)
		if parseErr != nil {
			writeError(w, "Invalid 'since' parameter format. Use RFC3339", http.StatusBadRequest)
			return
		}
		reports, err = h.db.GetReportsSince(r.Context(), sinceTime)
	} else {
		reports, err = h.db.GetAllReports(r.Context())
	}

	if err != nil {
		log.Printf("❌ Failed to get reports: %v", err)
		writeError(w, "Failed to retrieve reports", http.StatusInternalServerError)
		return
	}

	if reports == nil {
		reports = []models.IncidentReport{}
	}
	writeJSON(w, StaffReportsResponse{Reports: reports, Count: len(reports)})
}

type UpdateStatusRequest struct {
	DocID  string              `json:"doc_id"`
	Status models.ReportStatus `json:"status"`
}

// UpdateStatus transitions one report's status
func (h *StaffHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetStaffFromContext(r.Context())
	if !ok {
		writeError(w, "Staff user not found in context", http.StatusUnauthorized)
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.DocID == "" {
		writeError(w, "doc_id is required", http.StatusBadRequest)
		return
	}
	if !models.ValidStatus(req.Status) {
		writeError(w, "Invalid report status", http.StatusBadRequest)
		return
	}

	if err := h.db.UpdateReportStatus(r.Context(), req.DocID, req.Status); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			writeError(w, "Report not found", http.StatusNotFound)
			return
		}
		log.Printf("❌ Failed to update status for report %s: %v", req.DocID, err)
		writeError(w, "Failed to update report status", http.StatusInternalServerError)
		return
	}

	h.db.LogAudit(r.Context(), user.UserID, "REPORT_STATUS_UPDATE",
		fmt.Sprintf("Report %s set to %s", req.DocID, req.Status))

	writeJSON(w, map[string]bool{"success": true})
}

// ExportReports exports all reports to CSV
func (h *StaffHandler) ExportReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := middleware.GetStaffFromContext(r.Context())
	if !ok {
		writeError(w, "Staff user not found in context", http.StatusUnauthorized)
		return
	}

	reports, err := h.db.GetAllReports(r.Context())
	if err != nil {
		log.Printf("❌ Failed to get reports: %v", err)
		writeError(w, "Failed to retrieve reports", http.StatusInternalServerError)
		return
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("bantay_reports_%s.csv", timestamp)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"Report ID",
		"Date Key",
		"Sequence",
		"Status",
		"Full Name",
		"Address",
		"Contact Number",
		"Report",
		"UID",
		"Email",
		"Created At",
	}
	if err := writer.Write(header); err != nil {
		log.Printf("❌ Failed to write CSV header: %v", err)
		return
	}

	for _, report := range reports {
		uid := ""
		if report.UID != nil {
			uid = *report.UID
		}
		email := ""
		if report.Email != nil {
			email = *report.Email
		}

		row := []string{
			report.ReportID,
			report.DateKey,
			strconv.FormatInt(report.Sequence, 10),
			string(report.Status),
			report.FullName,
			report.Address,
			report.ContactNumber,
			report.Report,
			uid,
			email,
			report.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			log.Printf("❌ Failed to write CSV row: %v", err)
			return
		}
	}

	h.db.LogAudit(r.Context(), user.UserID, "DATA_EXPORT",
		fmt.Sprintf("User '%s' exported %d reports", user.Username, len(reports)))
}
