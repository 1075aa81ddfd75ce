package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"bantay/db"
	"bantay/middleware"
	"bantay/models"
)

// ProfileStore is the slice of the data layer the profile flow needs.
// Implemented by db.FirestoreDB.
type ProfileStore interface {
	GetResidentProfile(ctx context.Context, uid string) (*models.ResidentProfile, error)
	SaveResidentProfile(ctx context.Context, identity *models.Identity, form models.ProfileForm) error
}

type ProfileHandler struct {
	db ProfileStore
}

func NewProfileHandler(store ProfileStore) *ProfileHandler {
	return &ProfileHandler{
		db: store,
	}
}

// Handle routes profile reads and saves. Both require a resident identity.
func (h *ProfileHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.save(w, r)
	default:
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ProfileHandler) get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	profile, err := h.db.GetResidentProfile(r.Context(), identity.UID)
	if errors.Is(err, db.ErrProfileNotFound) {
		writeError(w, "No saved profile data found.", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("❌ Failed to get profile for %s: %v", identity.UID, err)
		writeError(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}

	writeJSON(w, profile)
}

func (h *ProfileHandler) save(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var form models.ProfileForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.db.SaveResidentProfile(r.Context(), identity, form); err != nil {
		log.Printf("❌ Failed to save profile for %s: %v", identity.UID, err)
		writeError(w, "Failed to save profile", http.StatusInternalServerError)
		return
	}

	log.Printf("👤 Profile saved for %s", identity.UID)

	writeJSON(w, map[string]bool{"success": true})
}
