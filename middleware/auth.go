package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"bantay/auth"
	"bantay/models"
)

type contextKey string

const (
	// IdentityContextKey carries the resident identity, when present.
	IdentityContextKey contextKey = "identity"
	// StaffContextKey carries the authenticated staff user.
	StaffContextKey contextKey = "staff"
)

// TokenVerifier validates a Firebase ID token into a resident identity.
// Implemented by db.FirestoreDB.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*models.Identity, error)
}

// StaffStore looks up staff accounts by ID. Implemented by db.FirestoreDB.
type StaffStore interface {
	GetStaff(ctx context.Context, userID string) (*models.StaffUser, error)
}

// ResidentAuth validates the Firebase ID token and injects the resident
// identity into the request context. Requests without a valid token are
// rejected.
func ResidentAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := residentIdentity(r, verifier)
			if err != nil {
				writeError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalResidentAuth injects the resident identity when a valid token is
// present and passes the request through anonymously otherwise. Report
// submission and tracking accept unauthenticated callers.
func OptionalResidentAuth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identity, err := residentIdentity(r, verifier); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), IdentityContextKey, identity))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func residentIdentity(r *http.Request, verifier TokenVerifier) (*models.Identity, error) {
	token, err := auth.ExtractToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return verifier.VerifyIDToken(r.Context(), token)
}

// GetIdentityFromContext retrieves the resident identity, nil when the
// caller is unauthenticated.
func GetIdentityFromContext(ctx context.Context) *models.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(*models.Identity)
	return identity
}

// StaffAuth validates staff JWT tokens and injects the staff user into
// context
func StaffAuth(jwtManager *auth.JWTManager, store StaffStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractToken(r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.ValidateToken(token)
			if err != nil {
				writeError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			// Fetch the account to pick up role changes since token issue
			user, err := store.GetStaff(r.Context(), claims.UserID)
			if err != nil {
				writeError(w, "Staff user not found", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), StaffContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetStaffFromContext retrieves the staff user from the request context
func GetStaffFromContext(ctx context.Context) (*models.StaffUser, bool) {
	user, ok := ctx.Value(StaffContextKey).(*models.StaffUser)
	return user, ok
}

// RequireRole middleware checks if the staff user has one of the required
// roles
func RequireRole(allowedRoles ...models.StaffRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetStaffFromContext(r.Context())
			if !ok {
				writeError(w, "Staff user not found in context", http.StatusUnauthorized)
				return
			}

			hasRole := false
			for _, role := range allowedRoles {
				if user.Role == role {
					hasRole = true
					break
				}
			}

			if !hasRole {
				writeError(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
