package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bantay/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	identity *models.Identity
	err      error
}

func (s stubVerifier) VerifyIDToken(_ context.Context, _ string) (*models.Identity, error) {
	return s.identity, s.err
}

func identityEcho(captured **models.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = GetIdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestResidentAuthRejectsMissingToken(t *testing.T) {
	var captured *models.Identity
	handler := ResidentAuth(stubVerifier{})(identityEcho(&captured))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Nil(t, captured)
}

func TestResidentAuthInjectsIdentity(t *testing.T) {
	var captured *models.Identity
	verifier := stubVerifier{identity: &models.Identity{UID: "resident-1", Email: "juan@example.com"}}
	handler := ResidentAuth(verifier)(identityEcho(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer some-id-token")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "resident-1", captured.UID)
}

func TestOptionalResidentAuthPassesAnonymous(t *testing.T) {
	var captured *models.Identity
	verifier := stubVerifier{err: errors.New("invalid token")}
	handler := OptionalResidentAuth(verifier)(identityEcho(&captured))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad-token")

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "anonymous callers pass through")
	assert.Nil(t, captured)
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireRole(models.RoleAdmin)(next)

	t.Run("allows matching role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), StaffContextKey, &models.StaffUser{
			UserID: "staff-1", Role: models.RoleAdmin,
		})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects other roles", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := context.WithValue(req.Context(), StaffContextKey, &models.StaffUser{
			UserID: "staff-2", Role: models.RoleDispatcher,
		})

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("rejects missing staff context", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
