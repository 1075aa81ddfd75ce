package auth

import (
	"testing"
	"time"

	"bantay/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.StaffUser {
	return &models.StaffUser{
		UserID:   "staff-eoc_admin",
		Username: "eoc_admin",
		Role:     models.RoleAdmin,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	manager := NewJWTManager("test-secret", 30*time.Minute, 7*24*time.Hour)

	token, err := manager.GenerateToken(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := manager.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staff-eoc_admin", claims.UserID)
	assert.Equal(t, "eoc_admin", claims.Username)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	manager := NewJWTManager("test-secret", -1*time.Minute, 7*24*time.Hour)

	token, err := manager.GenerateToken(testUser())
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	manager := NewJWTManager("test-secret", 30*time.Minute, 7*24*time.Hour)
	other := NewJWTManager("other-secret", 30*time.Minute, 7*24*time.Hour)

	token, err := manager.GenerateToken(testUser())
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token)

	_, err = ExtractToken("")
	assert.Error(t, err)

	_, err = ExtractToken("Basic abc123")
	assert.Error(t, err)
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("Sup3rSecret")
	require.NoError(t, err)
	require.NotEqual(t, "Sup3rSecret", hash)

	assert.NoError(t, CheckPassword("Sup3rSecret", hash))
	assert.Error(t, CheckPassword("WrongPass1", hash))
}

func TestHashPasswordRejectsShort(t *testing.T) {
	_, err := HashPassword("short1")
	assert.Error(t, err)
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.NoError(t, ValidatePasswordStrength("ChangeMe123"))
	assert.Error(t, ValidatePasswordStrength("short1"))
	assert.Error(t, ValidatePasswordStrength("lettersonly"))
	assert.Error(t, ValidatePasswordStrength("1234567890"))
}
