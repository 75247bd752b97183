// internal/utils/jwt_test.go
package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nppdirect/pricing-backend/internal/models"
)

func TestJWTRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	principal := models.Principal{
		UserID:          uuid.New(),
		Username:        "acme-supplier",
		Capability:      models.CapabilityManufacturer,
		ManufacturerIDs: []uuid.UUID{uuid.New(), uuid.New()},
	}

	token, err := GenerateJWT(principal, 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)

	restored, err := PrincipalFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, principal, restored)
}

func TestValidateJWTRejectsTamperedToken(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT(models.Principal{UserID: uuid.New(), Capability: models.CapabilityAdmin}, 1)
	require.NoError(t, err)

	_, err = ValidateJWT(token + "x")
	assert.Error(t, err)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	SetJWTSecret("test-secret")
	token, err := GenerateJWT(models.Principal{UserID: uuid.New(), Capability: models.CapabilityAdmin}, 1)
	require.NoError(t, err)

	SetJWTSecret("rotated-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")

	userID := uuid.New()
	token, err := GenerateRefreshToken(userID, 24)
	require.NoError(t, err)

	subject, err := ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), subject)
}
