package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estate-crm/estate-crm-server/internal/config"
	"github.com/estate-crm/estate-crm-server/internal/models"
)

func testManager() *JWTManager {
	return NewJWTManager(&config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	m := testManager()
	orgID := uuid.New()
	user := &models.User{
		ID:             uuid.New(),
		Email:          "agent@example.com",
		IsAdmin:        true,
		OrganizationID: &orgID,
	}

	access, refresh, err := m.GenerateTokenPair(user)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.True(t, claims.IsAdmin)
	require.NotNil(t, claims.OrganizationID)
	assert.Equal(t, orgID, *claims.OrganizationID)
}

func TestTokenWithoutOrganization(t *testing.T) {
	m := testManager()
	user := &models.User{ID: uuid.New(), Email: "solo@example.com"}

	access, _, err := m.GenerateTokenPair(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Nil(t, claims.OrganizationID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m := testManager()
	user := &models.User{ID: uuid.New()}

	access, _, err := m.GenerateTokenPair(user)
	require.NoError(t, err)

	other := NewJWTManager(&config.JWTConfig{
		Secret:          "different-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Minute,
	})
	_, err = other.ValidateToken(access)
	assert.Error(t, err)
}

func TestParseRefreshToken(t *testing.T) {
	m := testManager()
	user := &models.User{ID: uuid.New()}

	_, refresh, err := m.GenerateTokenPair(user)
	require.NoError(t, err)

	userID, err := m.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestParseRefreshTokenRejectsExpired(t *testing.T) {
	m := NewJWTManager(&config.JWTConfig{
		Secret:          "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: -time.Minute,
	})
	user := &models.User{ID: uuid.New()}

	_, refresh, err := m.GenerateTokenPair(user)
	require.NoError(t, err)

	_, err = m.ParseRefreshToken(refresh)
	assert.Error(t, err)
}
