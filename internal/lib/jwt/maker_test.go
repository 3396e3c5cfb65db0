package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/paid-signup/internal/models"
)

func testAccount(role models.Role) models.Account {
	return models.Account{
		UUID:  "5f8d0d55-1a2b-4c3d-8e9f-001122334455",
		Email: "a@x.com",
		Role:  role,
	}
}

func TestJWTMaker_GenerateAndParseToken(t *testing.T) {
	maker := NewJWTMaker("test_secret_key_1234567890", 15*time.Minute)

	for _, role := range []models.Role{models.RoleUser, models.RoleVIP, models.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			account := testAccount(role)
			token, err := maker.GenerateToken(account)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)
			assert.Equal(t, account.Email, claims.Email)
			assert.Equal(t, string(role), claims.Role)
			assert.Equal(t, account.UUID, claims.Subject)
			assert.True(t, claims.ExpiresAt.After(time.Now()))
		})
	}
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	maker := NewJWTMaker(secretKey, 15*time.Minute)

	validToken, err := maker.GenerateToken(testAccount(models.RoleUser))
	require.NoError(t, err)

	expired, err := NewJWTMaker(secretKey, -time.Hour).GenerateToken(testAccount(models.RoleUser))
	require.NoError(t, err)

	wrongSecret, err := NewJWTMaker("wrong_secret_key", 15*time.Minute).GenerateToken(testAccount(models.RoleAdmin))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, CustomClaims{Role: "admin"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: expired},
		{name: "wrong secret key", token: wrongSecret},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "none algorithm", token: noneAlg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}
