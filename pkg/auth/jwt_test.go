package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789abcdef"

func signHS256(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTValidator_ValidateToken(t *testing.T) {
	validator, err := NewJWTValidator(JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "lorekeeper",
	})
	require.NoError(t, err)

	baseClaims := func() Claims {
		return Claims{
			UserID: "user-123",
			Email:  "reader@example.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "lorekeeper",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
			},
		}
	}

	t.Run("accepts a valid token", func(t *testing.T) {
		// Arrange
		tokenString := signHS256(t, testSecret, baseClaims())

		// Act
		claims, err := validator.ValidateToken("Bearer " + tokenString)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID)
		assert.Equal(t, "reader@example.com", claims.Email)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		// Arrange
		claims := baseClaims()
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		tokenString := signHS256(t, testSecret, claims)

		// Act
		_, err := validator.ValidateToken(tokenString)

		// Assert
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		// Arrange
		tokenString := signHS256(t, "some-other-secret-value", baseClaims())

		// Act
		_, err := validator.ValidateToken(tokenString)

		// Assert
		assert.Error(t, err)
	})

	t.Run("rejects a wrong issuer", func(t *testing.T) {
		// Arrange
		claims := baseClaims()
		claims.Issuer = "someone-else"
		tokenString := signHS256(t, testSecret, claims)

		// Act
		_, err := validator.ValidateToken(tokenString)

		// Assert
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("rejects a token without a user ID", func(t *testing.T) {
		// Arrange
		claims := baseClaims()
		claims.UserID = ""
		tokenString := signHS256(t, testSecret, claims)

		// Act
		_, err := validator.ValidateToken(tokenString)

		// Assert
		assert.ErrorIs(t, err, ErrInvalidClaims)
	})

	t.Run("rejects an empty token", func(t *testing.T) {
		// Act
		_, err := validator.ValidateToken("Bearer ")

		// Assert
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestNewJWTValidator_Config(t *testing.T) {
	t.Run("requires a secret for HS256", func(t *testing.T) {
		_, err := NewJWTValidator(JWTConfig{SigningMethod: "HS256"})
		assert.Error(t, err)
	})

	t.Run("requires a public key for RS256", func(t *testing.T) {
		_, err := NewJWTValidator(JWTConfig{SigningMethod: "RS256"})
		assert.Error(t, err)
	})

	t.Run("rejects unknown signing methods", func(t *testing.T) {
		_, err := NewJWTValidator(JWTConfig{SigningMethod: "none"})
		assert.Error(t, err)
	})
}
