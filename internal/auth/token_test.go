package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseTokenAcceptsValidToken(t *testing.T) {
	tm := NewTokenManager("secret")

	tokenStr := signToken(t, "secret", jwt.SigningMethodHS256, &Claims{
		Role: RoleHRAdmin,
		Name: "Alice Ando",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := tm.ParseToken(tokenStr)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, RoleHRAdmin, claims.Role)
	assert.Equal(t, "Alice Ando", claims.Name)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret")

	tokenStr := signToken(t, "other-secret", jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := tm.ParseToken(tokenStr)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpiredToken(t *testing.T) {
	tm := NewTokenManager("secret")

	tokenStr := signToken(t, "secret", jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	_, err := tm.ParseToken(tokenStr)
	assert.Error(t, err)
}

func TestParseTokenRequiresSubject(t *testing.T) {
	tm := NewTokenManager("secret")

	tokenStr := signToken(t, "secret", jwt.SigningMethodHS256, &Claims{
		Role: RoleHRAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	_, err := tm.ParseToken(tokenStr)
	assert.Error(t, err)
}
