// internal/middleware/auth_test.go
package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"study_wala_backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "test-secret-key"
	cfg.JWT.ExpiryHours = 24
	return cfg
}

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func runAuthMiddleware(cfg *config.Config, authHeader string) (*httptest.ResponseRecorder, *uuid.UUID) {
	var captured *uuid.UUID
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := GetUserIDFromContext(r.Context()); err == nil {
			captured = &id
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/study-plans", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	JWTAuthMiddleware(cfg)(next).ServeHTTP(rec, req)
	return rec, captured
}

func Test_JWTAuthMiddleware_ValidToken(t *testing.T) {
	cfg := authTestConfig()
	userID := uuid.New()
	token := signToken(t, cfg.JWT.SecretKey, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	rec, captured := runAuthMiddleware(cfg, "Bearer "+token)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, userID, *captured)
}

func Test_JWTAuthMiddleware_Rejections(t *testing.T) {
	cfg := authTestConfig()
	userID := uuid.New()

	expired := signToken(t, cfg.JWT.SecretKey, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	wrongKey := signToken(t, "other-secret", jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	badSubject := signToken(t, cfg.JWT.SecretKey, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	tests := []struct {
		name   string
		header string
	}{
		{name: "ヘッダーなし", header: ""},
		{name: "形式不正", header: "Token abc"},
		{name: "期限切れ", header: "Bearer " + expired},
		{name: "署名不一致", header: "Bearer " + wrongKey},
		{name: "subがUUIDでない", header: "Bearer " + badSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, captured := runAuthMiddleware(cfg, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, captured)
		})
	}
}
