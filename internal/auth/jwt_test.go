package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"iserve/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	cfg := NewJWTConfig("test-secret", time.Hour)

	token, err := cfg.Issue("user-1", model.RoleAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := cfg.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTConfig("secret-a", time.Hour).Issue("user-1", model.RoleUser)
	require.NoError(t, err)

	_, err = NewJWTConfig("secret-b", time.Hour).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpired(t *testing.T) {
	cfg := NewJWTConfig("test-secret", time.Hour)
	cfg.Expiry = -time.Minute

	token, err := cfg.Issue("user-1", model.RoleUser)
	require.NoError(t, err)

	_, err = cfg.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	cfg := NewJWTConfig("test-secret", time.Hour)

	var gotUserID, gotRole string
	handler := cfg.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		gotRole = GetRole(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("anonymous passes through", func(t *testing.T) {
		gotUserID = ""
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, gotUserID)
	})

	t.Run("valid bearer sets context", func(t *testing.T) {
		token, err := cfg.Issue("user-7", model.RoleUser)
		require.NoError(t, err)

		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-7", gotUserID)
		assert.Equal(t, "user", gotRole)
	})

	t.Run("garbage bearer rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header rejected", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, err := VerifyPassword("hunter2", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("hunter3", hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyPassword("whatever", "not-a-hash")
	assert.ErrorIs(t, err, ErrInvalidHashFormat)
}
