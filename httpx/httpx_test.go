package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/oauth"
	"github.com/kuzowebsite/ider-surver/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseBuffer(t *testing.T) {
	buf := NewResponseBuffer()
	assert.Equal(t, 0, buf.Status())

	buf.Header().Set("X-Test", "1")
	buf.Write([]byte("hello"))
	assert.Equal(t, http.StatusOK, buf.Status())

	buf = NewResponseBuffer()
	buf.WriteHeader(http.StatusUnauthorized)
	buf.WriteHeader(http.StatusOK)
	buf.Write([]byte("nope"))
	assert.Equal(t, http.StatusUnauthorized, buf.Status())

	rec := httptest.NewRecorder()
	require.NoError(t, buf.Flush(rec))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "nope", rec.Body.String())
}

func TestCredentials(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "auth.sqlite"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, SeedAdmin(ctx, db, "admin@example.com", "first"))
	require.NoError(t, SeedAdmin(ctx, db, "admin@example.com", "second"))

	cv := CredentialsVerifier(db, time.Hour)
	r := httptest.NewRequest(http.MethodPost, "/", nil)

	assert.NoError(t, cv.ValidateUser("admin@example.com", "second", "", r))
	assert.ErrorIs(t, cv.ValidateUser("admin@example.com", "first", "", r), ErrBadCredentials)
	assert.ErrorIs(t, cv.ValidateUser("nobody@example.com", "second", "", r), ErrBadCredentials)

	claims, err := cv.AddClaims(oauth.BearerToken, "admin@example.com", "t1", "", r)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"roles": "admin", "email": "admin@example.com"}, claims)

	require.NoError(t, cv.StoreTokenID(oauth.BearerToken, "admin@example.com", "t1", "r1"))
	assert.NoError(t, cv.ValidateTokenID(oauth.BearerToken, "admin@example.com", "t1", "r1"))
	// a refresh token id is good for one use
	assert.ErrorIs(t, cv.ValidateTokenID(oauth.BearerToken, "admin@example.com", "t1", "r1"), ErrCannotRefresh)
}

func TestLogInvalid(t *testing.T) {
	rec := httptest.NewRecorder()
	LogInvalid(rec, httptest.NewRequest(http.MethodPost, "/", nil), "test.invalid", []string{"a", "b"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"errors":["a","b"]}`, rec.Body.String())
}
