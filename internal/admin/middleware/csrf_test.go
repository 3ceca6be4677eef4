package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCSRF_GenerateToken tests CSRF token generation
func TestCSRF_GenerateToken(t *testing.T) {
	csrf := NewCSRFProtection()
	defer csrf.Stop()

	token, err := csrf.GenerateToken()
	require.NoError(t, err)
	assert.Greater(t, len(token), 40)

	other, err := csrf.GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

// TestCSRF_SingleUse tests that tokens validate only once
func TestCSRF_SingleUse(t *testing.T) {
	csrf := NewCSRFProtection()
	defer csrf.Stop()

	token, err := csrf.GenerateToken()
	require.NoError(t, err)

	assert.True(t, csrf.ValidateToken(token))
	assert.False(t, csrf.ValidateToken(token))
	assert.False(t, csrf.ValidateToken(""))
	assert.False(t, csrf.ValidateToken("made-up"))
}

// TestCSRF_Expired tests that expired tokens are rejected and evicted
func TestCSRF_Expired(t *testing.T) {
	csrf := NewCSRFProtection()
	defer csrf.Stop()

	token, err := csrf.GenerateToken()
	require.NoError(t, err)

	csrf.mu.Lock()
	csrf.tokens[token] = time.Now().Add(-time.Minute)
	csrf.mu.Unlock()

	stale, err := csrf.GenerateToken()
	require.NoError(t, err)
	csrf.mu.Lock()
	csrf.tokens[stale] = time.Now().Add(-time.Minute)
	csrf.mu.Unlock()

	assert.False(t, csrf.ValidateToken(token))

	csrf.evictExpired()
	csrf.mu.Lock()
	assert.NotContains(t, csrf.tokens, stale)
	csrf.mu.Unlock()
}

// TestCSRF_Protect tests the middleware on form and JSON posts
func TestCSRF_Protect(t *testing.T) {
	csrf := NewCSRFProtection()
	defer csrf.Stop()
	handler := csrf.Protect(okHandler())

	post := func(body, contentType string) int {
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	token, err := csrf.GenerateToken()
	require.NoError(t, err)
	form := url.Values{CSRFFieldName: {token}, "log": {"admin"}}.Encode()

	assert.Equal(t, http.StatusOK, post(form, "application/x-www-form-urlencoded"))
	// replay is rejected
	assert.Equal(t, http.StatusForbidden, post(form, "application/x-www-form-urlencoded"))
	assert.Equal(t, http.StatusForbidden, post("log=admin", "application/x-www-form-urlencoded"))
	assert.Equal(t, http.StatusOK, post(`{"username":"admin"}`, "application/json; charset=utf-8"))

	req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
