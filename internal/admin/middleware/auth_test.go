package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func usernameHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(GetUserFromContext(r.Context())))
	})
}

// TestNewAuthMiddleware tests middleware initialization
func TestNewAuthMiddleware(t *testing.T) {
	m := NewAuthMiddleware(testSecret, time.Hour)
	assert.Equal(t, []byte(testSecret), m.jwtSecret)
	assert.Equal(t, time.Hour, m.TTL())

	// non-positive ttl falls back to the default session length
	assert.Equal(t, 12*time.Hour, NewAuthMiddleware(testSecret, 0).TTL())
}

// TestGenerateToken tests JWT token generation
func TestGenerateToken(t *testing.T) {
	m := NewAuthMiddleware(testSecret, 2*time.Hour)

	token, err := m.GenerateToken("user-1", "admin", "administrator")
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "administrator", claims.Role)

	assert.True(t, claims.ExpiresAt.After(time.Now().Add(time.Hour)))
	assert.True(t, claims.ExpiresAt.Before(time.Now().Add(3*time.Hour)))
}

// TestProtect_CookieAuth tests authentication via httpOnly cookie
func TestProtect_CookieAuth(t *testing.T) {
	m := NewAuthMiddleware(testSecret, time.Hour)
	token, err := m.GenerateToken("user-1", "testuser", "viewer")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin/api/404-log", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	rec := httptest.NewRecorder()

	m.Protect(usernameHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "testuser", rec.Body.String())
}

// TestProtect_BearerAuth tests authentication via Authorization header
func TestProtect_BearerAuth(t *testing.T) {
	m := NewAuthMiddleware(testSecret, time.Hour)
	token, err := m.GenerateToken("user-1", "testuser", "administrator")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin/api/404-log", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	m.Protect(usernameHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "testuser", rec.Body.String())
}

// TestProtect_QueryTokenIgnored makes sure tokens are not accepted from the URL
func TestProtect_QueryTokenIgnored(t *testing.T) {
	m := NewAuthMiddleware(testSecret, time.Hour)
	token, err := m.GenerateToken("user-1", "testuser", "administrator")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/admin/api/404-log?token="+token, nil)
	rec := httptest.NewRecorder()

	m.Protect(usernameHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestProtect_Rejections tests requests that must not authenticate
func TestProtect_Rejections(t *testing.T) {
	m := NewAuthMiddleware(testSecret, time.Hour)

	other := NewAuthMiddleware("other-secret", time.Hour)
	foreign, err := other.GenerateToken("user-1", "testuser", "administrator")
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Username: "testuser",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	expiredToken, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Username: "testuser"})
	noneToken, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no token", ""},
		{"missing Bearer prefix", "sometoken"},
		{"wrong prefix", "Basic sometoken"},
		{"extra parts", "Bearer token extra"},
		{"malformed token", "Bearer not.a.jwt"},
		{"wrong secret", "Bearer " + foreign},
		{"expired", "Bearer " + expiredToken},
		{"alg none", "Bearer " + noneToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin/api/404-log", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			m.Protect(usernameHandler()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), "Unauthorized")
		})
	}
}

// TestRequireLogin_Redirects tests the browser flow
func TestRequireLogin_Redirects(t *testing.T) {
	m := NewAuthMiddleware(testSecret, time.Hour)

	req := httptest.NewRequest("GET", "/admin/404-log?x=1", nil)
	rec := httptest.NewRecorder()
	m.RequireLogin(usernameHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/admin/login?redirect_to=%2Fadmin%2F404-log%3Fx%3D1", rec.Header().Get("Location"))

	token, err := m.GenerateToken("user-1", "testuser", "administrator")
	require.NoError(t, err)
	req = httptest.NewRequest("GET", "/admin/404-log", nil)
	req.AddCookie(m.SessionCookie(token, false))
	rec = httptest.NewRecorder()
	m.RequireLogin(usernameHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "testuser", rec.Body.String())
}

// TestSessionCookie tests cookie attributes
func TestSessionCookie(t *testing.T) {
	m := NewAuthMiddleware(testSecret, time.Hour)

	c := m.SessionCookie("tok", true)
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, "tok", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)

	cleared := m.ClearCookie(false)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

// TestGetUserFromContext_Empty tests the missing-user case
func TestGetUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, GetUserFromContext(req.Context()))
	assert.Nil(t, GetClaimsFromContext(req.Context()))
}
