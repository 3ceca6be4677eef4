package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pkgerrors "github.com/pandeptwidyaop/simple404/pkg/errors"
	"github.com/pandeptwidyaop/simple404/pkg/logger"
)

// CookieName is the httpOnly cookie carrying the session token.
const CookieName = "auth_token"

const userContextKey contextKey = "user"

// Claims represents JWT claims for an admin session
type Claims struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	jwtSecret []byte
	ttl       time.Duration
	loginPath string
}

// NewAuthMiddleware creates a new auth middleware. Tokens expire after ttl.
func NewAuthMiddleware(jwtSecret string, ttl time.Duration) *AuthMiddleware {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &AuthMiddleware{
		jwtSecret: []byte(jwtSecret),
		ttl:       ttl,
		loginPath: "/admin/login",
	}
}

// TTL returns the session lifetime.
func (m *AuthMiddleware) TTL() time.Duration {
	return m.ttl
}

// Protect wraps an API handler with JWT authentication.
// The token comes from the auth_token cookie or an Authorization bearer header.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.authenticate(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// RequireLogin is Protect for browser pages: unauthenticated requests are
// redirected to the login page with a redirect_to parameter.
func (m *AuthMiddleware) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.authenticate(r)
		if err != nil {
			target := m.loginPath + "?redirect_to=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (m *AuthMiddleware) authenticate(r *http.Request) (*Claims, error) {
	var tokenString string

	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		tokenString = cookie.Value
	} else if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || token == "" {
			return nil, pkgerrors.ErrUnauthorized
		}
		tokenString = token
	} else {
		return nil, pkgerrors.ErrUnauthorized
	}

	return m.ParseToken(tokenString)
}

// ParseToken validates a token string and returns its claims.
func (m *AuthMiddleware) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			logger.WarnEvent().Err(err).Msg("Invalid token")
		}
		return nil, pkgerrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, pkgerrors.ErrInvalidToken
	}
	return claims, nil
}

// GenerateToken generates a JWT token for a user
func (m *AuthMiddleware) GenerateToken(userID, username, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		UserID:   userID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.jwtSecret)
}

// SessionCookie builds the auth cookie for token.
func (m *AuthMiddleware) SessionCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/admin",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// ClearCookie expires the auth cookie.
func (m *AuthMiddleware) ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func withClaims(ctx context.Context, claims *Claims) context.Context {
	noteClaims(ctx, claims)
	ctx = SetClaimsInContext(ctx, claims)
	return context.WithValue(ctx, userContextKey, claims.Username)
}

// GetUserFromContext retrieves username from context
func GetUserFromContext(ctx context.Context) string {
	if username, ok := ctx.Value(userContextKey).(string); ok {
		return username
	}
	return ""
}
