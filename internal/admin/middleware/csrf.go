package middleware

import (
	"crypto/rand"
	"encoding/base64"
	"mime"
	"net/http"
	"sync"
	"time"
)

// CSRFFieldName is the hidden form field carrying the token.
const CSRFFieldName = "_csrf"

// CSRFProtection issues single-use tokens for the admin HTML forms.
type CSRFProtection struct {
	tokens   map[string]time.Time // token -> expiry
	ttl      time.Duration
	mu       sync.Mutex
	stop     chan struct{}
	stopOnce sync.Once
}

// NewCSRFProtection creates a new CSRF protection middleware.
func NewCSRFProtection() *CSRFProtection {
	csrf := &CSRFProtection{
		tokens: make(map[string]time.Time),
		ttl:    time.Hour,
		stop:   make(chan struct{}),
	}

	go csrf.cleanupLoop(10 * time.Minute)

	return csrf
}

// GenerateToken creates a new CSRF token.
func (c *CSRFProtection) GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	token := base64.RawURLEncoding.EncodeToString(b)

	c.mu.Lock()
	c.tokens[token] = time.Now().Add(c.ttl)
	c.mu.Unlock()

	return token, nil
}

// ValidateToken checks if a CSRF token is valid.
// Tokens are single-use and deleted on every validation attempt.
func (c *CSRFProtection) ValidateToken(token string) bool {
	if token == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	expiry, exists := c.tokens[token]
	if !exists {
		return false
	}
	delete(c.tokens, token)

	return !time.Now().After(expiry)
}

// Protect validates the token on POST form submissions. JSON requests are
// exempt: browsers cannot send them cross-origin without a CORS preflight,
// which the admin surface never grants.
func (c *CSRFProtection) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !IsJSONRequest(r) {
			token := r.Header.Get("X-CSRF-Token")
			if token == "" {
				token = r.PostFormValue(CSRFFieldName)
			}
			if !c.ValidateToken(token) {
				http.Error(w, "Invalid or missing CSRF token", http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// Stop ends the cleanup goroutine.
func (c *CSRFProtection) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *CSRFProtection) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *CSRFProtection) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for token, expiry := range c.tokens {
		if now.After(expiry) {
			delete(c.tokens, token)
		}
	}
}

// IsJSONRequest reports whether the request body is declared as JSON.
func IsJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}
