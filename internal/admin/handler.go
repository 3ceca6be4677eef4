// Package admin serves the authenticated management pages: login, logout
// and the 404 log.
package admin

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pandeptwidyaop/simple404/internal/admin/middleware"
	"github.com/pandeptwidyaop/simple404/internal/auth"
	"github.com/pandeptwidyaop/simple404/internal/db/models"
	"github.com/pandeptwidyaop/simple404/internal/notfound"
	"github.com/pandeptwidyaop/simple404/internal/version"
	pkgerrors "github.com/pandeptwidyaop/simple404/pkg/errors"
	"github.com/pandeptwidyaop/simple404/pkg/logger"
)

const (
	pageTitle = "404 Log"
	pageNote  = "For performance reasons, only the latest 404 error is logged for each URL."

	logPath   = "/admin/404-log"
	loginPath = "/admin/login"
)

// Config holds the admin surface settings.
type Config struct {
	JWTSecret         string
	TokenTTL          time.Duration
	LoginRPS          float64
	LoginBurst        int
	TrustForwardedFor bool // key the login limiter on X-Forwarded-For
	HTTPLogLevel      string
}

// Handler serves the admin routes.
type Handler struct {
	users        *auth.UserService
	renderer     *notfound.Renderer
	authMW       *middleware.AuthMiddleware
	limiter      *middleware.RateLimiter
	csrf         *middleware.CSRFProtection
	httpLogLevel string
}

// NewHandler creates the admin handler. Close releases its background
// goroutines.
func NewHandler(users *auth.UserService, renderer *notfound.Renderer, cfg Config) *Handler {
	return &Handler{
		users:        users,
		renderer:     renderer,
		authMW:       middleware.NewAuthMiddleware(cfg.JWTSecret, cfg.TokenTTL),
		limiter:      middleware.NewRateLimiter(rate.Limit(cfg.LoginRPS), cfg.LoginBurst, middleware.WithTrustForwardedFor(cfg.TrustForwardedFor)),
		csrf:         middleware.NewCSRFProtection(),
		httpLogLevel: cfg.HTTPLogLevel,
	}
}

// Close stops the rate limiter and CSRF cleanup loops.
func (h *Handler) Close() {
	h.limiter.Stop()
	h.csrf.Stop()
}

// RegisterRoutes registers all admin routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	rbac := middleware.NewPermissionChecker()
	manageOptions := rbac.RequireCapability(models.CapManageOptions)

	// Public routes
	mux.HandleFunc("GET /admin/health", h.health)
	mux.HandleFunc("GET "+loginPath, h.loginPage)
	mux.Handle("POST "+loginPath, h.limiter.Limit(h.csrf.Protect(http.HandlerFunc(h.login))))
	mux.Handle("POST /admin/logout", h.csrf.Protect(http.HandlerFunc(h.logout)))

	// Protected routes
	mux.Handle("GET "+logPath, h.authMW.RequireLogin(manageOptions(http.HandlerFunc(h.logPage))))
	mux.Handle("GET /admin/api/404-log", h.authMW.Protect(manageOptions(http.HandlerFunc(h.logAPI))))

	mux.HandleFunc("GET /admin/{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, logPath, http.StatusFound)
	})
}

// Handler returns the admin routes wrapped in security headers and request
// logging, ready to mount under /admin/.
func (h *Handler) Handler() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return middleware.SecurityHeaders(middleware.HTTPLoggerWithLevel(mux, h.httpLogLevel))
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.WarnEvent().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func renderPage(w http.ResponseWriter, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		logger.ErrorEvent().Err(err).Str("template", name).Msg("Failed to execute admin template")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "simple404",
		"version": version.GetVersion().Version,
	})
}

type loginPageData struct {
	Username   string
	Error      string
	NeedCode   bool
	CSRFToken  string
	RedirectTo string
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type loginResponse struct {
	Token       string `json:"token,omitempty"`
	User        string `json:"user"`
	Role        string `json:"role,omitempty"`
	Requires2FA bool   `json:"requires_2fa,omitempty"`
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, http.StatusOK, loginPageData{
		RedirectTo: r.URL.Query().Get("redirect_to"),
	})
}

func (h *Handler) renderLogin(w http.ResponseWriter, status int, data loginPageData) {
	token, err := h.csrf.GenerateToken()
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to generate CSRF token")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	data.CSRFToken = token
	renderPage(w, status, "login.html", data)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if middleware.IsJSONRequest(r) {
		h.loginJSON(w, r)
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	code := r.PostFormValue("code")
	redirectTo := r.PostFormValue("redirect_to")

	user, err := h.users.Authenticate(r.Context(), username, password, code)
	switch {
	case errors.Is(err, pkgerrors.ErrTOTPRequired):
		h.renderLogin(w, http.StatusOK, loginPageData{
			Username: username, NeedCode: true, RedirectTo: redirectTo,
		})
		return
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		logger.WarnEvent().Str("username", username).Msg("Failed admin login")
		h.renderLogin(w, http.StatusUnauthorized, loginPageData{
			Username: username, Error: "Invalid username, password or code.",
			NeedCode: code != "", RedirectTo: redirectTo,
		})
		return
	case err != nil:
		logger.ErrorEvent().Err(err).Msg("Login failed")
		h.renderLogin(w, http.StatusInternalServerError, loginPageData{
			Username: username, Error: "Login failed, please try again.", RedirectTo: redirectTo,
		})
		return
	}

	token, err := h.authMW.GenerateToken(user.ID.String(), user.Username, string(user.Role))
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to generate token")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.authMW.SessionCookie(token, r.TLS != nil))
	http.Redirect(w, r, safeRedirect(redirectTo), http.StatusSeeOther)
}

func (h *Handler) loginJSON(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Username, req.Password, req.Code)
	switch {
	case errors.Is(err, pkgerrors.ErrTOTPRequired):
		respondJSON(w, http.StatusOK, loginResponse{User: req.Username, Requires2FA: true})
		return
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case err != nil:
		logger.ErrorEvent().Err(err).Msg("Login failed")
		respondError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := h.authMW.GenerateToken(user.ID.String(), user.Username, string(user.Role))
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to generate token")
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  user.Username,
		Role:  string(user.Role),
	})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.authMW.ClearCookie(r.TLS != nil))
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

type logPageData struct {
	Title     string
	Note      string
	Username  string
	CSRFToken string
	Rows      []notfound.Row
}

func (h *Handler) logPage(w http.ResponseWriter, r *http.Request) {
	rows, err := h.renderer.Render(r.Context())
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to render 404 log")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	token, err := h.csrf.GenerateToken()
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to generate CSRF token")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	renderPage(w, http.StatusOK, "log.html", logPageData{
		Title:     pageTitle,
		Note:      pageNote,
		Username:  middleware.GetUserFromContext(r.Context()),
		CSRFToken: token,
		Rows:      rows,
	})
}

func (h *Handler) logAPI(w http.ResponseWriter, r *http.Request) {
	rows, err := h.renderer.Render(r.Context())
	if err != nil {
		logger.ErrorEvent().Err(err).Msg("Failed to render 404 log")
		respondError(w, http.StatusInternalServerError, "Failed to read 404 log")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"title": pageTitle,
		"note":  pageNote,
		"rows":  rows,
	})
}

// safeRedirect keeps post-login redirects inside the admin area.
func safeRedirect(target string) string {
	if strings.HasPrefix(target, "/admin/") && !strings.ContainsAny(target, "\\\r\n") {
		return target
	}
	return logPath
}
