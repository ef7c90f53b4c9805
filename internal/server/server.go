package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dctmfoo/HitchensRhetoricTransform/internal/app"
	"github.com/dctmfoo/HitchensRhetoricTransform/internal/util"
	"github.com/dctmfoo/HitchensRhetoricTransform/pkg/domain"
)

const sessionCookieName = "session_token"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App           *app.App
	StaticDir     string
	SessionTTL    time.Duration
	SecureCookies bool
}

// Server exposes HTTP endpoints for the backend.
type Server struct {
	app           *app.App
	mux           *http.ServeMux
	staticDir     string
	sessionTTL    time.Duration
	secureCookies bool
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	sessionTTL := cfg.SessionTTL
	if sessionTTL <= 0 {
		sessionTTL = 24 * time.Hour
	}
	s := &Server{
		app:           cfg.App,
		mux:           http.NewServeMux(),
		staticDir:     cfg.StaticDir,
		sessionTTL:    sessionTTL,
		secureCookies: cfg.SecureCookies,
	}
	s.routes()
	return s
}

// Router returns the configured handler wrapped in the shared middleware.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.Handle("/api/auth/logout", s.authenticated(s.handleLogout))
	s.mux.Handle("/api/auth/user", s.authenticated(s.handleCurrentUser))

	// transform & history (auth required)
	s.mux.Handle("/api/transform", s.authenticated(s.handleTransform))
	s.mux.Handle("/api/history", s.authenticated(s.handleHistory))
	s.mux.Handle("/api/config/providers", s.authenticated(s.handleProviders))

	// admin
	s.mux.Handle("/api/admin/transformations", s.adminOnly(s.handleAdminTransformations))
	s.mux.Handle("/api/admin/users", s.adminOnly(s.handleAdminUsers))
	s.mux.Handle("/api/admin/users/", s.adminOnly(s.handleAdminUserByID))

	// SPA frontend
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "auth.authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) adminOnly(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "admin.authorize", "fail", "reason", "unauthenticated")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !user.IsAdmin {
			s.audit(r, "admin.authorize", "fail", "user_id", user.ID, "reason", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		s.audit(r, "admin.authorize", "success", "user_id", user.ID)
		next(w, r, user)
	})
}

// authorize resolves the caller from the bearer token first, then from the
// session cookie.
func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	if token, ok := bearerToken(r); ok {
		if user, ok := s.app.UserFromToken(token); ok {
			return user, true
		}
		s.audit(r, "token.verify", "fail", "reason", "invalid_or_expired")
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if user, ok := s.app.UserFromSession(cookie.Value); ok {
			return user, true
		}
		s.audit(r, "session.verify", "fail", "reason", "unknown_session")
	}
	return domain.User{}, false
}

// auth handlers
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req registerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "register", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, session, err := s.app.Register(req.Username, req.Email, req.Password)
	if err != nil {
		s.audit(r, "register", "fail", "reason", err.Error())
		s.writeAppError(w, err)
		return
	}
	s.audit(r, "register", "success", "user_id", user.ID)
	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusCreated, authResponse{
		Message: "Registration successful",
		User:    user,
		Token:   token,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "login", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, session, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		s.audit(r, "login", "fail", "reason", err.Error())
		s.writeAppError(w, err)
		return
	}
	s.audit(r, "login", "success", "user_id", user.ID)
	s.setSessionCookie(w, session)
	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		User:    user,
		Token:   token,
	})
}

// handleLogout deletes the server-side session. Bearer tokens cannot be
// revoked and keep working until expiry.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := s.app.Logout(cookie.Value); err != nil {
			s.audit(r, "logout", "fail", "user_id", user.ID, "reason", err.Error())
			writeError(w, http.StatusInternalServerError, "logout failed")
			return
		}
	}
	s.audit(r, "logout", "success", "user_id", user.ID)
	s.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req transformRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		s.audit(r, "transform", "fail", "user_id", user.ID, "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	verbosity, ok := parseVerbosity(req.Verbosity)
	if !ok {
		s.writeAppError(w, app.ErrInvalidVerbosity)
		return
	}
	result, err := s.app.Transform(r.Context(), user, app.TransformRequest{
		Text:        req.Text,
		Verbosity:   verbosity,
		Persona:     req.Persona,
		APIProvider: req.APIProvider,
	})
	if err != nil {
		s.audit(r, "transform", "fail", "user_id", user.ID, "reason", err.Error())
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// parseVerbosity accepts the level as a JSON number; strings, fractions, and
// anything else non-numeric are rejected the same way as an out-of-range level.
func parseVerbosity(raw json.RawMessage) (domain.VerbosityLevel, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, false
	}
	n, err := num.Int64()
	if err != nil {
		return 0, false
	}
	return domain.VerbosityLevel(n), true
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, user domain.User) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	history, err := s.app.History(user)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if history == nil {
		history = []domain.Transformation{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	providers, defaultProvider, err := s.app.Providers()
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, providersResponse{
		Providers: providers,
		Default:   defaultProvider,
	})
}

// admin handlers
func (s *Server) handleAdminTransformations(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	transformations, err := s.app.AdminListTransformations()
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if transformations == nil {
		transformations = []domain.Transformation{}
	}
	writeJSON(w, http.StatusOK, transformations)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, user domain.User) {
	_ = user
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.AdminListUsers()
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleAdminUserByID(w http.ResponseWriter, r *http.Request, admin domain.User) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/users/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req adminUserUpdateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.IsAdmin == nil {
		writeError(w, http.StatusBadRequest, "is_admin is required")
		return
	}
	updated, err := s.app.AdminSetAdmin(admin, id, *req.IsAdmin)
	if err != nil {
		s.audit(r, "admin.user.update", "fail", "user_id", admin.ID, "target_id", id, "reason", err.Error())
		s.writeAppError(w, err)
		return
	}
	s.audit(r, "admin.user.update", "success", "user_id", admin.ID, "target_id", id, "is_admin", *req.IsAdmin)
	writeJSON(w, http.StatusOK, updated)
}

// handleStatic serves the built frontend with an index.html fallback so
// client-side routes resolve after a hard refresh.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w)
		return
	}
	if s.staticDir == "" {
		http.NotFound(w, r)
		return
	}
	requested := filepath.Join(s.staticDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(requested); err == nil && !info.IsDir() {
		http.ServeFile(w, r, requested)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
}

func (s *Server) setSessionCookie(w http.ResponseWriter, session string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session,
		Path:     "/",
		MaxAge:   int(s.sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// writeAppError maps application errors onto HTTP statuses.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrMissingFields),
		errors.Is(err, app.ErrUsernameExists),
		errors.Is(err, app.ErrEmailExists),
		errors.Is(err, app.ErrEmptyInput),
		errors.Is(err, app.ErrInvalidVerbosity),
		errors.Is(err, app.ErrInvalidPersona),
		errors.Is(err, app.ErrInvalidProvider):
		writeError(w, http.StatusBadRequest, rootMessage(err))
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, rootMessage(err))
	case errors.Is(err, app.ErrSelfDemotion):
		writeError(w, http.StatusBadRequest, rootMessage(err))
	case errors.Is(err, app.ErrUserNotFound):
		writeError(w, http.StatusNotFound, rootMessage(err))
	case errors.Is(err, app.ErrNoProviders):
		writeError(w, http.StatusServiceUnavailable, rootMessage(err))
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// rootMessage strips %w wrapping so clients see the sentinel's message.
func rootMessage(err error) string {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
	Token   string      `json:"token"`
}

type transformRequest struct {
	Text        string          `json:"text"`
	Verbosity   json.RawMessage `json:"verbosity"`
	Persona     string          `json:"persona"`
	APIProvider string          `json:"api_provider"`
}

type providersResponse struct {
	Providers []string `json:"providers"`
	Default   string   `json:"default"`
}

type adminUserUpdateRequest struct {
	IsAdmin *bool `json:"is_admin"`
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", clientIP(r),
		"request_id", util.RequestIDFromRequest(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func clientIP(r *http.Request) string {
	if xfwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xfwd != "" {
		parts := strings.Split(xfwd, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
