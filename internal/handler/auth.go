package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/auth"
	"github.com/sakif/tasklist/internal/service"
)

const (
	loginPage     = "/login"
	dashboardPage = "/dashboard"

	oauthStateCookie = "oauth_state"
)

// GitHubSignIn is the part of auth.GitHubProvider the handler needs.
type GitHubSignIn interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GitHubUser, error)
}

// AuthHandler serves registration, login, logout and the profile endpoint,
// plus the optional GitHub sign-in flow.
type AuthHandler struct {
	auth   *service.AuthService
	github GitHubSignIn // nil when GitHub sign-in is not configured
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil.
func NewAuthHandler(authService *service.AuthService, github GitHubSignIn, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		github: github,
		logger: logger,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// RegisterResponse tells a browser front end where to go next.
type RegisterResponse struct {
	Message     string `json:"message"`
	RedirectURL string `json:"redirect_url"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token. It is also returned by the GitHub
// callback.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	UserName    string `json:"user_name"`
	RedirectURL string `json:"redirect_url"`
}

// ProfileResponse is the public view of a user. The password hash has no
// field here, so it can't leak.
type ProfileResponse struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HandleRegister creates an account.
//
// HTTP: POST /api/register
// REQUEST BODY: {"email": "...", "password": "...", "name": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message:     "Registration successful! Redirecting to login...",
		RedirectURL: loginPage,
	})
}

// HandleLogin verifies credentials and returns a bearer token.
//
// HTTP: POST /api/login
// REQUEST BODY: {"email": "...", "password": "..."}
//
// The token is also set as an HttpOnly cookie so a browser front end can
// call the API without handling the token in JavaScript.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	h.respondLoggedIn(w, result)
}

// HandleLogout clears the token cookie and sends the browser to the login
// page.
//
// HTTP: GET /api/logout
//
// Tokens are stateless, so there is nothing to revoke server-side: a copy
// of the token held elsewhere stays valid until it expires.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, loginPage, http.StatusSeeOther)
}

// HandleProfile returns the authenticated user's email and name.
//
// HTTP: GET /api/profile
// Auth: Required
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	email, _ := auth.EmailFromContext(r.Context())

	user, err := h.auth.Profile(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{Email: user.Email, Name: user.Name})
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state is stored in a short-lived cookie and checked on callback,
// which proves the callback was initiated by this server (CSRF protection).
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the GitHub sign-in and answers like
// HandleLogin.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: missing or mismatched state")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   oauthStateCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization", slog.String("error", errParam))
		writeError(w, apperror.Unauthenticated("GitHub authorization was denied"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		if errors.Is(err, auth.ErrNoVerifiedEmail) {
			writeError(w, apperror.Unauthenticated("GitHub account has no verified primary email"))
			return
		}
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	result, err := h.auth.LoginWithGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: sign-in failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	h.respondLoggedIn(w, result)
}

func (h *AuthHandler) respondLoggedIn(w http.ResponseWriter, result *service.AuthResult) {
	// HttpOnly = JavaScript cannot read this cookie (XSS protection).
	// SameSite=Lax = sent on top-level navigations but not cross-site POSTs.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: result.Token,
		UserName:    result.User.Name,
		RedirectURL: dashboardPage,
	})
}
