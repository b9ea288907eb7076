package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so nobody else can read
// or shadow the identity we store.
type contextKey string

const emailKey contextKey = "email"

// TokenCookieName is the cookie login sets alongside the JSON response. It is
// a client-held copy of the bearer token for browser front ends; the server
// keeps no session state for it.
const TokenCookieName = "token"

// errNoToken means the request carried no credential at all.
var errNoToken = errors.New("auth: no token in request")

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It extracts the token, validates it, and stores the owner's email in the
// request context. If anything fails, it answers 401 and stops the chain:
// the handler (and therefore the task store) never runs.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := Authorize(r, tokens)
			if err != nil {
				message := "valid authentication required"
				if errors.Is(err, ErrTokenExpired) {
					message = "token expired"
				}
				w.Header().Set("WWW-Authenticate", `Bearer realm="tasklist"`)
				writeUnauthenticated(w, message)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithEmail(r.Context(), email)))
		})
	}
}

// unauthenticatedBody has the same JSON shape as every other API error
// (handler.ErrorResponse). It is declared here because handler imports auth.
type unauthenticatedBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeUnauthenticated(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	body := unauthenticatedBody{Error: "unauthenticated", Message: message}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode 401 response", slog.String("error", err.Error()))
	}
}

// Authorize resolves the identity behind a request: extract, then validate.
// Returns errNoToken, ErrTokenExpired or ErrTokenMalformed on failure.
func Authorize(r *http.Request, tokens *TokenService) (string, error) {
	token := extractToken(r)
	if token == "" {
		return "", errNoToken
	}
	return tokens.Validate(token)
}

// extractToken reads the credential from its carrier.
//
// TOKEN CARRIERS, IN ORDER:
//  1. Authorization: Bearer <jwt>   (API clients)
//  2. Cookie: token=<jwt>            (browser front end)
//
// A present-but-malformed Authorization header is NOT retried against the
// cookie. The caller asked to authenticate with the header; quietly using a
// different credential would be surprising.
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}

	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// ContextWithEmail returns a copy of ctx carrying the authenticated email.
// RequireAuth is the only production caller; handler tests use it to fake an
// authenticated request.
func ContextWithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, emailKey, email)
}

// EmailFromContext retrieves the authenticated user's email.
//
// Returns ("", false) if the request did not pass through RequireAuth.
//
//	email, ok := auth.EmailFromContext(r.Context())
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}
