// Package service: authentication business logic.
//
// AuthService sits between the HTTP handlers and the credential store:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ PasswordService (bcrypt), TokenService (JWT)
//
// It never sees an *http.Request and never returns a status code. Failures
// are apperror values the handler maps to HTTP.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"

	"github.com/sakif/tasklist/internal/apperror"
	"github.com/sakif/tasklist/internal/auth"
	"github.com/sakif/tasklist/internal/model"
	"github.com/sakif/tasklist/internal/repository"
)

// AuthService handles registration, login and profile lookup.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is returned by the login operations. It bundles the user record
// and the issued JWT so the handler can respond and set the cookie in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account.
//
// Email and name are trimmed; the password is taken byte-for-byte. Any field
// that is empty after that is InvalidInput, as is a password bcrypt can't
// take. The hash is computed before the insert so the duplicate check and
// the write are a single atomic statement in the store.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*model.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	switch {
	case email == "":
		return nil, apperror.ValidationFailed("email", "email is required")
	case strings.TrimSpace(password) == "":
		return nil, apperror.ValidationFailed("password", "password is required")
	case name == "":
		return nil, apperror.ValidationFailed("name", "name is required")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{Email: email, PasswordHash: hash, Name: name}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrDuplicateEmail) {
			return nil, err
		}
		s.logger.Error("failed to register user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered", slog.String("email", user.Email))
	return user, nil
}

// Login verifies credentials and issues a token.
//
// An unknown email and a wrong password produce the same InvalidCredentials
// error. For an unknown email we still run a bcrypt compare against a dummy
// hash so the response time doesn't give the difference away either.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return nil, apperror.ValidationFailed("", "email and password are required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.passwords.VerifyDummy(password)
			return nil, apperror.InvalidCredentials()
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		s.logger.Info("login failed", slog.String("email", email))
		return nil, apperror.InvalidCredentials()
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.Email, err)
	}

	s.logger.Info("user logged in", slog.String("email", user.Email))
	return &AuthResult{User: user, Token: token}, nil
}

// Profile returns the account for an authenticated email. NotFound means
// the token is valid but the account no longer exists.
func (s *AuthService) Profile(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperror.Unauthenticated("valid authentication required")
	}
	return s.users.GetByEmail(ctx, email)
}

// LoginWithGitHub signs in a user who authenticated with GitHub.
//
// Accounts are keyed by email: if one already exists for the GitHub primary
// verified email it is used as is. Otherwise an account is created with the
// GitHub display name and a bcrypt hash of a random value, so the account
// has no usable password.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil || ghUser.Email == "" {
		return nil, fmt.Errorf("service/auth: GitHub user must have an email")
	}

	user, err := s.users.GetByEmail(ctx, ghUser.Email)
	switch {
	case err == nil:
	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.createGitHubUser(ctx, ghUser)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	token, err := s.tokens.Issue(user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %s: %w", user.Email, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("email", user.Email),
		slog.String("login", ghUser.Login),
	)
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) createGitHubUser(ctx context.Context, ghUser *auth.GitHubUser) (*model.User, error) {
	hash, err := s.passwords.Hash(xid.New().String() + xid.New().String())
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing placeholder password: %w", err)
	}

	user := &model.User{Email: ghUser.Email, PasswordHash: hash, Name: ghUser.DisplayName()}
	err = s.users.Create(ctx, user)
	if errors.Is(err, apperror.ErrDuplicateEmail) {
		// Lost a race with a concurrent first sign-in for the same email.
		return s.users.GetByEmail(ctx, ghUser.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("service/auth: creating GitHub user: %w", err)
	}
	return user, nil
}
