// Package services contains the typed request builders the SeqAssist CLI
// uses: authentication, code generation, and conversation history. Each
// service is a thin layer over the access layer's public contract.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/seqassist/seqassist/internal/client/api"
	"github.com/seqassist/seqassist/internal/client/models"
	"github.com/seqassist/seqassist/internal/client/session"
)

const (
	registerPath = "/api/auth/register"
	loginPath    = "/api/auth/login"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Register: create an account and start a session.
//   - Login: authenticate and start a session.
//   - Logout: end the session locally; the backend holds no session state.
//   - IsAuthenticated: whether a session is currently stored.
//   - CurrentUser: the cached profile from the last auth response.
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.UserProfile, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.UserProfile, error)
	Logout(ctx context.Context) error
	IsAuthenticated(ctx context.Context) bool
	CurrentUser(ctx context.Context) (*models.UserProfile, error)
}

type authService struct {
	api   api.Client
	store *session.Store
	now   func() time.Time
}

// NewAuthService constructs an AuthService bound to the given API client and
// credential store.
func NewAuthService(client api.Client, store *session.Store) AuthService {
	return &authService{api: client, store: store, now: time.Now}
}

// Register creates a new account. The backend logs the user straight in, so
// the returned tokens and profile are persisted like a login.
func (a *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.UserProfile, error) {
	var resp models.AuthResponse
	if err := a.api.Post(ctx, registerPath, req, &resp, api.NoAuth()); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return a.saveSession(ctx, &resp)
}

// Login authenticates with email and password and persists the returned
// session: tokens, absolute expiry, and the user profile assembled from the
// response fields.
func (a *authService) Login(ctx context.Context, req models.LoginRequest) (*models.UserProfile, error) {
	var resp models.AuthResponse
	if err := a.api.Post(ctx, loginPath, req, &resp, api.NoAuth()); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return a.saveSession(ctx, &resp)
}

func (a *authService) saveSession(ctx context.Context, resp *models.AuthResponse) (*models.UserProfile, error) {
	user := resp.Profile()
	pair := session.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    api.TokenExpiry(resp.AccessToken, resp.ExpiresIn, a.now()),
	}
	if err := a.store.SaveSession(ctx, pair, user); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}
	return user, nil
}

// Logout wipes the locally stored credential record. No backend call is
// made; tokens simply age out server-side.
func (a *authService) Logout(ctx context.Context) error {
	return a.store.Clear(ctx)
}

// IsAuthenticated reports whether an access token is currently stored.
func (a *authService) IsAuthenticated(ctx context.Context) bool {
	token, err := a.store.AccessToken(ctx)
	return err == nil && token != ""
}

// CurrentUser returns the cached user profile, or nil when signed out.
func (a *authService) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	return a.store.User(ctx)
}
