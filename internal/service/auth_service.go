package service

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/credit-market/internal/auth"
	"github.com/spec-kit/credit-market/internal/config"
	"github.com/spec-kit/credit-market/internal/domain"
	"github.com/spec-kit/credit-market/internal/repository"
	apperrors "github.com/spec-kit/credit-market/pkg/util/errorutil"
)

// AuthService coordinates the GitHub OAuth login flow and session issuance.
type AuthService struct {
	users    repository.UserRepository
	github   *auth.GitHubClient
	states   *auth.StateStore
	tokenMgr *auth.TokenManager
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	GitHub     *auth.GitHubClient
	StateStore *auth.StateStore
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:    deps.UserRepo,
		github:   deps.GitHub,
		states:   deps.StateStore,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
	}
}

// BeginGitHubLogin registers a state nonce and returns the GitHub redirect URL.
func (s *AuthService) BeginGitHubLogin(ctx context.Context) (string, error) {
	if !s.github.Configured() {
		return "", apperrors.NewDomainError("OAUTH_NOT_CONFIGURED", "GitHub OAuth not configured", http.StatusInternalServerError, nil)
	}
	state := uuid.NewString()
	if err := s.states.Put(ctx, state); err != nil {
		return "", err
	}
	return s.github.AuthorizeURL(state), nil
}

// CompleteGitHubLogin validates the callback, upserts the user from their
// GitHub profile, and issues a session token.
func (s *AuthService) CompleteGitHubLogin(ctx context.Context, code, state string) (*domain.User, string, time.Time, error) {
	if code == "" {
		return nil, "", time.Time{}, apperrors.NewBadRequest("missing code")
	}
	ok, err := s.states.Consume(ctx, state)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if !ok {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid oauth state")
	}

	accessToken, err := s.github.ExchangeCode(ctx, code)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("oauth exchange failed")
	}
	profile, err := s.github.FetchProfile(ctx, accessToken)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("github profile fetch failed")
	}

	user := &domain.User{
		GitHubID: profile.ID,
		Username: profile.Login,
	}
	if profile.AvatarURL != "" {
		avatar := profile.AvatarURL
		user.AvatarURL = &avatar
	}
	if err := s.users.UpsertByGitHubID(ctx, user); err != nil {
		return nil, "", time.Time{}, err
	}

	token, expiresAt, err := s.tokenMgr.GenerateToken(user.ID, user.Username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, expiresAt, nil
}

// TokenManager exposes the session token manager for the auth middleware.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
