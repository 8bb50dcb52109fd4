// FILE: logvault/src/internal/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"logvault/src/internal/config"
	"logvault/src/internal/core"
	"logvault/src/internal/store"

	"github.com/lixenwraith/log"
)

// Service handles registration and login against the credential store
type Service struct {
	users     store.UserRepository
	tokens    *TokenService
	passwords PasswordPolicy
	limiter   *LoginLimiter
	logger    *log.Logger

	registered   atomic.Uint64
	logins       atomic.Uint64
	failedLogins atomic.Uint64
}

// NewService wires the credential store, token service and password policy.
// limiter may be nil.
func NewService(users store.UserRepository, tokens *TokenService, passwords PasswordPolicy,
	limiter *LoginLimiter, logger *log.Logger) *Service {
	return &Service{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		limiter:   limiter,
		logger:    logger,
	}
}

// NewServiceFromConfig builds the token service, password policy and login limiter from cfg
func NewServiceFromConfig(cfg config.AuthConfig, users store.UserRepository, logger *log.Logger) (*Service, error) {
	tokens, err := NewTokenService(cfg.Secret,
		time.Duration(cfg.TokenTTLSeconds)*time.Second,
		WithLeeway(time.Duration(cfg.TokenLeewaySeconds)*time.Second))
	if err != nil {
		return nil, err
	}

	passwords, err := NewPasswordPolicy(cfg)
	if err != nil {
		return nil, err
	}

	return NewService(users, tokens, passwords, NewLoginLimiter(cfg.LoginLimit, logger), logger), nil
}

// Register creates a user and returns its id
func (s *Service) Register(ctx context.Context, username, password, role string) (string, error) {
	if strings.TrimSpace(username) == "" {
		return "", fmt.Errorf("%w: username is required", core.ErrInvalidUser)
	}

	stored, err := s.passwords.Hash(password)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}

	id, err := s.users.Create(ctx, core.User{
		Username: username,
		Password: stored,
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateUsername) {
			s.logger.Warn("msg", "Registration rejected, username taken",
				"component", "auth",
				"username", username)
		}
		return "", err
	}

	s.registered.Add(1)
	s.logger.Info("msg", "User registered",
		"component", "auth",
		"username", username,
		"role", role,
		"id", id)

	return id, nil
}

// Login checks credentials and returns a fresh token. remoteAddr feeds the login limiter.
func (s *Service) Login(ctx context.Context, username, password, remoteAddr string) (string, error) {
	if err := s.limiter.Allow(remoteAddr); err != nil {
		return "", err
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	if user == nil {
		s.passwords.Burn(password)
		return "", s.rejectLogin(username, remoteAddr)
	}

	if !s.passwords.Compare(user.Password, password) {
		return "", s.rejectLogin(username, remoteAddr)
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}

	s.limiter.RecordSuccess(remoteAddr)
	s.logins.Add(1)
	s.logger.Debug("msg", "Login succeeded",
		"component", "auth",
		"username", username,
		"remote_addr", remoteAddr)

	return token, nil
}

// Tokens exposes the token service for the bearer gate
func (s *Service) Tokens() *TokenService {
	return s.tokens
}

// Stop releases background resources
func (s *Service) Stop() {
	s.limiter.Stop()
}

func (s *Service) GetStats() map[string]any {
	return map[string]any{
		"password_storage": s.passwords.Name(),
		"registered":       s.registered.Load(),
		"logins":           s.logins.Load(),
		"failed_logins":    s.failedLogins.Load(),
		"tokens":           s.tokens.GetStats(),
		"login_limit":      s.limiter.GetStats(),
	}
}

func (s *Service) rejectLogin(username, remoteAddr string) error {
	s.limiter.RecordFailure(remoteAddr)
	s.failedLogins.Add(1)
	s.logger.Warn("msg", "Login failed",
		"component", "auth",
		"username", username,
		"remote_addr", remoteAddr)
	return core.ErrInvalidCredentials
}
