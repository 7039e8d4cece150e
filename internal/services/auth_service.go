package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/baharkarakas/premiumshop-backend/internal/auth"
	"github.com/baharkarakas/premiumshop-backend/internal/models"
	repo "github.com/baharkarakas/premiumshop-backend/internal/repository"
)

const DemoUserName = "Demo Customer"

type AuthService struct {
	users        repo.Users
	sessions     *auth.SessionManager
	demoEmail    string
	passwordHash string
	log          *slog.Logger
}

// NewAuthService accepts the demo password either in plain text or as a bcrypt hash.
func NewAuthService(users repo.Users, sessions *auth.SessionManager, demoEmail, demoPassword string, log *slog.Logger) (*AuthService, error) {
	hash := demoPassword
	if !strings.HasPrefix(hash, "$2") {
		h, err := auth.HashPassword(demoPassword)
		if err != nil {
			return nil, fmt.Errorf("hash demo password: %w", err)
		}
		hash = h
	}
	return &AuthService{
		users:        users,
		sessions:     sessions,
		demoEmail:    models.NormalizeEmail(demoEmail),
		passwordHash: hash,
		log:          log,
	}, nil
}

type LoginResult struct {
	User      models.User
	Token     string
	ExpiresAt time.Time
}

func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = models.NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrMissingCredentials
	}
	pwErr := auth.VerifyPassword(password, s.passwordHash)
	if email != s.demoEmail || pwErr != nil {
		s.log.Info("login rejected", "email", email)
		return LoginResult{}, ErrInvalidLogin
	}

	u, err := s.users.SetName(ctx, email, DemoUserName)
	if err != nil {
		return LoginResult{}, fmt.Errorf("set user name: %w", err)
	}
	tok, exp, err := s.sessions.Issue(email)
	if err != nil {
		return LoginResult{}, err
	}
	s.log.Info("login", "email", email)
	return LoginResult{User: u, Token: tok, ExpiresAt: exp}, nil
}

// Authenticate resolves a session token to its email.
func (s *AuthService) Authenticate(token string) (string, error) {
	if token == "" {
		return "", ErrNotLoggedIn
	}
	email, err := s.sessions.Parse(token)
	if err != nil {
		return "", ErrNotLoggedIn.Wrap(err)
	}
	return models.NormalizeEmail(email), nil
}
