package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/strugal/inventory-platform/internal/middleware"
	"github.com/strugal/inventory-platform/internal/model"
	"github.com/strugal/inventory-platform/internal/store"
	"github.com/strugal/inventory-platform/pkg/logger"
	"github.com/strugal/inventory-platform/pkg/metrics"
)

// ErrInvalidCredentials is returned when the username or password is wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")

// UserRepository is the credential store.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*store.UserRecord, error)
	EnsureUser(ctx context.Context, username, passwordHash string) (bool, error)
}

// AuthService checks credentials and issues session tokens.
type AuthService struct {
	users     UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(users UserRepository, jwtSecret string, tokenTTL time.Duration, log *logger.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    log,
		now:       time.Now,
	}
}

// Login looks up the user and returns a signed token on success.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.LoginResponse, error) {
	rec, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	claims := middleware.NewClaims(rec.User, now, s.tokenTTL)
	token, err := middleware.SignToken(s.jwtSecret, claims)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info("user logged in", zap.String("username", rec.Username))

	return &model.LoginResponse{
		User:      rec.User,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SeedUser creates username with password when it does not exist yet.
func (s *AuthService) SeedUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := s.users.EnsureUser(ctx, username, string(hash))
	if err != nil {
		return err
	}
	if created {
		s.logger.Info("seeded user", zap.String("username", username))
	}
	return nil
}
