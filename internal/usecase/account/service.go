package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/assetmanager-backend/internal/auth"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// Hasher hashes and verifies passwords
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// Issuer signs access tokens
type Issuer interface {
	Issue(user *domain.User) (string, time.Time, error)
}

// RegisterInput represents the input for creating a local account
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Session is a successful login
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// AccountService handles registration, login and profile changes
type AccountService struct {
	UserRepo domain.UserRepository
	Hasher   Hasher
	Tokens   Issuer
	Logger   zerolog.Logger
	Now      func() time.Time
}

// NewAccountService creates a new AccountService instance
func NewAccountService(userRepo domain.UserRepository, hasher Hasher, tokens Issuer, logger zerolog.Logger) *AccountService {
	return &AccountService{
		UserRepo: userRepo,
		Hasher:   hasher,
		Tokens:   tokens,
		Logger:   logger.With().Str("component", "account").Logger(),
		Now:      time.Now,
	}
}

// Register creates an active local USER account.
// A duplicate email surfaces the repository's conflict error.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	email := domain.NormalizeEmail(input.Email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(input.Password) < auth.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must have at least %d characters", domain.ErrInvalidArgument, auth.MinPasswordLength)
	}

	hash, err := s.Hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		AuthProvider: domain.AuthProviderLocal,
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	user.Touch(s.Now())
	if err := user.Validate(); err != nil {
		return nil, err
	}

	if err := s.UserRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.Logger.Info().Str("user_id", user.ID.String()).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a token. Unknown users, inactive
// users, social-login users and bad passwords are all ErrUnauthorized.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.UserRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsAccountActive() || user.IsSocialLogin() || !s.Hasher.Verify(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized)
	}

	now := s.Now()
	if err := s.UserRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.UpdateLastLogin(now)

	token, expiresAt, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate resolves the caller behind a verified token. Tokens outlive
// account changes, so deleted and deactivated accounts are rejected here.
func (s *AccountService) Authenticate(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.UserRepo.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("%w: unknown account", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsAccountActive() {
		return nil, fmt.Errorf("%w: account is deactivated", domain.ErrUnauthorized)
	}
	return user, nil
}

// Profile returns the user's account
func (s *AccountService) Profile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.UserRepo.GetByID(ctx, userID)
}

// Rename changes the display name
func (s *AccountService) Rename(ctx context.Context, userID uuid.UUID, name string) (*domain.User, error) {
	return s.update(ctx, userID, func(u *domain.User) error {
		u.Name = strings.TrimSpace(name)
		return nil
	})
}

// ChangeEmail changes the login address; a taken address is a conflict
func (s *AccountService) ChangeEmail(ctx context.Context, userID uuid.UUID, email string) (*domain.User, error) {
	return s.update(ctx, userID, func(u *domain.User) error {
		return u.ChangeEmail(email)
	})
}

// Deactivate disables the account; the user can no longer log in
func (s *AccountService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	_, err := s.update(ctx, userID, func(u *domain.User) error {
		u.IsActive = false
		return nil
	})
	return err
}

func (s *AccountService) update(ctx context.Context, userID uuid.UUID, apply func(*domain.User) error) (*domain.User, error) {
	user, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := apply(user); err != nil {
		return nil, err
	}
	user.Touch(s.Now())
	if err := s.UserRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
