package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// PasswordHasher hashes the bootstrap password
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// AdminSeeder ensures the bootstrap administrator account exists
type AdminSeeder struct {
	repo     domain.UserRepository
	hasher   PasswordHasher
	email    string
	password string
	logger   zerolog.Logger
}

// NewAdminSeeder creates a new AdminSeeder instance.
// Seeding is skipped when email or password is empty.
func NewAdminSeeder(repo domain.UserRepository, hasher PasswordHasher, email, password string, logger zerolog.Logger) *AdminSeeder {
	return &AdminSeeder{
		repo:     repo,
		hasher:   hasher,
		email:    domain.NormalizeEmail(email),
		password: password,
		logger:   logger.With().Str("component", "seeder").Logger(),
	}
}

// Seed creates the ADMIN user if no user with the configured email exists.
// An existing user is left untouched, whatever its role.
func (s *AdminSeeder) Seed(ctx context.Context) error {
	if s.email == "" || s.password == "" {
		return nil
	}

	_, err := s.repo.GetByEmail(ctx, s.email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := s.hasher.Hash(s.password)
	if err != nil {
		return err
	}

	admin := &domain.User{
		ID:           uuid.New(),
		Email:        s.email,
		PasswordHash: hash,
		Name:         "Administrator",
		AuthProvider: domain.AuthProviderLocal,
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	admin.Touch(time.Now())

	// Validate before creating
	if err := admin.Validate(); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.Info().Str("email", s.email).Msg("admin user seeded")
	return nil
}
