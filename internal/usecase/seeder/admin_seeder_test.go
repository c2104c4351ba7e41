package seeder

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/simaogato/assetmanager-backend/internal/domain"
	"github.com/simaogato/assetmanager-backend/internal/domain/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func TestAdminSeeder_Seed_AdminMissing(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(mocks.UserRepository)
	seeder := NewAdminSeeder(mockRepo, plainHasher{}, "Admin@Example.com", "s3cret-pass", zerolog.Nop())

	mockRepo.On("GetByEmail", ctx, "admin@example.com").Return(nil, domain.ErrNotFound)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "admin@example.com" &&
			u.Role == domain.RoleAdmin &&
			u.PasswordHash == "hashed:s3cret-pass" &&
			u.IsActive
	})).Return(nil)

	err := seeder.Seed(ctx)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAdminSeeder_Seed_AdminExists(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(mocks.UserRepository)
	seeder := NewAdminSeeder(mockRepo, plainHasher{}, "admin@example.com", "s3cret-pass", zerolog.Nop())

	mockRepo.On("GetByEmail", ctx, "admin@example.com").Return(&domain.User{Email: "admin@example.com"}, nil)

	err := seeder.Seed(ctx)

	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminSeeder_Seed_NotConfigured(t *testing.T) {
	mockRepo := new(mocks.UserRepository)
	seeder := NewAdminSeeder(mockRepo, plainHasher{}, "", "", zerolog.Nop())

	assert.NoError(t, seeder.Seed(context.Background()))
	mockRepo.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestAdminSeeder_Seed_LookupError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(mocks.UserRepository)
	seeder := NewAdminSeeder(mockRepo, plainHasher{}, "admin@example.com", "s3cret-pass", zerolog.Nop())
	dbErr := errors.New("database error")

	mockRepo.On("GetByEmail", ctx, "admin@example.com").Return(nil, dbErr)

	err := seeder.Seed(ctx)

	assert.ErrorIs(t, err, dbErr)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdminSeeder_Seed_CreateError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(mocks.UserRepository)
	seeder := NewAdminSeeder(mockRepo, plainHasher{}, "admin@example.com", "s3cret-pass", zerolog.Nop())
	dbErr := errors.New("database error")

	mockRepo.On("GetByEmail", ctx, "admin@example.com").Return(nil, domain.ErrNotFound)
	mockRepo.On("Create", ctx, mock.Anything).Return(dbErr)

	err := seeder.Seed(ctx)

	assert.ErrorIs(t, err, dbErr)
}
