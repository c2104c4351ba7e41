package apikeys

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/assetmanager-backend/internal/auth"
	"github.com/simaogato/assetmanager-backend/internal/domain"
	"github.com/simaogato/assetmanager-backend/internal/domain/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

func newTestService() (*APIKeyService, *mocks.APIKeyRepository) {
	repo := new(mocks.APIKeyRepository)
	service := NewAPIKeyService(repo, auth.NewSecretBox("test-passphrase"), zerolog.Nop())
	service.Now = func() time.Time { return fixedNow }
	return service, repo
}

func TestRegister_SealsSecret(t *testing.T) {
	ctx := context.Background()
	service, repo := newTestService()
	userID := uuid.New()

	var stored *domain.APIKey
	repo.On("Create", ctx, mock.AnythingOfType("*domain.APIKey")).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*domain.APIKey)
	}).Return(nil)

	key, err := service.Register(ctx, RegisterInput{
		UserID:       userID,
		ExchangeType: "upbit",
		AccessKey:    "access",
		SecretKey:    "very-secret",
		Permissions:  "read,trade",
	})

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, domain.ExchangeTypeUpbit, key.ExchangeType)
	assert.Equal(t, "UPBIT", key.ExchangeName)
	assert.NotEqual(t, "very-secret", stored.SecretKeyEncrypted)
	assert.True(t, key.CanTrade())
	assert.True(t, key.IsActive)

	plain, err := service.Sealer.Open(stored.SecretKeyEncrypted)
	require.NoError(t, err)
	assert.Equal(t, "very-secret", plain)
}

func TestRegister_InvalidInput(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"Unknown exchange", RegisterInput{ExchangeType: "MTGOX", AccessKey: "a", SecretKey: "s", Permissions: "read"}},
		{"Unknown permission", RegisterInput{ExchangeType: "UPBIT", AccessKey: "a", SecretKey: "s", Permissions: "withdraw"}},
		{"No permission", RegisterInput{ExchangeType: "UPBIT", AccessKey: "a", SecretKey: "s", Permissions: ""}},
		{"Empty secret", RegisterInput{ExchangeType: "UPBIT", AccessKey: "a", SecretKey: " ", Permissions: "read"}},
		{"Empty access key", RegisterInput{ExchangeType: "UPBIT", AccessKey: "", SecretKey: "s", Permissions: "read"}},
		{"Expiry in the past", RegisterInput{ExchangeType: "UPBIT", AccessKey: "a", SecretKey: "s", Permissions: "read", ExpiresAt: &past}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo := newTestService()

			_, err := service.Register(context.Background(), tt.input)

			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func storedKey(t *testing.T, service *APIKeyService, userID uuid.UUID, expiresAt *time.Time) *domain.APIKey {
	sealed, err := service.Sealer.Seal("very-secret")
	require.NoError(t, err)
	perms, _ := domain.ParsePermissions("read")
	return &domain.APIKey{
		ID:                 uuid.New(),
		UserID:             userID,
		ExchangeType:       domain.ExchangeTypeBinance,
		ExchangeName:       "Binance",
		AccessKey:          "access",
		SecretKeyEncrypted: sealed,
		Permissions:        perms,
		IsActive:           true,
		ExpiresAt:          expiresAt,
	}
}

func TestReveal(t *testing.T) {
	ctx := context.Background()
	service, repo := newTestService()
	userID := uuid.New()
	key := storedKey(t, service, userID, nil)

	repo.On("GetByID", ctx, key.ID).Return(key, nil)
	repo.On("UpdateLastUsed", ctx, key.ID, fixedNow).Return(nil)

	cred, err := service.Reveal(ctx, userID, key.ID)

	require.NoError(t, err)
	assert.Equal(t, "very-secret", cred.SecretKey)
	repo.AssertExpectations(t)
}

func TestReveal_Refusals(t *testing.T) {
	ctx := context.Background()
	past := fixedNow.Add(-time.Minute)
	userID := uuid.New()

	t.Run("Expired key", func(t *testing.T) {
		service, repo := newTestService()
		key := storedKey(t, service, userID, &past)
		repo.On("GetByID", ctx, key.ID).Return(key, nil)

		_, err := service.Reveal(ctx, userID, key.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Inactive key", func(t *testing.T) {
		service, repo := newTestService()
		key := storedKey(t, service, userID, nil)
		key.Deactivate()
		repo.On("GetByID", ctx, key.ID).Return(key, nil)

		_, err := service.Reveal(ctx, userID, key.ID)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Other user's key", func(t *testing.T) {
		service, repo := newTestService()
		key := storedKey(t, service, uuid.New(), nil)
		repo.On("GetByID", ctx, key.ID).Return(key, nil)

		_, err := service.Reveal(ctx, userID, key.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		repo.AssertNotCalled(t, "UpdateLastUsed", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestActive_FiltersExpired(t *testing.T) {
	ctx := context.Background()
	service, repo := newTestService()
	userID := uuid.New()
	past := fixedNow.Add(-time.Minute)
	valid := storedKey(t, service, userID, nil)
	expired := storedKey(t, service, userID, &past)

	repo.On("ListByUser", ctx, userID, true).Return([]*domain.APIKey{valid, expired}, nil)

	keys, err := service.Active(ctx, userID)

	require.NoError(t, err)
	assert.Equal(t, []*domain.APIKey{valid}, keys)
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	service, repo := newTestService()
	userID := uuid.New()
	key := storedKey(t, service, userID, nil)

	repo.On("GetByID", ctx, key.ID).Return(key, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(k *domain.APIKey) bool { return !k.IsActive })).Return(nil)

	require.NoError(t, service.Deactivate(ctx, userID, key.ID))
	repo.AssertExpectations(t)
}

func TestDeactivateExpired(t *testing.T) {
	ctx := context.Background()
	service, repo := newTestService()
	repo.On("DeactivateExpired", ctx, fixedNow).Return(int64(3), nil)

	n, err := service.DeactivateExpired(ctx)

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
