package apikeys

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// Sealer encrypts exchange secrets at rest
type Sealer interface {
	Seal(plain string) (string, error)
	Open(sealed string) (string, error)
}

// RegisterInput represents the input for storing an exchange credential
type RegisterInput struct {
	UserID       uuid.UUID
	ExchangeType string
	ExchangeName string
	AccessKey    string
	SecretKey    string
	Permissions  string // comma-separated, e.g. "read,trade"
	ExpiresAt    *time.Time
}

// Credential is an opened key ready for an exchange client
type Credential struct {
	Key       *domain.APIKey
	SecretKey string
}

// APIKeyService stores exchange credentials with sealed secrets
type APIKeyService struct {
	KeyRepo domain.APIKeyRepository
	Sealer  Sealer
	Logger  zerolog.Logger
	Now     func() time.Time
}

// NewAPIKeyService creates a new APIKeyService instance
func NewAPIKeyService(keyRepo domain.APIKeyRepository, sealer Sealer, logger zerolog.Logger) *APIKeyService {
	return &APIKeyService{
		KeyRepo: keyRepo,
		Sealer:  sealer,
		Logger:  logger.With().Str("component", "apikeys").Logger(),
		Now:     time.Now,
	}
}

// Register validates and stores a credential. The secret is sealed before it reaches the repository.
func (s *APIKeyService) Register(ctx context.Context, input RegisterInput) (*domain.APIKey, error) {
	exchangeType, err := domain.ParseExchangeType(input.ExchangeType)
	if err != nil {
		return nil, err
	}
	perms, err := domain.ParsePermissions(input.Permissions)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.SecretKey) == "" {
		return nil, fmt.Errorf("%w: secret key cannot be empty", domain.ErrInvalidArgument)
	}
	now := s.Now()
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		return nil, fmt.Errorf("%w: expiry must be in the future", domain.ErrInvalidArgument)
	}

	sealed, err := s.Sealer.Seal(input.SecretKey)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.ExchangeName)
	if name == "" {
		name = string(exchangeType)
	}
	key := &domain.APIKey{
		ID:                 uuid.New(),
		UserID:             input.UserID,
		ExchangeType:       exchangeType,
		ExchangeName:       name,
		AccessKey:          strings.TrimSpace(input.AccessKey),
		SecretKeyEncrypted: sealed,
		Permissions:        perms,
		IsActive:           true,
		ExpiresAt:          input.ExpiresAt,
	}
	key.Touch(now)
	if err := key.Validate(); err != nil {
		return nil, err
	}

	if err := s.KeyRepo.Create(ctx, key); err != nil {
		return nil, err
	}

	s.Logger.Info().
		Str("user_id", input.UserID.String()).
		Str("exchange", string(exchangeType)).
		Msg("api key registered")
	return key, nil
}

// List returns all of the user's keys
func (s *APIKeyService) List(ctx context.Context, userID uuid.UUID) ([]*domain.APIKey, error) {
	return s.KeyRepo.ListByUser(ctx, userID, false)
}

// Active returns the user's active, unexpired keys
func (s *APIKeyService) Active(ctx context.Context, userID uuid.UUID) ([]*domain.APIKey, error) {
	keys, err := s.KeyRepo.ListByUser(ctx, userID, true)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	usable := make([]*domain.APIKey, 0, len(keys))
	for _, k := range keys {
		if k.IsActiveAndValid(now) {
			usable = append(usable, k)
		}
	}
	return usable, nil
}

// Deactivate disables one of the user's keys
func (s *APIKeyService) Deactivate(ctx context.Context, userID, keyID uuid.UUID) error {
	key, err := s.owned(ctx, userID, keyID)
	if err != nil {
		return err
	}
	key.Deactivate()
	key.Touch(s.Now())
	return s.KeyRepo.Update(ctx, key)
}

// Touch stamps a use of the key
func (s *APIKeyService) Touch(ctx context.Context, keyID uuid.UUID) error {
	return s.KeyRepo.UpdateLastUsed(ctx, keyID, s.Now())
}

// Reveal opens the sealed secret of one of the user's usable keys and stamps its use
func (s *APIKeyService) Reveal(ctx context.Context, userID, keyID uuid.UUID) (*Credential, error) {
	key, err := s.owned(ctx, userID, keyID)
	if err != nil {
		return nil, err
	}
	if !key.IsActiveAndValid(s.Now()) {
		return nil, fmt.Errorf("%w: api key is inactive or expired", domain.ErrForbidden)
	}

	secret, err := s.Sealer.Open(key.SecretKeyEncrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to open api key %s: %w", keyID, err)
	}
	if err := s.Touch(ctx, keyID); err != nil {
		return nil, err
	}
	return &Credential{Key: key, SecretKey: secret}, nil
}

// DeactivateExpired disables every active key past its expiry and returns the count
func (s *APIKeyService) DeactivateExpired(ctx context.Context) (int64, error) {
	n, err := s.KeyRepo.DeactivateExpired(ctx, s.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Logger.Info().Int64("count", n).Msg("expired api keys deactivated")
	}
	return n, nil
}

func (s *APIKeyService) owned(ctx context.Context, userID, keyID uuid.UUID) (*domain.APIKey, error) {
	key, err := s.KeyRepo.GetByID(ctx, keyID)
	if err != nil {
		return nil, err
	}
	if key.UserID != userID {
		return nil, fmt.Errorf("%w: api key %s", domain.ErrNotFound, keyID)
	}
	return key, nil
}
