package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// apiKeyRepository implements domain.APIKeyRepository
type apiKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new API key repository
func NewAPIKeyRepository(db *DB) domain.APIKeyRepository {
	return &apiKeyRepository{db: db}
}

const apiKeyColumns = `id, user_id, exchange_type, exchange_name, access_key, secret_key_encrypted, permissions,
	is_active, last_used_at, expires_at, created_at, updated_at`

func scanAPIKey(row interface{ Scan(...interface{}) error }) (*domain.APIKey, error) {
	var k domain.APIKey
	var perms string
	var lastUsed, expires sql.NullTime

	err := row.Scan(
		&k.ID,
		&k.UserID,
		&k.ExchangeType,
		&k.ExchangeName,
		&k.AccessKey,
		&k.SecretKeyEncrypted,
		&perms,
		&k.IsActive,
		&lastUsed,
		&expires,
		&k.CreatedAt,
		&k.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	k.Permissions, err = domain.ParsePermissions(perms)
	if err != nil {
		return nil, fmt.Errorf("failed to parse permissions of key %s: %w", k.ID, err)
	}
	k.LastUsedAt = timePtr(lastUsed)
	k.ExpiresAt = timePtr(expires)
	return &k, nil
}

// Create inserts a new key
func (r *apiKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	query := `
		INSERT INTO api_keys (` + apiKeyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		key.ID,
		key.UserID,
		string(key.ExchangeType),
		key.ExchangeName,
		key.AccessKey,
		key.SecretKeyEncrypted,
		key.Permissions.String(),
		key.IsActive,
		key.LastUsedAt,
		key.ExpiresAt,
		key.CreatedAt,
		key.UpdatedAt,
	)
	if err != nil {
		return wrapError("create api key", err)
	}
	return nil
}

// GetByID retrieves a key by its ID
func (r *apiKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = $1`

	k, err := scanAPIKey(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get api key %s", id), err)
	}
	return k, nil
}

// ListByUser retrieves a user's keys, newest first
func (r *apiKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*domain.APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapError("list api keys", err)
	}
	defer rows.Close()

	keys := make([]*domain.APIKey, 0)
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, wrapError("scan api key", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate api keys", err)
	}
	return keys, nil
}

// Update persists exchange name, permissions, activation and expiry
func (r *apiKeyRepository) Update(ctx context.Context, key *domain.APIKey) error {
	query := `
		UPDATE api_keys
		SET exchange_name = $2, permissions = $3, is_active = $4, expires_at = $5, updated_at = $6
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query,
		key.ID,
		key.ExchangeName,
		key.Permissions.String(),
		key.IsActive,
		key.ExpiresAt,
		key.UpdatedAt,
	)
	if err != nil {
		return wrapError("update api key", err)
	}
	return expectRow(res, fmt.Sprintf("update api key %s", key.ID))
}

// UpdateLastUsed stamps a use of the key
func (r *apiKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return wrapError("touch api key", err)
	}
	return expectRow(res, fmt.Sprintf("touch api key %s", id))
}

// DeactivateExpired disables active keys whose expiry lies before now
func (r *apiKeyRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE api_keys SET is_active = FALSE, updated_at = $1
		WHERE is_active AND expires_at IS NOT NULL AND expires_at < $1
	`, now)
	if err != nil {
		return 0, wrapError("deactivate expired api keys", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapError("deactivate expired api keys", err)
	}
	return n, nil
}
