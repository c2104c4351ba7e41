package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// assetRepository implements domain.AssetRepository.
// With lock set (inside a unit of work) reads take a row lock until commit.
type assetRepository struct {
	q    querier
	lock bool
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *DB) domain.AssetRepository {
	return &assetRepository{q: db}
}

const assetColumns = `id, user_id, symbol, name, asset_type, exchange, country_code, quantity, average_price,
	currency, is_active, notes, created_at, updated_at`

func scanAsset(row interface{ Scan(...interface{}) error }) (*domain.Asset, error) {
	var asset domain.Asset

	err := row.Scan(
		&asset.ID,
		&asset.UserID,
		&asset.Symbol,
		&asset.Name,
		&asset.AssetType,
		&asset.Exchange,
		&asset.CountryCode,
		&asset.Quantity,
		&asset.AveragePrice,
		&asset.Currency,
		&asset.IsActive,
		&asset.Notes,
		&asset.CreatedAt,
		&asset.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *assetRepository) forUpdate() string {
	if r.lock {
		return " FOR UPDATE"
	}
	return ""
}

// CreateIfAbsent inserts a new asset. A concurrent insert of the same
// (user, symbol) blocks here until it commits, then this one does nothing.
func (r *assetRepository) CreateIfAbsent(ctx context.Context, asset *domain.Asset) (bool, error) {
	query := `
		INSERT INTO assets (` + assetColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, symbol) DO NOTHING
	`

	res, err := r.q.ExecContext(ctx, query,
		asset.ID,
		asset.UserID,
		asset.Symbol,
		asset.Name,
		string(asset.AssetType),
		asset.Exchange,
		asset.CountryCode,
		asset.Quantity.String(),
		asset.AveragePrice.String(),
		asset.Currency,
		asset.IsActive,
		asset.Notes,
		asset.CreatedAt,
		asset.UpdatedAt,
	)
	if err != nil {
		return false, wrapError("create asset", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapError("create asset", err)
	}
	return n == 1, nil
}

// Update persists quantity, average price, activation state and notes
func (r *assetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	query := `
		UPDATE assets
		SET quantity = $2, average_price = $3, is_active = $4, notes = $5, updated_at = $6
		WHERE id = $1
	`

	res, err := r.q.ExecContext(ctx, query,
		asset.ID,
		asset.Quantity.String(),
		asset.AveragePrice.String(),
		asset.IsActive,
		asset.Notes,
		asset.UpdatedAt,
	)
	if err != nil {
		return wrapError("update asset", err)
	}
	return expectRow(res, fmt.Sprintf("update asset %s", asset.ID))
}

// GetByID retrieves an asset by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1` + r.forUpdate()

	asset, err := scanAsset(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get asset %s", id), err)
	}
	return asset, nil
}

// GetByUserAndSymbol retrieves a user's asset for a symbol, active or not
func (r *assetRepository) GetByUserAndSymbol(ctx context.Context, userID uuid.UUID, symbol string) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE user_id = $1 AND symbol = $2` + r.forUpdate()

	asset, err := scanAsset(r.q.QueryRowContext(ctx, query, userID, strings.ToUpper(symbol)))
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get asset %s", symbol), err)
	}
	return asset, nil
}

// List retrieves a user's assets matching filter, ordered by symbol
func (r *assetRepository) List(ctx context.Context, userID uuid.UUID, filter domain.AssetFilter) ([]*domain.Asset, error) {
	conds := []string{"user_id = $1"}
	args := []interface{}{userID}

	if !filter.IncludeInactive {
		conds = append(conds, "is_active")
	}
	if filter.HoldingOnly {
		conds = append(conds, "quantity > 0")
	}
	if filter.AssetType != "" {
		args = append(args, string(filter.AssetType))
		conds = append(conds, fmt.Sprintf("asset_type = $%d", len(args)))
	}
	if filter.Exchange != "" {
		args = append(args, strings.ToUpper(filter.Exchange))
		conds = append(conds, fmt.Sprintf("exchange = $%d", len(args)))
	}

	query := `SELECT ` + assetColumns + ` FROM assets WHERE ` + strings.Join(conds, " AND ") + ` ORDER BY symbol`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError("list assets", err)
	}
	defer rows.Close()

	assets := make([]*domain.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, wrapError("scan asset", err)
		}
		assets = append(assets, asset)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("iterate assets", err)
	}
	return assets, nil
}

// SoftDelete marks an asset inactive
func (r *assetRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE assets SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return wrapError("soft delete asset", err)
	}
	return expectRow(res, fmt.Sprintf("soft delete asset %s", id))
}
