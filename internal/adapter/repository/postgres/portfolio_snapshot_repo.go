package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// portfolioSnapshotRepository implements domain.PortfolioSnapshotRepository
type portfolioSnapshotRepository struct {
	db *DB
}

// NewPortfolioSnapshotRepository creates a new portfolio snapshot repository
func NewPortfolioSnapshotRepository(db *DB) domain.PortfolioSnapshotRepository {
	return &portfolioSnapshotRepository{db: db}
}

const snapshotColumns = `id, user_id, snapshot_date, total_investment, total_current_value, total_profit_loss,
	profit_rate, asset_count, crypto_value, stock_value, notes, created_at, updated_at`

func scanSnapshot(row interface{ Scan(...interface{}) error }) (*domain.PortfolioSnapshot, error) {
	var s domain.PortfolioSnapshot

	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.SnapshotDate,
		&s.TotalInvestment,
		&s.TotalCurrentValue,
		&s.TotalProfitLoss,
		&s.ProfitRate,
		&s.AssetCount,
		&s.CryptoValue,
		&s.StockValue,
		&s.Notes,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.SnapshotDate = domain.CalendarDate(s.SnapshotDate, time.UTC)
	return &s, nil
}

func dateParam(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// Upsert inserts the snapshot or overwrites the computed fields of the existing
// (user, date) row in one statement. The stored row's ID and CreatedAt win.
func (r *portfolioSnapshotRepository) Upsert(ctx context.Context, s *domain.PortfolioSnapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	query := `
		INSERT INTO portfolio_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id, snapshot_date) DO UPDATE SET
			total_investment = EXCLUDED.total_investment,
			total_current_value = EXCLUDED.total_current_value,
			total_profit_loss = EXCLUDED.total_profit_loss,
			profit_rate = EXCLUDED.profit_rate,
			asset_count = EXCLUDED.asset_count,
			crypto_value = EXCLUDED.crypto_value,
			stock_value = EXCLUDED.stock_value,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		s.ID,
		s.UserID,
		dateParam(s.SnapshotDate),
		s.TotalInvestment.String(),
		s.TotalCurrentValue.String(),
		s.TotalProfitLoss.String(),
		s.ProfitRate.String(),
		s.AssetCount,
		s.CryptoValue.String(),
		s.StockValue.String(),
		s.Notes,
		s.CreatedAt,
		s.UpdatedAt,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return wrapError("upsert portfolio snapshot", err)
	}
	return nil
}

// GetByUserAndDate retrieves the snapshot of one day
func (r *portfolioSnapshotRepository) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.PortfolioSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM portfolio_snapshots WHERE user_id = $1 AND snapshot_date = $2::date`

	s, err := scanSnapshot(r.db.QueryRowContext(ctx, query, userID, dateParam(date)))
	if err != nil {
		return nil, wrapError(fmt.Sprintf("get snapshot of %s", dateParam(date)), err)
	}
	return s, nil
}

// Latest retrieves the most recent snapshot of a user
func (r *portfolioSnapshotRepository) Latest(ctx context.Context, userID uuid.UUID) (*domain.PortfolioSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM portfolio_snapshots WHERE user_id = $1
		ORDER BY snapshot_date DESC LIMIT 1`

	s, err := scanSnapshot(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		return nil, wrapError("get latest snapshot", err)
	}
	return s, nil
}

func (r *portfolioSnapshotRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*domain.PortfolioSnapshot, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(op, err)
	}
	defer rows.Close()

	snapshots := make([]*domain.PortfolioSnapshot, 0)
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, wrapError(op, err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(op, err)
	}
	return snapshots, nil
}

// List retrieves a user's snapshots, newest first
func (r *portfolioSnapshotRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.PortfolioSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM portfolio_snapshots WHERE user_id = $1
		ORDER BY snapshot_date DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, "list snapshots", query, userID, limit, offset)
}

// Range retrieves snapshots in [from, to], oldest first
func (r *portfolioSnapshotRepository) Range(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.PortfolioSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM portfolio_snapshots
		WHERE user_id = $1 AND snapshot_date BETWEEN $2::date AND $3::date
		ORDER BY snapshot_date`
	return r.list(ctx, "snapshot range", query, userID, dateParam(from), dateParam(to))
}

// Analytics computes aggregate statistics over snapshots in [from, to] in one query.
// Weights skip rows whose total value is zero; growth compares summed value to summed investment.
func (r *portfolioSnapshotRepository) Analytics(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.SnapshotAnalytics, error) {
	query := `
		SELECT
			COUNT(*),
			MAX(profit_rate),
			MIN(profit_rate),
			AVG(profit_rate),
			MAX(total_current_value),
			COUNT(*) FILTER (WHERE total_profit_loss > 0),
			COUNT(*) FILTER (WHERE total_profit_loss < 0),
			STDDEV_POP(profit_rate),
			AVG(crypto_value / NULLIF(total_current_value, 0) * 100),
			AVG(stock_value / NULLIF(total_current_value, 0) * 100),
			(SUM(total_current_value) - SUM(total_investment)) / NULLIF(SUM(total_investment), 0) * 100
		FROM portfolio_snapshots
		WHERE user_id = $1 AND snapshot_date BETWEEN $2::date AND $3::date
	`

	a := domain.SnapshotAnalytics{From: from, To: to}
	var maxRate, minRate, avgRate, maxValue, volatility, cryptoWeight, stockWeight, growth decimal.NullDecimal

	err := r.db.QueryRowContext(ctx, query, userID, dateParam(from), dateParam(to)).Scan(
		&a.SnapshotCount,
		&maxRate,
		&minRate,
		&avgRate,
		&maxValue,
		&a.ProfitDays,
		&a.LossDays,
		&volatility,
		&cryptoWeight,
		&stockWeight,
		&growth,
	)
	if err != nil {
		return nil, wrapError("snapshot analytics", err)
	}

	round := func(n decimal.NullDecimal) decimal.Decimal {
		return n.Decimal.Round(domain.Scale)
	}
	a.MaxProfitRate = round(maxRate)
	a.MinProfitRate = round(minRate)
	a.AvgProfitRate = round(avgRate)
	a.MaxPortfolioValue = round(maxValue)
	a.Volatility = round(volatility)
	a.AvgCryptoWeight = round(cryptoWeight)
	a.AvgStockWeight = round(stockWeight)
	a.TotalGrowthRate = round(growth)
	return &a, nil
}

// DeleteBefore removes snapshots dated before the given day
func (r *portfolioSnapshotRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM portfolio_snapshots WHERE snapshot_date < $1::date`, dateParam(before))
	if err != nil {
		return 0, wrapError("purge snapshots", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapError("purge snapshots", err)
	}
	return n, nil
}
