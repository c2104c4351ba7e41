package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// priceHistoryRepository implements domain.PriceHistoryRepository
type priceHistoryRepository struct {
	db *DB
}

// NewPriceHistoryRepository creates a new price history repository
func NewPriceHistoryRepository(db *DB) domain.PriceHistoryRepository {
	return &priceHistoryRepository{db: db}
}

const priceColumns = `id, symbol, exchange, price, volume, market_cap, high_price, low_price, open_price,
	close_price, change_rate, data_source, price_timestamp, created_at`

// upsertPriceQuery corrects an existing observation in place; the original row keeps its ID
const upsertPriceQuery = `
	INSERT INTO price_history (` + priceColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	ON CONFLICT (symbol, exchange, price_timestamp) DO UPDATE SET
		price = EXCLUDED.price,
		volume = EXCLUDED.volume,
		market_cap = EXCLUDED.market_cap,
		high_price = EXCLUDED.high_price,
		low_price = EXCLUDED.low_price,
		open_price = EXCLUDED.open_price,
		close_price = EXCLUDED.close_price,
		change_rate = EXCLUDED.change_rate,
		data_source = EXCLUDED.data_source
	RETURNING id
`

func scanPrice(row interface{ Scan(...interface{}) error }) (*domain.PriceHistory, error) {
	var p domain.PriceHistory

	err := row.Scan(
		&p.ID,
		&p.Symbol,
		&p.Exchange,
		&p.Price,
		&p.Volume,
		&p.MarketCap,
		&p.High,
		&p.Low,
		&p.Open,
		&p.Close,
		&p.ChangeRate,
		&p.DataSource,
		&p.PriceTimestamp,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func upsertPrice(ctx context.Context, q querier, p *domain.PriceHistory) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	err := q.QueryRowContext(ctx, upsertPriceQuery,
		p.ID,
		p.Symbol,
		p.Exchange,
		p.Price.String(),
		p.Volume,
		p.MarketCap,
		p.High,
		p.Low,
		p.Open,
		p.Close,
		p.ChangeRate,
		p.DataSource,
		p.PriceTimestamp,
		p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return wrapError(fmt.Sprintf("upsert price %s", p.Symbol), err)
	}
	return nil
}

// Upsert inserts or corrects an observation keyed by (symbol, exchange, timestamp)
func (r *priceHistoryRepository) Upsert(ctx context.Context, price *domain.PriceHistory) error {
	return upsertPrice(ctx, r.db, price)
}

// UpsertBatch upserts all observations in one database transaction
func (r *priceHistoryRepository) UpsertBatch(ctx context.Context, prices []*domain.PriceHistory) error {
	return r.db.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range prices {
			if err := upsertPrice(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
}

// LatestBySymbol returns the newest observation on any exchange
func (r *priceHistoryRepository) LatestBySymbol(ctx context.Context, symbol string) (*domain.PriceHistory, error) {
	query := `SELECT ` + priceColumns + ` FROM price_history
		WHERE symbol = $1
		ORDER BY price_timestamp DESC
		LIMIT 1`

	p, err := scanPrice(r.db.QueryRowContext(ctx, query, strings.ToUpper(symbol)))
	if err != nil {
		return nil, wrapError(fmt.Sprintf("latest price of %s", symbol), err)
	}
	return p, nil
}

// LatestBySymbolAndExchange returns the newest observation on one exchange
func (r *priceHistoryRepository) LatestBySymbolAndExchange(ctx context.Context, symbol, exchange string) (*domain.PriceHistory, error) {
	query := `SELECT ` + priceColumns + ` FROM price_history
		WHERE symbol = $1 AND exchange = $2
		ORDER BY price_timestamp DESC
		LIMIT 1`

	p, err := scanPrice(r.db.QueryRowContext(ctx, query, strings.ToUpper(symbol), strings.ToUpper(exchange)))
	if err != nil {
		return nil, wrapError(fmt.Sprintf("latest price of %s on %s", symbol, exchange), err)
	}
	return p, nil
}

func (r *priceHistoryRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*domain.PriceHistory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapError(op, err)
	}
	defer rows.Close()

	prices := make([]*domain.PriceHistory, 0)
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, wrapError(op, err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError(op, err)
	}
	return prices, nil
}

// Range returns observations in [from, to], oldest first
func (r *priceHistoryRepository) Range(ctx context.Context, symbol string, from, to time.Time) ([]*domain.PriceHistory, error) {
	query := `SELECT ` + priceColumns + ` FROM price_history
		WHERE symbol = $1 AND price_timestamp BETWEEN $2 AND $3
		ORDER BY price_timestamp`
	return r.list(ctx, "price range", query, strings.ToUpper(symbol), from, to)
}

// Recent returns the newest limit observations, newest first
func (r *priceHistoryRepository) Recent(ctx context.Context, symbol string, limit int) ([]*domain.PriceHistory, error) {
	query := `SELECT ` + priceColumns + ` FROM price_history
		WHERE symbol = $1
		ORDER BY price_timestamp DESC
		LIMIT $2`
	return r.list(ctx, "recent prices", query, strings.ToUpper(symbol), limit)
}

// Stats aggregates observations in [from, to]. An empty period yields zero samples.
func (r *priceHistoryRepository) Stats(ctx context.Context, symbol string, from, to time.Time) (*domain.PriceStats, error) {
	query := `
		SELECT COUNT(*), MAX(price), MIN(price), AVG(price), COALESCE(SUM(volume), 0)
		FROM price_history
		WHERE symbol = $1 AND price_timestamp BETWEEN $2 AND $3
	`

	stats := domain.PriceStats{Symbol: strings.ToUpper(symbol)}
	var hi, lo, mean decimal.NullDecimal
	err := r.db.QueryRowContext(ctx, query, stats.Symbol, from, to).Scan(
		&stats.Samples,
		&hi,
		&lo,
		&mean,
		&stats.TotalVolume,
	)
	if err != nil {
		return nil, wrapError(fmt.Sprintf("price stats of %s", symbol), err)
	}

	stats.Max = hi.Decimal
	stats.Min = lo.Decimal
	stats.Average = mean.Decimal.Round(domain.Scale)
	return &stats, nil
}

// DeleteBefore removes observations older than before
func (r *priceHistoryRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM price_history WHERE price_timestamp < $1`, before)
	if err != nil {
		return 0, wrapError("purge price history", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrapError("purge price history", err)
	}
	return n, nil
}
