package prices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// MaxRecent bounds Recent listings
const MaxRecent = 1000

// PriceService records market observations and serves price lookups
type PriceService struct {
	PriceRepo domain.PriceHistoryRepository
	Logger    zerolog.Logger
	Now       func() time.Time
}

// NewPriceService creates a new PriceService instance
func NewPriceService(priceRepo domain.PriceHistoryRepository, logger zerolog.Logger) *PriceService {
	return &PriceService{
		PriceRepo: priceRepo,
		Logger:    logger.With().Str("component", "prices").Logger(),
		Now:       time.Now,
	}
}

func (s *PriceService) prepare(price *domain.PriceHistory) error {
	price.Normalize()
	if err := price.Validate(); err != nil {
		return err
	}
	if price.CreatedAt.IsZero() {
		price.CreatedAt = s.Now()
	}
	return nil
}

// Record validates and upserts one observation keyed by (symbol, exchange, timestamp)
func (s *PriceService) Record(ctx context.Context, price *domain.PriceHistory) error {
	if err := s.prepare(price); err != nil {
		return err
	}
	return s.PriceRepo.Upsert(ctx, price)
}

// RecordBatch validates every observation before upserting them all in one database transaction
func (s *PriceService) RecordBatch(ctx context.Context, prices []*domain.PriceHistory) error {
	if len(prices) == 0 {
		return fmt.Errorf("%w: empty price batch", domain.ErrInvalidArgument)
	}
	for i, p := range prices {
		if err := s.prepare(p); err != nil {
			return fmt.Errorf("price %d: %w", i, err)
		}
	}
	if err := s.PriceRepo.UpsertBatch(ctx, prices); err != nil {
		return err
	}

	s.Logger.Info().Int("count", len(prices)).Msg("price batch recorded")
	return nil
}

// Latest returns the newest observation for symbol on exchange, or on any
// exchange when exchange is empty
func (s *PriceService) Latest(ctx context.Context, symbol, exchange string) (*domain.PriceHistory, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidArgument)
	}
	if exchange == "" {
		return s.PriceRepo.LatestBySymbol(ctx, symbol)
	}
	return s.PriceRepo.LatestBySymbolAndExchange(ctx, symbol, exchange)
}

// Range returns observations of symbol in [from, to], oldest first
func (s *PriceService) Range(ctx context.Context, symbol string, from, to time.Time) ([]*domain.PriceHistory, error) {
	symbol, err := checkRange(symbol, from, to)
	if err != nil {
		return nil, err
	}
	return s.PriceRepo.Range(ctx, symbol, from, to)
}

// Recent returns the newest limit observations of symbol
func (s *PriceService) Recent(ctx context.Context, symbol string, limit int) ([]*domain.PriceHistory, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidArgument)
	}
	if limit <= 0 || limit > MaxRecent {
		limit = 100
	}
	return s.PriceRepo.Recent(ctx, symbol, limit)
}

// Stats aggregates observations of symbol in [from, to]
func (s *PriceService) Stats(ctx context.Context, symbol string, from, to time.Time) (*domain.PriceStats, error) {
	symbol, err := checkRange(symbol, from, to)
	if err != nil {
		return nil, err
	}
	return s.PriceRepo.Stats(ctx, symbol, from, to)
}

// Purge deletes observations older than before and returns the number removed
func (s *PriceService) Purge(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, fmt.Errorf("%w: purge cutoff is required", domain.ErrInvalidArgument)
	}
	n, err := s.PriceRepo.DeleteBefore(ctx, before)
	if err != nil {
		return 0, err
	}

	s.Logger.Info().Int64("deleted", n).Time("before", before).Msg("price history purged")
	return n, nil
}

// PurgeOlderThan deletes observations older than days before now
func (s *PriceService) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("%w: retention must be at least one day", domain.ErrInvalidArgument)
	}
	return s.Purge(ctx, s.Now().AddDate(0, 0, -days))
}

func checkRange(symbol string, from, to time.Time) (string, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol is required", domain.ErrInvalidArgument)
	}
	if from.IsZero() || to.IsZero() {
		return "", fmt.Errorf("%w: from and to are required", domain.ErrInvalidArgument)
	}
	if from.After(to) {
		return "", fmt.Errorf("%w: from is after to", domain.ErrInvalidArgument)
	}
	return symbol, nil
}
