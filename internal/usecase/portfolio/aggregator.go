package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// MaxHistoryPage bounds History listings
const MaxHistoryPage = 366

// BatchResult reports a TakeAllSnapshots run
type BatchResult struct {
	Users     int
	Succeeded int
	Failed    int
}

// Aggregator rolls a user's holdings up into one PortfolioSnapshot per day
// and serves analytics over the persisted snapshots
type Aggregator struct {
	UserRepo     domain.UserRepository
	AssetRepo    domain.AssetRepository
	PriceRepo    domain.PriceHistoryRepository
	SnapshotRepo domain.PortfolioSnapshotRepository
	Location     *time.Location
	Logger       zerolog.Logger
	Now          func() time.Time
}

// NewAggregator creates a new Aggregator. Snapshot dates are calendar days in loc (UTC when nil).
func NewAggregator(
	userRepo domain.UserRepository,
	assetRepo domain.AssetRepository,
	priceRepo domain.PriceHistoryRepository,
	snapshotRepo domain.PortfolioSnapshotRepository,
	loc *time.Location,
	logger zerolog.Logger,
) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		UserRepo:     userRepo,
		AssetRepo:    assetRepo,
		PriceRepo:    priceRepo,
		SnapshotRepo: snapshotRepo,
		Location:     loc,
		Logger:       logger.With().Str("component", "portfolio").Logger(),
		Now:          time.Now,
	}
}

// Today returns the current snapshot date
func (a *Aggregator) Today() time.Time {
	return domain.CalendarDate(a.Now(), a.Location)
}

// TakeSnapshot values the user's holdings and upserts today's snapshot
// Logic:
//  1. Fetch active assets
//  2. Price each holding at the latest observation for (symbol, exchange),
//     falling back to its average price when none exists
//  3. Sum investment and current value, splitting value by asset type
//  4. Derive profit/loss and profit rate
//  5. Upsert keyed by (user, today)
func (a *Aggregator) TakeSnapshot(ctx context.Context, userID uuid.UUID) (*domain.PortfolioSnapshot, error) {
	assets, err := a.AssetRepo.List(ctx, userID, domain.AssetFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}

	snapshot := &domain.PortfolioSnapshot{
		ID:                uuid.New(),
		UserID:            userID,
		SnapshotDate:      a.Today(),
		TotalInvestment:   decimal.Zero,
		TotalCurrentValue: decimal.Zero,
		CryptoValue:       decimal.Zero,
		StockValue:        decimal.Zero,
	}
	currencies := map[string]struct{}{}

	for _, asset := range assets {
		if !asset.IsHolding() {
			continue
		}

		price, err := a.currentPrice(ctx, asset)
		if err != nil {
			return nil, err
		}

		value := asset.CurrentValue(price)
		snapshot.TotalInvestment = snapshot.TotalInvestment.Add(asset.TotalInvestment())
		snapshot.TotalCurrentValue = snapshot.TotalCurrentValue.Add(value)
		switch asset.AssetType {
		case domain.AssetTypeCrypto:
			snapshot.CryptoValue = snapshot.CryptoValue.Add(value)
		case domain.AssetTypeStock:
			snapshot.StockValue = snapshot.StockValue.Add(value)
		}
		snapshot.AssetCount++
		currencies[asset.Currency] = struct{}{}
	}

	snapshot.Recalculate()
	snapshot.Notes = currencyNote(currencies)
	snapshot.Touch(a.Now())

	if err := a.SnapshotRepo.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}

	a.Logger.Info().
		Str("user_id", userID.String()).
		Str("date", snapshot.SnapshotDate.Format(domain.DateLayout)).
		Int("assets", snapshot.AssetCount).
		Str("value", snapshot.TotalCurrentValue.String()).
		Msg("snapshot upserted")
	return snapshot, nil
}

// currentPrice resolves the market price of an asset. A missing observation
// is not an error; the asset is valued at its average price.
func (a *Aggregator) currentPrice(ctx context.Context, asset *domain.Asset) (decimal.Decimal, error) {
	var (
		latest *domain.PriceHistory
		err    error
	)
	if asset.Exchange == "" {
		latest, err = a.PriceRepo.LatestBySymbol(ctx, asset.Symbol)
	} else {
		latest, err = a.PriceRepo.LatestBySymbolAndExchange(ctx, asset.Symbol, asset.Exchange)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return asset.AveragePrice, nil
	case err != nil:
		return decimal.Zero, fmt.Errorf("failed to resolve price of %s: %w", asset.Symbol, err)
	}
	return latest.Price, nil
}

func currencyNote(currencies map[string]struct{}) string {
	if len(currencies) < 2 {
		return ""
	}
	codes := make([]string, 0, len(currencies))
	for c := range currencies {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return "mixed currencies: " + strings.Join(codes, ",")
}

// TakeAllSnapshots snapshots every active user. A failing user is logged
// and counted; the batch continues.
func (a *Aggregator) TakeAllSnapshots(ctx context.Context) (*BatchResult, error) {
	users, err := a.UserRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := &BatchResult{Users: len(users)}
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := a.TakeSnapshot(ctx, user.ID); err != nil {
			result.Failed++
			a.Logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("snapshot failed")
			continue
		}
		result.Succeeded++
	}

	a.Logger.Info().
		Int("users", result.Users).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("daily snapshots finished")
	return result, nil
}

// Analytics aggregates the user's snapshots dated in [from, to]
func (a *Aggregator) Analytics(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.SnapshotAnalytics, error) {
	from, to, err := a.period(from, to)
	if err != nil {
		return nil, err
	}
	return a.SnapshotRepo.Analytics(ctx, userID, from, to)
}

// History returns a page of the user's snapshots, newest first
func (a *Aggregator) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.PortfolioSnapshot, error) {
	if limit <= 0 || limit > MaxHistoryPage {
		limit = 30
	}
	if offset < 0 {
		offset = 0
	}
	return a.SnapshotRepo.List(ctx, userID, limit, offset)
}

// Latest returns the user's most recent snapshot
func (a *Aggregator) Latest(ctx context.Context, userID uuid.UUID) (*domain.PortfolioSnapshot, error) {
	return a.SnapshotRepo.Latest(ctx, userID)
}

// Range returns the user's snapshots dated in [from, to], oldest first
func (a *Aggregator) Range(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.PortfolioSnapshot, error) {
	from, to, err := a.period(from, to)
	if err != nil {
		return nil, err
	}
	return a.SnapshotRepo.Range(ctx, userID, from, to)
}

// PurgeBefore deletes snapshots dated before the given day
func (a *Aggregator) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, fmt.Errorf("%w: purge cutoff is required", domain.ErrInvalidArgument)
	}
	return a.SnapshotRepo.DeleteBefore(ctx, domain.CalendarDate(before, time.UTC))
}

// period normalises [from, to] to calendar dates. A zero to means today;
// a zero from means thirty days before to.
func (a *Aggregator) period(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = a.Today()
	} else {
		to = domain.CalendarDate(to, time.UTC)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	} else {
		from = domain.CalendarDate(from, time.UTC)
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: from is after to", domain.ErrInvalidArgument)
	}
	return from, to, nil
}
