package trading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// BuyInput represents the input for recording a purchase
type BuyInput struct {
	UserID      uuid.UUID
	Symbol      string
	Name        string
	AssetType   domain.AssetType
	Exchange    string
	CountryCode string
	Currency    string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Fee         decimal.Decimal
	Tax         decimal.Decimal
	Date        time.Time
	Notes       string
	ExternalID  string
}

// SellInput represents the input for recording a sale
type SellInput struct {
	UserID     uuid.UUID
	Symbol     string
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Fee        decimal.Decimal
	Tax        decimal.Decimal
	Date       time.Time
	Notes      string
	ExternalID string
}

// TradeResult is the committed state after a trade
type TradeResult struct {
	Asset              *domain.Asset
	Transaction        *domain.Transaction
	RealizedProfitLoss decimal.Decimal
}

// TradingService records trades against the asset ledger and serves reads
// over assets and the transaction log
type TradingService struct {
	UnitOfWork      domain.UnitOfWork
	AssetRepo       domain.AssetRepository
	TransactionRepo domain.TransactionRepository
	Logger          zerolog.Logger
	Now             func() time.Time
}

// NewTradingService creates a new TradingService instance
func NewTradingService(
	uow domain.UnitOfWork,
	assetRepo domain.AssetRepository,
	transactionRepo domain.TransactionRepository,
	logger zerolog.Logger,
) *TradingService {
	return &TradingService{
		UnitOfWork:      uow,
		AssetRepo:       assetRepo,
		TransactionRepo: transactionRepo,
		Logger:          logger.With().Str("component", "trading").Logger(),
		Now:             time.Now,
	}
}

// Buy records a purchase
// Logic (one unit of work):
//  1. Lock the user's asset row for the symbol, inserting an empty one when absent
//  2. Reactivate a soft-deleted asset
//  3. Fold the purchase into the weighted average
//  4. Append the BUY transaction and persist the asset
func (s *TradingService) Buy(ctx context.Context, input BuyInput) (*TradeResult, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidArgument)
	}
	if !input.Quantity.IsPositive() || !input.Price.IsPositive() {
		return nil, fmt.Errorf("%w: purchase quantity and price must be positive", domain.ErrInvalidArgument)
	}
	if err := checkScales(input.Quantity, input.Price, input.Fee, input.Tax); err != nil {
		return nil, err
	}

	var result *TradeResult
	err := s.UnitOfWork.Do(ctx, func(ctx context.Context, store domain.TradeStore) error {
		now := s.Now()

		asset, err := s.lockOrCreateAsset(ctx, store, input, symbol, now)
		if err != nil {
			return err
		}
		if !asset.IsActive {
			asset.Reactivate()
		}

		if err := asset.AddPurchase(input.Quantity, input.Price); err != nil {
			return err
		}

		tx, err := domain.NewTrade(domain.TradeParams{
			UserID:     input.UserID,
			AssetID:    asset.ID,
			Type:       domain.TransactionTypeBuy,
			Quantity:   input.Quantity,
			Price:      input.Price,
			Fee:        input.Fee,
			Tax:        input.Tax,
			Date:       tradeDate(input.Date, now),
			Notes:      input.Notes,
			ExternalID: input.ExternalID,
		})
		if err != nil {
			return err
		}
		tx.Touch(now)

		asset.Touch(now)
		if err := store.Assets.Update(ctx, asset); err != nil {
			return err
		}
		if err := store.Transactions.Create(ctx, tx); err != nil {
			return err
		}

		result = &TradeResult{Asset: asset, Transaction: tx, RealizedProfitLoss: decimal.Zero}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info().
		Str("user_id", input.UserID.String()).
		Str("symbol", symbol).
		Str("quantity", input.Quantity.String()).
		Str("price", input.Price.String()).
		Msg("buy recorded")
	return result, nil
}

// lockOrCreateAsset returns the locked asset row for (user, symbol). A first
// purchase inserts an empty row; when a concurrent buyer inserted it first,
// the row is selected again so both purchases land on the same holding.
func (s *TradingService) lockOrCreateAsset(ctx context.Context, store domain.TradeStore, input BuyInput, symbol string, now time.Time) (*domain.Asset, error) {
	asset, err := store.Assets.GetByUserAndSymbol(ctx, input.UserID, symbol)
	if !errors.Is(err, domain.ErrNotFound) {
		return asset, err
	}

	asset = domain.NewAsset(input.UserID, symbol, input.AssetType, input.Exchange, input.Currency)
	asset.Name = input.Name
	asset.CountryCode = strings.ToUpper(input.CountryCode)
	asset.Notes = input.Notes
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	asset.Touch(now)

	created, err := store.Assets.CreateIfAbsent(ctx, asset)
	if err != nil {
		return nil, err
	}
	if created {
		return asset, nil
	}

	s.Logger.Debug().
		Str("user_id", input.UserID.String()).
		Str("symbol", symbol).
		Msg("asset created concurrently, reloading")
	return store.Assets.GetByUserAndSymbol(ctx, input.UserID, symbol)
}

func checkScales(quantity, price, fee, tax decimal.Decimal) error {
	for name, v := range map[string]decimal.Decimal{"quantity": quantity, "price": price, "fee": fee, "tax": tax} {
		if err := domain.CheckScale(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Sell records a sale
// Logic (one unit of work):
//  1. Lock the user's active asset row for the symbol
//  2. Reduce the holding, rejecting oversells
//  3. Append the SELL transaction and persist the asset
//
// RealizedProfitLoss = NetAmount - cost basis released
func (s *TradingService) Sell(ctx context.Context, input SellInput) (*TradeResult, error) {
	symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidArgument)
	}
	if err := checkScales(input.Quantity, input.Price, input.Fee, input.Tax); err != nil {
		return nil, err
	}

	var result *TradeResult
	err := s.UnitOfWork.Do(ctx, func(ctx context.Context, store domain.TradeStore) error {
		now := s.Now()

		asset, err := store.Assets.GetByUserAndSymbol(ctx, input.UserID, symbol)
		if err != nil {
			return err
		}
		if !asset.IsActive {
			return fmt.Errorf("%w: asset %s is inactive", domain.ErrNotFound, symbol)
		}

		tx, err := domain.NewTrade(domain.TradeParams{
			UserID:     input.UserID,
			AssetID:    asset.ID,
			Type:       domain.TransactionTypeSell,
			Quantity:   input.Quantity,
			Price:      input.Price,
			Fee:        input.Fee,
			Tax:        input.Tax,
			Date:       tradeDate(input.Date, now),
			Notes:      input.Notes,
			ExternalID: input.ExternalID,
		})
		if err != nil {
			return err
		}
		tx.Touch(now)

		costBasis, err := asset.Sell(input.Quantity)
		if err != nil {
			return err
		}

		asset.Touch(now)
		if err := store.Assets.Update(ctx, asset); err != nil {
			return err
		}
		if err := store.Transactions.Create(ctx, tx); err != nil {
			return err
		}

		result = &TradeResult{
			Asset:              asset,
			Transaction:        tx,
			RealizedProfitLoss: tx.NetAmount.Sub(costBasis),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info().
		Str("user_id", input.UserID.String()).
		Str("symbol", symbol).
		Str("quantity", input.Quantity.String()).
		Str("realized", result.RealizedProfitLoss.String()).
		Msg("sell recorded")
	return result, nil
}

func tradeDate(requested, now time.Time) time.Time {
	if requested.IsZero() {
		return now
	}
	return requested
}

// ListAssets returns a user's assets matching filter
func (s *TradingService) ListAssets(ctx context.Context, userID uuid.UUID, filter domain.AssetFilter) ([]*domain.Asset, error) {
	return s.AssetRepo.List(ctx, userID, filter)
}

// GetAsset returns one of the user's assets. Assets of other users are reported as not found.
func (s *TradingService) GetAsset(ctx context.Context, userID, assetID uuid.UUID) (*domain.Asset, error) {
	asset, err := s.AssetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.UserID != userID {
		return nil, fmt.Errorf("%w: asset %s", domain.ErrNotFound, assetID)
	}
	return asset, nil
}

// DeactivateAsset soft-deletes one of the user's assets; its transactions are kept
func (s *TradingService) DeactivateAsset(ctx context.Context, userID, assetID uuid.UUID) error {
	if _, err := s.GetAsset(ctx, userID, assetID); err != nil {
		return err
	}
	return s.AssetRepo.SoftDelete(ctx, assetID)
}

// ListTransactions returns a page of the user's transactions with the total match count
func (s *TradingService) ListTransactions(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) ([]*domain.Transaction, int, error) {
	if filter.Limit <= 0 || filter.Limit > MaxPageSize {
		filter.Limit = DefaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, 0, fmt.Errorf("%w: from is after to", domain.ErrInvalidArgument)
	}

	txs, err := s.TransactionRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.TransactionRepo.Count(ctx, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// GetTransaction returns one of the user's transactions
func (s *TradingService) GetTransaction(ctx context.Context, userID, txID uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.TransactionRepo.GetByID(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, fmt.Errorf("%w: transaction %s", domain.ErrNotFound, txID)
	}
	return tx, nil
}

// Summary aggregates the user's transaction log
func (s *TradingService) Summary(ctx context.Context, userID uuid.UUID) (*domain.TransactionSummary, error) {
	return s.TransactionRepo.Summary(ctx, userID)
}

// Paging bounds for transaction listings
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)
