package trading

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/simaogato/assetmanager-backend/internal/domain"
	"github.com/simaogato/assetmanager-backend/internal/domain/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService() (*TradingService, *mocks.UnitOfWork, *mocks.AssetRepository, *mocks.TransactionRepository) {
	uow := mocks.NewUnitOfWork()
	assetRepo := new(mocks.AssetRepository)
	txRepo := new(mocks.TransactionRepository)
	service := NewTradingService(uow, assetRepo, txRepo, zerolog.Nop())
	service.Now = func() time.Time { return fixedNow }
	return service, uow, assetRepo, txRepo
}

func TestBuy_CreatesAssetOnFirstPurchase(t *testing.T) {
	ctx := context.Background()
	service, uow, _, _ := newTestService()
	userID := uuid.New()

	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "BTC").Return(nil, domain.ErrNotFound)
	uow.Assets.On("CreateIfAbsent", ctx, mock.MatchedBy(func(a *domain.Asset) bool {
		return a.Symbol == "BTC" &&
			a.UserID == userID &&
			a.Quantity.IsZero() &&
			a.Currency == "KRW" &&
			a.IsActive
	})).Return(true, nil)
	uow.Assets.On("Update", ctx, mock.MatchedBy(func(a *domain.Asset) bool {
		return a.Quantity.Equal(d("0.5")) && a.AveragePrice.Equal(d("50000000"))
	})).Return(nil)
	uow.Transactions.On("Create", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.Type == domain.TransactionTypeBuy &&
			tx.TotalAmount.Equal(d("25000000")) &&
			tx.NetAmount.Equal(d("24990000")) &&
			tx.TransactionDate.Equal(fixedNow)
	})).Return(nil)

	result, err := service.Buy(ctx, BuyInput{
		UserID:    userID,
		Symbol:    "btc",
		AssetType: domain.AssetTypeCrypto,
		Exchange:  "upbit",
		Currency:  "krw",
		Quantity:  d("0.5"),
		Price:     d("50000000"),
		Fee:       d("10000"),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, uow.Calls)
	assert.True(t, result.RealizedProfitLoss.IsZero())
	assert.Equal(t, result.Asset.ID, result.Transaction.AssetID)
	uow.Assets.AssertExpectations(t)
	uow.Transactions.AssertExpectations(t)
}

func TestBuy_ConcurrentFirstPurchaseJoinsExistingRow(t *testing.T) {
	ctx := context.Background()
	service, uow, _, _ := newTestService()
	userID := uuid.New()

	// Another buyer inserted BTC between our lookup and our insert.
	winner := domain.NewAsset(userID, "BTC", domain.AssetTypeCrypto, "UPBIT", "KRW")
	winner.Quantity = d("1")
	winner.AveragePrice = d("40000000")

	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "BTC").Return(nil, domain.ErrNotFound).Once()
	uow.Assets.On("CreateIfAbsent", ctx, mock.AnythingOfType("*domain.Asset")).Return(false, nil)
	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "BTC").Return(winner, nil).Once()
	uow.Assets.On("Update", ctx, winner).Return(nil)
	uow.Transactions.On("Create", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.AssetID == winner.ID
	})).Return(nil)

	result, err := service.Buy(ctx, BuyInput{
		UserID:    userID,
		Symbol:    "BTC",
		AssetType: domain.AssetTypeCrypto,
		Currency:  "KRW",
		Quantity:  d("1"),
		Price:     d("60000000"),
	})

	require.NoError(t, err)
	assert.Same(t, winner, result.Asset)
	assert.True(t, d("2").Equal(result.Asset.Quantity))
	assert.True(t, d("50000000").Equal(result.Asset.AveragePrice))
	uow.Assets.AssertExpectations(t)
	uow.Transactions.AssertExpectations(t)
}

func TestBuy_CreateIfAbsentFailurePropagates(t *testing.T) {
	ctx := context.Background()
	service, uow, _, _ := newTestService()
	userID := uuid.New()
	dbErr := fmt.Errorf("%w: connection reset", domain.ErrPersistence)

	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "BTC").Return(nil, domain.ErrNotFound)
	uow.Assets.On("CreateIfAbsent", ctx, mock.Anything).Return(false, dbErr)

	_, err := service.Buy(ctx, BuyInput{UserID: userID, Symbol: "BTC", AssetType: domain.AssetTypeCrypto, Currency: "KRW", Quantity: d("1"), Price: d("1")})

	assert.ErrorIs(t, err, domain.ErrPersistence)
	uow.Assets.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	uow.Transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBuy_ReweightsExistingAsset(t *testing.T) {
	ctx := context.Background()
	service, uow, _, _ := newTestService()
	userID := uuid.New()

	existing := domain.NewAsset(userID, "AAPL", domain.AssetTypeStock, "NASDAQ", "USD")
	existing.Quantity = d("10")
	existing.AveragePrice = d("100")

	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "AAPL").Return(existing, nil)
	uow.Assets.On("Update", ctx, existing).Return(nil)
	uow.Transactions.On("Create", ctx, mock.Anything).Return(nil)

	result, err := service.Buy(ctx, BuyInput{UserID: userID, Symbol: "AAPL", Quantity: d("10"), Price: d("200")})

	require.NoError(t, err)
	assert.True(t, d("20").Equal(result.Asset.Quantity))
	assert.True(t, d("150").Equal(result.Asset.AveragePrice))
	uow.Assets.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
}

func TestBuy_ReactivatesSoftDeletedAsset(t *testing.T) {
	ctx := context.Background()
	service, uow, _, _ := newTestService()
	userID := uuid.New()

	existing := domain.NewAsset(userID, "ETH", domain.AssetTypeCrypto, "UPBIT", "KRW")
	existing.Deactivate()

	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "ETH").Return(existing, nil)
	uow.Assets.On("Update", ctx, mock.MatchedBy(func(a *domain.Asset) bool { return a.IsActive })).Return(nil)
	uow.Transactions.On("Create", ctx, mock.Anything).Return(nil)

	_, err := service.Buy(ctx, BuyInput{UserID: userID, Symbol: "ETH", Quantity: d("1"), Price: d("3000000")})

	require.NoError(t, err)
	uow.Assets.AssertExpectations(t)
}

func TestBuy_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input BuyInput
	}{
		{"Empty symbol", BuyInput{Symbol: " ", Quantity: d("1"), Price: d("1")}},
		{"Zero quantity", BuyInput{Symbol: "BTC", Quantity: decimal.Zero, Price: d("1")}},
		{"Negative price", BuyInput{Symbol: "BTC", Quantity: d("1"), Price: d("-1")}},
		{"Zero price", BuyInput{Symbol: "BTC", Quantity: d("1"), Price: decimal.Zero}},
		{"Quantity finer than eight places", BuyInput{Symbol: "BTC", Quantity: d("0.123456789"), Price: d("1")}},
		{"Price finer than eight places", BuyInput{Symbol: "BTC", Quantity: d("1"), Price: d("0.000000015")}},
		{"Fee finer than eight places", BuyInput{Symbol: "BTC", Quantity: d("1"), Price: d("1"), Fee: d("0.000000001")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, uow, _, _ := newTestService()

			_, err := service.Buy(context.Background(), tt.input)

			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.Equal(t, 0, uow.Calls)
		})
	}
}

func TestBuy_NewAssetWithUnknownCurrency(t *testing.T) {
	ctx := context.Background()
	service, uow, _, _ := newTestService()
	userID := uuid.New()

	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "BTC").Return(nil, domain.ErrNotFound)

	_, err := service.Buy(ctx, BuyInput{
		UserID:    userID,
		Symbol:    "BTC",
		AssetType: domain.AssetTypeCrypto,
		Currency:  "ZZZ",
		Quantity:  d("1"),
		Price:     d("1"),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	uow.Transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBuy_TransactionInsertFailurePropagates(t *testing.T) {
	ctx := context.Background()
	service, uow, _, _ := newTestService()
	userID := uuid.New()
	dbErr := fmt.Errorf("%w: connection reset", domain.ErrPersistence)

	existing := domain.NewAsset(userID, "BTC", domain.AssetTypeCrypto, "UPBIT", "KRW")
	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "BTC").Return(existing, nil)
	uow.Assets.On("Update", ctx, existing).Return(nil)
	uow.Transactions.On("Create", ctx, mock.Anything).Return(dbErr)

	result, err := service.Buy(ctx, BuyInput{UserID: userID, Symbol: "BTC", Quantity: d("1"), Price: d("1")})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestSell_PartialWithRealizedProfit(t *testing.T) {
	ctx := context.Background()
	service, uow, _, _ := newTestService()
	userID := uuid.New()

	existing := domain.NewAsset(userID, "BTC", domain.AssetTypeCrypto, "UPBIT", "KRW")
	existing.Quantity = d("1")
	existing.AveragePrice = d("50000000")

	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "BTC").Return(existing, nil)
	uow.Assets.On("Update", ctx, existing).Return(nil)
	uow.Transactions.On("Create", ctx, mock.MatchedBy(func(tx *domain.Transaction) bool {
		return tx.Type == domain.TransactionTypeSell && tx.NetAmount.Equal(d("29990000"))
	})).Return(nil)

	result, err := service.Sell(ctx, SellInput{
		UserID:   userID,
		Symbol:   "BTC",
		Quantity: d("0.5"),
		Price:    d("60000000"),
		Fee:      d("10000"),
	})

	require.NoError(t, err)
	assert.True(t, d("0.5").Equal(result.Asset.Quantity))
	assert.True(t, d("50000000").Equal(result.Asset.AveragePrice))
	// 29,990,000 net - 25,000,000 cost basis
	assert.True(t, d("4990000").Equal(result.RealizedProfitLoss))
	uow.Transactions.AssertExpectations(t)
}

func TestSell_WholeHoldingLeavesAssetActive(t *testing.T) {
	ctx := context.Background()
	service, uow, _, _ := newTestService()
	userID := uuid.New()

	existing := domain.NewAsset(userID, "AAPL", domain.AssetTypeStock, "NASDAQ", "USD")
	existing.Quantity = d("3")
	existing.AveragePrice = d("120")

	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "AAPL").Return(existing, nil)
	uow.Assets.On("Update", ctx, existing).Return(nil)
	uow.Transactions.On("Create", ctx, mock.Anything).Return(nil)

	result, err := service.Sell(ctx, SellInput{UserID: userID, Symbol: "AAPL", Quantity: d("3"), Price: d("100")})

	require.NoError(t, err)
	assert.True(t, result.Asset.Quantity.IsZero())
	assert.True(t, result.Asset.IsActive)
	assert.False(t, result.Asset.IsHolding())
	assert.True(t, d("-60").Equal(result.RealizedProfitLoss))
}

func TestSell_Oversell(t *testing.T) {
	ctx := context.Background()
	service, uow, _, _ := newTestService()
	userID := uuid.New()

	existing := domain.NewAsset(userID, "AAPL", domain.AssetTypeStock, "NASDAQ", "USD")
	existing.Quantity = d("3")
	existing.AveragePrice = d("120")
	uow.Assets.On("GetByUserAndSymbol", ctx, userID, "AAPL").Return(existing, nil)

	_, err := service.Sell(ctx, SellInput{UserID: userID, Symbol: "AAPL", Quantity: d("5"), Price: d("100")})

	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	assert.True(t, d("3").Equal(existing.Quantity))
	uow.Assets.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	uow.Transactions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSell_MissingOrInactiveAsset(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("Missing", func(t *testing.T) {
		service, uow, _, _ := newTestService()
		uow.Assets.On("GetByUserAndSymbol", ctx, userID, "DOGE").Return(nil, domain.ErrNotFound)

		_, err := service.Sell(ctx, SellInput{UserID: userID, Symbol: "DOGE", Quantity: d("1"), Price: d("1")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Inactive", func(t *testing.T) {
		service, uow, _, _ := newTestService()
		inactive := domain.NewAsset(userID, "DOGE", domain.AssetTypeCrypto, "UPBIT", "KRW")
		inactive.Quantity = d("10")
		inactive.Deactivate()
		uow.Assets.On("GetByUserAndSymbol", ctx, userID, "DOGE").Return(inactive, nil)

		_, err := service.Sell(ctx, SellInput{UserID: userID, Symbol: "DOGE", Quantity: d("1"), Price: d("1")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestSell_RejectsExcessScaleBeforeTouchingStorage(t *testing.T) {
	service, uow, _, _ := newTestService()

	_, err := service.Sell(context.Background(), SellInput{UserID: uuid.New(), Symbol: "BTC", Quantity: d("0.123456789"), Price: d("1")})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, 0, uow.Calls)
}

func TestSell_UnitOfWorkFailure(t *testing.T) {
	service, uow, _, _ := newTestService()
	uow.Err = errors.New("begin failed")

	_, err := service.Sell(context.Background(), SellInput{UserID: uuid.New(), Symbol: "BTC", Quantity: d("1"), Price: d("1")})

	assert.EqualError(t, err, "begin failed")
}

func TestGetAsset_OtherUsersAssetIsNotFound(t *testing.T) {
	ctx := context.Background()
	service, _, assetRepo, _ := newTestService()
	owner, intruder := uuid.New(), uuid.New()
	asset := domain.NewAsset(owner, "BTC", domain.AssetTypeCrypto, "UPBIT", "KRW")

	assetRepo.On("GetByID", ctx, asset.ID).Return(asset, nil)

	got, err := service.GetAsset(ctx, owner, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, asset, got)

	_, err = service.GetAsset(ctx, intruder, asset.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeactivateAsset(t *testing.T) {
	ctx := context.Background()
	service, _, assetRepo, _ := newTestService()
	userID := uuid.New()
	asset := domain.NewAsset(userID, "BTC", domain.AssetTypeCrypto, "UPBIT", "KRW")

	assetRepo.On("GetByID", ctx, asset.ID).Return(asset, nil)
	assetRepo.On("SoftDelete", ctx, asset.ID).Return(nil)

	require.NoError(t, service.DeactivateAsset(ctx, userID, asset.ID))
	assetRepo.AssertExpectations(t)
}

func TestListTransactions_ClampsPaging(t *testing.T) {
	ctx := context.Background()
	service, _, _, txRepo := newTestService()
	userID := uuid.New()
	expected := domain.TransactionFilter{Limit: DefaultPageSize, Offset: 0}

	txRepo.On("List", ctx, userID, expected).Return([]*domain.Transaction{}, nil)
	txRepo.On("Count", ctx, userID, expected).Return(0, nil)

	txs, total, err := service.ListTransactions(ctx, userID, domain.TransactionFilter{Limit: 10000, Offset: -5})

	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Equal(t, 0, total)
	txRepo.AssertExpectations(t)
}

func TestListTransactions_InvertedRange(t *testing.T) {
	service, _, _, txRepo := newTestService()

	_, _, err := service.ListTransactions(context.Background(), uuid.New(), domain.TransactionFilter{
		From: fixedNow,
		To:   fixedNow.Add(-time.Hour),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	txRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetTransaction_OtherUsersTransactionIsNotFound(t *testing.T) {
	ctx := context.Background()
	service, _, _, txRepo := newTestService()
	tx := &domain.Transaction{ID: uuid.New(), UserID: uuid.New()}

	txRepo.On("GetByID", ctx, tx.ID).Return(tx, nil)

	_, err := service.GetTransaction(ctx, uuid.New(), tx.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
