// Package mocks provides testify mocks of the domain repositories.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/assetmanager-backend/internal/domain"
	"github.com/stretchr/testify/mock"
)

// UserRepository is a mock implementation of domain.UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *UserRepository) ListActive(ctx context.Context) ([]*domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

// AssetRepository is a mock implementation of domain.AssetRepository
type AssetRepository struct {
	mock.Mock
}

func (m *AssetRepository) CreateIfAbsent(ctx context.Context, asset *domain.Asset) (bool, error) {
	args := m.Called(ctx, asset)
	return args.Bool(0), args.Error(1)
}

func (m *AssetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	args := m.Called(ctx, asset)
	return args.Error(0)
}

func (m *AssetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *AssetRepository) GetByUserAndSymbol(ctx context.Context, userID uuid.UUID, symbol string) (*domain.Asset, error) {
	args := m.Called(ctx, userID, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Asset), args.Error(1)
}

func (m *AssetRepository) List(ctx context.Context, userID uuid.UUID, filter domain.AssetFilter) ([]*domain.Asset, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Asset), args.Error(1)
}

func (m *AssetRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// TransactionRepository is a mock implementation of domain.TransactionRepository
type TransactionRepository struct {
	mock.Mock
}

func (m *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) List(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) ([]*domain.Transaction, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *TransactionRepository) Count(ctx context.Context, userID uuid.UUID, filter domain.TransactionFilter) (int, error) {
	args := m.Called(ctx, userID, filter)
	return args.Int(0), args.Error(1)
}

func (m *TransactionRepository) Summary(ctx context.Context, userID uuid.UUID) (*domain.TransactionSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransactionSummary), args.Error(1)
}

func (m *TransactionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// PriceHistoryRepository is a mock implementation of domain.PriceHistoryRepository
type PriceHistoryRepository struct {
	mock.Mock
}

func (m *PriceHistoryRepository) Upsert(ctx context.Context, price *domain.PriceHistory) error {
	args := m.Called(ctx, price)
	return args.Error(0)
}

func (m *PriceHistoryRepository) UpsertBatch(ctx context.Context, prices []*domain.PriceHistory) error {
	args := m.Called(ctx, prices)
	return args.Error(0)
}

func (m *PriceHistoryRepository) LatestBySymbol(ctx context.Context, symbol string) (*domain.PriceHistory, error) {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceHistory), args.Error(1)
}

func (m *PriceHistoryRepository) LatestBySymbolAndExchange(ctx context.Context, symbol, exchange string) (*domain.PriceHistory, error) {
	args := m.Called(ctx, symbol, exchange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceHistory), args.Error(1)
}

func (m *PriceHistoryRepository) Range(ctx context.Context, symbol string, from, to time.Time) ([]*domain.PriceHistory, error) {
	args := m.Called(ctx, symbol, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PriceHistory), args.Error(1)
}

func (m *PriceHistoryRepository) Recent(ctx context.Context, symbol string, limit int) ([]*domain.PriceHistory, error) {
	args := m.Called(ctx, symbol, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PriceHistory), args.Error(1)
}

func (m *PriceHistoryRepository) Stats(ctx context.Context, symbol string, from, to time.Time) (*domain.PriceStats, error) {
	args := m.Called(ctx, symbol, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PriceStats), args.Error(1)
}

func (m *PriceHistoryRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// PortfolioSnapshotRepository is a mock implementation of domain.PortfolioSnapshotRepository
type PortfolioSnapshotRepository struct {
	mock.Mock
}

func (m *PortfolioSnapshotRepository) Upsert(ctx context.Context, snapshot *domain.PortfolioSnapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *PortfolioSnapshotRepository) GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*domain.PortfolioSnapshot, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PortfolioSnapshot), args.Error(1)
}

func (m *PortfolioSnapshotRepository) Latest(ctx context.Context, userID uuid.UUID) (*domain.PortfolioSnapshot, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PortfolioSnapshot), args.Error(1)
}

func (m *PortfolioSnapshotRepository) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.PortfolioSnapshot, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PortfolioSnapshot), args.Error(1)
}

func (m *PortfolioSnapshotRepository) Range(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*domain.PortfolioSnapshot, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.PortfolioSnapshot), args.Error(1)
}

func (m *PortfolioSnapshotRepository) Analytics(ctx context.Context, userID uuid.UUID, from, to time.Time) (*domain.SnapshotAnalytics, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SnapshotAnalytics), args.Error(1)
}

func (m *PortfolioSnapshotRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// APIKeyRepository is a mock implementation of domain.APIKeyRepository
type APIKeyRepository struct {
	mock.Mock
}

func (m *APIKeyRepository) Create(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *APIKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.APIKey, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.APIKey), args.Error(1)
}

func (m *APIKeyRepository) ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*domain.APIKey, error) {
	args := m.Called(ctx, userID, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.APIKey), args.Error(1)
}

func (m *APIKeyRepository) Update(ctx context.Context, key *domain.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *APIKeyRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *APIKeyRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

// UnitOfWork runs the callback directly against the mock repositories.
// Err, when set, is returned instead of calling fn. Calls counts invocations.
type UnitOfWork struct {
	Assets       *AssetRepository
	Transactions *TransactionRepository
	Err          error
	Calls        int
}

// NewUnitOfWork returns a UnitOfWork backed by fresh mock repositories
func NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{
		Assets:       new(AssetRepository),
		Transactions: new(TransactionRepository),
	}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, store domain.TradeStore) error) error {
	u.Calls++
	if u.Err != nil {
		return u.Err
	}
	return fn(ctx, domain.TradeStore{Assets: u.Assets, Transactions: u.Transactions})
}
