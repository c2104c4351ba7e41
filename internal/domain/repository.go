package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	// Create inserts a new user; a duplicate email yields ErrConflict
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by its (normalized) email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update persists name, email, role and activation state
	Update(ctx context.Context, user *User) error

	// UpdateLastLogin stamps a successful login
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListActive returns every active user
	ListActive(ctx context.Context) ([]*User, error)
}

// AssetFilter narrows an asset listing. The zero value lists active assets.
type AssetFilter struct {
	AssetType       AssetType
	Exchange        string
	HoldingOnly     bool // quantity > 0
	IncludeInactive bool
}

// AssetRepository defines the interface for asset persistence operations
type AssetRepository interface {
	// CreateIfAbsent inserts a new asset unless the user already holds a row
	// for its symbol. It reports whether the row was inserted.
	CreateIfAbsent(ctx context.Context, asset *Asset) (bool, error)

	// Update persists quantity, average price, activation state and notes
	Update(ctx context.Context, asset *Asset) error

	// GetByID retrieves an asset by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)

	// GetByUserAndSymbol retrieves a user's asset for a symbol (active or not).
	// Inside a unit of work the row is locked until commit.
	GetByUserAndSymbol(ctx context.Context, userID uuid.UUID, symbol string) (*Asset, error)

	// List retrieves a user's assets matching filter
	List(ctx context.Context, userID uuid.UUID, filter AssetFilter) ([]*Asset, error)

	// SoftDelete marks an asset inactive
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository defines the interface for transaction persistence operations
type TransactionRepository interface {
	// Create appends a transaction to the ledger
	Create(ctx context.Context, tx *Transaction) error

	// GetByID retrieves a transaction by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// List retrieves a user's transactions, newest first
	List(ctx context.Context, userID uuid.UUID, filter TransactionFilter) ([]*Transaction, error)

	// Count returns the number of a user's transactions matching filter (paging ignored)
	Count(ctx context.Context, userID uuid.UUID, filter TransactionFilter) (int, error)

	// Summary aggregates buy/sell totals, fees and taxes for a user
	Summary(ctx context.Context, userID uuid.UUID) (*TransactionSummary, error)

	// Delete removes a transaction. Only used for cleanup; the ledger is append-only.
	Delete(ctx context.Context, id uuid.UUID) error
}

// PriceHistoryRepository defines the interface for price observation persistence
type PriceHistoryRepository interface {
	// Upsert inserts or corrects an observation keyed by (symbol, exchange, timestamp)
	Upsert(ctx context.Context, price *PriceHistory) error

	// UpsertBatch upserts all observations in one database transaction
	UpsertBatch(ctx context.Context, prices []*PriceHistory) error

	// LatestBySymbol returns the newest observation on any exchange
	LatestBySymbol(ctx context.Context, symbol string) (*PriceHistory, error)

	// LatestBySymbolAndExchange returns the newest observation on one exchange
	LatestBySymbolAndExchange(ctx context.Context, symbol, exchange string) (*PriceHistory, error)

	// Range returns observations in [from, to], oldest first
	Range(ctx context.Context, symbol string, from, to time.Time) ([]*PriceHistory, error)

	// Recent returns the newest limit observations, newest first
	Recent(ctx context.Context, symbol string, limit int) ([]*PriceHistory, error)

	// Stats aggregates observations in [from, to]
	Stats(ctx context.Context, symbol string, from, to time.Time) (*PriceStats, error)

	// DeleteBefore removes observations older than before
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// PortfolioSnapshotRepository defines the interface for snapshot persistence
type PortfolioSnapshotRepository interface {
	// Upsert inserts the snapshot or overwrites the computed fields of the
	// existing (user, date) row in a single statement. ID is set to the stored row's ID.
	Upsert(ctx context.Context, snapshot *PortfolioSnapshot) error

	// GetByUserAndDate retrieves the snapshot of one day
	GetByUserAndDate(ctx context.Context, userID uuid.UUID, date time.Time) (*PortfolioSnapshot, error)

	// Latest retrieves the most recent snapshot of a user
	Latest(ctx context.Context, userID uuid.UUID) (*PortfolioSnapshot, error)

	// List retrieves a user's snapshots, newest first
	List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*PortfolioSnapshot, error)

	// Range retrieves snapshots in [from, to], oldest first
	Range(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*PortfolioSnapshot, error)

	// Analytics computes aggregate statistics over snapshots in [from, to]
	Analytics(ctx context.Context, userID uuid.UUID, from, to time.Time) (*SnapshotAnalytics, error)

	// DeleteBefore removes snapshots dated before the given day
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}

// APIKeyRepository defines the interface for exchange credential persistence
type APIKeyRepository interface {
	// Create inserts a new key
	Create(ctx context.Context, key *APIKey) error

	// GetByID retrieves a key by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*APIKey, error)

	// ListByUser retrieves a user's keys, optionally only active ones
	ListByUser(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]*APIKey, error)

	// Update persists exchange name, permissions, activation and expiry
	Update(ctx context.Context, key *APIKey) error

	// UpdateLastUsed stamps a use of the key
	UpdateLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error

	// DeactivateExpired disables active keys whose expiry lies before now
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// TradeStore exposes the repositories that take part in a trade
type TradeStore struct {
	Assets       AssetRepository
	Transactions TransactionRepository
}

// UnitOfWork runs fn inside one database transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, store TradeStore) error) error
}
