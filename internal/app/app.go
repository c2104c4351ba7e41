// Package app wires repositories and services from configuration. It is
// shared by the API server and the assetctl operator CLI.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/simaogato/assetmanager-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/assetmanager-backend/internal/auth"
	"github.com/simaogato/assetmanager-backend/internal/config"
	"github.com/simaogato/assetmanager-backend/internal/usecase/account"
	"github.com/simaogato/assetmanager-backend/internal/usecase/apikeys"
	"github.com/simaogato/assetmanager-backend/internal/usecase/portfolio"
	"github.com/simaogato/assetmanager-backend/internal/usecase/prices"
	"github.com/simaogato/assetmanager-backend/internal/usecase/seeder"
	"github.com/simaogato/assetmanager-backend/internal/usecase/trading"
)

// App holds the database handle and every service built on it
type App struct {
	DB     *postgres.DB
	Tokens *auth.TokenManager

	Accounts  *account.AccountService
	Trading   *trading.TradingService
	Prices    *prices.PriceService
	Portfolio *portfolio.Aggregator
	APIKeys   *apikeys.APIKeyService
	Seeder    *seeder.AdminSeeder
}

// New opens the database and builds the services
func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	db, err := postgres.NewDB(cfg.DBConnStr, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	assetRepo := postgres.NewAssetRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	priceRepo := postgres.NewPriceHistoryRepository(db)
	snapshotRepo := postgres.NewPortfolioSnapshotRepository(db)
	apiKeyRepo := postgres.NewAPIKeyRepository(db)
	uow := postgres.NewUnitOfWork(db)

	// Security primitives
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	hasher := auth.NewPasswordHasher(0)
	box := auth.NewSecretBox(cfg.APIKeySecret)

	return &App{
		DB:        db,
		Tokens:    tokens,
		Accounts:  account.NewAccountService(userRepo, hasher, tokens, log),
		Trading:   trading.NewTradingService(uow, assetRepo, transactionRepo, log),
		Prices:    prices.NewPriceService(priceRepo, log),
		Portfolio: portfolio.NewAggregator(userRepo, assetRepo, priceRepo, snapshotRepo, cfg.Location(), log),
		APIKeys:   apikeys.NewAPIKeyService(apiKeyRepo, box, log),
		Seeder:    seeder.NewAdminSeeder(userRepo, hasher, cfg.AdminEmail, cfg.AdminPassword, log),
	}, nil
}

// Close releases the database pool
func (a *App) Close() error {
	return a.DB.Close()
}
