package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/simaogato/assetmanager-backend/internal/domain"
)

// Decimals are serialized as JSON strings to keep their exact scale.

type userResponse struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	AuthProvider string     `json:"auth_provider"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:           u.ID.String(),
		Email:        u.Email,
		Name:         u.Name,
		AuthProvider: string(u.AuthProvider),
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}

type sessionResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      userResponse `json:"user"`
}

type assetResponse struct {
	ID              string          `json:"id"`
	Symbol          string          `json:"symbol"`
	Name            string          `json:"name"`
	AssetType       string          `json:"asset_type"`
	Exchange        string          `json:"exchange"`
	CountryCode     string          `json:"country_code,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	AveragePrice    decimal.Decimal `json:"average_price"`
	TotalInvestment decimal.Decimal `json:"total_investment"`
	Currency        string          `json:"currency"`
	IsActive        bool            `json:"is_active"`
	Notes           string          `json:"notes,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toAssetResponse(a *domain.Asset) assetResponse {
	return assetResponse{
		ID:              a.ID.String(),
		Symbol:          a.Symbol,
		Name:            a.Name,
		AssetType:       string(a.AssetType),
		Exchange:        a.Exchange,
		CountryCode:     a.CountryCode,
		Quantity:        a.Quantity,
		AveragePrice:    a.AveragePrice,
		TotalInvestment: a.TotalInvestment(),
		Currency:        a.Currency,
		IsActive:        a.IsActive,
		Notes:           a.Notes,
		UpdatedAt:       a.UpdatedAt,
	}
}

type transactionResponse struct {
	ID              string          `json:"id"`
	AssetID         string          `json:"asset_id"`
	Type            string          `json:"type"`
	Quantity        decimal.Decimal `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Fee             decimal.Decimal `json:"fee"`
	Tax             decimal.Decimal `json:"tax"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	TransactionDate time.Time       `json:"transaction_date"`
	Notes           string          `json:"notes,omitempty"`
	ExternalID      string          `json:"external_id,omitempty"`
}

func toTransactionResponse(t *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:              t.ID.String(),
		AssetID:         t.AssetID.String(),
		Type:            string(t.Type),
		Quantity:        t.Quantity,
		Price:           t.Price,
		TotalAmount:     t.TotalAmount,
		Fee:             t.Fee,
		Tax:             t.Tax,
		NetAmount:       t.NetAmount,
		TransactionDate: t.TransactionDate,
		Notes:           t.Notes,
		ExternalID:      t.ExternalID,
	}
}

type tradeResponse struct {
	Asset              assetResponse       `json:"asset"`
	Transaction        transactionResponse `json:"transaction"`
	RealizedProfitLoss *decimal.Decimal    `json:"realized_profit_loss,omitempty"`
}

type transactionPage struct {
	Items  []transactionResponse `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type summaryResponse struct {
	Count     int             `json:"count"`
	TotalBuy  decimal.Decimal `json:"total_buy"`
	TotalSell decimal.Decimal `json:"total_sell"`
	TotalFees decimal.Decimal `json:"total_fees"`
	TotalTax  decimal.Decimal `json:"total_tax"`
}

type priceResponse struct {
	Symbol         string              `json:"symbol"`
	Exchange       string              `json:"exchange"`
	Price          decimal.Decimal     `json:"price"`
	Volume         decimal.NullDecimal `json:"volume"`
	MarketCap      decimal.NullDecimal `json:"market_cap"`
	High           decimal.NullDecimal `json:"high"`
	Low            decimal.NullDecimal `json:"low"`
	Open           decimal.NullDecimal `json:"open"`
	Close          decimal.NullDecimal `json:"close"`
	ChangeRate     decimal.NullDecimal `json:"change_rate"`
	DataSource     string              `json:"data_source,omitempty"`
	PriceTimestamp time.Time           `json:"price_timestamp"`
}

func toPriceResponse(p *domain.PriceHistory) priceResponse {
	return priceResponse{
		Symbol:         p.Symbol,
		Exchange:       p.Exchange,
		Price:          p.Price,
		Volume:         p.Volume,
		MarketCap:      p.MarketCap,
		High:           p.High,
		Low:            p.Low,
		Open:           p.Open,
		Close:          p.Close,
		ChangeRate:     p.ChangeRate,
		DataSource:     p.DataSource,
		PriceTimestamp: p.PriceTimestamp,
	}
}

type priceStatsResponse struct {
	Symbol      string          `json:"symbol"`
	Samples     int             `json:"samples"`
	Max         decimal.Decimal `json:"max"`
	Min         decimal.Decimal `json:"min"`
	Average     decimal.Decimal `json:"average"`
	TotalVolume decimal.Decimal `json:"total_volume"`
}

type snapshotResponse struct {
	ID                string          `json:"id"`
	SnapshotDate      string          `json:"snapshot_date"`
	TotalInvestment   decimal.Decimal `json:"total_investment"`
	TotalCurrentValue decimal.Decimal `json:"total_current_value"`
	TotalProfitLoss   decimal.Decimal `json:"total_profit_loss"`
	ProfitRate        decimal.Decimal `json:"profit_rate"`
	AssetCount        int             `json:"asset_count"`
	CryptoValue       decimal.Decimal `json:"crypto_value"`
	StockValue        decimal.Decimal `json:"stock_value"`
	CryptoWeight      decimal.Decimal `json:"crypto_weight"`
	StockWeight       decimal.Decimal `json:"stock_weight"`
	Notes             string          `json:"notes,omitempty"`
}

func toSnapshotResponse(s *domain.PortfolioSnapshot) snapshotResponse {
	return snapshotResponse{
		ID:                s.ID.String(),
		SnapshotDate:      s.SnapshotDate.Format(domain.DateLayout),
		TotalInvestment:   s.TotalInvestment,
		TotalCurrentValue: s.TotalCurrentValue,
		TotalProfitLoss:   s.TotalProfitLoss,
		ProfitRate:        s.ProfitRate,
		AssetCount:        s.AssetCount,
		CryptoValue:       s.CryptoValue,
		StockValue:        s.StockValue,
		CryptoWeight:      s.CryptoWeight(),
		StockWeight:       s.StockWeight(),
		Notes:             s.Notes,
	}
}

type analyticsResponse struct {
	From              string          `json:"from"`
	To                string          `json:"to"`
	SnapshotCount     int             `json:"snapshot_count"`
	MaxProfitRate     decimal.Decimal `json:"max_profit_rate"`
	MinProfitRate     decimal.Decimal `json:"min_profit_rate"`
	AvgProfitRate     decimal.Decimal `json:"avg_profit_rate"`
	MaxPortfolioValue decimal.Decimal `json:"max_portfolio_value"`
	ProfitDays        int             `json:"profit_days"`
	LossDays          int             `json:"loss_days"`
	Volatility        decimal.Decimal `json:"volatility"`
	AvgCryptoWeight   decimal.Decimal `json:"avg_crypto_weight"`
	AvgStockWeight    decimal.Decimal `json:"avg_stock_weight"`
	TotalGrowthRate   decimal.Decimal `json:"total_growth_rate"`
}

type apiKeyResponse struct {
	ID           string     `json:"id"`
	ExchangeType string     `json:"exchange_type"`
	ExchangeName string     `json:"exchange_name"`
	AccessKey    string     `json:"access_key"`
	Permissions  string     `json:"permissions"`
	IsActive     bool       `json:"is_active"`
	LastUsedAt   *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// toAPIKeyResponse never includes the sealed secret
func toAPIKeyResponse(k *domain.APIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:           k.ID.String(),
		ExchangeType: string(k.ExchangeType),
		ExchangeName: k.ExchangeName,
		AccessKey:    k.AccessKey,
		Permissions:  k.Permissions.String(),
		IsActive:     k.IsActive,
		LastUsedAt:   k.LastUsedAt,
		ExpiresAt:    k.ExpiresAt,
		CreatedAt:    k.CreatedAt,
	}
}
