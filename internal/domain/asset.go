package domain

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType represents the market an asset trades in
type AssetType string

const (
	AssetTypeCrypto AssetType = "CRYPTO"
	AssetTypeStock  AssetType = "STOCK"
)

// DefaultCurrency is used when an asset is created without a currency
const DefaultCurrency = money.USD

// ParseAssetType converts a case-insensitive string into an AssetType
func ParseAssetType(s string) (AssetType, error) {
	switch AssetType(strings.ToUpper(strings.TrimSpace(s))) {
	case AssetTypeCrypto:
		return AssetTypeCrypto, nil
	case AssetTypeStock:
		return AssetTypeStock, nil
	}
	return "", fmt.Errorf("%w: unknown asset type %q", ErrInvalidArgument, s)
}

// Asset is a user's aggregate holding of one symbol.
// Quantity and AveragePrice follow weighted-average-cost accounting:
// every purchase reweights AveragePrice, sells only reduce Quantity.
type Asset struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Symbol       string
	Name         string
	AssetType    AssetType
	Exchange     string
	CountryCode  string
	Quantity     decimal.Decimal
	AveragePrice decimal.Decimal
	Currency     string
	IsActive     bool
	Notes        string
	Timestamps
}

// NewAsset returns an active, empty holding ready for its first purchase
func NewAsset(userID uuid.UUID, symbol string, assetType AssetType, exchange, currency string) *Asset {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Asset{
		ID:           uuid.New(),
		UserID:       userID,
		Symbol:       strings.ToUpper(strings.TrimSpace(symbol)),
		AssetType:    assetType,
		Exchange:     strings.ToUpper(strings.TrimSpace(exchange)),
		Quantity:     decimal.Zero,
		AveragePrice: decimal.Zero,
		Currency:     strings.ToUpper(currency),
		IsActive:     true,
	}
}

// Validate ensures the asset adheres to domain rules
func (a *Asset) Validate() error {
	if strings.TrimSpace(a.Symbol) == "" {
		return fmt.Errorf("%w: asset symbol cannot be empty", ErrInvalidArgument)
	}
	if a.AssetType != AssetTypeCrypto && a.AssetType != AssetTypeStock {
		return fmt.Errorf("%w: asset type must be CRYPTO or STOCK", ErrInvalidArgument)
	}
	if a.Quantity.IsNegative() {
		return fmt.Errorf("%w: asset quantity cannot be negative", ErrInvalidArgument)
	}
	if a.AveragePrice.IsNegative() {
		return fmt.Errorf("%w: average price cannot be negative", ErrInvalidArgument)
	}
	if money.GetCurrency(a.Currency) == nil {
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidArgument, a.Currency)
	}
	if a.CountryCode != "" && len(a.CountryCode) != 2 {
		return fmt.Errorf("%w: country code must have 2 letters", ErrInvalidArgument)
	}
	return nil
}

// TotalInvestment is the cost basis of the holding (Quantity x AveragePrice)
func (a *Asset) TotalInvestment() decimal.Decimal {
	return a.Quantity.Mul(a.AveragePrice)
}

// CurrentValue values the holding at marketPrice
func (a *Asset) CurrentValue(marketPrice decimal.Decimal) decimal.Decimal {
	return marketPrice.Mul(a.Quantity)
}

// ProfitLoss is the unrealized result at marketPrice
func (a *Asset) ProfitLoss(marketPrice decimal.Decimal) decimal.Decimal {
	return a.CurrentValue(marketPrice).Sub(a.TotalInvestment())
}

// ProfitRate is ProfitLoss as a percentage of TotalInvestment (zero when nothing is invested)
func (a *Asset) ProfitRate(marketPrice decimal.Decimal) decimal.Decimal {
	return Percentage(a.ProfitLoss(marketPrice), a.TotalInvestment())
}

// PortfolioWeight returns the holding's share of totalPortfolioValue in percent.
// The holding is valued at AveragePrice, not at a market price.
func (a *Asset) PortfolioWeight(totalPortfolioValue decimal.Decimal) decimal.Decimal {
	return Percentage(a.CurrentValue(a.AveragePrice), totalPortfolioValue)
}

// AddPurchase folds a buy of quantity at price into the holding
func (a *Asset) AddPurchase(quantity, price decimal.Decimal) error {
	if !quantity.IsPositive() || !price.IsPositive() {
		return fmt.Errorf("%w: purchase quantity and price must be positive", ErrInvalidArgument)
	}
	if err := CheckScale("quantity", quantity); err != nil {
		return err
	}
	if err := CheckScale("price", price); err != nil {
		return err
	}

	totalCost := a.TotalInvestment().Add(quantity.Mul(price))
	newQuantity := a.Quantity.Add(quantity)

	a.AveragePrice = Divide(totalCost, newQuantity)
	a.Quantity = newQuantity
	return nil
}

// Sell removes quantity from the holding and returns the cost basis released
// (quantity x AveragePrice). AveragePrice is left untouched.
func (a *Asset) Sell(quantity decimal.Decimal) (decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: sell quantity must be positive", ErrInvalidArgument)
	}
	if err := CheckScale("quantity", quantity); err != nil {
		return decimal.Zero, err
	}
	if quantity.GreaterThan(a.Quantity) {
		return decimal.Zero, fmt.Errorf("%w: holding %s %s, requested %s",
			ErrInsufficientQuantity, a.Quantity.String(), a.Symbol, quantity.String())
	}

	a.Quantity = a.Quantity.Sub(quantity)
	return quantity.Mul(a.AveragePrice), nil
}

// IsHolding reports whether any quantity is left
func (a *Asset) IsHolding() bool {
	return a.Quantity.IsPositive()
}

// Deactivate soft-deletes the asset; its transactions stay intact
func (a *Asset) Deactivate() {
	a.IsActive = false
}

// Reactivate brings a soft-deleted asset back
func (a *Asset) Reactivate() {
	a.IsActive = true
}
