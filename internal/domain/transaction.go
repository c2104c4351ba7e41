package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the direction of a trade
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "BUY"
	TransactionTypeSell TransactionType = "SELL"
)

// ParseTransactionType converts a case-insensitive string into a TransactionType
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case TransactionTypeBuy:
		return TransactionTypeBuy, nil
	case TransactionTypeSell:
		return TransactionTypeSell, nil
	}
	return "", fmt.Errorf("%w: unknown transaction type %q", ErrInvalidArgument, s)
}

// Transaction is an append-only ledger entry justifying a change to an Asset
type Transaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	AssetID         uuid.UUID
	Type            TransactionType
	Quantity        decimal.Decimal
	Price           decimal.Decimal
	TotalAmount     decimal.Decimal // Quantity x Price
	Fee             decimal.Decimal
	Tax             decimal.Decimal
	NetAmount       decimal.Decimal // TotalAmount - Fee - Tax
	TransactionDate time.Time
	Notes           string
	ExternalID      string // optional idempotency key from an exchange import
	Timestamps
}

// TradeParams groups the inputs of NewTrade
type TradeParams struct {
	UserID     uuid.UUID
	AssetID    uuid.UUID
	Type       TransactionType
	Quantity   decimal.Decimal
	Price      decimal.Decimal
	Fee        decimal.Decimal
	Tax        decimal.Decimal
	Date       time.Time
	Notes      string
	ExternalID string
}

// NewTrade builds a validated transaction with TotalAmount and NetAmount derived
func NewTrade(p TradeParams) (*Transaction, error) {
	tx := &Transaction{
		ID:              uuid.New(),
		UserID:          p.UserID,
		AssetID:         p.AssetID,
		Type:            p.Type,
		Quantity:        p.Quantity,
		Price:           p.Price,
		TotalAmount:     p.Quantity.Mul(p.Price),
		Fee:             p.Fee,
		Tax:             p.Tax,
		TransactionDate: p.Date,
		Notes:           p.Notes,
		ExternalID:      strings.TrimSpace(p.ExternalID),
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	tx.NetAmount = tx.CalculateNetAmount()
	return tx, nil
}

// Validate ensures the transaction adheres to domain rules
func (t *Transaction) Validate() error {
	if t.Type != TransactionTypeBuy && t.Type != TransactionTypeSell {
		return fmt.Errorf("%w: transaction type must be BUY or SELL", ErrInvalidArgument)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	if t.Fee.IsNegative() || t.Tax.IsNegative() {
		return fmt.Errorf("%w: fee and tax must not be negative", ErrInvalidArgument)
	}
	for _, amount := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"quantity", t.Quantity},
		{"price", t.Price},
		{"fee", t.Fee},
		{"tax", t.Tax},
	} {
		if err := CheckScale(amount.name, amount.value); err != nil {
			return err
		}
	}
	return nil
}

// CalculateNetAmount returns TotalAmount - Fee - Tax.
// A zero-value Fee or Tax counts as absent.
func (t *Transaction) CalculateNetAmount() decimal.Decimal {
	return t.TotalAmount.Sub(t.Fee).Sub(t.Tax)
}

// IsBuy reports whether the transaction is a purchase
func (t *Transaction) IsBuy() bool { return t.Type == TransactionTypeBuy }

// IsSell reports whether the transaction is a sale
func (t *Transaction) IsSell() bool { return t.Type == TransactionTypeSell }

// FeeRate is Fee as a percentage of TotalAmount
func (t *Transaction) FeeRate() decimal.Decimal {
	return Percentage(t.Fee, t.TotalAmount)
}

// Summary renders a one-line description, e.g. "BUY BTC 0.5000 @ 50000000.00"
func (t *Transaction) Summary(symbol string) string {
	if symbol == "" {
		symbol = "-"
	}
	return fmt.Sprintf("%s %s %s @ %s", t.Type, symbol, t.Quantity.StringFixed(4), t.Price.StringFixed(2))
}

// TransactionFilter narrows a transaction listing. Zero values mean "no filter".
type TransactionFilter struct {
	AssetID *uuid.UUID
	Type    TransactionType
	From    time.Time
	To      time.Time
	Limit   int
	Offset  int
}

// TransactionSummary aggregates a user's transaction log
type TransactionSummary struct {
	Count     int
	TotalBuy  decimal.Decimal
	TotalSell decimal.Decimal
	TotalFees decimal.Decimal
	TotalTax  decimal.Decimal
}
