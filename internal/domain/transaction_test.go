package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name    string
		tx      Transaction
		wantErr bool
	}{
		{
			name:    "Valid buy should pass",
			tx:      Transaction{Type: TransactionTypeBuy, Quantity: d("1"), Price: d("100")},
			wantErr: false,
		},
		{
			name:    "Zero price is allowed (airdrop)",
			tx:      Transaction{Type: TransactionTypeBuy, Quantity: d("10"), Price: decimal.Zero},
			wantErr: false,
		},
		{
			name:    "Zero quantity should fail",
			tx:      Transaction{Type: TransactionTypeBuy, Quantity: decimal.Zero, Price: d("100")},
			wantErr: true,
		},
		{
			name:    "Negative quantity should fail",
			tx:      Transaction{Type: TransactionTypeSell, Quantity: d("-1"), Price: d("100")},
			wantErr: true,
		},
		{
			name:    "Negative price should fail",
			tx:      Transaction{Type: TransactionTypeSell, Quantity: d("1"), Price: d("-0.01")},
			wantErr: true,
		},
		{
			name:    "Negative fee should fail",
			tx:      Transaction{Type: TransactionTypeBuy, Quantity: d("1"), Price: d("1"), Fee: d("-1")},
			wantErr: true,
		},
		{
			name:    "Unknown type should fail",
			tx:      Transaction{Type: "HOLD", Quantity: d("1"), Price: d("1")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tx.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTransaction_CalculateNetAmount(t *testing.T) {
	tests := []struct {
		name string
		tx   Transaction
		want string
	}{
		{"Fee and tax are subtracted", Transaction{TotalAmount: d("1000"), Fee: d("5"), Tax: d("2.5")}, "992.5"},
		{"Missing fee and tax count as zero", Transaction{TotalAmount: d("1000")}, "1000"},
		{"Only fee", Transaction{TotalAmount: d("1000"), Fee: d("0.05")}, "999.95"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, d(tt.want).Equal(tt.tx.CalculateNetAmount()))
		})
	}
}

func TestNewTrade(t *testing.T) {
	userID, assetID := uuid.New(), uuid.New()
	date := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tx, err := NewTrade(TradeParams{
		UserID:     userID,
		AssetID:    assetID,
		Type:       TransactionTypeBuy,
		Quantity:   d("0.5"),
		Price:      d("50000000"),
		Fee:        d("12500"),
		Date:       date,
		ExternalID: " upbit-123 ",
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.True(t, d("25000000").Equal(tx.TotalAmount))
	assert.True(t, d("24987500").Equal(tx.NetAmount))
	assert.Equal(t, "upbit-123", tx.ExternalID)
	assert.Equal(t, date, tx.TransactionDate)
	assert.True(t, tx.IsBuy())
	assert.False(t, tx.IsSell())
	assert.True(t, d("0.05").Equal(tx.FeeRate()))
}

func TestNewTrade_Invalid(t *testing.T) {
	_, err := NewTrade(TradeParams{Type: TransactionTypeSell, Quantity: decimal.Zero, Price: d("1")})

	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewTrade_RejectsExcessScale(t *testing.T) {
	tests := []struct {
		name   string
		params TradeParams
	}{
		{"Quantity", TradeParams{Type: TransactionTypeBuy, Quantity: d("0.123456789"), Price: d("1")}},
		{"Price", TradeParams{Type: TransactionTypeBuy, Quantity: d("1"), Price: d("0.000000015")}},
		{"Fee", TradeParams{Type: TransactionTypeBuy, Quantity: d("1"), Price: d("1"), Fee: d("0.000000001")}},
		{"Tax", TradeParams{Type: TransactionTypeSell, Quantity: d("1"), Price: d("1"), Tax: d("0.123456789")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTrade(tt.params)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestTransaction_FeeRate_ZeroTotal(t *testing.T) {
	tx := Transaction{TotalAmount: decimal.Zero, Fee: d("1")}

	assert.True(t, tx.FeeRate().IsZero())
}

func TestTransaction_Summary(t *testing.T) {
	tx := Transaction{Type: TransactionTypeSell, Quantity: d("1.5"), Price: d("150")}

	assert.Equal(t, "SELL AAPL 1.5000 @ 150.00", tx.Summary("AAPL"))
	assert.Equal(t, "SELL - 1.5000 @ 150.00", tx.Summary(""))
}

func TestParseTransactionType(t *testing.T) {
	got, err := ParseTransactionType("sell")
	assert.NoError(t, err)
	assert.Equal(t, TransactionTypeSell, got)

	_, err = ParseTransactionType("swap")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
