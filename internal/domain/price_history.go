package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceHistory is one market observation for a symbol on an exchange.
// Rows are independent of user holdings; the aggregator only reads them.
type PriceHistory struct {
	ID             uuid.UUID
	Symbol         string
	Exchange       string
	Price          decimal.Decimal
	Volume         decimal.NullDecimal
	MarketCap      decimal.NullDecimal
	High           decimal.NullDecimal
	Low            decimal.NullDecimal
	Open           decimal.NullDecimal
	Close          decimal.NullDecimal
	ChangeRate     decimal.NullDecimal
	DataSource     string
	PriceTimestamp time.Time
	CreatedAt      time.Time
}

// Normalize upper-cases symbol and exchange so lookups match asset rows
func (p *PriceHistory) Normalize() {
	p.Symbol = strings.ToUpper(strings.TrimSpace(p.Symbol))
	p.Exchange = strings.ToUpper(strings.TrimSpace(p.Exchange))
}

// Validate ensures the observation adheres to domain rules
func (p *PriceHistory) Validate() error {
	if strings.TrimSpace(p.Symbol) == "" {
		return fmt.Errorf("%w: price symbol cannot be empty", ErrInvalidArgument)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	if err := CheckScale("price", p.Price); err != nil {
		return err
	}
	for name, v := range map[string]decimal.NullDecimal{
		"volume":      p.Volume,
		"market cap":  p.MarketCap,
		"high":        p.High,
		"low":         p.Low,
		"open":        p.Open,
		"close":       p.Close,
		"change rate": p.ChangeRate,
	} {
		if !v.Valid {
			continue
		}
		if err := CheckScale(name, v.Decimal); err != nil {
			return err
		}
	}
	if p.PriceTimestamp.IsZero() {
		return fmt.Errorf("%w: price timestamp is required", ErrInvalidArgument)
	}
	if p.High.Valid && p.Low.Valid && p.High.Decimal.LessThan(p.Low.Decimal) {
		return fmt.Errorf("%w: high price below low price", ErrInvalidArgument)
	}
	return nil
}

func (p *PriceHistory) hasOpenClose() bool {
	return p.Open.Valid && p.Close.Valid
}

// HasPriceChanged reports whether close differs from open
func (p *PriceHistory) HasPriceChanged() bool {
	return p.hasOpenClose() && !p.Close.Decimal.Equal(p.Open.Decimal)
}

// IsPriceIncreased reports whether close is above open
func (p *PriceHistory) IsPriceIncreased() bool {
	return p.hasOpenClose() && p.Close.Decimal.GreaterThan(p.Open.Decimal)
}

// IsPriceDecreased reports whether close is below open
func (p *PriceHistory) IsPriceDecreased() bool {
	return p.hasOpenClose() && p.Close.Decimal.LessThan(p.Open.Decimal)
}

// PriceRange is High - Low, zero when either is missing
func (p *PriceHistory) PriceRange() decimal.Decimal {
	if !p.High.Valid || !p.Low.Valid {
		return decimal.Zero
	}
	return p.High.Decimal.Sub(p.Low.Decimal)
}

// IntraDayChangeRate is (Close - Open) / Open in percent
func (p *PriceHistory) IntraDayChangeRate() decimal.Decimal {
	if !p.hasOpenClose() {
		return decimal.Zero
	}
	return Percentage(p.Close.Decimal.Sub(p.Open.Decimal), p.Open.Decimal)
}

// VolatilityIndicator is (High - Low) / Open in percent
func (p *PriceHistory) VolatilityIndicator() decimal.Decimal {
	if !p.Open.Valid || !p.High.Valid || !p.Low.Valid {
		return decimal.Zero
	}
	return Percentage(p.PriceRange(), p.Open.Decimal)
}

// HasValidOHLC reports whether all four OHLC values are present and High >= Low
func (p *PriceHistory) HasValidOHLC() bool {
	return p.hasOpenClose() && p.High.Valid && p.Low.Valid &&
		p.High.Decimal.GreaterThanOrEqual(p.Low.Decimal)
}

// IsRecent reports whether the observation is less than a day older than now
func (p *PriceHistory) IsRecent(now time.Time) bool {
	return p.PriceTimestamp.After(now.Add(-24 * time.Hour))
}

// PriceStats aggregates observations of one symbol over a period
type PriceStats struct {
	Symbol      string
	Samples     int
	Max         decimal.Decimal
	Min         decimal.Decimal
	Average     decimal.Decimal
	TotalVolume decimal.Decimal
}
