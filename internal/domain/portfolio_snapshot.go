package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire and storage format of a snapshot date
const DateLayout = "2006-01-02"

// PortfolioSnapshot is the once-per-day rollup of a user's holdings.
// TotalProfitLoss and ProfitRate are derived; call Recalculate after
// changing TotalInvestment or TotalCurrentValue.
type PortfolioSnapshot struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	SnapshotDate      time.Time // calendar date, midnight UTC
	TotalInvestment   decimal.Decimal
	TotalCurrentValue decimal.Decimal
	TotalProfitLoss   decimal.Decimal
	ProfitRate        decimal.Decimal
	AssetCount        int
	CryptoValue       decimal.Decimal
	StockValue        decimal.Decimal
	Notes             string
	Timestamps
}

// CalendarDate truncates t to its calendar date in loc, expressed as midnight UTC
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RecalculateProfitLoss sets TotalProfitLoss = TotalCurrentValue - TotalInvestment
func (s *PortfolioSnapshot) RecalculateProfitLoss() {
	s.TotalProfitLoss = s.TotalCurrentValue.Sub(s.TotalInvestment)
}

// RecalculateProfitRate sets ProfitRate from TotalProfitLoss and TotalInvestment
func (s *PortfolioSnapshot) RecalculateProfitRate() {
	s.ProfitRate = Percentage(s.TotalProfitLoss, s.TotalInvestment)
}

// Recalculate refreshes both derived fields in dependency order
func (s *PortfolioSnapshot) Recalculate() {
	s.RecalculateProfitLoss()
	s.RecalculateProfitRate()
}

// IsProfit reports a strictly positive result
func (s *PortfolioSnapshot) IsProfit() bool { return s.TotalProfitLoss.IsPositive() }

// IsLoss reports a strictly negative result
func (s *PortfolioSnapshot) IsLoss() bool { return s.TotalProfitLoss.IsNegative() }

// CryptoWeight is CryptoValue as a percentage of TotalCurrentValue
func (s *PortfolioSnapshot) CryptoWeight() decimal.Decimal {
	return Percentage(s.CryptoValue, s.TotalCurrentValue)
}

// StockWeight is StockValue as a percentage of TotalCurrentValue
func (s *PortfolioSnapshot) StockWeight() decimal.Decimal {
	return Percentage(s.StockValue, s.TotalCurrentValue)
}

// DiversificationIndex is |CryptoWeight - StockWeight|; 0 means evenly split
func (s *PortfolioSnapshot) DiversificationIndex() decimal.Decimal {
	return s.CryptoWeight().Sub(s.StockWeight()).Abs()
}

// Summary renders "2024-01-31: 20.00%"
func (s *PortfolioSnapshot) Summary() string {
	return fmt.Sprintf("%s: %s%%", s.SnapshotDate.Format(DateLayout), s.ProfitRate.StringFixed(2))
}

// SnapshotAnalytics is a read projection over persisted snapshots in a period
type SnapshotAnalytics struct {
	From              time.Time
	To                time.Time
	SnapshotCount     int
	MaxProfitRate     decimal.Decimal
	MinProfitRate     decimal.Decimal
	AvgProfitRate     decimal.Decimal
	MaxPortfolioValue decimal.Decimal
	ProfitDays        int
	LossDays          int
	Volatility        decimal.Decimal // population standard deviation of ProfitRate
	AvgCryptoWeight   decimal.Decimal
	AvgStockWeight    decimal.Decimal
	TotalGrowthRate   decimal.Decimal
}
