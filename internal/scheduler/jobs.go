package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/simaogato/assetmanager-backend/internal/usecase/portfolio"
)

// SnapshotTaker is the part of the portfolio aggregator the daily job needs
type SnapshotTaker interface {
	TakeAllSnapshots(ctx context.Context) (*portfolio.BatchResult, error)
}

// KeyExpirer disables API keys past their expiry
type KeyExpirer interface {
	DeactivateExpired(ctx context.Context) (int64, error)
}

// PricePurger removes price observations older than a number of days
type PricePurger interface {
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// DailySnapshotJob captures today's snapshot for every active user
type DailySnapshotJob struct {
	Aggregator SnapshotTaker
	Timeout    time.Duration
	Log        zerolog.Logger
}

func (j *DailySnapshotJob) Name() string { return "daily_snapshots" }

func (j *DailySnapshotJob) Run() error {
	ctx, cancel := withTimeout(j.Timeout)
	defer cancel()

	res, err := j.Aggregator.TakeAllSnapshots(ctx)
	if err != nil {
		return err
	}
	j.Log.Info().
		Int("users", res.Users).
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Msg("Daily snapshots taken")
	return nil
}

// ExpireAPIKeysJob deactivates expired exchange keys
type ExpireAPIKeysJob struct {
	Keys    KeyExpirer
	Timeout time.Duration
	Log     zerolog.Logger
}

func (j *ExpireAPIKeysJob) Name() string { return "expire_api_keys" }

func (j *ExpireAPIKeysJob) Run() error {
	ctx, cancel := withTimeout(j.Timeout)
	defer cancel()

	n, err := j.Keys.DeactivateExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		j.Log.Info().Int64("deactivated", n).Msg("Expired API keys deactivated")
	}
	return nil
}

// PurgePriceHistoryJob enforces the price retention window
type PurgePriceHistoryJob struct {
	Prices        PricePurger
	RetentionDays int
	Timeout       time.Duration
	Log           zerolog.Logger
}

func (j *PurgePriceHistoryJob) Name() string { return "purge_price_history" }

func (j *PurgePriceHistoryJob) Run() error {
	ctx, cancel := withTimeout(j.Timeout)
	defer cancel()

	n, err := j.Prices.PurgeOlderThan(ctx, j.RetentionDays)
	if err != nil {
		return err
	}
	j.Log.Info().Int64("deleted", n).Int("retention_days", j.RetentionDays).Msg("Price history purged")
	return nil
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Minute
	}
	return context.WithTimeout(context.Background(), d)
}
