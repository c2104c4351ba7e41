package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/simaogato/assetmanager-backend/internal/app"
	"github.com/simaogato/assetmanager-backend/internal/config"
	"github.com/simaogato/assetmanager-backend/internal/domain"
	"github.com/simaogato/assetmanager-backend/internal/logger"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&seedAdminCmd{},
	&snapshotCmd{},
	&purgePricesCmd{},
	&expireKeysCmd{},
}

// withApp loads configuration, connects and runs fn with a timeout
func withApp(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, a *app.App, log zerolog.Logger) error) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true})

	a, err := app.New(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := fn(ctx, a, log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type migrateCmd struct {
	timeout time.Duration
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending database migrations" }
func (*migrateCmd) Usage() string {
	return `assetctl migrate [-timeout <duration>]

  Applies every embedded migration not yet recorded in schema_migrations.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&c.timeout, "timeout", time.Minute, "Maximum time to spend migrating.")
}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, c.timeout, func(ctx context.Context, a *app.App, log zerolog.Logger) error {
		applied, err := a.DB.Migrate(ctx)
		if err != nil {
			return err
		}
		if len(applied) == 0 {
			fmt.Println("schema is up to date")
			return nil
		}
		for _, name := range applied {
			fmt.Println("applied", name)
		}
		return nil
	})
}

type seedAdminCmd struct{}

func (*seedAdminCmd) Name() string     { return "seed-admin" }
func (*seedAdminCmd) Synopsis() string { return "create the ADMIN_EMAIL administrator if missing" }
func (*seedAdminCmd) Usage() string {
	return `assetctl seed-admin

  Creates the administrator configured by ADMIN_EMAIL and ADMIN_PASSWORD
  unless a user with that email already exists.
`
}

func (*seedAdminCmd) SetFlags(*flag.FlagSet) {}

func (*seedAdminCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, time.Minute, func(ctx context.Context, a *app.App, _ zerolog.Logger) error {
		return a.Seeder.Seed(ctx)
	})
}

type snapshotCmd struct {
	user    string
	all     bool
	timeout time.Duration
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "take today's portfolio snapshot" }
func (*snapshotCmd) Usage() string {
	return `assetctl snapshot (-user <uuid> | -all) [-timeout <duration>]

  Captures today's snapshot for one user or for every active user.
  Re-running on the same day overwrites the day's values.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.user, "user", "", "ID of the user to snapshot.")
	f.BoolVar(&c.all, "all", false, "Snapshot every active user.")
	f.DurationVar(&c.timeout, "timeout", 10*time.Minute, "Maximum time to spend.")
}

func (c *snapshotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.all == (c.user != "") {
		fmt.Fprintln(os.Stderr, "exactly one of -user or -all is required")
		f.Usage()
		return subcommands.ExitUsageError
	}

	var userID uuid.UUID
	if !c.all {
		id, err := uuid.Parse(c.user)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -user: %v\n", err)
			return subcommands.ExitUsageError
		}
		userID = id
	}

	return withApp(ctx, c.timeout, func(ctx context.Context, a *app.App, _ zerolog.Logger) error {
		if c.all {
			res, err := a.Portfolio.TakeAllSnapshots(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("users=%d succeeded=%d failed=%d\n", res.Users, res.Succeeded, res.Failed)
			return nil
		}

		s, err := a.Portfolio.TakeSnapshot(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Printf("%s value=%s invested=%s pnl=%s rate=%s%%\n",
			s.SnapshotDate.Format(domain.DateLayout),
			s.TotalCurrentValue, s.TotalInvestment, s.TotalProfitLoss, s.ProfitRate)
		return nil
	})
}

type purgePricesCmd struct {
	days int
}

func (*purgePricesCmd) Name() string     { return "purge-prices" }
func (*purgePricesCmd) Synopsis() string { return "delete price history older than N days" }
func (*purgePricesCmd) Usage() string {
	return `assetctl purge-prices -days <n>

  Deletes price observations whose timestamp is older than n days.
`
}

func (c *purgePricesCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.days, "days", 0, "Retention window in days (required, > 0).")
}

func (c *purgePricesCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.days <= 0 {
		fmt.Fprintln(os.Stderr, "-days must be positive")
		f.Usage()
		return subcommands.ExitUsageError
	}

	return withApp(ctx, 10*time.Minute, func(ctx context.Context, a *app.App, _ zerolog.Logger) error {
		n, err := a.Prices.PurgeOlderThan(ctx, c.days)
		if err != nil {
			return err
		}
		fmt.Printf("deleted %d price rows\n", n)
		return nil
	})
}

type expireKeysCmd struct{}

func (*expireKeysCmd) Name() string     { return "expire-keys" }
func (*expireKeysCmd) Synopsis() string { return "deactivate API keys past their expiry" }
func (*expireKeysCmd) Usage() string {
	return `assetctl expire-keys
`
}

func (*expireKeysCmd) SetFlags(*flag.FlagSet) {}

func (*expireKeysCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, time.Minute, func(ctx context.Context, a *app.App, _ zerolog.Logger) error {
		n, err := a.APIKeys.DeactivateExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("deactivated %d keys\n", n)
		return nil
	})
}
