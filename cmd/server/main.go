package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	grpcadapter "github.com/simaogato/assetmanager-backend/internal/adapter/grpc"
	httpadapter "github.com/simaogato/assetmanager-backend/internal/adapter/http"
	"github.com/simaogato/assetmanager-backend/internal/app"
	"github.com/simaogato/assetmanager-backend/internal/config"
	"github.com/simaogato/assetmanager-backend/internal/logger"
	"github.com/simaogato/assetmanager-backend/internal/scheduler"
)

func main() {
	// 1. Configuration and logging
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New(logger.Config{Level: "info"})
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	// 2. Database, migrations and services
	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	ctx := context.Background()
	applied, err := application.DB.Migrate(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	if len(applied) > 0 {
		log.Info().Strs("migrations", applied).Msg("Migrations applied")
	}

	if err := application.Seeder.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed admin user")
	}

	// 3. Background jobs
	var sched *scheduler.Scheduler
	if cfg.SchedulerEnabled {
		sched, err = startScheduler(cfg, application, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	// 4. REST API
	httpServer := httpadapter.New(httpadapter.Config{
		Addr:           cfg.HTTPAddr(),
		RequestTimeout: cfg.RequestTimeout,
		CORSOrigins:    cfg.CORSOrigins,
		Log:            log,
		Tokens:         application.Tokens,
		Accounts:       application.Accounts,
		Trading:        application.Trading,
		Prices:         application.Prices,
		Portfolio:      application.Portfolio,
		APIKeys:        application.APIKeys,
	})

	go func() {
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// 5. Ops gRPC server
	grpcServer, healthServer := grpcadapter.NewGRPCServer(application.Portfolio, application.Tokens, application.Accounts, log)

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.GRPCAddr()).Msg("Failed to listen")
	}

	go func() {
		log.Info().Str("addr", cfg.GRPCAddr()).Msg("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("gRPC server failed")
		}
	}()

	// Graceful shutdown
	sig := waitForSignal()
	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")

	healthServer.Shutdown()
	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}

	log.Info().Msg("Server stopped")
}

func startScheduler(cfg *config.Config, application *app.App, log zerolog.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log)

	if err := sched.AddJob(cfg.SnapshotCron, &scheduler.DailySnapshotJob{
		Aggregator: application.Portfolio,
		Timeout:    cfg.JobTimeout,
		Log:        log,
	}); err != nil {
		return nil, err
	}

	if err := sched.AddJob(cfg.APIKeyExpiryCron, &scheduler.ExpireAPIKeysJob{
		Keys:    application.APIKeys,
		Timeout: cfg.JobTimeout,
		Log:     log,
	}); err != nil {
		return nil, err
	}

	if cfg.PriceRetentionDays > 0 {
		if err := sched.AddJob(cfg.PricePurgeCron, &scheduler.PurgePriceHistoryJob{
			Prices:        application.Prices,
			RetentionDays: cfg.PriceRetentionDays,
			Timeout:       cfg.JobTimeout,
			Log:           log,
		}); err != nil {
			return nil, err
		}
	}

	sched.Start()
	return sched, nil
}

// waitForSignal blocks until SIGTERM or SIGINT
func waitForSignal() os.Signal {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	return <-sigChan
}
