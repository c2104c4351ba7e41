package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/simaogato/assetmanager-backend/internal/auth"
	"github.com/simaogato/assetmanager-backend/internal/usecase/account"
	"github.com/simaogato/assetmanager-backend/internal/usecase/apikeys"
	"github.com/simaogato/assetmanager-backend/internal/usecase/portfolio"
	"github.com/simaogato/assetmanager-backend/internal/usecase/prices"
	"github.com/simaogato/assetmanager-backend/internal/usecase/trading"
)

// TokenVerifier validates bearer tokens
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Config holds server configuration
type Config struct {
	Addr           string
	RequestTimeout time.Duration
	CORSOrigins    []string
	Log            zerolog.Logger
	Tokens         TokenVerifier

	Accounts  *account.AccountService
	Trading   *trading.TradingService
	Prices    *prices.PriceService
	Portfolio *portfolio.Aggregator
	APIKeys   *apikeys.APIKeyService
}

// Server is the REST API
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	tokens TokenVerifier

	accounts  *account.AccountService
	trading   *trading.TradingService
	prices    *prices.PriceService
	portfolio *portfolio.Aggregator
	apiKeys   *apikeys.APIKeyService
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "http").Logger(),
		tokens:    cfg.Tokens,
		accounts:  cfg.Accounts,
		trading:   cfg.Trading,
		prices:    cfg.Prices,
		portfolio: cfg.Portfolio,
		apiKeys:   cfg.APIKeys,
	}

	s.setupMiddleware(cfg)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(cfg.RequestTimeout))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Total-Count"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/me", s.handleMe)
			r.Patch("/me", s.handleUpdateMe)
			r.Delete("/me", s.handleDeactivateMe)

			r.Route("/assets", func(r chi.Router) {
				r.Get("/", s.handleListAssets)
				r.Get("/{id}", s.handleGetAsset)
				r.Post("/{id}/deactivate", s.handleDeactivateAsset)
			})

			r.Post("/trades/buy", s.handleBuy)
			r.Post("/trades/sell", s.handleSell)

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", s.handleListTransactions)
				r.Get("/summary", s.handleTransactionSummary)
				r.Get("/{id}", s.handleGetTransaction)
			})

			r.Route("/prices", func(r chi.Router) {
				r.Get("/{symbol}", s.handlePriceHistory)
				r.Get("/{symbol}/latest", s.handleLatestPrice)
				r.Get("/{symbol}/stats", s.handlePriceStats)

				r.Group(func(r chi.Router) {
					r.Use(requireAdmin)
					r.Post("/", s.handleRecordPrice)
					r.Post("/batch", s.handleRecordPriceBatch)
				})
			})

			r.Route("/portfolio", func(r chi.Router) {
				r.Post("/snapshots", s.handleTakeSnapshot)
				r.Get("/snapshots", s.handleListSnapshots)
				r.Get("/snapshots/latest", s.handleLatestSnapshot)
				r.Get("/analytics", s.handleAnalytics)
			})

			r.Route("/api-keys", func(r chi.Router) {
				r.Get("/", s.handleListAPIKeys)
				r.Post("/", s.handleRegisterAPIKey)
				r.Post("/{id}/deactivate", s.handleDeactivateAPIKey)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/snapshots/run", s.handleRunAllSnapshots)
				r.Post("/prices/purge", s.handlePurgePrices)
			})
		})
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
