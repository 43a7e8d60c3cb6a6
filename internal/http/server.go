package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/events"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

const (
	dashboardCacheSize = 256
	dashboardCacheTTL  = 2 * time.Minute
	cacheSweepInterval = 5 * time.Minute
)

// Dependencies carries everything the server needs. The event client may be
// nil; currency conversion then falls back to raw amounts when the converter
// is nil as well.
type Dependencies struct {
	Store        *storage.SQLiteRepository
	Auth         *auth.Manager
	Transactions *services.TransactionService
	Groups       *services.GroupService
	Imports      *services.ImportService
	Summaries    *services.SummaryService
	Converter    *currency.Converter
	Events       *events.Client
	Logger       *log.Logger
}

// Server wires the JSON API, rate limiting and response caches around a
// plain net/http server.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger

	store        *storage.SQLiteRepository
	authManager  *auth.Manager
	transactions *services.TransactionService
	groups       *services.GroupService
	imports      *services.ImportService
	summaries    *services.SummaryService
	converter    *currency.Converter
	eventClient  *events.Client

	dashCache *cache.LRUCache[dashboardJSON]
	caches    *cache.Manager
	limiter   *ratelimit.Limiter

	shutdownOnce sync.Once
}

func NewServer(cfg *config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.Config{}).WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		logger:       logger,
		store:        deps.Store,
		authManager:  deps.Auth,
		transactions: deps.Transactions,
		groups:       deps.Groups,
		imports:      deps.Imports,
		summaries:    deps.Summaries,
		converter:    deps.Converter,
		eventClient:  deps.Events,
		dashCache:    cache.NewLRUCache[dashboardJSON](dashboardCacheSize, dashboardCacheTTL),
		caches:       cache.NewManager(),
		limiter:      ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
	s.caches.Register(s.dashCache)
	s.caches.StartCleanup(cacheSweepInterval)

	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(trace.Middleware(clientIP))
	r.Use(log.Middleware(s.logger))
	r.Use(security.Headers())
	r.Use(security.ProbeLogger())
	r.Use(ratelimit.Middleware(s.limiter, clientIP))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.authManager))

			r.Put("/auth/profile", s.handleUpdateProfile)
			r.Delete("/auth/delete-account", s.handleDeleteAccount)

			r.Get("/settings", s.handleGetSettings)
			r.Put("/settings", s.handleUpdateSettings)

			r.Get("/transactions", s.handleListTransactions)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Post("/transactions/bulk", s.handleBulkCreateTransactions)
			r.Post("/transactions/bulk-delete", s.handleBulkDeleteTransactions)
			r.Get("/transactions/{id}", s.handleGetTransaction)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)

			r.Get("/categories", s.handleListCategories)
			r.Post("/categories", s.handleCreateCategory)
			r.Put("/categories/{id}", s.handleUpdateCategory)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Get("/recurring-transactions", s.handleListRecurring)
			r.Post("/recurring-transactions", s.handleCreateRecurring)
			r.Put("/recurring-transactions/{id}", s.handleUpdateRecurring)
			r.Delete("/recurring-transactions/{id}", s.handleDeleteRecurring)

			r.Get("/groups", s.handleListGroups)
			r.Post("/groups", s.handleCreateGroup)
			r.Post("/groups/{id}/join", s.handleJoinGroup)
			r.Get("/groups/{id}/members", s.handleListGroupMembers)
			r.Get("/groups/{id}/balances", s.handleGroupBalances)

			r.Get("/group-transactions", s.handleListGroupTransactions)
			r.Post("/group-transactions", s.handleAddGroupTransaction)
			r.Post("/group-transactions/{id}/settle", s.handleSettleGroupTransaction)

			r.Post("/import/csv", s.handleImportCSV)
			r.Post("/import/commit", s.handleImportCommit)

			r.Get("/dashboard", s.handleDashboard)
			r.Get("/forecast", s.handleForecast)
		})
	})

	return r
}

// ListenAndServe blocks until the server stops.
func (s *Server) ListenAndServe() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops background cache and rate
// limiter goroutines. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.httpServer.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// displayFor builds the converter closure for a user's display currency.
// Without a converter the raw stored amount is shown.
func (s *Server) displayFor(ctx context.Context, userID int64) (string, core.DisplayAmount) {
	code := "USD"
	if settings, err := s.store.GetSettings(ctx, userID); err == nil {
		code = settings.Currency
	}
	if s.converter == nil {
		return code, func(tx core.Transaction) float64 { return tx.Amount.Float64() }
	}
	return code, s.converter.DisplayAmount(ctx, code)
}

// clientIP strips the port from RemoteAddr; RealIP has already folded
// forwarding headers into it.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
