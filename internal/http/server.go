// Package http exposes the analytics gateway's JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"capify/internal/cache"
	"capify/internal/core"
	applog "capify/internal/log"
	"capify/internal/middleware/ratelimit"
	"capify/internal/middleware/security"
	"capify/internal/middleware/trace"
)

// Controller is the slice of the sync controller the handlers use.
type Controller interface {
	Analytics(f core.FilterState) *core.Snapshot
	BudgetInsights() core.BudgetInsights
	Expenses() []core.Expense
	CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error)
	UpdateExpense(ctx context.Context, id int64, in core.ExpenseInput) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	CreateBudget(ctx context.Context, in core.BudgetInput) (core.Budget, error)
	Ready() bool
	Stale() bool
}

type Server struct {
	http.Server

	controller     Controller
	analyticsCache *cache.LRUCache[analyticsResponse]
	cacheManager   *cache.Manager
	rateLimiter    *ratelimit.Limiter
	shutdownOnce   sync.Once
}

// Options tune the server's cache and rate limits. Zero values take the
// defaults.
type Options struct {
	CacheSize         int
	CacheTTL          time.Duration
	MutationRateLimit int
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, controller Controller, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.MutationRateLimit <= 0 {
		opts.MutationRateLimit = 30
	}

	s := &Server{
		controller:     controller,
		analyticsCache: cache.NewLRUCache[analyticsResponse](opts.CacheSize, opts.CacheTTL),
		cacheManager:   cache.NewManager(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.MutationRateLimit,
		}),
	}
	s.cacheManager.Register(s.analyticsCache)
	s.cacheManager.StartCleanup(time.Minute)

	limited := s.rateLimiter.Middleware(extractClientIP, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/analytics", s.handleAnalytics)
	mux.HandleFunc("GET /api/budgets/insights", s.handleBudgetInsights)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)

	mux.Handle("POST /api/expenses", limited(http.HandlerFunc(s.handleCreateExpense)))
	mux.Handle("PUT /api/expenses/{id}", limited(http.HandlerFunc(s.handleUpdateExpense)))
	mux.Handle("DELETE /api/expenses/{id}", limited(http.HandlerFunc(s.handleDeleteExpense)))
	mux.Handle("POST /api/budgets", limited(http.HandlerFunc(s.handleCreateBudget)))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(extractClientIP)
	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	handler := tracer.Middleware(headers.Middleware(applog.Middleware(logger)(mux)))

	s.Server = http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

// InvalidateCache drops cached analytics responses. The sync controller
// calls this after every data change.
func (s *Server) InvalidateCache() {
	s.analyticsCache.Clear()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.controller.Ready() {
		writeError(w, http.StatusServiceUnavailable, "no data loaded yet")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"stale":  s.controller.Stale(),
	})
}

// extractClientIP honors proxy headers before falling back to the
// connection address.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
