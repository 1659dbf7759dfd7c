// Package http serves the JSON API over the ledger services.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finanzas/internal/log"
	"finanzas/internal/services"
)

// DefaultRateLimit is the number of mutating requests a client may send per minute.
const DefaultRateLimit = 60

// Options tunes the server. Zero values pick the defaults.
type Options struct {
	Logger *log.Logger
	// Ready reports whether the storage backend can serve requests.
	Ready     func(ctx context.Context) error
	RateLimit int
	// Now is the clock used for reconciliation requests.
	Now func() time.Time
}

type Server struct {
	http.Server
	svc         *services.Services
	ready       func(ctx context.Context) error
	logger      *log.Logger
	rateLimiter *rateLimiter
	now         func() time.Time
	started     time.Time

	shutdownOnce sync.Once
}

// NewServer registers the routes and the middleware chain. Call Start to serve.
func NewServer(addr string, svc *services.Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP)
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		svc:         svc,
		ready:       opts.Ready,
		logger:      opts.Logger,
		rateLimiter: newRateLimiter(opts.RateLimit),
		now:         opts.Now,
		started:     time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/taxonomy", s.handleTaxonomy)
	mux.HandleFunc("GET /api/months", s.handleMonths)
	mux.HandleFunc("GET /api/months/{month}", s.handleMonth)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/transactions", s.handleRecentTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleRecordTransaction)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleSaveSettings)
	mux.HandleFunc("POST /api/recurring/reconcile", s.handleReconcile)

	var handler http.Handler = mux
	handler = s.rateLimiter.middleware(handler)
	handler = securityHeaders(handler)
	handler = log.AccessLog()(handler)
	handler = log.RequestIDMiddleware()(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start runs the background cleanup and serves until Shutdown. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	go s.rateLimiter.startCleanup()
	s.logger.Info("HTTP server listening", "addr", s.Addr)
	return s.ListenAndServe()
}

// Shutdown stops the cleanup goroutine and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
