// Package http serves the wallet timeline JSON API consumed by the
// dashboard front end.
package http

import (
	"context"
	"net/http"
	"time"

	"walletline/internal/amqp"
	"walletline/internal/cache"
	"walletline/internal/client"
	"walletline/internal/core"
	"walletline/internal/log"
	"walletline/internal/middleware/trace"
)

// UpstreamAPI is the slice of the upstream client the handlers need.
type UpstreamAPI interface {
	ListWallets(ctx context.Context) ([]core.Wallet, error)
	GetWallet(ctx context.Context, walletID string) (*core.Wallet, error)
	FetchAllWalletTransactions(ctx context.Context, walletID string) ([]core.Transaction, error)
	FetchAllTransactions(ctx context.Context, f client.TransactionFilters) ([]core.Transaction, error)
}

// ExportPublisher enqueues timeline export requests for the worker.
type ExportPublisher interface {
	PublishExport(ctx context.Context, msg *amqp.ExportMessage) error
}

// Options tunes the server. Zero values get defaults.
type Options struct {
	CacheSize     int
	CacheTTL      time.Duration
	DefaultLocale string
	// RateLimit is requests per client per minute.
	RateLimit int
	// Publisher is optional; without it export requests are rejected.
	Publisher ExportPublisher
	Logger    *log.Logger
}

type Server struct {
	http.Server

	api       UpstreamAPI
	publisher ExportPublisher
	logger    *log.Logger

	timelineCache *cache.LRU[core.GroupedTimeline]
	walletsCache  *cache.LRU[[]core.Wallet]
	janitor       *cache.Janitor
	limiter       *rateLimiter

	defaultLocale string
}

func NewServer(addr string, api UpstreamAPI, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.DefaultLocale == "" {
		opts.DefaultLocale = "en"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 120
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	s := &Server{
		api:           api,
		publisher:     opts.Publisher,
		logger:        logger.WithComponent(log.ComponentHTTP),
		timelineCache: cache.NewLRU[core.GroupedTimeline](opts.CacheSize, opts.CacheTTL),
		walletsCache:  cache.NewLRU[[]core.Wallet](4, opts.CacheTTL),
		janitor:       cache.NewJanitor(),
		limiter:       newRateLimiter(opts.RateLimit, time.Minute),
		defaultLocale: opts.DefaultLocale,
	}

	s.janitor.Register(s.timelineCache)
	s.janitor.Register(s.walletsCache)
	s.janitor.Register(s.limiter)
	s.janitor.Start(opts.CacheTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /api/wallets", s.handleListWallets)
	mux.HandleFunc("GET /api/wallets/{id}", s.handleGetWallet)
	mux.HandleFunc("GET /api/wallets/{id}/timeline", s.handleWalletTimeline)
	mux.HandleFunc("POST /api/wallets/{id}/export", s.handleExportWallet)
	mux.HandleFunc("GET /api/transactions/timeline", s.handleTransactionsTimeline)

	s.Server = http.Server{
		Addr:           addr,
		Handler:        trace.Middleware(s.limiter.middleware(mux)),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 16,
	}
	return s
}

// Shutdown stops background cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.janitor.Stop()
	return s.Server.Shutdown(ctx)
}
