package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"paycal/internal/cache"
	"paycal/internal/log"
	"paycal/internal/middleware/ratelimit"
	"paycal/internal/middleware/security"
	"paycal/internal/middleware/trace"
	"paycal/internal/services"
	"paycal/internal/sheets"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the server settings taken from the environment.
type Config struct {
	Addr               string
	RateLimitPerMinute int
	CacheTTL           time.Duration
	CacheSize          int
	// CleanupInterval drives cache expiry sweeps; zero means one minute.
	CleanupInterval time.Duration
}

type appMetrics struct {
	paymentsCreated int64
	cacheHits       int64
	cacheMisses     int64
	exports         int64
	uptime          time.Time
}

type Server struct {
	http.Server
	payments *services.PaymentService
	exporter sheets.ScheduleExporter
	db       Pinger
	logger   *log.Logger

	calendarCache *cache.LRUCache[calendarResponse]
	cacheManager  *cache.Manager

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
// The cache cleanup and rate limiter goroutines run until Shutdown.
func NewServer(cfg Config, payments *services.PaymentService, exporter sheets.ScheduleExporter, db Pinger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 128
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	detector := security.NewDetector(logger)
	s := &Server{
		payments:         payments,
		exporter:         exporter,
		db:               db,
		logger:           logger.WithComponent(log.ComponentHTTP),
		calendarCache:    cache.NewLRUCache[calendarResponse](cfg.CacheSize, cfg.CacheTTL),
		cacheManager:     cache.NewManager(logger),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		securityDetector: detector,
		traceMiddleware:  trace.NewMiddleware(logger, detector.ExtractClientIP),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.cacheManager.Register(s.calendarCache)
	s.cacheManager.StartCleanup(cfg.CleanupInterval)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, ratelimit.MutatingOnly, s.onRateLimit)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/fixed-payments", s.handleListFixed)
	mux.HandleFunc("POST /api/fixed-payments", s.handleCreateFixed)
	mux.HandleFunc("GET /api/fixed-payments/total-monthly", s.handleFixedTotal)
	mux.HandleFunc("GET /api/fixed-payments/{id}", s.handleGetFixed)
	mux.HandleFunc("PUT /api/fixed-payments/{id}", s.handleUpdateFixed)
	mux.HandleFunc("DELETE /api/fixed-payments/{id}", s.handleDeleteFixed)
	mux.HandleFunc("POST /api/fixed-payments/{id}/paid", s.handleMarkFixedPaid)

	mux.HandleFunc("GET /api/installment-payments", s.handleListInstallments)
	mux.HandleFunc("POST /api/installment-payments", s.handleCreateInstallment)
	mux.HandleFunc("GET /api/installment-payments/summary", s.handleInstallmentSummary)
	mux.HandleFunc("GET /api/installment-payments/{id}", s.handleGetInstallment)
	mux.HandleFunc("PUT /api/installment-payments/{id}", s.handleUpdateInstallment)
	mux.HandleFunc("GET /api/installment-payments/{id}/history", s.handleInstallmentHistory)
	mux.HandleFunc("DELETE /api/installment-payments/{id}", s.handleDeleteInstallment)
	mux.HandleFunc("POST /api/installment-payments/{id}/payment", s.handleRecordInstallment)

	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/calendar", s.handleCalendar)
	mux.HandleFunc("GET /api/payments", s.handlePayments)
	mux.HandleFunc("GET /api/payments/upcoming", s.handleUpcoming)
	mux.HandleFunc("GET /api/payments/overdue", s.handleOverdue)
	mux.HandleFunc("POST /api/reports/export", s.handleExport)
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

// invalidateViews drops cached views after a mutation.
func (s *Server) invalidateViews() {
	s.calendarCache.Purge()
}

func (s *Server) recordCache(hit bool) {
	if hit {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		return
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		s.logger.InfoContext(ctx, "HTTP server shutting down", log.FieldOperation, log.OpShutdown)
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
