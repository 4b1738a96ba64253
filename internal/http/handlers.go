package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Data(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if s.db == nil {
		checks["database"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.db.Ping(ctx); err != nil {
		checks["database"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	if s.exporter == nil {
		checks["exporter"] = "not_configured"
	} else {
		checks["exporter"] = "ok"
	}
	checks["calendar_cache"] = fmt.Sprintf("ok (%d entries)", s.calendarCache.Size())

	NewJSONResponse().
		Status(httpStatus).
		Data(map[string]any{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    checks,
		}).
		Write(w)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter("http_server_errors_total", "Total number of 5xx responses", traceMetrics.ServerErrors)
	counter("payments_created_total", "Total number of payments created", atomic.LoadInt64(&s.appMetrics.paymentsCreated))
	counter("schedule_exports_total", "Total number of schedule exports", atomic.LoadInt64(&s.appMetrics.exports))
	counter("cache_hits_total", "Total calendar cache hits", atomic.LoadInt64(&s.appMetrics.cacheHits))
	counter("cache_misses_total", "Total calendar cache misses", atomic.LoadInt64(&s.appMetrics.cacheMisses))
	gauge("cache_entries", "Current calendar cache entries", int64(s.calendarCache.Size()))
	counter("rate_limit_hits_total", "Total rate limit hits", rateLimitMetrics.TotalHits)
	gauge("active_rate_limit_clients", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	counter("suspicious_requests_total", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	counter("invalid_forwarded_ip_total", "Forwarded client IPs that failed validation", securityMetrics.InvalidIPAttempts)
	gauge("uptime_seconds", "Application uptime in seconds", int64(time.Since(s.appMetrics.uptime).Seconds()))
}
