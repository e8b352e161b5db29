package http

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	tm := s.tracer.GetMetrics()
	lm := s.limiter.GetMetrics()
	dm := s.detector.GetMetrics()

	var b strings.Builder
	metric := func(name string, value int64) {
		fmt.Fprintf(&b, "%s %d\n", name, value)
	}
	metric("mstore_uptime_seconds", int64(time.Since(s.started).Seconds()))
	metric("mstore_http_requests_total", tm.TotalRequests)
	metric("mstore_http_response_time_avg_microseconds", tm.AverageResponseTime)
	metric("mstore_rate_limit_hits_total", lm.TotalHits)
	metric("mstore_rate_limit_clients", lm.ClientCount)
	metric("mstore_suspicious_requests_total", dm.SuspiciousRequests)
	metric("mstore_records_added_total", atomic.LoadInt64(&s.recordsAdded))
	metric("mstore_records_deleted_total", atomic.LoadInt64(&s.recordsDeleted))
	metric("mstore_exports_total", atomic.LoadInt64(&s.exports))

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_, _ = w.Write([]byte(b.String()))
}
