package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mstore/internal/core"
	applog "mstore/internal/log"
	"mstore/internal/middleware/ratelimit"
	"mstore/internal/middleware/security"
	"mstore/internal/middleware/trace"
	"mstore/internal/report"
)

// Ledger is the ledger service surface the handlers use.
type Ledger interface {
	Today() string
	AddRecord(ctx context.Context, kind core.Kind, dateKey string, f core.Fields) (core.Record, error)
	DeleteRecord(ctx context.Context, kind core.Kind, dateKey string, index int) (core.Record, error)
	Records(kind core.Kind, dateKey string) ([]core.Record, error)
	Stats(kind core.Kind, p report.Period) (report.Stats, error)
	Profit(p report.Period) decimal.Decimal
	Dashboard() []report.DashboardRow
	Counterparties(kind core.Kind) ([]*report.CounterpartySummary, error)
	Month(kind core.Kind, year int, month time.Month) ([]report.Day, error)
	Export(kind core.Kind, p report.Period) (filename, body string, err error)
	ExportDashboard() (filename, body string)
	ExportCounterparties(kind core.Kind) (filename, body string, err error)
}

type Config struct {
	Addr              string
	RequestsPerMinute int
	// Ready reports whether dependencies are reachable; nil means always ready.
	Ready   func(context.Context) error
	Headers security.HeadersConfig
}

// Server is the HTTP API in front of a Ledger.
type Server struct {
	http.Server

	ledger   Ledger
	ready    func(context.Context) error
	logger   *applog.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	recordsAdded   int64
	recordsDeleted int64
	exports        int64

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, ledger Ledger, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.FromSlog(nil, applog.ComponentHTTP)
	}
	if cfg.Headers == (security.HeadersConfig{}) {
		cfg.Headers = security.DefaultHeadersConfig()
	}
	detector := security.NewDetector()

	s := &Server{
		ledger:   ledger,
		ready:    cfg.Ready,
		logger:   logger.WithComponent(applog.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RequestsPerMinute}),
		detector: detector,
		tracer:   trace.NewMiddleware(logger, detector.ExtractClientIP),
		started:  time.Now(),
	}

	mux := http.NewServeMux()
	limited := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/profit", s.handleProfit)
	mux.HandleFunc("GET /api/counterparties", s.handleCounterparties)
	mux.HandleFunc("GET /api/months/{year}/{month}", s.handleMonth)

	mux.HandleFunc("GET /api/{kind}/{date}", s.handleListRecords)
	mux.Handle("POST /api/{kind}", limited(http.HandlerFunc(s.handleAddRecord)))
	mux.Handle("POST /api/{kind}/{date}", limited(http.HandlerFunc(s.handleAddRecord)))
	mux.Handle("DELETE /api/{kind}/{date}/{index}", limited(http.HandlerFunc(s.handleDeleteRecord)))

	mux.HandleFunc("GET /export/dashboard", s.handleExportDashboard)
	mux.HandleFunc("GET /export/{kind}", s.handleExport)
	mux.HandleFunc("GET /export/{kind}/counterparties", s.handleExportCounterparties)

	var handler http.Handler = mux
	handler = detector.Middleware(s.logger)(handler)
	handler = security.NewHeadersMiddleware(cfg.Headers).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the limiter and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
