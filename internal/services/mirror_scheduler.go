package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	applog "mstore/internal/log"
)

// Mirrorer copies the persisted ledgers somewhere else.
type Mirrorer interface {
	MirrorAll(ctx context.Context) error
}

// MirrorSchedulerConfig holds configuration for the mirror scheduler.
type MirrorSchedulerConfig struct {
	// Interval between full mirrors (default: 5m). Messages may trigger
	// mirrors in between; the ticker catches anything they missed.
	Interval time.Duration
}

func DefaultMirrorSchedulerConfig() MirrorSchedulerConfig {
	return MirrorSchedulerConfig{Interval: 5 * time.Minute}
}

// MirrorScheduler runs a Mirrorer at startup and then periodically.
type MirrorScheduler struct {
	mirror Mirrorer
	config MirrorSchedulerConfig
	logger *applog.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	runs    int
	fails   int
}

func NewMirrorScheduler(m Mirrorer, config MirrorSchedulerConfig, logger *applog.Logger) *MirrorScheduler {
	if logger == nil {
		logger = applog.FromSlog(nil, applog.ComponentWorker)
	}
	return &MirrorScheduler{mirror: m, config: config, logger: logger}
}

// Start begins the loop. Returns an error if already running.
func (s *MirrorScheduler) Start(ctx context.Context) error {
	if s.config.Interval <= 0 {
		return fmt.Errorf("mirror interval must be positive, got %s", s.config.Interval)
	}
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("mirror scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	s.logger.InfoContext(ctx, "Mirror scheduler started", "interval", s.config.Interval)
	return nil
}

// Stop ends the loop and waits for an in-flight mirror to finish.
func (s *MirrorScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.running = false
	s.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		s.logger.InfoContext(ctx, "Mirror scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.WarnContext(ctx, "Mirror scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *MirrorScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Runs reports how many mirrors were attempted and how many failed.
func (s *MirrorScheduler) Runs() (total, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.fails
}

func (s *MirrorScheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.runOnce(ctx)
	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *MirrorScheduler) runOnce(ctx context.Context) {
	err := s.mirror.MirrorAll(ctx)

	s.mu.Lock()
	s.runs++
	if err != nil {
		s.fails++
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.ErrorContext(ctx, "Scheduled mirror failed",
			applog.FieldOperation, applog.OpMirror,
			"error", err)
	}
}
