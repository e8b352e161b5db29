package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingMirror struct {
	calls atomic.Int32
	err   error
}

func (m *countingMirror) MirrorAll(context.Context) error {
	m.calls.Add(1)
	return m.err
}

func TestDefaultMirrorSchedulerConfig(t *testing.T) {
	if got := DefaultMirrorSchedulerConfig().Interval; got != 5*time.Minute {
		t.Errorf("expected Interval 5m, got %v", got)
	}
}

func TestMirrorSchedulerRunsAtStartup(t *testing.T) {
	m := &countingMirror{}
	s := NewMirrorScheduler(m, MirrorSchedulerConfig{Interval: time.Hour}, nil)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.IsRunning() {
		t.Error("scheduler should be running")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error when starting twice")
	}

	deadline := time.Now().Add(2 * time.Second)
	for m.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if m.calls.Load() != 1 {
		t.Errorf("mirror calls = %d, want 1", m.calls.Load())
	}
	if s.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}

func TestMirrorSchedulerTicks(t *testing.T) {
	m := &countingMirror{err: errors.New("sheets down")}
	s := NewMirrorScheduler(m, MirrorSchedulerConfig{Interval: 10 * time.Millisecond}, nil)
	ctx := context.Background()

	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for m.calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	_ = s.Stop(ctx)

	total, failed := s.Runs()
	if total < 3 || failed != total {
		t.Errorf("runs = %d, failed = %d", total, failed)
	}
}

func TestMirrorSchedulerStopNotRunning(t *testing.T) {
	s := NewMirrorScheduler(&countingMirror{}, DefaultMirrorSchedulerConfig(), nil)
	if err := s.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestMirrorSchedulerRejectsZeroInterval(t *testing.T) {
	s := NewMirrorScheduler(&countingMirror{}, MirrorSchedulerConfig{}, nil)
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected error for zero interval")
	}
}
