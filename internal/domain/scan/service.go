package scan

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Service starts and tracks canned scans.
type Service struct {
	delay      time.Duration
	logger     *slog.Logger
	onComplete func(ctx context.Context, sc Scan)

	mu     sync.Mutex
	scans  map[string]*Scan
	timers map[string]*time.Timer
}

// NewService creates a new scan service.
func NewService(opts ...Option) *Service {
	s := &Service{
		delay:  DefaultDelay,
		scans:  make(map[string]*Scan),
		timers: make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	return s
}

// Start begins a scan of target and returns it in the scanning state.
func (s *Service) Start(ctx context.Context, target string) (Scan, error) {
	if err := ctx.Err(); err != nil {
		return Scan{}, err
	}
	sc := &Scan{
		ID:        "scan_" + uuid.NewString(),
		Target:    target,
		Status:    StatusScanning,
		Findings:  []Finding{},
		StartedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.scans[sc.ID] = sc
	started := clone(sc)
	if s.delay > 0 {
		id := sc.ID
		hookCtx := context.WithoutCancel(ctx)
		s.timers[id] = time.AfterFunc(s.delay, func() { s.complete(hookCtx, id) })
	}
	s.mu.Unlock()

	s.logger.Info("scan started", "scan_id", sc.ID, "target", target)
	if s.delay <= 0 {
		s.complete(ctx, sc.ID)
	}
	return started, nil
}

// Get returns the scan with id.
func (s *Service) Get(_ context.Context, id string) (Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scans[id]
	if !ok {
		return Scan{}, fmt.Errorf("%w: %s", ErrScanNotFound, id)
	}
	return clone(sc), nil
}

// Discard forgets a scan, stopping it if it is still running.
func (s *Service) Discard(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[id]; ok {
		t.Stop()
		delete(s.timers, id)
	}
	delete(s.scans, id)
}

// Close stops every pending scan timer.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

func (s *Service) complete(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.timers, id)
	sc, ok := s.scans[id]
	if !ok || sc.Status == StatusCompleted {
		s.mu.Unlock()
		return
	}
	now := time.Now().UTC()
	sc.Status = StatusCompleted
	sc.Findings = cannedFindings()
	sc.CompletedAt = &now
	done := clone(sc)
	s.mu.Unlock()

	s.logger.Info("scan completed", "scan_id", id, "findings", len(done.Findings))
	if s.onComplete != nil {
		s.onComplete(ctx, done)
	}
}

func clone(sc *Scan) Scan {
	out := *sc
	out.Findings = slices.Clone(sc.Findings)
	if sc.CompletedAt != nil {
		t := *sc.CompletedAt
		out.CompletedAt = &t
	}
	return out
}
