package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/tracereplay/internal/domain/activity"
	"github.com/rpggio/tracereplay/internal/domain/replay"
	"github.com/rpggio/tracereplay/internal/domain/scan"
	"github.com/rpggio/tracereplay/internal/report"
	"github.com/rpggio/tracereplay/internal/trace"
)

// Service owns the replay sessions of every tenant.
type Service struct {
	source   ArtifactSource
	activity ActivityLog
	cfg      Config
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[Key]*replaySession
}

type replaySession struct {
	key       Key
	driver    *replay.Driver
	scans     *scan.Service
	createdAt time.Time
	loadOnce  sync.Once

	mu           sync.Mutex
	trace        string
	traces       []string
	runID        *string
	scanID       string
	report       *report.Preview
	lastActivity time.Time
	// settled is closed once the current background run has finished.
	settled chan struct{}
	closed  bool
}

func (r *replaySession) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *replaySession) currentRunID() *string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runID == nil {
		return nil
	}
	id := *r.runID
	return &id
}

func (r *replaySession) touch() {
	r.mu.Lock()
	r.lastActivity = time.Now().UTC()
	r.mu.Unlock()
}

// NewService creates a new session service.
func NewService(source ArtifactSource, log ActivityLog, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		source:   source,
		activity: log,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		sessions: make(map[Key]*replaySession),
	}
}

// NewSessionID generates an identifier for a new session.
func NewSessionID() string {
	return "sess_" + uuid.NewString()
}

// Open returns the session's state, creating the session and loading the
// default trace on first use.
func (s *Service) Open(ctx context.Context, tenantID, sessionID string) (Snapshot, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, sess), nil
}

// ListSessions lists a tenant's live sessions ordered by creation.
func (s *Service) ListSessions(_ context.Context, tenantID string) []SessionInfo {
	s.mu.Lock()
	var owned []*replaySession
	for key, sess := range s.sessions {
		if key.TenantID == tenantID {
			owned = append(owned, sess)
		}
	}
	s.mu.Unlock()

	infos := make([]SessionInfo, 0, len(owned))
	for _, sess := range owned {
		sess.mu.Lock()
		infos = append(infos, SessionInfo{
			SessionID:    sess.key.SessionID,
			Trace:        sess.trace,
			CreatedAt:    sess.createdAt,
			LastActivity: sess.lastActivity,
		})
		sess.mu.Unlock()
		infos[len(infos)-1].State = sess.driver.State()
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].SessionID < infos[j].SessionID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// ListTraces refreshes and returns the available trace names. A missing or
// empty manifest yields the default trace alone.
func (s *Service) ListTraces(ctx context.Context, tenantID, sessionID string) ([]string, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	names, err := s.source.Manifest(ctx)
	if err != nil || len(names) == 0 {
		if err != nil {
			s.logger.Debug("manifest unavailable", "error", err)
		}
		names = []string{s.cfg.DefaultTrace}
	}
	sess.mu.Lock()
	sess.traces = slices.Clone(names)
	sess.mu.Unlock()
	return names, nil
}

// SelectTrace loads a trace and resets the replay onto it.
func (s *Service) SelectTrace(ctx context.Context, tenantID, sessionID, name string) (Outcome, error) {
	if strings.TrimSpace(name) == "" {
		return Outcome{}, fmt.Errorf("%w: trace name is required", ErrInvalidInput)
	}
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	if sess.driver.Busy() {
		return s.outcome(ctx, sess, false), nil
	}
	accepted, err := s.loadTrace(ctx, sess, name)
	if err != nil {
		return Outcome{}, err
	}
	return s.outcome(ctx, sess, accepted), nil
}

// RunAll replays every pulse of the selected trace. With wait it returns once
// the run settles; otherwise it returns as soon as the run has started.
func (s *Service) RunAll(ctx context.Context, tenantID, sessionID string, wait bool) (Outcome, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	if sess.driver.Busy() {
		return s.outcome(ctx, sess, false), nil
	}

	sess.mu.Lock()
	prevRunID := sess.runID
	runID := strings.TrimSuffix(sess.trace, ".json")
	sess.runID = &runID
	sess.mu.Unlock()

	restore := func() {
		sess.mu.Lock()
		sess.runID = prevRunID
		sess.mu.Unlock()
	}

	if wait {
		started, err := sess.driver.RunAll(ctx)
		if !started {
			restore()
			return s.outcome(ctx, sess, false), nil
		}
		if err != nil {
			return s.outcome(context.WithoutCancel(ctx), sess, true), fmt.Errorf("running replay: %w", err)
		}
		return s.outcome(ctx, sess, true), nil
	}

	done, started := sess.driver.Start(context.WithoutCancel(ctx))
	if !started {
		restore()
		return s.outcome(ctx, sess, false), nil
	}
	settled := make(chan struct{})
	sess.mu.Lock()
	sess.settled = settled
	sess.mu.Unlock()
	go func() {
		defer close(settled)
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("replay run failed", "session_id", sess.key.SessionID, "error", err)
		}
	}()
	return s.outcome(ctx, sess, true), nil
}

// RunPulse merges the next pulse.
func (s *Service) RunPulse(ctx context.Context, tenantID, sessionID string) (Outcome, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	return s.outcome(ctx, sess, sess.driver.RunPulse(ctx)), nil
}

// Activate marks the workflow active without replaying anything.
func (s *Service) Activate(ctx context.Context, tenantID, sessionID string) (Outcome, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	if !sess.driver.Activate(ctx) {
		return s.outcome(ctx, sess, false), nil
	}
	runID := ManualActivationRunID
	sess.mu.Lock()
	sess.runID = &runID
	sess.mu.Unlock()
	s.record(ctx, sess, activity.ActivityEntry{
		ActivityType: activity.TypeWorkflowActivated,
		Summary:      "Workflow activated.",
	})
	return s.outcome(ctx, sess, true), nil
}

// Reset clears the replay, the scan and the report.
func (s *Service) Reset(ctx context.Context, tenantID, sessionID string) (Outcome, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return Outcome{}, err
	}

	// The reset line must not carry the finished run's id.
	sess.mu.Lock()
	prevRunID := sess.runID
	sess.runID = nil
	sess.mu.Unlock()

	if !sess.driver.Reset(ctx) {
		sess.mu.Lock()
		sess.runID = prevRunID
		sess.mu.Unlock()
		return s.outcome(ctx, sess, false), nil
	}

	sess.mu.Lock()
	scanID := sess.scanID
	sess.scanID = ""
	sess.report = nil
	sess.mu.Unlock()
	if scanID != "" {
		sess.scans.Discard(scanID)
	}
	return s.outcome(ctx, sess, true), nil
}

// Cancel stops an in-flight RunAll before its next pulse.
func (s *Service) Cancel(ctx context.Context, tenantID, sessionID string) (Snapshot, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	sess.driver.Cancel()
	return s.snapshot(ctx, sess), nil
}

// View returns the session's current state.
func (s *Service) View(ctx context.Context, tenantID, sessionID string) (Snapshot, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, sess), nil
}

// StartScan starts the canned scan against target.
func (s *Service) StartScan(ctx context.Context, tenantID, sessionID, target string) (scan.Scan, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return scan.Scan{}, err
	}

	sess.mu.Lock()
	previous := sess.scanID
	sess.mu.Unlock()
	if previous != "" {
		sess.scans.Discard(previous)
	}

	s.record(ctx, sess, activity.ActivityEntry{
		ActivityType: activity.TypeScanStarted,
		Summary:      "DeFi Scanner (Static) initiated...",
	})
	sc, err := sess.scans.Start(ctx, target)
	if err != nil {
		return scan.Scan{}, fmt.Errorf("starting scan: %w", err)
	}

	sess.mu.Lock()
	sess.scanID = sc.ID
	sess.report = nil
	sess.mu.Unlock()

	// A zero-delay scan has already completed by now.
	if current, err := sess.scans.Get(ctx, sc.ID); err == nil {
		return current, nil
	}
	return sc, nil
}

// GetScan returns a scan by id, or the session's current scan when id is empty.
func (s *Service) GetScan(ctx context.Context, tenantID, sessionID, scanID string) (scan.Scan, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return scan.Scan{}, err
	}
	if scanID == "" {
		sess.mu.Lock()
		scanID = sess.scanID
		sess.mu.Unlock()
	}
	if scanID == "" {
		return scan.Scan{}, fmt.Errorf("%w: no scan started", scan.ErrScanNotFound)
	}
	return sess.scans.Get(ctx, scanID)
}

// BuildReport loads the security report once the session's scan completed.
func (s *Service) BuildReport(ctx context.Context, tenantID, sessionID string) (report.Preview, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return report.Preview{}, err
	}

	sess.mu.Lock()
	scanID := sess.scanID
	sess.mu.Unlock()
	if scanID == "" {
		return report.Preview{}, ErrScanIncomplete
	}
	sc, err := sess.scans.Get(ctx, scanID)
	if err != nil {
		return report.Preview{}, err
	}
	if !sc.Completed() {
		return report.Preview{}, ErrScanIncomplete
	}

	raw, err := s.source.Report(ctx)
	if err != nil {
		summary := "Error loading report."
		if errors.Is(err, trace.ErrNotFound) {
			summary = "Error: Report artifact missing."
		}
		s.record(ctx, sess, activity.ActivityEntry{ActivityType: activity.TypeError, Summary: summary})
		return report.Preview{}, fmt.Errorf("%w: %v", report.ErrReportUnavailable, err)
	}

	preview := report.Build(raw)
	sess.mu.Lock()
	sess.report = &preview
	sess.mu.Unlock()
	s.record(ctx, sess, activity.ActivityEntry{
		ActivityType: activity.TypeReportGenerated,
		Summary:      "Report generated from verified ledger.",
	})
	return preview, nil
}

// Report returns the last built report.
func (s *Service) Report(ctx context.Context, tenantID, sessionID string) (report.Preview, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return report.Preview{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.report == nil {
		return report.Preview{}, report.ErrReportUnavailable
	}
	return *sess.report, nil
}

// Activity lists the session's most recent activity, newest first.
func (s *Service) Activity(ctx context.Context, tenantID, sessionID string, limit int) ([]activity.ActivityEntry, error) {
	sess, err := s.session(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.activity.GetRecentActivity(ctx, tenantID, activity.ListActivityOptions{
		SessionID: sess.key.SessionID,
		Limit:     limit,
	})
}

// Close stops a session's work, waits for a background run to settle,
// forgets the session and drops its activity.
func (s *Service) Close(ctx context.Context, tenantID, sessionID string) error {
	key := Key{TenantID: tenantID, SessionID: normalizeSessionID(sessionID)}
	s.mu.Lock()
	sess, ok := s.sessions[key]
	delete(s.sessions, key)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	sess.mu.Lock()
	sess.closed = true
	settled := sess.settled
	sess.mu.Unlock()

	sess.driver.Cancel()
	sess.scans.Close()
	if settled != nil {
		select {
		case <-settled:
		case <-ctx.Done():
			return fmt.Errorf("closing session: %w", ctx.Err())
		}
	}
	if err := s.activity.ClearSession(ctx, tenantID, key.SessionID); err != nil {
		return fmt.Errorf("closing session: %w", err)
	}
	s.logger.Info("session closed", "tenant_id", tenantID, "session_id", key.SessionID)
	return nil
}

// Shutdown cancels every in-flight run and pending scan.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.driver.Cancel()
		sess.scans.Close()
	}
}

func (s *Service) session(ctx context.Context, tenantID, sessionID string) (*replaySession, error) {
	if tenantID == "" {
		return nil, fmt.Errorf("%w: tenant is required", ErrInvalidInput)
	}
	key := Key{TenantID: tenantID, SessionID: normalizeSessionID(sessionID)}

	s.mu.Lock()
	sess, ok := s.sessions[key]
	if !ok {
		sess = s.newSession(key)
		s.sessions[key] = sess
	}
	s.mu.Unlock()

	sess.loadOnce.Do(func() {
		if _, err := s.loadTrace(ctx, sess, s.cfg.DefaultTrace); err != nil {
			s.logger.Warn("default trace unavailable", "session_id", key.SessionID, "error", err)
			s.record(ctx, sess, activity.ActivityEntry{
				ActivityType: activity.TypeError,
				Summary:      "Error: Could not load replay artifacts.",
			})
		}
	})
	sess.touch()
	return sess, nil
}

func (s *Service) newSession(key Key) *replaySession {
	now := time.Now().UTC()
	sess := &replaySession{
		key:          key,
		createdAt:    now,
		lastActivity: now,
		traces:       []string{s.cfg.DefaultTrace},
	}

	var pacer replay.Pacer = replay.NoPacing{}
	if s.cfg.StepPause > 0 {
		pacer = replay.NewRatePacer(s.cfg.StepPause)
	}
	logger := s.logger.With("tenant_id", key.TenantID, "session_id", key.SessionID)
	sess.driver = replay.NewDriver(s.cfg.TotalPulses,
		replay.WithPacer(pacer),
		replay.WithLogger(logger),
		replay.WithObserver(s.journal(sess)),
	)
	sess.scans = scan.NewService(
		scan.WithDelay(s.cfg.ScanDelay),
		scan.WithLogger(logger),
		scan.WithCompletionHook(func(ctx context.Context, sc scan.Scan) {
			s.record(ctx, sess, activity.ActivityEntry{
				ActivityType: activity.TypeScanCompleted,
				Summary:      "Scan complete.",
			})
		}),
	)
	s.logger.Info("session opened", "tenant_id", key.TenantID, "session_id", key.SessionID)
	return sess
}

func (s *Service) loadTrace(ctx context.Context, sess *replaySession, name string) (bool, error) {
	bundle, err := trace.LoadBundle(ctx, s.source, name)
	switch {
	case errors.Is(err, trace.ErrInvalidName):
		return false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case errors.Is(err, trace.ErrNotFound):
		return false, fmt.Errorf("%w: %s", ErrTraceNotFound, name)
	case err != nil:
		return false, fmt.Errorf("loading trace: %w", err)
	}

	if !sess.driver.Load(ctx, bundle.Events) {
		return false, nil
	}

	sess.mu.Lock()
	sess.trace = bundle.Name
	sess.traces = bundle.Traces
	sess.runID = nil
	sess.mu.Unlock()

	s.record(ctx, sess, activity.ActivityEntry{
		ActivityType: activity.TypeTraceActivated,
		Summary:      fmt.Sprintf("Activated Trace: %s (%d events)", bundle.Name, len(bundle.Events)),
	})
	return true, nil
}

func (s *Service) snapshot(ctx context.Context, sess *replaySession) Snapshot {
	view := sess.driver.View()

	sess.mu.Lock()
	snap := Snapshot{
		SessionID:   sess.key.SessionID,
		Trace:       sess.trace,
		Traces:      slices.Clone(sess.traces),
		View:        view,
		ReportReady: sess.report != nil,
	}
	if sess.runID != nil {
		id := *sess.runID
		snap.RunID = &id
	}
	scanID := sess.scanID
	sess.mu.Unlock()

	if scanID != "" {
		if sc, err := sess.scans.Get(ctx, scanID); err == nil {
			snap.Scan = &sc
		}
	}
	return snap
}

func (s *Service) outcome(ctx context.Context, sess *replaySession, accepted bool) Outcome {
	return Outcome{Accepted: accepted, Snapshot: s.snapshot(ctx, sess)}
}

func normalizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultSessionID
	}
	return id
}
