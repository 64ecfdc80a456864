package replay

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/rpggio/tracereplay/internal/domain/event"
	"github.com/rpggio/tracereplay/internal/domain/pulse"
	"github.com/rpggio/tracereplay/internal/domain/views"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/rpggio/tracereplay/internal/domain/replay"

// Observer receives a notification after every driver mutation. Observers run
// on the driver's goroutine while the busy flag is held.
type Observer func(ctx context.Context, n Notification)

// Option configures a Driver.
type Option func(*Driver)

// WithPacer sets the pacing policy used between RunAll steps.
func WithPacer(p Pacer) Option {
	return func(d *Driver) { d.pacer = p }
}

// WithLogger sets the driver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) { d.logger = logger }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(d *Driver) { d.observers = append(d.observers, o) }
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(d *Driver) { d.tracer = tp.Tracer(instrumentationName) }
}

// Driver steps through the pulses of a candidate event set, merging each
// pulse into the event store. At most one operation runs at a time; calls
// made while busy are ignored and report false.
type Driver struct {
	store   *event.Store
	tracker *pulse.Tracker
	pacer   Pacer
	logger  *slog.Logger
	tracer  trace.Tracer
	merged  metric.Int64Counter

	mu         sync.Mutex
	busy       bool
	state      State
	candidates []event.Event
	cancel     context.CancelFunc
	observers  []Observer
}

// NewDriver creates a driver for a workflow of total pulses.
func NewDriver(total int, opts ...Option) *Driver {
	d := &Driver{
		store:   event.NewStore(),
		tracker: pulse.NewTracker(total),
		pacer:   NoPacing{},
		tracer:  otel.Tracer(instrumentationName),
		state:   StateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter(
		"replay.events.merged",
		metric.WithDescription("Events accepted into the replay event store"),
	)
	if err != nil {
		d.logger.Warn("replay metrics unavailable", "error", err)
	}
	d.merged = counter
	return d
}

// Total returns the pulse count.
func (d *Driver) Total() int {
	return d.tracker.Total()
}

// Store exposes the event store for read access.
func (d *Driver) Store() *event.Store {
	return d.store
}

// Busy reports whether an operation is in flight.
func (d *Driver) Busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.busy
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Load replaces the candidate event set and resets the replay.
func (d *Driver) Load(ctx context.Context, candidates []event.Event) bool {
	if _, ok := d.acquire(); !ok {
		return false
	}
	defer d.release(StateIdle)

	d.mu.Lock()
	d.candidates = slices.Clone(candidates)
	d.mu.Unlock()

	d.store.Clear()
	proj := d.tracker.Reset()
	d.notify(ctx, Notification{Kind: KindLoaded, Projection: proj, Candidates: len(candidates)})
	return true
}

// Activate marks the workflow active without running a pulse.
func (d *Driver) Activate(ctx context.Context) bool {
	final, ok := d.acquire()
	if !ok {
		return false
	}
	defer func() { d.release(final) }()

	proj := d.tracker.Activate()
	d.notify(ctx, Notification{Kind: KindActivated, Projection: proj})
	return true
}

// RunPulse merges the next pulse. It does nothing once every pulse has run.
func (d *Driver) RunPulse(ctx context.Context) bool {
	final, ok := d.acquire()
	if !ok {
		return false
	}
	defer func() { d.release(final) }()

	next := d.tracker.Index() + 1
	if next > d.tracker.Total() {
		d.logger.Debug("pulse request ignored", "pulse", next, "total", d.tracker.Total())
		return false
	}

	d.step(ctx, next)
	final = d.settledState()
	return true
}

// Step is RunPulse for callers that drive pacing from their own ticker.
func (d *Driver) Step(ctx context.Context) bool {
	return d.RunPulse(ctx)
}

// RunAll clears the log and replays every pulse in order, pausing between
// steps according to the pacer. Cancelling ctx, or calling Cancel, stops the
// run between steps; the log then holds exactly the pulses already merged.
// It reports false when another operation was already running.
func (d *Driver) RunAll(ctx context.Context) (bool, error) {
	if _, ok := d.acquire(); !ok {
		return false, nil
	}
	return true, d.runAll(ctx)
}

// Start is RunAll in the background. The busy flag is taken before Start
// returns; the channel receives the run's result once it settles.
func (d *Driver) Start(ctx context.Context) (<-chan error, bool) {
	if _, ok := d.acquire(); !ok {
		return nil, false
	}
	done := make(chan error, 1)
	go func() { done <- d.runAll(ctx) }()
	return done, true
}

func (d *Driver) runAll(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	final := StateIdle
	defer func() {
		cancel()
		d.mu.Lock()
		d.cancel = nil
		d.mu.Unlock()
		d.release(final)
	}()

	runCtx, span := d.tracer.Start(runCtx, "replay.run_all",
		trace.WithAttributes(attribute.Int("replay.total", d.tracker.Total())))
	defer span.End()

	d.store.Clear()
	d.tracker.Reset()

	for i := 1; i <= d.tracker.Total(); i++ {
		if err := d.pacer.Wait(runCtx); err != nil {
			return d.abort(ctx, i-1, err)
		}
		if err := runCtx.Err(); err != nil {
			return d.abort(ctx, i-1, err)
		}
		d.step(runCtx, i)
	}

	final = StateCompleted
	d.notify(ctx, Notification{Kind: KindRunCompleted, Pulse: d.tracker.Index(), Projection: d.tracker.Projection()})
	return nil
}

// Cancel aborts an in-flight RunAll before its next step.
func (d *Driver) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
}

// Reset clears the log and restores the initial projection. It is ignored
// while another operation runs.
func (d *Driver) Reset(ctx context.Context) bool {
	if _, ok := d.acquire(); !ok {
		return false
	}
	defer d.release(StateIdle)

	d.store.Clear()
	proj := d.tracker.Reset()
	d.notify(ctx, Notification{Kind: KindReset, Projection: proj})
	return true
}

// View recomputes the presentation projections from the current snapshot.
func (d *Driver) View() View {
	d.mu.Lock()
	state, busy, candidates := d.state, d.busy, len(d.candidates)
	d.mu.Unlock()

	events := d.store.Snapshot()
	return View{
		State:      state,
		Busy:       busy,
		PulseIndex: d.tracker.Index(),
		Candidates: candidates,
		Projection: d.tracker.Projection(),
		Events:     events,
		Graph:      views.BuildActorGraph(events),
		Governance: views.GovernanceFeed(events),
		Timeline:   views.GroupTimeline(events),
	}
}

func (d *Driver) step(ctx context.Context, index int) {
	ctx, span := d.tracer.Start(ctx, "replay.pulse",
		trace.WithAttributes(attribute.Int("replay.pulse", index)))
	defer span.End()

	d.mu.Lock()
	batch := pulse.Select(d.candidates, index)
	d.mu.Unlock()

	result := d.store.Merge(batch)
	proj, err := d.tracker.Advance(index)
	if err != nil {
		d.logger.Warn("pulse advance rejected", "pulse", index, "error", err)
		return
	}

	span.SetAttributes(
		attribute.Int("replay.batch", len(batch)),
		attribute.Int("replay.accepted", len(result.Accepted)),
	)
	if d.merged != nil {
		d.merged.Add(ctx, int64(len(result.Accepted)), metric.WithAttributes(attribute.Int("replay.pulse", index)))
	}
	if result.Malformed > 0 {
		d.logger.Debug("events with unparseable timestamps ordered as epoch", "pulse", index, "count", result.Malformed)
	}
	d.logger.Debug("pulse merged", "pulse", index, "batch", len(batch), "accepted", len(result.Accepted), "progress", proj.TaskSummary.Progress)

	d.notify(ctx, Notification{
		Kind:       KindPulse,
		Pulse:      index,
		Batch:      batch,
		Merged:     result,
		Projection: proj,
	})
}

func (d *Driver) abort(ctx context.Context, reached int, cause error) error {
	d.logger.Info("replay run aborted", "pulse", reached, "error", cause)
	d.notify(context.WithoutCancel(ctx), Notification{Kind: KindRunAborted, Pulse: reached, Projection: d.tracker.Projection()})
	return cause
}

func (d *Driver) settledState() State {
	if d.tracker.Index() >= d.tracker.Total() {
		return StateCompleted
	}
	return StateIdle
}

// acquire takes the busy flag and returns the state it replaced.
func (d *Driver) acquire() (State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.busy {
		return d.state, false
	}
	prev := d.state
	d.busy = true
	d.state = StateRunning
	d.tracker.SetRunning(true)
	return prev, true
}

func (d *Driver) release(state State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.busy = false
	d.state = state
	d.tracker.SetRunning(false)
}

func (d *Driver) notify(ctx context.Context, n Notification) {
	d.mu.Lock()
	observers := slices.Clone(d.observers)
	d.mu.Unlock()
	for _, o := range observers {
		o(ctx, n)
	}
}

// Subscribe registers an observer after construction.
func (d *Driver) Subscribe(o Observer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, o)
}
