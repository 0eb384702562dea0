// Package syncengine drains unacknowledged orders to the server and
// prunes old acknowledged ones.
//
// The engine is a small state machine (idle -> syncing -> idle | error)
// with at-most-one sync cycle in flight. Re-entrant triggers are
// coalesced, not queued: triggering during a cycle is a no-op, and the
// orders that cycle misses are simply picked up by the next one.
package syncengine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/capverde/posagent/internal/netmon"
	"github.com/capverde/posagent/internal/order"
	"github.com/capverde/posagent/internal/store"
)

// State is the sync engine's externally visible state.
type State int32

const (
	// StateIdle means no cycle is running and the last one (if any)
	// made progress.
	StateIdle State = iota

	// StateSyncing means a cycle is currently draining orders.
	StateSyncing

	// StateError means the last cycle failed catastrophically: the
	// storage layer failed, or a nonempty batch had zero successful
	// upserts. It is not terminal - the next trigger recovers.
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSyncing:
		return "syncing"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Uploader performs the idempotent server upsert for one order.
// The server must treat resubmission of the same identifier as a no-op
// success. Implemented by HTTPUploader (production) and fakes (tests).
type Uploader interface {
	Upsert(ctx context.Context, o order.Order) error
}

// Defaults mirror the reference deployment.
const (
	// DefaultDebounce is how long a regained link must hold before a
	// sync is attempted. A just-regained link may flap.
	DefaultDebounce = 2 * time.Second

	// DefaultInterval is the periodic sync trigger.
	DefaultInterval = 5 * time.Minute

	// DefaultSweepInterval is how often the retention sweep runs.
	DefaultSweepInterval = time.Hour

	// DefaultRetention is how long acknowledged orders are kept.
	DefaultRetention = 7 * 24 * time.Hour
)

// Engine drains unacknowledged orders to the server.
//
// Thread-safety model:
//   - Run(): must be called from exactly one goroutine
//   - TriggerSync(), State(): safe from any goroutine
//   - RunCycle(), RunSweep(): safe from any goroutine; concurrent
//     cycles are coalesced by the state CAS
//
// The sweep and the cycle may run concurrently with each other and with
// new order writes: the sweep deletes only acknowledged, old rows and
// the cycle touches only unacknowledged ones.
type Engine struct {
	store    *store.Store
	uploader Uploader
	monitor  *netmon.Monitor

	debounce      time.Duration
	interval      time.Duration
	sweepInterval time.Duration
	retention     time.Duration

	state atomic.Int32

	// trigger coalesces sync requests (buffered, size 1).
	trigger chan struct{}

	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithDebounce sets the post-reconnect debounce.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce = d }
}

// WithInterval sets the periodic sync trigger. Zero disables it.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithSweepInterval sets how often the retention sweep runs.
// Zero disables it.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Engine) { e.sweepInterval = d }
}

// WithRetention sets the retention window for acknowledged orders.
func WithRetention(d time.Duration) Option {
	return func(e *Engine) { e.retention = d }
}

// WithNow overrides the time source. Used by tests to pin the sweep
// cutoff.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine. The monitor may be nil when only manual
// cycles are wanted (the sync and purge commands); Run requires it.
func New(st *store.Store, up Uploader, mon *netmon.Monitor, opts ...Option) *Engine {
	e := &Engine{
		store:         st,
		uploader:      up,
		monitor:       mon,
		debounce:      DefaultDebounce,
		interval:      DefaultInterval,
		sweepInterval: DefaultSweepInterval,
		retention:     DefaultRetention,
		trigger:       make(chan struct{}, 1),
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// State returns the current engine state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// TriggerSync requests a sync cycle. Non-blocking; requests arriving
// while one is already pending or running are coalesced.
func (e *Engine) TriggerSync() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Run reacts to connectivity transitions, periodic ticks, and manual
// triggers until ctx is cancelled.
//
// An online transition arms a debounce timer; the sync only fires once
// the link has held for the debounce window. Going offline disarms it.
func (e *Engine) Run(ctx context.Context) error {
	transitions := e.monitor.Subscribe()

	var tickC <-chan time.Time
	if e.interval > 0 {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		tickC = ticker.C
	}

	var sweepC <-chan time.Time
	if e.sweepInterval > 0 {
		sweeper := time.NewTicker(e.sweepInterval)
		defer sweeper.Stop()
		sweepC = sweeper.C
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	// Sweep once at startup, like the reference deployment.
	if _, err := e.RunSweep(ctx); err != nil {
		slog.Error("startup retention sweep failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case t := <-transitions:
			if t.Online {
				debounce.Reset(e.debounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
			}

		case <-debounce.C:
			e.TriggerSync()

		case <-tickC:
			if e.monitor.Online() {
				e.TriggerSync()
			}

		case <-e.trigger:
			if _, _, err := e.RunCycle(ctx); err != nil {
				slog.Error("sync cycle failed", "error", err)
			}

		case <-sweepC:
			if _, err := e.RunSweep(ctx); err != nil {
				slog.Error("retention sweep failed", "error", err)
			}
		}
	}
}

// RunCycle drains all currently unacknowledged orders, one at a time in
// creation order. Returns the number acknowledged and the number that
// failed and remain queued.
//
// A failure on one order is logged and does not block the rest of the
// batch. If the engine is already syncing, the call is ignored and
// returns (0, 0, nil).
func (e *Engine) RunCycle(ctx context.Context) (acked, failed int, err error) {
	if !e.enterSyncing() {
		slog.Debug("sync cycle already running, trigger ignored")
		return 0, 0, nil
	}

	orders, err := e.store.ListUnacknowledged(ctx)
	if err != nil {
		e.state.Store(int32(StateError))
		return 0, 0, err
	}

	if len(orders) == 0 {
		e.state.Store(int32(StateIdle))
		return 0, 0, nil
	}

	slog.Info("sync cycle started", "pending", len(orders))

	for _, o := range orders {
		if ctx.Err() != nil {
			break
		}

		if err := e.uploader.Upsert(ctx, o); err != nil {
			slog.Warn("order upsert failed, will retry", "order_id", o.ID, "error", err)
			failed++
			continue
		}

		if err := e.store.MarkAcknowledged(ctx, o.ID); err != nil {
			// The server accepted the order; the local flag didn't
			// flip. The next cycle resubmits and the server treats it
			// as a no-op, so nothing is lost or duplicated.
			slog.Error("order acknowledged remotely but not locally", "order_id", o.ID, "error", err)
			failed++
			continue
		}

		slog.Debug("order acknowledged", "order_id", o.ID)
		acked++
	}

	if acked == 0 {
		// Nonempty batch, zero progress: the network call layer itself
		// is down.
		e.state.Store(int32(StateError))
	} else {
		e.state.Store(int32(StateIdle))
	}

	slog.Info("sync cycle finished", "acknowledged", acked, "remaining", failed, "state", e.State().String())
	return acked, failed, nil
}

// RunSweep deletes acknowledged orders older than the retention window
// and returns the count removed. Unacknowledged orders are never
// touched regardless of age.
func (e *Engine) RunSweep(ctx context.Context) (int64, error) {
	cutoff := e.now().Add(-e.retention)
	n, err := e.store.PurgeAcknowledged(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Info("retention sweep removed orders", "count", n, "older_than", cutoff)
	}
	return n, nil
}

// enterSyncing claims the at-most-one-cycle slot. Both idle and error
// are valid entry states: error recovers on the next trigger.
func (e *Engine) enterSyncing() bool {
	if e.state.CompareAndSwap(int32(StateIdle), int32(StateSyncing)) {
		return true
	}
	return e.state.CompareAndSwap(int32(StateError), int32(StateSyncing))
}
