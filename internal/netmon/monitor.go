// Package netmon observes network reachability and publishes
// online/offline transitions.
//
// The monitor owns the connectivity state: it is the only writer. The
// sync engine subscribes to transitions instead of polling, so its
// reaction to a regained link is an explicit state-machine input rather
// than an inline callback side effect.
package netmon

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Transition is an online/offline state change. Delivered exactly once
// per transition: repeated identical probe results produce no event.
type Transition struct {
	Online bool
	At     time.Time
}

// Prober checks whether the network path to the server is currently
// usable. Implemented by HTTPProber (production) and fakes (tests).
type Prober interface {
	// Probe returns true if the link is usable. Implementations must
	// respect ctx cancellation.
	Probe(ctx context.Context) bool
}

// Monitor polls a Prober and publishes transitions to subscribers.
//
// Thread-safety model:
//   - Run(): must be called from exactly one goroutine
//   - Online(), Subscribe(): safe from any goroutine
type Monitor struct {
	prober   Prober
	interval time.Duration

	mu     sync.Mutex
	online bool
	subs   []chan Transition
}

// New creates a Monitor polling the given prober on the given interval.
// The initial state is offline until the first probe says otherwise, so
// a reachable server at startup produces an online transition and kicks
// the first sync.
func New(p Prober, interval time.Duration) *Monitor {
	return &Monitor{
		prober:   p,
		interval: interval,
	}
}

// Online returns the current connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Subscribe returns a channel receiving future transitions.
//
// The channel has capacity 1 and is latest-wins: if a subscriber is
// slow, intermediate flaps are coalesced and only the most recent
// transition is retained. Subscribers that need every edge must drain
// promptly; the sync engine only cares about the latest state.
func (m *Monitor) Subscribe() <-chan Transition {
	ch := make(chan Transition, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Run polls the prober until ctx is cancelled. An immediate probe runs
// before the first tick so startup state settles without waiting a full
// interval.
func (m *Monitor) Run(ctx context.Context) {
	m.probeOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeOnce(ctx)
		}
	}
}

func (m *Monitor) probeOnce(ctx context.Context) {
	m.setOnline(m.prober.Probe(ctx), time.Now())
}

// setOnline records the probed state and, on change, notifies every
// subscriber. Latest-wins delivery: a stale undelivered transition is
// replaced, never queued behind.
func (m *Monitor) setOnline(online bool, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if online == m.online {
		return // no transition
	}
	m.online = online

	if online {
		slog.Info("connectivity regained")
	} else {
		slog.Info("connectivity lost")
	}

	t := Transition{Online: online, At: at}
	for _, ch := range m.subs {
		select {
		case ch <- t:
		default:
			// Drop the stale transition, then deliver the new one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- t:
			default:
			}
		}
	}
}
