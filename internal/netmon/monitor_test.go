package netmon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	mu     sync.Mutex
	online bool
}

func (p *stubProber) Probe(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online
}

func (p *stubProber) set(online bool) {
	p.mu.Lock()
	p.online = online
	p.mu.Unlock()
}

func TestMonitor_StartsOffline(t *testing.T) {
	m := New(&stubProber{}, time.Minute)
	assert.False(t, m.Online())
}

func TestMonitor_TransitionDeliveredOncePerEdge(t *testing.T) {
	p := &stubProber{}
	m := New(p, time.Minute)
	ch := m.Subscribe()

	// Repeated identical probes: still offline, no event.
	m.probeOnce(context.Background())
	m.probeOnce(context.Background())
	assert.Empty(t, ch)

	p.set(true)
	m.probeOnce(context.Background())

	select {
	case tr := <-ch:
		assert.True(t, tr.Online)
		assert.False(t, tr.At.IsZero())
	default:
		t.Fatal("expected an online transition")
	}

	// Same state again: no second event for the same edge.
	m.probeOnce(context.Background())
	assert.Empty(t, ch)
	assert.True(t, m.Online())
}

func TestMonitor_LatestWinsCoalescing(t *testing.T) {
	p := &stubProber{}
	m := New(p, time.Minute)
	ch := m.Subscribe()

	// Online then offline without the subscriber draining: only the
	// most recent transition survives.
	p.set(true)
	m.probeOnce(context.Background())
	p.set(false)
	m.probeOnce(context.Background())

	select {
	case tr := <-ch:
		assert.False(t, tr.Online, "stale online transition should be replaced")
	default:
		t.Fatal("expected the latest transition to be buffered")
	}
	assert.Empty(t, ch)
}

func TestMonitor_MultipleSubscribers(t *testing.T) {
	p := &stubProber{}
	m := New(p, time.Minute)
	a := m.Subscribe()
	b := m.Subscribe()

	p.set(true)
	m.probeOnce(context.Background())

	for _, ch := range []<-chan Transition{a, b} {
		select {
		case tr := <-ch:
			assert.True(t, tr.Online)
		default:
			t.Fatal("every subscriber should see the transition")
		}
	}
}

func TestMonitor_RunProbesImmediately(t *testing.T) {
	p := &stubProber{online: true}
	m := New(p, time.Hour) // ticker never fires within the test
	ch := m.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return m.Online()
	}, time.Second, 5*time.Millisecond)

	select {
	case tr := <-ch:
		assert.True(t, tr.Online)
	default:
		t.Fatal("startup probe should publish the transition")
	}

	cancel()
	<-done
}

func TestHTTPProber(t *testing.T) {
	// Any HTTP response means the path is usable, even an error status:
	// reachability is about the link, not the endpoint's mood.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPProber(srv.URL, time.Second)
	assert.True(t, p.Probe(context.Background()))

	srv.Close()
	assert.False(t, p.Probe(context.Background()))
}
