// Package dispatch delivers encoded receipts through the configured
// transport and fires the cash-drawer side effect.
//
// Selection is a pure function of configuration and the capability set
// injected at startup: bluetooth if configured, else network, else the
// local surface. Exactly one attempt per call - a failed bluetooth
// print never silently falls through to the network printer, because
// the attendant must know which physical device fired.
package dispatch

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/capverde/posagent/internal/escpos"
	"github.com/capverde/posagent/internal/order"
)

// TransportKind identifies an output channel.
type TransportKind string

const (
	TransportBluetooth TransportKind = "bluetooth"
	TransportNetwork   TransportKind = "network"
	TransportLocal     TransportKind = "local-surface"
)

// Status is the delivery outcome reported to the caller. It lets the
// UI distinguish "printed on configured hardware" from "printed via
// degraded fallback".
type Status string

const (
	StatusReady    Status = "ready"
	StatusBusy     Status = "busy"
	StatusError    Status = "error"
	StatusFallback Status = "offline-fallback-used"
)

// Config describes the single active output transport. Set by an
// explicit configure action; read by every dispatch. A zero Kind means
// no transport is configured and the local surface is used.
type Config struct {
	Kind TransportKind

	// Network parameters (Kind == TransportNetwork). Thermal printers
	// conventionally listen on port 9100.
	Host string
	Port int
}

// Device is a raw byte sink for a paired Bluetooth printer. The
// platform integration supplies it; nil means the capability is absent.
type Device interface {
	Write(ctx context.Context, data []byte) error
}

// Surface renders a fallback document on screen or through a native
// print dialog.
type Surface interface {
	Present(ctx context.Context, doc escpos.Document) error
}

// DialFunc opens the raw socket to a network printer. Tests override
// it; nil selects a plain TCP dialer.
type DialFunc func(ctx context.Context, addr string) (net.Conn, error)

// Capabilities is the static transport-availability set injected at
// startup. The router never probes the platform at dispatch time.
type Capabilities struct {
	Bluetooth Device  // nil when no device is paired
	Surface   Surface // required: the final fallback
	Dial      DialFunc
}

// DefaultTimeout bounds one dispatch attempt end to end.
const DefaultTimeout = 10 * time.Second

// Result reports one dispatch attempt.
type Result struct {
	Status       Status
	Transport    TransportKind
	DrawerPulsed bool
}

// Router selects a transport and delivers encoded receipts.
//
// Thread-safety model:
//   - Configure(): single writer, the explicit configuration action
//   - Dispatch()/DispatchKitchen(): safe from any goroutine; a busy
//     latch serializes physical output, concurrent calls report busy
type Router struct {
	caps    Capabilities
	profile order.Profile
	timeout time.Duration

	mu  sync.RWMutex
	cfg Config

	busy atomic.Bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithTimeout bounds each dispatch attempt. An attempt exceeding it
// resolves as an error, never hangs.
func WithTimeout(d time.Duration) RouterOption {
	return func(r *Router) { r.timeout = d }
}

// NewRouter creates a Router with the given capability set and
// restaurant profile.
func NewRouter(caps Capabilities, profile order.Profile, opts ...RouterOption) *Router {
	if caps.Dial == nil {
		caps.Dial = func(ctx context.Context, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "tcp", addr)
		}
	}

	r := &Router{
		caps:    caps,
		profile: profile,
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Configure sets the active transport. This is the only writer of the
// transport configuration.
func (r *Router) Configure(cfg Config) {
	if cfg.Kind == TransportNetwork && cfg.Port == 0 {
		cfg.Port = 9100
	}

	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()

	slog.Info("printer configured", "transport", string(cfg.Kind), "host", cfg.Host, "port", cfg.Port)
}

// Dispatch renders the customer receipt and delivers it through the
// selected transport. On success with a cash payment it fires the
// drawer pulse as a separate best-effort action.
func (r *Router) Dispatch(ctx context.Context, o order.Order) (Result, error) {
	return r.dispatch(ctx, o, escpos.ModeCustomerReceipt)
}

// DispatchKitchen delivers the kitchen ticket through the same
// transport-selection policy. No drawer pulse.
func (r *Router) DispatchKitchen(ctx context.Context, o order.Order) (Result, error) {
	return r.dispatch(ctx, o, escpos.ModeKitchenTicket)
}

func (r *Router) dispatch(ctx context.Context, o order.Order, mode escpos.Mode) (Result, error) {
	// Precondition check before any I/O.
	if err := o.Validate(); err != nil {
		return Result{Status: StatusError}, err
	}

	if !r.busy.CompareAndSwap(false, true) {
		return Result{Status: StatusBusy}, ErrBusy
	}
	defer r.busy.Store(false)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.mu.RLock()
	cfg := r.cfg
	r.mu.RUnlock()

	var transport TransportKind
	switch cfg.Kind {
	case TransportBluetooth:
		transport = TransportBluetooth
	case TransportNetwork:
		transport = TransportNetwork
	default:
		transport = TransportLocal
	}

	res := Result{Transport: transport}

	if transport == TransportLocal {
		doc, err := escpos.RenderDocument(o, r.profile, mode)
		if err != nil {
			res.Status = StatusError
			return res, &DispatchError{Transport: transport, Phase: PhaseEncode, Err: err}
		}
		if err := r.caps.Surface.Present(ctx, doc); err != nil {
			res.Status = StatusError
			return res, &DispatchError{Transport: transport, Phase: PhasePresent, Err: err}
		}
		// Degraded but successful; no hardware fired, so no drawer.
		res.Status = StatusFallback
		slog.Info("receipt delivered via fallback surface", "order_id", o.ID, "mode", mode.String())
		return res, nil
	}

	data, err := escpos.Encode(o, r.profile, mode)
	if err != nil {
		res.Status = StatusError
		return res, &DispatchError{Transport: transport, Phase: PhaseEncode, Err: err}
	}

	if err := r.write(ctx, transport, cfg, data); err != nil {
		res.Status = StatusError
		return res, err
	}

	res.Status = StatusReady
	slog.Info("receipt printed", "order_id", o.ID, "transport", string(transport), "mode", mode.String())

	// Drawer pulse: customer receipts only, cash only, best effort.
	// A failed pulse never invalidates a successful print.
	if mode == escpos.ModeCustomerReceipt && o.PaymentMethod.OpensDrawer() {
		if err := r.write(ctx, transport, cfg, escpos.DrawerPulse()); err != nil {
			slog.Warn("cash drawer pulse failed", "order_id", o.ID, "error", err)
		} else {
			res.DrawerPulsed = true
		}
	}

	return res, nil
}

// write sends raw protocol bytes through a hardware transport.
func (r *Router) write(ctx context.Context, transport TransportKind, cfg Config, data []byte) error {
	switch transport {
	case TransportBluetooth:
		dev := r.caps.Bluetooth
		if dev == nil {
			return &DispatchError{Transport: transport, Phase: PhaseConnect, Err: ErrTransportUnavailable}
		}
		if err := dev.Write(ctx, data); err != nil {
			return &DispatchError{Transport: transport, Phase: PhaseSend, Err: err}
		}
		return nil

	case TransportNetwork:
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		conn, err := r.caps.Dial(ctx, addr)
		if err != nil {
			return &DispatchError{Transport: transport, Phase: PhaseConnect, Err: err}
		}
		defer conn.Close()

		if deadline, ok := ctx.Deadline(); ok {
			conn.SetWriteDeadline(deadline)
		}
		if _, err := conn.Write(data); err != nil {
			return &DispatchError{Transport: transport, Phase: PhaseSend, Err: err}
		}
		return nil
	}

	return &DispatchError{Transport: transport, Phase: PhaseConnect, Err: ErrTransportUnavailable}
}
