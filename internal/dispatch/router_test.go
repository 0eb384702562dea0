package dispatch

import (
	"bytes"
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capverde/posagent/internal/escpos"
	"github.com/capverde/posagent/internal/order"
)

type fakeDevice struct {
	mu     sync.Mutex
	writes [][]byte
	err    error
}

func (d *fakeDevice) Write(ctx context.Context, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	d.writes = append(d.writes, buf)
	return nil
}

type fakeSurface struct {
	docs []escpos.Document
	err  error
}

func (s *fakeSurface) Present(ctx context.Context, doc escpos.Document) error {
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, doc)
	return nil
}

// fakeConn captures everything written to a dialed printer socket.
type fakeConn struct {
	buf bytes.Buffer
}

func (c *fakeConn) Read(b []byte) (int, error)         { return 0, nil }
func (c *fakeConn) Write(b []byte) (int, error)        { return c.buf.Write(b) }
func (c *fakeConn) Close() error                       { return nil }
func (c *fakeConn) LocalAddr() net.Addr                { return nil }
func (c *fakeConn) RemoteAddr() net.Addr               { return nil }
func (c *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func testProfile() order.Profile {
	return order.Profile{
		Name:    "Restaurant CapVerde",
		Address: "12 Rue des Iles, 75011 Paris",
		Phone:   "01 43 55 00 00",
		TaxID:   "123 456 789 00012",
		TaxRate: 0.10,
	}
}

func testOrder(pm order.PaymentMethod) order.Order {
	return order.Order{
		ID:            "9d36b14e-52a3-7cc9-8b5e-1f27c0a4d8e1",
		Items:         []order.LineItem{{Name: "Assiette Cachupa", UnitPrice: 10.00, Quantity: 2}},
		Total:         20.00,
		PaymentMethod: pm,
		CreatedAt:     time.Date(2025, 3, 14, 12, 30, 5, 0, time.UTC),
		Attendant:     "Paulo",
		TableNumber:   7,
	}
}

func TestDispatch_FallbackWhenNothingConfigured(t *testing.T) {
	surface := &fakeSurface{}
	r := NewRouter(Capabilities{Surface: surface}, testProfile())

	res, err := r.Dispatch(context.Background(), testOrder(order.PaymentCash))
	require.NoError(t, err)
	assert.Equal(t, StatusFallback, res.Status)
	assert.Equal(t, TransportLocal, res.Transport)
	// The fallback is not hardware: the drawer must never fire.
	assert.False(t, res.DrawerPulsed)

	require.Len(t, surface.docs, 1)
	assert.Contains(t, surface.docs[0].Title, "Ticket 9D36B14E")
	assert.Contains(t, surface.docs[0].Body, "Assiette Cachupa")
}

func TestDispatch_BluetoothCashPulsesDrawerOnce(t *testing.T) {
	dev := &fakeDevice{}
	r := NewRouter(Capabilities{Bluetooth: dev, Surface: &fakeSurface{}}, testProfile())
	r.Configure(Config{Kind: TransportBluetooth})

	o := testOrder(order.PaymentCash)
	res, err := r.Dispatch(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.Equal(t, TransportBluetooth, res.Transport)
	assert.True(t, res.DrawerPulsed)

	// Receipt first, then exactly one pulse as a separate write.
	require.Len(t, dev.writes, 2)
	want, err := escpos.Encode(o, testProfile(), escpos.ModeCustomerReceipt)
	require.NoError(t, err)
	assert.Equal(t, want, dev.writes[0])
	assert.Equal(t, escpos.DrawerPulse(), dev.writes[1])
}

func TestDispatch_CardDoesNotPulseDrawer(t *testing.T) {
	dev := &fakeDevice{}
	r := NewRouter(Capabilities{Bluetooth: dev, Surface: &fakeSurface{}}, testProfile())
	r.Configure(Config{Kind: TransportBluetooth})

	res, err := r.Dispatch(context.Background(), testOrder(order.PaymentCard))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.False(t, res.DrawerPulsed)
	assert.Len(t, dev.writes, 1)
}

func TestDispatchKitchen_NeverPulsesDrawer(t *testing.T) {
	dev := &fakeDevice{}
	r := NewRouter(Capabilities{Bluetooth: dev, Surface: &fakeSurface{}}, testProfile())
	r.Configure(Config{Kind: TransportBluetooth})

	res, err := r.DispatchKitchen(context.Background(), testOrder(order.PaymentCash))
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.False(t, res.DrawerPulsed)
	require.Len(t, dev.writes, 1)
	assert.True(t, bytes.Contains(dev.writes[0], []byte("COMMANDE CUISINE")))
}

func TestDispatch_BluetoothFailureDoesNotFallThrough(t *testing.T) {
	dev := &fakeDevice{err: errors.New("link dropped")}
	surface := &fakeSurface{}
	r := NewRouter(Capabilities{Bluetooth: dev, Surface: surface}, testProfile())
	r.Configure(Config{Kind: TransportBluetooth})

	res, err := r.Dispatch(context.Background(), testOrder(order.PaymentCash))
	require.Error(t, err)
	assert.Equal(t, StatusError, res.Status)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, TransportBluetooth, derr.Transport)
	assert.Equal(t, PhaseSend, derr.Phase)

	// The failure must surface, never silently reroute.
	assert.Empty(t, surface.docs)
}

func TestDispatch_BluetoothConfiguredButUnpaired(t *testing.T) {
	r := NewRouter(Capabilities{Surface: &fakeSurface{}}, testProfile())
	r.Configure(Config{Kind: TransportBluetooth})

	res, err := r.Dispatch(context.Background(), testOrder(order.PaymentCash))
	require.Error(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.ErrorIs(t, err, ErrTransportUnavailable)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, PhaseConnect, derr.Phase)
}

func TestDispatch_NetworkWritesToDialedAddress(t *testing.T) {
	conn := &fakeConn{}
	var gotAddr string
	dial := func(ctx context.Context, addr string) (net.Conn, error) {
		gotAddr = addr
		return conn, nil
	}
	r := NewRouter(Capabilities{Surface: &fakeSurface{}, Dial: dial}, testProfile())
	r.Configure(Config{Kind: TransportNetwork, Host: "192.168.1.50"})

	o := testOrder(order.PaymentCash)
	res, err := r.Dispatch(context.Background(), o)
	require.NoError(t, err)
	assert.Equal(t, StatusReady, res.Status)
	assert.Equal(t, TransportNetwork, res.Transport)
	assert.True(t, res.DrawerPulsed)

	// Default raw-printing port applied when unset.
	assert.Equal(t, "192.168.1.50:9100", gotAddr)

	want, err := escpos.Encode(o, testProfile(), escpos.ModeCustomerReceipt)
	require.NoError(t, err)
	assert.Equal(t, append(want, escpos.DrawerPulse()...), conn.buf.Bytes())
}

func TestDispatch_NetworkDialFailure(t *testing.T) {
	dial := func(ctx context.Context, addr string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	}
	r := NewRouter(Capabilities{Surface: &fakeSurface{}, Dial: dial}, testProfile())
	r.Configure(Config{Kind: TransportNetwork, Host: "192.168.1.50", Port: 9100})

	res, err := r.Dispatch(context.Background(), testOrder(order.PaymentCard))
	require.Error(t, err)
	assert.Equal(t, StatusError, res.Status)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, TransportNetwork, derr.Transport)
	assert.Equal(t, PhaseConnect, derr.Phase)
}

func TestDispatch_BusyLatch(t *testing.T) {
	r := NewRouter(Capabilities{Surface: &fakeSurface{}}, testProfile())
	r.busy.Store(true)

	res, err := r.Dispatch(context.Background(), testOrder(order.PaymentCash))
	assert.Equal(t, StatusBusy, res.Status)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestDispatch_RejectsInvalidOrderBeforeIO(t *testing.T) {
	surface := &fakeSurface{}
	r := NewRouter(Capabilities{Surface: surface}, testProfile())

	o := testOrder(order.PaymentCash)
	o.Items = nil
	o.Total = 0

	res, err := r.Dispatch(context.Background(), o)
	require.Error(t, err)
	assert.Equal(t, StatusError, res.Status)
	assert.True(t, order.IsValidationError(err))
	assert.Empty(t, surface.docs)
	// The busy latch was never claimed, so a valid retry goes through.
	assert.False(t, r.busy.Load())
}

func TestDispatch_SurfaceFailure(t *testing.T) {
	surface := &fakeSurface{err: errors.New("dialog dismissed")}
	r := NewRouter(Capabilities{Surface: surface}, testProfile())

	res, err := r.Dispatch(context.Background(), testOrder(order.PaymentCash))
	require.Error(t, err)
	assert.Equal(t, StatusError, res.Status)

	var derr *DispatchError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, TransportLocal, derr.Transport)
	assert.Equal(t, PhasePresent, derr.Phase)
}

func TestConfigure_DefaultsNetworkPort(t *testing.T) {
	r := NewRouter(Capabilities{Surface: &fakeSurface{}}, testProfile())
	r.Configure(Config{Kind: TransportNetwork, Host: "10.0.0.2"})

	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Equal(t, 9100, r.cfg.Port)
}
