package order

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentMethod identifies how an order was paid.
type PaymentMethod string

const (
	PaymentCash    PaymentMethod = "cash"
	PaymentCard    PaymentMethod = "card"
	PaymentVoucher PaymentMethod = "voucher"
)

// Valid reports whether m is one of the known payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentVoucher:
		return true
	}
	return false
}

// Label returns the receipt label for the payment method.
// Returns an empty string for unknown methods.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCash:
		return "ESPECES"
	case PaymentCard:
		return "CARTE"
	case PaymentVoucher:
		return "TICKET RESTO"
	}
	return ""
}

// OpensDrawer reports whether a successful dispatch for this payment
// method must be followed by a cash-drawer pulse.
func (m PaymentMethod) OpensDrawer() bool {
	return m == PaymentCash
}

// LineItem is a single order line. All fields are immutable once the
// order is finalized.
type LineItem struct {
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

// LineTotal returns unit price times quantity.
func (li LineItem) LineTotal() float64 {
	return li.UnitPrice * float64(li.Quantity)
}

// Order is the unit of durability and sync: a finalized, paid
// transaction.
//
// Everything except Acknowledged is frozen at finalization. Total is
// computed once by New and never recomputed from the item list; the
// Sync Engine is the only writer of Acknowledged after creation.
type Order struct {
	ID            string        `json:"id"`
	Items         []LineItem    `json:"items"`
	Total         float64       `json:"total"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time     `json:"created_at"`
	Attendant     string        `json:"attendant"`
	TableNumber   int           `json:"table_number,omitempty"` // 0 means counter order
	Acknowledged  bool          `json:"acknowledged"`
}

// New finalizes an order: stamps a client-generated UUIDv7 identifier
// and the creation time, computes the total from the items, and marks
// the order unacknowledged.
//
// UUIDv7 identifiers are time-sortable, which keeps server-side order
// listings in creation order without a secondary sort key, and lets the
// server treat resubmission of the same identifier as an idempotent
// no-op.
func New(items []LineItem, method PaymentMethod, attendant string, tableNumber int) Order {
	var total float64
	for _, li := range items {
		total += li.LineTotal()
	}

	// Copy the items so a caller mutating its slice cannot break the
	// frozen-at-commit invariant.
	frozen := make([]LineItem, len(items))
	copy(frozen, items)

	return Order{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Items:         frozen,
		Total:         total,
		PaymentMethod: method,
		CreatedAt:     time.Now().UTC(),
		Attendant:     attendant,
		TableNumber:   tableNumber,
		Acknowledged:  false,
	}
}

// TicketToken returns the identifier truncated to eight characters and
// uppercased. This is the token printed on every receipt rendering.
func (o Order) TicketToken() string {
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

// CertToken returns the fiscal-certification placeholder printed on the
// fallback document.
//
// This is a simulation, NOT a compliance mechanism: it is the ticket
// token plus the base-36 creation time, with no cryptographic value.
// A deployment subject to fiscal certification (NF525 or similar) must
// replace this with a genuine signing scheme.
//
// The token is derived from order fields only, never from the clock at
// render time, so rendering stays deterministic.
func (o Order) CertToken() string {
	return "NF525-" + o.TicketToken() + "-" + strconv.FormatInt(o.CreatedAt.Unix(), 36)
}

// ItemCount returns the total quantity across all line items.
func (o Order) ItemCount() int {
	var n int
	for _, li := range o.Items {
		n += li.Quantity
	}
	return n
}

// TaxBreakdown splits the tax-inclusive total at the given rate:
// subtotal = total / (1 + rate), tax = total - subtotal.
//
// The rate is fixed per restaurant profile, not looked up per item.
// This is a deliberate simplification, not a tax engine.
func (o Order) TaxBreakdown(rate float64) (subtotal, tax float64) {
	subtotal = o.Total / (1 + rate)
	tax = o.Total - subtotal
	return subtotal, tax
}
