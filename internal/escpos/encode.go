// Package escpos renders a committed order into the byte stream a
// thermal receipt printer executes directly.
//
// Encoding is a pure transformation: the same order, profile, and mode
// always produce byte-identical output. Nothing here performs I/O.
package escpos

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/capverde/posagent/internal/order"
)

// Mode selects which rendering of an order is produced.
type Mode int

const (
	// ModeCustomerReceipt is the full customer receipt: header,
	// itemized lines, tax breakdown, payment method.
	ModeCustomerReceipt Mode = iota

	// ModeKitchenTicket is the preparation ticket: what to cook, no
	// pricing, no tax, no payment method.
	ModeKitchenTicket
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCustomerReceipt:
		return "customer-receipt"
	case ModeKitchenTicket:
		return "kitchen-ticket"
	}
	return "unknown"
}

// lineWidth is the character width of an 80mm thermal roll.
const lineWidth = 32

var (
	rule     = strings.Repeat("=", lineWidth)
	thinRule = strings.Repeat("-", lineWidth)
)

// Receipt timestamp formats (day/month/year, reference deployment).
const (
	dateFormat = "02/01/2006"
	timeFormat = "15:04:05"
)

// Encode renders the order as an ESC/POS byte stream in the given mode.
//
// The order is validated first; an order failing its encoding
// preconditions produces no bytes. All text is accent-folded to ASCII.
func Encode(o order.Order, p order.Profile, m Mode) ([]byte, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	switch m {
	case ModeCustomerReceipt:
		return encodeCustomer(o, p), nil
	case ModeKitchenTicket:
		return encodeKitchen(o), nil
	}
	return nil, fmt.Errorf("unknown encoding mode %d", m)
}

func encodeCustomer(o order.Order, p order.Profile) []byte {
	b := newBuilder()
	b.raw(cmdInit)

	// Header block
	b.raw(cmdAlignCenter)
	b.raw(cmdBoldOn)
	b.line(p.Name)
	b.raw(cmdBoldOff)
	b.line(p.Address)
	b.line(p.Phone)
	b.line(rule)

	// Order metadata
	b.raw(cmdAlignLeft)
	b.line("Ticket: " + o.TicketToken())
	b.line("Date: " + o.CreatedAt.Format(dateFormat))
	b.line("Heure: " + o.CreatedAt.Format(timeFormat))
	b.line("Serveur: " + o.Attendant)
	if o.TableNumber > 0 {
		b.line(fmt.Sprintf("Table: %d", o.TableNumber))
	}
	b.line(thinRule)

	// Itemized lines
	b.raw(cmdBoldOn)
	b.line("DETAIL COMMANDE")
	b.raw(cmdBoldOff)
	for _, li := range o.Items {
		b.line(li.Name)
		b.line(fmt.Sprintf("  %d x %.2f EUR = %.2f EUR", li.Quantity, li.UnitPrice, li.LineTotal()))
	}
	b.line(thinRule)

	// Tax breakdown, tax-exclusive subtotal first
	subtotal, tax := o.TaxBreakdown(p.TaxRate)
	b.line(fmt.Sprintf("Sous-total HT: %.2f EUR", subtotal))
	b.line(fmt.Sprintf("TVA %.0f%%: %.2f EUR", p.TaxRate*100, tax))
	b.raw(cmdBoldOn)
	b.line(fmt.Sprintf("TOTAL TTC: %.2f EUR", o.Total))
	b.raw(cmdBoldOff)

	b.line("Paiement: " + o.PaymentMethod.Label())
	b.line(rule)

	// Courtesy block
	b.raw(cmdAlignCenter)
	b.line("Merci de votre visite !")
	b.line("A bientot au " + p.Name)

	b.raw(cmdFeedLines)
	b.raw(cmdCutPaper)
	return b.bytes()
}

func encodeKitchen(o order.Order) []byte {
	b := newBuilder()
	b.raw(cmdInit)

	b.raw(cmdAlignCenter)
	b.raw(cmdBoldOn)
	b.line("COMMANDE CUISINE")
	b.raw(cmdBoldOff)
	b.line(rule)

	b.raw(cmdAlignLeft)
	b.line("Ticket: " + o.TicketToken())
	b.line("Heure: " + o.CreatedAt.Format(timeFormat))
	if o.TableNumber > 0 {
		b.line(fmt.Sprintf("Table: %d", o.TableNumber))
	} else {
		b.line("COMPTOIR")
	}
	b.line("Serveur: " + o.Attendant)
	b.line(thinRule)

	for _, li := range o.Items {
		b.line(fmt.Sprintf("%dx %s", li.Quantity, strings.ToUpper(li.Name)))
	}
	b.line(thinRule)
	b.line(fmt.Sprintf("Total articles: %d", o.ItemCount()))

	b.raw(cmdFeedLines)
	b.raw(cmdCutPaper)
	return b.bytes()
}

// builder accumulates directives and folded text segments.
type builder struct {
	buf bytes.Buffer
}

func newBuilder() *builder {
	return &builder{}
}

// raw appends a control directive verbatim.
func (b *builder) raw(cmd []byte) {
	b.buf.Write(cmd)
}

// line appends a folded text line terminated by LF.
func (b *builder) line(s string) {
	b.buf.WriteString(fold(s))
	b.buf.WriteByte('\n')
}

func (b *builder) bytes() []byte {
	return b.buf.Bytes()
}
