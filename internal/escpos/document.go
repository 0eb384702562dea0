package escpos

import (
	"fmt"
	"strings"

	"github.com/capverde/posagent/internal/order"
)

// Document is the plain rendering used when no printer transport is
// configured: a monospace body the local surface can show on screen or
// hand to a native print dialog.
type Document struct {
	Title string
	Body  string
}

// RenderDocument produces the fallback rendering of an order. Same
// layout as the printed receipt, in plain text, with no control
// directives. Unlike the ESC/POS stream it keeps accents - a screen can
// show them.
//
// The customer document carries the tax registration identifier and
// the certification placeholder line; neither goes to the thermal
// stream (the reference deployment printed them on the browser ticket
// only).
func RenderDocument(o order.Order, p order.Profile, m Mode) (Document, error) {
	if err := o.Validate(); err != nil {
		return Document{}, err
	}

	switch m {
	case ModeCustomerReceipt:
		return renderCustomerDocument(o, p), nil
	case ModeKitchenTicket:
		return renderKitchenDocument(o), nil
	}
	return Document{}, fmt.Errorf("unknown rendering mode %d", m)
}

func renderCustomerDocument(o order.Order, p order.Profile) Document {
	var sb strings.Builder

	fmt.Fprintln(&sb, p.Name)
	fmt.Fprintln(&sb, p.Address)
	fmt.Fprintln(&sb, "Tel: "+p.Phone)
	if p.TaxID != "" {
		fmt.Fprintln(&sb, "SIRET: "+p.TaxID)
	}
	fmt.Fprintln(&sb, rule)

	fmt.Fprintln(&sb, "Ticket: "+o.TicketToken())
	fmt.Fprintln(&sb, "Date: "+o.CreatedAt.Format(dateFormat))
	fmt.Fprintln(&sb, "Heure: "+o.CreatedAt.Format(timeFormat))
	fmt.Fprintln(&sb, "Serveur: "+o.Attendant)
	if o.TableNumber > 0 {
		fmt.Fprintf(&sb, "Table: %d\n", o.TableNumber)
	}
	fmt.Fprintln(&sb, thinRule)

	fmt.Fprintln(&sb, "DETAIL COMMANDE")
	for _, li := range o.Items {
		fmt.Fprintln(&sb, li.Name)
		fmt.Fprintf(&sb, "  %d x %.2f EUR = %.2f EUR\n", li.Quantity, li.UnitPrice, li.LineTotal())
	}
	fmt.Fprintln(&sb, thinRule)

	subtotal, tax := o.TaxBreakdown(p.TaxRate)
	fmt.Fprintf(&sb, "Sous-total HT: %.2f EUR\n", subtotal)
	fmt.Fprintf(&sb, "TVA %.0f%%: %.2f EUR\n", p.TaxRate*100, tax)
	fmt.Fprintf(&sb, "TOTAL TTC: %.2f EUR\n", o.Total)
	fmt.Fprintln(&sb, "Paiement: "+o.PaymentMethod.Label())
	fmt.Fprintln(&sb, rule)

	fmt.Fprintln(&sb, "Merci de votre visite !")
	fmt.Fprintln(&sb, "A bientôt au "+p.Name)

	// Simulation only, not a fiscal signature. See order.CertToken.
	fmt.Fprintln(&sb, "Certification: "+o.CertToken())

	return Document{
		Title: "Ticket " + o.TicketToken(),
		Body:  sb.String(),
	}
}

func renderKitchenDocument(o order.Order) Document {
	var sb strings.Builder

	fmt.Fprintln(&sb, "COMMANDE CUISINE")
	fmt.Fprintln(&sb, rule)
	fmt.Fprintln(&sb, "Ticket: "+o.TicketToken())
	fmt.Fprintln(&sb, "Heure: "+o.CreatedAt.Format(timeFormat))
	if o.TableNumber > 0 {
		fmt.Fprintf(&sb, "Table: %d\n", o.TableNumber)
	} else {
		fmt.Fprintln(&sb, "COMPTOIR")
	}
	fmt.Fprintln(&sb, "Serveur: "+o.Attendant)
	fmt.Fprintln(&sb, thinRule)
	for _, li := range o.Items {
		fmt.Fprintf(&sb, "%dx %s\n", li.Quantity, strings.ToUpper(li.Name))
	}
	fmt.Fprintln(&sb, thinRule)
	fmt.Fprintf(&sb, "Total articles: %d\n", o.ItemCount())

	return Document{
		Title: "Cuisine " + o.TicketToken(),
		Body:  sb.String(),
	}
}
