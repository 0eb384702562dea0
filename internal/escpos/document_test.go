package escpos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capverde/posagent/internal/order"
)

func TestRenderDocument_Customer(t *testing.T) {
	doc, err := RenderDocument(fixtureOrder(), fixtureProfile(), ModeCustomerReceipt)
	require.NoError(t, err)

	assert.Equal(t, "Ticket 9D36B14E", doc.Title)
	assert.Contains(t, doc.Body, "Restaurant CapVerde")
	assert.Contains(t, doc.Body, "SIRET: 12345678901234")
	assert.Contains(t, doc.Body, "TOTAL TTC: 22.00 EUR")
	assert.Contains(t, doc.Body, "Paiement: ESPECES")
	// The document keeps accents; only the thermal stream folds them.
	assert.Contains(t, doc.Body, "Café Touba")
}

func TestRenderDocument_CertificationPlaceholder(t *testing.T) {
	o := fixtureOrder()

	doc, err := RenderDocument(o, fixtureProfile(), ModeCustomerReceipt)
	require.NoError(t, err)
	assert.Contains(t, doc.Body, "Certification: "+o.CertToken())

	// Derived from order fields only: rendering twice yields the same line.
	again, err := RenderDocument(o, fixtureProfile(), ModeCustomerReceipt)
	require.NoError(t, err)
	assert.Equal(t, doc.Body, again.Body)
}

func TestRenderDocument_KitchenOmitsChargeInfo(t *testing.T) {
	doc, err := RenderDocument(fixtureOrder(), fixtureProfile(), ModeKitchenTicket)
	require.NoError(t, err)

	assert.Equal(t, "Cuisine 9D36B14E", doc.Title)
	assert.NotContains(t, doc.Body, "EUR")
	assert.NotContains(t, doc.Body, "Paiement")
	assert.NotContains(t, doc.Body, "Certification")
	assert.Contains(t, doc.Body, "Total articles: 3")
}

func TestRenderDocument_RejectsInvalidOrder(t *testing.T) {
	o := fixtureOrder()
	o.PaymentMethod = "barter"

	_, err := RenderDocument(o, fixtureProfile(), ModeCustomerReceipt)
	require.Error(t, err)
	assert.True(t, order.IsValidationError(err))
}
