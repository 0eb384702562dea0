package order

import "time"

// Profile is the restaurant identity printed on receipts, supplied by
// the configuration surface.
type Profile struct {
	Name    string
	Address string
	Phone   string

	// TaxID is the tax registration identifier (SIRET in the
	// reference deployment). Printed on the fallback document.
	TaxID string

	// TaxRate is the applicable rate for the tax breakdown
	// (0.10 in the reference deployment).
	TaxRate float64
}

// MenuItem is a catalog entry held in the read-through menu cache for
// offline browsing.
type MenuItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	UnitPrice float64   `json:"unit_price"`
	CachedAt  time.Time `json:"cached_at"`
}
