package order

import (
	"errors"
	"fmt"
)

// ValidationError reports an order that fails its encoding
// preconditions. Such orders are rejected before any I/O is attempted.
type ValidationError struct {
	// Code identifies the failed precondition.
	Code ValidationCode

	// Message is a human-readable description.
	Message string

	// OrderID identifies the rejected order (may be empty if the
	// order never got an identifier).
	OrderID string
}

// ValidationCode categorizes validation failures.
type ValidationCode string

const (
	// CodeNoItems indicates an empty line-item list.
	CodeNoItems ValidationCode = "NO_ITEMS"

	// CodeNonPositiveTotal indicates a zero or negative total.
	CodeNonPositiveTotal ValidationCode = "NON_POSITIVE_TOTAL"

	// CodeBadQuantity indicates a line item with quantity < 1.
	CodeBadQuantity ValidationCode = "BAD_QUANTITY"

	// CodeBadPaymentMethod indicates an unknown payment method.
	CodeBadPaymentMethod ValidationCode = "BAD_PAYMENT_METHOD"
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("%s: %s (order=%s)", e.Code, e.Message, e.OrderID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidationError returns true if the error is an order validation
// error. Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks the encoding preconditions: at least one item, a
// positive total, positive quantities, and a known payment method.
func (o Order) Validate() error {
	if len(o.Items) == 0 {
		return &ValidationError{
			Code:    CodeNoItems,
			Message: "order has no line items",
			OrderID: o.ID,
		}
	}
	if o.Total <= 0 {
		return &ValidationError{
			Code:    CodeNonPositiveTotal,
			Message: fmt.Sprintf("order total %.2f is not positive", o.Total),
			OrderID: o.ID,
		}
	}
	for _, li := range o.Items {
		if li.Quantity < 1 {
			return &ValidationError{
				Code:    CodeBadQuantity,
				Message: fmt.Sprintf("item %q has quantity %d", li.Name, li.Quantity),
				OrderID: o.ID,
			}
		}
	}
	if !o.PaymentMethod.Valid() {
		return &ValidationError{
			Code:    CodeBadPaymentMethod,
			Message: fmt.Sprintf("unknown payment method %q", o.PaymentMethod),
			OrderID: o.ID,
		}
	}
	return nil
}
