// Package payment defines the provider-neutral contract for checkout creation
// and inbound payment events.
package payment

import (
	"context"
	"errors"
)

var (
	// ErrProvider wraps any failure talking to the payment provider. Callers may retry.
	ErrProvider = errors.New("payment provider unavailable")

	// ErrMalformedEvent indicates a webhook body that does not match the expected schema.
	ErrMalformedEvent = errors.New("malformed payment event")
)

// EventPaid is the discriminator of a confirmed payment.
const EventPaid = "billing.paid"

// Customer is the payer identity the provider requires.
type Customer struct {
	Name      string
	Email     string
	Cellphone string
	TaxID     string
}

// BillingRequest asks the provider for a one-off checkout.
type BillingRequest struct {
	Reference     string
	Amount        int64
	Name          string
	Description   string
	Customer      Customer
	ReturnURL     string
	CompletionURL string
}

// Billing is the provider's answer: its reference and the checkout URL.
type Billing struct {
	ID  string
	URL string
}

// Event is a parsed webhook.
type Event struct {
	Type      string
	BillingID string
	Amount    int64
}

// Provider creates checkouts.
type Provider interface {
	CreateBilling(ctx context.Context, req BillingRequest) (Billing, error)
}
