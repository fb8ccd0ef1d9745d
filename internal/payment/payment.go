// Package payment defines the contract consumed from the external payment
// processor.  The rest of the application only ever talks to the Provider
// interface; which concrete gateway sits behind it is a wiring decision.
// There is no retry policy here: a failed call surfaces immediately and
// the user retries by re-invoking the API operation.
package payment

import (
	"context"
	"time"
)

// Status is the processor-side state of a payment intent.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusSuccess  Status = "SUCCESS"
	StatusFailure  Status = "FAILURE"
	StatusCanceled Status = "CANCELED"
)

// Intent is a payment authorization for a fixed amount.  The ID is the
// reference stored on reservations.
type Intent struct {
	ID          string    `json:"id"`
	AmountCents uint32    `json:"amount_cents"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Provider is the payment collaborator contract.
type Provider interface {
	// CreateIntent registers a new intent for the given amount in PENDING state.
	CreateIntent(ctx context.Context, amountCents uint32) (Intent, error)
	// ConfirmIntent captures a pending intent, moving it to SUCCESS.
	ConfirmIntent(ctx context.Context, id string) (Intent, error)
	// VerifyStatus reports the current processor-side status of an intent.
	VerifyStatus(ctx context.Context, id string) (Status, error)
	// CancelPayment voids a pending intent or, when refund is true,
	// refunds a captured one.  Either way the intent ends up CANCELED.
	CancelPayment(ctx context.Context, id string, refund bool) error
}
