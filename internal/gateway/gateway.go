// Package gateway defines the port to the external card processor and
// its Stripe-backed implementation.  The service layer depends only on
// the PaymentGateway interface so tests can substitute a fake and the
// processor can be swapped per environment without global state.
package gateway

import "context"

// Payer is the processor-side identity associated with a guest email.
// It is resolved once and reused across payment attempts.
type Payer struct {
    ID    string // processor customer id
    Email string
}

// CardDetails carries best-effort card information extracted from a
// settled charge.  Either field may be empty when the processor did not
// expose charge details.
type CardDetails struct {
    Last4 string
    Brand string
}

// Authorization is the processor-side object representing an attempt
// to charge a payer a fixed amount.  Status follows the processor's
// vocabulary: "succeeded", "processing", or a terminal decline state
// such as "requires_payment_method" or "canceled".
type Authorization struct {
    ID               string
    ClientSecret     string
    Status           string
    AmountCents      int64
    LastErrorMessage string
    Card             CardDetails
}

// Refund is the processor-side record of a reversed charge.
type Refund struct {
    ID     string
    Status string
}

// AuthorizationParams carries everything needed to request a charge
// authorization.  Metadata keys are attached verbatim on the processor
// object so support staff can trace a charge back to its reservation.
type AuthorizationParams struct {
    AmountCents int64
    Currency    string
    PayerID     string
    Description string
    Metadata    map[string]string
}

// PaymentGateway is the interface consumed by the payment service.
// Implementations must be safe for concurrent use.
type PaymentGateway interface {
    // FindOrCreatePayer looks up a payer by email and creates one with
    // the given metadata when none exists.
    FindOrCreatePayer(ctx context.Context, email string, metadata map[string]string) (*Payer, error)
    // CreateAuthorization requests a new charge authorization.
    CreateAuthorization(ctx context.Context, params AuthorizationParams) (*Authorization, error)
    // RetrieveAuthorization fetches the current state of an
    // authorization, including charge card details when settled.
    RetrieveAuthorization(ctx context.Context, id string) (*Authorization, error)
    // CreateRefund reverses a settled authorization.
    CreateRefund(ctx context.Context, authorizationID, reason string) (*Refund, error)
}

// Error is returned for processor-side failures (auth, validation,
// network).  The message is passed through from the processor so it can
// be surfaced for diagnostics.
type Error struct {
    StatusCode int    // HTTP status returned by the processor, 0 for transport errors
    Code       string // processor error code, may be empty
    Message    string
}

func (e *Error) Error() string {
    if e.Code != "" {
        return "gateway: " + e.Code + ": " + e.Message
    }
    return "gateway: " + e.Message
}
