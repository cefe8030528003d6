// Package service implements the reservation deposit payment workflows:
// intent creation, confirmation against the processor's result, refunds
// and the admin query surface.  Handlers translate the sentinel errors
// below into HTTP status codes; business declines are ordinary return
// values and never travel as errors.
package service

import "errors"

// ErrNotConfigured is returned when no payment processor credential is
// present.  It is distinct from request validation so callers can
// answer 503 instead of 400.
var ErrNotConfigured = errors.New("payment service not configured")

// ErrValidation is the base error for missing or malformed request
// fields.  Specific messages are wrapped around it with fmt.Errorf and
// %w so handlers can match with errors.Is.
var ErrValidation = errors.New("validation failed")

// ErrInvalidState is returned when an operation is not allowed in the
// payment's current status, such as refunding a payment that is not
// completed.
var ErrInvalidState = errors.New("cannot refund a payment that is not completed")
