// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios. For example, ErrPaymentNotFound indicates that no payment
// row exists for a lookup key, while ErrReservationNotFound signals
// that the referenced reservation is absent. Handlers translate these
// into HTTP 404 responses.
package repository

import "errors"

// ErrPaymentNotFound is returned when no payment row matches the
// requested id or reservation id.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrReservationNotFound is returned when the referenced reservation
// does not exist.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrStaffNotFound is returned when no active staff account matches
// the given email.
var ErrStaffNotFound = errors.New("staff not found")
