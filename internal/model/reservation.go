package model

import "time"

// Reservation payment status values.  These mirror the payment state
// machine from the reservation's point of view; UNSET means no deposit
// has been requested yet.
const (
    ReservationPaymentUnset     = "UNSET"
    ReservationPaymentPending   = "PENDING"
    ReservationPaymentCompleted = "COMPLETED"
    ReservationPaymentFailed    = "FAILED"
    ReservationPaymentRefunded  = "REFUNDED"
)

// Reservation represents a table booking made by a guest.  The record
// is owned by the reservation subsystem; this service only reads it and
// mutates the PaymentStatus column as deposits move through their
// lifecycle.
//
// Fields:
//  ID               – primary key identifier.
//  GuestName        – name the booking was made under.
//  Email            – guest contact email, also used to resolve the payer.
//  Phone            – guest phone number.
//  Date             – reservation date (YYYY-MM-DD).
//  Time             – reservation time (HH:MM).
//  PartySize        – number of guests.
//  ConfirmationCode – human-readable code shown to guests and staff.
//  PaymentStatus    – UNSET, PENDING, COMPLETED, FAILED or REFUNDED.
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Reservation struct {
    ID               uint64    // reservations.id
    GuestName        string    // reservations.guest_name
    Email            string    // reservations.email
    Phone            string    // reservations.phone
    Date             string    // reservations.res_date
    Time             string    // reservations.res_time
    PartySize        uint32    // reservations.party_size
    ConfirmationCode string    // reservations.confirmation_code
    PaymentStatus    string    // reservations.payment_status
    CreatedAt        time.Time // reservations.created_at
    UpdatedAt        time.Time // reservations.updated_at
}
