package model

import "time"

// Payment status values.  A payment starts as PENDING when an intent is
// first requested and moves to COMPLETED or FAILED once the processor
// resolves the charge.  REFUNDED is reachable only from COMPLETED.
const (
    PaymentStatusPending   = "PENDING"
    PaymentStatusCompleted = "COMPLETED"
    PaymentStatusFailed    = "FAILED"
    PaymentStatusRefunded  = "REFUNDED"
)

// Payment records a deposit charge for a single reservation.  There is
// at most one active payment row per reservation; the row is created on
// the first intent request and mutated in place by confirm, refund and
// admin updates.  Rows are never deleted.
//
// Fields:
//  ID               – primary key identifier.
//  ReservationID    – reservation being paid for (unique key).
//  AmountCents      – deposit amount in the smallest currency unit.
//  Status           – PENDING, COMPLETED, FAILED or REFUNDED.
//  PayerRef         – processor-side customer id, reused across attempts.
//  AuthorizationID  – processor-side payment intent id of the latest attempt.
//  TransactionID    – authorization id recorded when the charge succeeded.
//  PaymentMethod    – method reported by the processor (e.g. "card").
//  Last4Digits      – last four digits of the card, best effort.
//  CardBrand        – card brand in upper case, best effort.
//  ConfirmationCode – denormalized copy of the reservation code for display.
//  FailureReason    – processor message recorded on decline.
//  RefundID         – processor-side refund id.
//  RefundReason     – reason supplied when the refund was requested.
//  PaidAt           – when the charge succeeded (nullable).
//  RefundedAt       – when the refund was issued (nullable).
//  CreatedAt        – creation timestamp.
//  UpdatedAt        – last update timestamp.
type Payment struct {
    ID               uint64     // payments.id
    ReservationID    uint64     // payments.reservation_id (unique)
    AmountCents      int64      // payments.amount_cents
    Status           string     // payments.status
    PayerRef         *string    // payments.payer_ref (nullable)
    AuthorizationID  *string    // payments.authorization_id (nullable)
    TransactionID    *string    // payments.transaction_id (nullable)
    PaymentMethod    *string    // payments.payment_method (nullable)
    Last4Digits      *string    // payments.last4_digits (nullable)
    CardBrand        *string    // payments.card_brand (nullable)
    ConfirmationCode string     // payments.confirmation_code
    FailureReason    *string    // payments.failure_reason (nullable)
    RefundID         *string    // payments.refund_id (nullable)
    RefundReason     *string    // payments.refund_reason (nullable)
    PaidAt           *time.Time // payments.paid_at (nullable)
    RefundedAt       *time.Time // payments.refunded_at (nullable)
    CreatedAt        time.Time  // payments.created_at
    UpdatedAt        time.Time  // payments.updated_at
}
