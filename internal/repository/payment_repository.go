package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/restaurant-payments/internal/model"
)

// PaymentRepo provides persistence for deposit payments.  Each payment
// row maps one-to-one to a reservation via a UNIQUE KEY on
// reservation_id, which makes the lookup-or-create step safe under
// concurrent intent requests: the insert below is an upsert and both
// racers end up on the same row.  All timestamps are stored in UTC.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, reservation_id, amount_cents, status, payer_ref, authorization_id,
       transaction_id, payment_method, last4_digits, card_brand, confirmation_code,
       failure_reason, refund_id, refund_reason, paid_at, refunded_at, created_at, updated_at`

// scanPayment reads one payment row from any row scanner.  Nullable
// columns are mapped to pointer fields on the model.
func scanPayment(row interface{ Scan(...interface{}) error }) (*model.Payment, error) {
    var p model.Payment
    var payerRef, authID, txnID, method, last4, brand, failure, refundID, refundReason sql.NullString
    var paidAt, refundedAt sql.NullTime
    err := row.Scan(
        &p.ID, &p.ReservationID, &p.AmountCents, &p.Status, &payerRef, &authID,
        &txnID, &method, &last4, &brand, &p.ConfirmationCode,
        &failure, &refundID, &refundReason, &paidAt, &refundedAt, &p.CreatedAt, &p.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    p.PayerRef = strPtr(payerRef)
    p.AuthorizationID = strPtr(authID)
    p.TransactionID = strPtr(txnID)
    p.PaymentMethod = strPtr(method)
    p.Last4Digits = strPtr(last4)
    p.CardBrand = strPtr(brand)
    p.FailureReason = strPtr(failure)
    p.RefundID = strPtr(refundID)
    p.RefundReason = strPtr(refundReason)
    p.PaidAt = timePtr(paidAt)
    p.RefundedAt = timePtr(refundedAt)
    return &p, nil
}

func strPtr(ns sql.NullString) *string {
    if !ns.Valid {
        return nil
    }
    s := ns.String
    return &s
}

func timePtr(nt sql.NullTime) *time.Time {
    if !nt.Valid {
        return nil
    }
    t := nt.Time.UTC()
    return &t
}

// CreateOrGet inserts a pending payment for the reservation or returns
// the row that already exists.  The statement relies on the unique key
// on reservation_id: when a row is already present the insert becomes a
// no-op that resolves LAST_INSERT_ID to the existing id, so concurrent
// first-time intent requests cannot create duplicates.  The amount of
// an existing row is never overwritten.
func (r *PaymentRepo) CreateOrGet(ctx context.Context, reservationID uint64, amountCents int64, confirmationCode string) (*model.Payment, error) {
    const ins = `INSERT INTO payments (reservation_id, amount_cents, status, confirmation_code)
                 VALUES (?, ?, ?, ?)
                 ON DUPLICATE KEY UPDATE id = LAST_INSERT_ID(id)`
    res, err := r.db.ExecContext(ctx, ins, reservationID, amountCents, model.PaymentStatusPending, confirmationCode)
    if err != nil {
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    return r.GetByID(ctx, uint64(id))
}

// GetByID returns the payment with the given primary key or
// ErrPaymentNotFound.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
    const q = `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
    p, err := scanPayment(r.db.QueryRowContext(ctx, q, id))
    if err == sql.ErrNoRows {
        return nil, ErrPaymentNotFound
    }
    return p, err
}

// GetByReservationID returns the payment belonging to the reservation
// or ErrPaymentNotFound.
func (r *PaymentRepo) GetByReservationID(ctx context.Context, reservationID uint64) (*model.Payment, error) {
    const q = `SELECT ` + paymentColumns + ` FROM payments WHERE reservation_id = ?`
    p, err := scanPayment(r.db.QueryRowContext(ctx, q, reservationID))
    if err == sql.ErrNoRows {
        return nil, ErrPaymentNotFound
    }
    return p, err
}

// SetPayerRef records the processor-side customer id resolved for the
// payment.
func (r *PaymentRepo) SetPayerRef(ctx context.Context, id uint64, payerRef string) error {
    const q = `UPDATE payments SET payer_ref = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, payerRef, id)
    return err
}

// SetAuthorization records the processor-side payment intent id of the
// latest charge attempt and resets the row to PENDING so a fresh intent
// after a failed attempt restarts the state machine.
func (r *PaymentRepo) SetAuthorization(ctx context.Context, id uint64, authorizationID string) error {
    const q = `UPDATE payments SET authorization_id = ?, status = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, authorizationID, model.PaymentStatusPending, id)
    return err
}

// MarkCompleted transitions the payment to COMPLETED and records the
// transaction details.  last4 and brand may be empty when the processor
// did not expose charge details; the columns stay NULL in that case.
func (r *PaymentRepo) MarkCompleted(ctx context.Context, id uint64, transactionID, last4, brand string, paidAt time.Time) error {
    const q = `UPDATE payments
               SET status = ?, transaction_id = ?, paid_at = ?, payment_method = 'card',
                   last4_digits = NULLIF(?, ''), card_brand = NULLIF(?, '')
               WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, model.PaymentStatusCompleted, transactionID, paidAt.UTC(), last4, brand, id)
    return err
}

// MarkFailed transitions the payment to FAILED and stores the decline
// reason reported by the processor.
func (r *PaymentRepo) MarkFailed(ctx context.Context, id uint64, reason string) error {
    const q = `UPDATE payments SET status = ?, failure_reason = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, model.PaymentStatusFailed, reason, id)
    return err
}

// MarkRefunded transitions the payment to REFUNDED and records the
// refund details.
func (r *PaymentRepo) MarkRefunded(ctx context.Context, id uint64, refundID, reason string, refundedAt time.Time) error {
    const q = `UPDATE payments SET status = ?, refund_id = ?, refund_reason = ?, refunded_at = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, model.PaymentStatusRefunded, refundID, reason, refundedAt.UTC(), id)
    return err
}

// AdminUpdate overwrites the payment method and/or status directly,
// bypassing the state machine.  Nil fields are left untouched.  It
// returns ErrPaymentNotFound when the id does not resolve.
func (r *PaymentRepo) AdminUpdate(ctx context.Context, id uint64, paymentMethod, status *string) (*model.Payment, error) {
    if _, err := r.GetByID(ctx, id); err != nil {
        return nil, err
    }
    const q = `UPDATE payments
               SET payment_method = COALESCE(?, payment_method),
                   status = COALESCE(?, status)
               WHERE id = ?`
    if _, err := r.db.ExecContext(ctx, q, paymentMethod, status, id); err != nil {
        return nil, err
    }
    return r.GetByID(ctx, id)
}

// AdminPaymentDetail joins a payment with the summary fields of its
// reservation for display in the admin dashboard.
type AdminPaymentDetail struct {
    PaymentID        uint64  `json:"payment_id"`
    ReservationID    uint64  `json:"reservation_id"`
    AmountCents      int64   `json:"amount_cents"`
    Status           string  `json:"status"`
    PaymentMethod    *string `json:"payment_method,omitempty"`
    Last4Digits      *string `json:"last4_digits,omitempty"`
    CardBrand        *string `json:"card_brand,omitempty"`
    PaidAt           *string `json:"paid_at,omitempty"`
    RefundID         *string `json:"refund_id,omitempty"`
    ConfirmationCode string  `json:"confirmation_code"`
    GuestName        string  `json:"guest_name"`
    Email            string  `json:"email"`
    Date             string  `json:"date"`
    Time             string  `json:"time"`
    PartySize        uint32  `json:"party_size"`
    CreatedAt        string  `json:"created_at"`
}

// ListWithReservations returns every payment joined with its
// reservation summary, newest first.  When no payments exist an empty
// slice is returned.
func (r *PaymentRepo) ListWithReservations(ctx context.Context) ([]AdminPaymentDetail, error) {
    const q = `SELECT p.id, p.reservation_id, p.amount_cents, p.status, p.payment_method,
                      p.last4_digits, p.card_brand, p.paid_at, p.refund_id, p.confirmation_code,
                      r.guest_name, r.email, r.res_date, r.res_time, r.party_size, p.created_at
               FROM payments p
               JOIN reservations r ON r.id = p.reservation_id
               ORDER BY p.created_at DESC`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    details := make([]AdminPaymentDetail, 0)
    for rows.Next() {
        var d AdminPaymentDetail
        var method, last4, brand, refundID sql.NullString
        var paidAt sql.NullTime
        var createdAt time.Time
        if err := rows.Scan(
            &d.PaymentID, &d.ReservationID, &d.AmountCents, &d.Status, &method,
            &last4, &brand, &paidAt, &refundID, &d.ConfirmationCode,
            &d.GuestName, &d.Email, &d.Date, &d.Time, &d.PartySize, &createdAt,
        ); err != nil {
            return nil, err
        }
        d.PaymentMethod = strPtr(method)
        d.Last4Digits = strPtr(last4)
        d.CardBrand = strPtr(brand)
        d.RefundID = strPtr(refundID)
        if paidAt.Valid {
            iso := paidAt.Time.UTC().Format(time.RFC3339)
            d.PaidAt = &iso
        }
        d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
        details = append(details, d)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return details, nil
}
