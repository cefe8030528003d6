package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/restaurant-payments/internal/model"
)

// ReservationRepo provides read access to reservations and write
// access to their payment_status column.  All other reservation fields
// are owned by the booking subsystem and never modified here.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// GetByID returns the reservation with the given id or
// ErrReservationNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
    const q = `SELECT id, guest_name, email, phone, res_date, res_time, party_size,
                      confirmation_code, payment_status, created_at, updated_at
               FROM reservations WHERE id = ?`
    var res model.Reservation
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &res.ID, &res.GuestName, &res.Email, &res.Phone, &res.Date, &res.Time,
        &res.PartySize, &res.ConfirmationCode, &res.PaymentStatus,
        &res.CreatedAt, &res.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrReservationNotFound
    }
    if err != nil {
        return nil, err
    }
    return &res, nil
}

// UpdatePaymentStatus sets the payment_status column of a reservation.
// It returns ErrReservationNotFound when no row was matched.
func (r *ReservationRepo) UpdatePaymentStatus(ctx context.Context, id uint64, status string) error {
    const q = `UPDATE reservations SET payment_status = ? WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, status, id)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // MySQL reports zero affected rows both for a missing row and
        // for an update to the same value; distinguish with a lookup.
        if _, err := r.GetByID(ctx, id); err != nil {
            return err
        }
    }
    return nil
}
