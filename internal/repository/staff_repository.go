package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/restaurant-payments/internal/model"
)

// StaffRepo provides lookups against the staff table for back-office
// sign-in.  Accounts are created out of band (seed script or ops); this
// service only ever reads them.
type StaffRepo struct {
    db *sql.DB
}

// NewStaffRepo returns a new StaffRepo bound to the given database.
func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{db: db} }

// Create inserts a staff account and returns its id.  Used by the
// seed tool; the HTTP surface never creates accounts.
func (r *StaffRepo) Create(ctx context.Context, email, passwordHash, role string) (uint64, error) {
    const q = `INSERT INTO staff (email, password_hash, role, is_active) VALUES (?, ?, ?, 1)`
    res, err := r.db.ExecContext(ctx, q, email, passwordHash, role)
    if err != nil {
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByEmail returns the active staff account with the given email or
// ErrStaffNotFound.  Inactive accounts are treated as absent so that a
// disabled account cannot sign in.
func (r *StaffRepo) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
    const q = `SELECT id, email, password_hash, role, is_active, created_at, updated_at
               FROM staff WHERE email = ? AND is_active = 1`
    var s model.Staff
    err := r.db.QueryRowContext(ctx, q, email).Scan(
        &s.ID, &s.Email, &s.PasswordHash, &s.Role, &s.IsActive, &s.CreatedAt, &s.UpdatedAt,
    )
    if err == sql.ErrNoRows {
        return nil, ErrStaffNotFound
    }
    if err != nil {
        return nil, err
    }
    return &s, nil
}
