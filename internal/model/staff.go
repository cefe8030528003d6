package model

import "time"

// Staff represents a back-office account as stored in the `staff`
// table.  Staff members sign in to the admin dashboard; only accounts
// with the ADMIN role may reach the payment admin endpoints.  The
// password is stored as a bcrypt hash, never in plain text.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address used to sign in.
//  PasswordHash – bcrypt hashed password.
//  Role         – role name (e.g. ADMIN, STAFF).
//  IsActive     – whether the account may sign in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Staff struct {
    ID           uint64    // staff.id
    Email        string    // staff.email
    PasswordHash string    // staff.password_hash
    Role         string    // staff.role
    IsActive     bool      // staff.is_active
    CreatedAt    time.Time // staff.created_at
    UpdatedAt    time.Time // staff.updated_at
}
