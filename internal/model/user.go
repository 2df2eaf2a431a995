package model

import "time"

// Dashboard roles.
const (
	RoleOwner = "OWNER"
	RoleStaff = "STAFF"
)

// User represents a dashboard account as stored in the `users` table.
// Each account belongs to a single store and can only see that store's
// reservations and payments.
//
// Fields:
//  ID           – primary key identifier of the user.
//  StoreID      – store the account belongs to.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – OWNER or STAFF.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	StoreID      uint64    // users.store_id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  The plain
// token is not stored; only its SHA-256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
