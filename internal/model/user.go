package model

import "time"

// Role and status values stored in users.role / users.status.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)

// User represents an application user record as stored in the `users`
// table. The account-security columns (lockout counters, session version,
// reset-code state, last-login telemetry) are mutated only through the
// repository layer. Handlers never expose PasswordHash or the reset-code
// fields; response types carry a safe projection instead.
//
// SessionVersion is the session epoch: access tokens embed the value at
// issuance and the middleware rejects any token whose embedded epoch is
// below the current one, which invalidates every outstanding token without
// a revocation list.
type User struct {
	ID                 uint64     // users.id
	FirstName          string     // users.first_name
	LastName           string     // users.last_name
	Email              string     // users.email (stored lower-cased and trimmed)
	PasswordHash       string     // users.password
	Role               string     // users.role (user|admin)
	Status             string     // users.status (active|disabled)
	ForcePasswordReset bool       // users.force_password_reset
	FailedLoginCount   int        // users.failed_login_count
	LockUntil          *time.Time // users.lock_until (locked while now < lock_until)
	SessionVersion     int        // users.session_version
	ResetCodeHash      *string    // users.password_reset_code_hash
	ResetExpiresAt     *time.Time // users.password_reset_expires_at
	ResetUsed          bool       // users.password_reset_used
	LastLoginIP        *string    // users.last_login_ip
	LastLoginAt        *time.Time // users.last_login_at
	LastLoginUA        *string    // users.last_login_user_agent
	CreatedAt          time.Time  // users.created_at
	UpdatedAt          time.Time  // users.updated_at
}

// Locked reports whether the account is currently inside its lockout
// window. Lock expiry is lazy: nothing clears lock_until in the background,
// it simply stops mattering once the wall clock passes it.
func (u *User) Locked(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}

// LockRemainingMinutes returns the whole minutes left on the lockout
// window, rounded up, never below 1 while the lock is active.
func (u *User) LockRemainingMinutes(now time.Time) int {
	if u.LockUntil == nil {
		return 0
	}
	remaining := u.LockUntil.Sub(now)
	if remaining <= 0 {
		return 0
	}
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
