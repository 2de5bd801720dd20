package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/taskflow-app/taskflow/internal/model"
	"github.com/taskflow-app/taskflow/internal/utils"
)

// UserRepo is the account state store. Every mutation of the security
// columns (lockout counters, session version, reset-code state, telemetry)
// goes through it, and email normalization happens here so no call site can
// reintroduce case-sensitive lookups.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an address. Applied uniformly at the
// store boundary for both storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const userColumns = `id, first_name, last_name, email, password, role, status,
	force_password_reset, failed_login_count, lock_until, session_version,
	password_reset_code_hash, password_reset_expires_at, password_reset_used,
	last_login_ip, last_login_at, last_login_user_agent, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
		&u.ForcePasswordReset, &u.FailedLoginCount, &u.LockUntil, &u.SessionVersion,
		&u.ResetCodeHash, &u.ResetExpiresAt, &u.ResetUsed,
		&u.LastLoginIP, &u.LastLoginAt, &u.LastLoginUA, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// Create inserts a user and returns its ID. The password is hashed here so
// plaintext never crosses the repository boundary outward.
func (r *UserRepo) Create(ctx context.Context, firstName, lastName, email, password, role string, cost int) (uint64, error) {
	email = NormalizeEmail(email)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (first_name, last_name, email, password, role) VALUES (?,?,?,?,?)",
		firstName, lastName, email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		NormalizeEmail(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// List returns all users ordered newest first, for the admin console.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
			&u.ForcePasswordReset, &u.FailedLoginCount, &u.LockUntil, &u.SessionVersion,
			&u.ResetCodeHash, &u.ResetExpiresAt, &u.ResetUsed,
			&u.LastLoginIP, &u.LastLoginAt, &u.LastLoginUA, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateFields applies a partial update; only the provided columns change.
// Callers validate keys and values; the column names here come from a fixed
// handler-side allow list, never from raw client input.
func (r *UserRepo) UpdateFields(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		set = append(set, fmt.Sprintf("%s = ?", k))
		args = append(args, fields[k])
	}
	args = append(args, id)

	res, err := r.DB.ExecContext(ctx,
		fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(set, ", ")), args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// Affected may legitimately be zero when values are unchanged, so
		// confirm existence before reporting not found.
		var exists uint64
		if lookupErr := r.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE id=?", id).Scan(&exists); lookupErr == sql.ErrNoRows {
			return ErrNotFound
		}
	}
	return nil
}

// IncrementFailedLogins atomically bumps failed_login_count and returns the
// new value. The LAST_INSERT_ID trick makes the read-back race-free without
// a transaction, but it is connection-scoped, so both statements run on one
// pooled connection.
func (r *UserRepo) IncrementFailedLogins(ctx context.Context, id uint64) (int, error) {
	conn, err := r.DB.Conn(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	res, err := conn.ExecContext(ctx,
		"UPDATE users SET failed_login_count = LAST_INSERT_ID(failed_login_count + 1) WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, ErrNotFound
	}
	var count int
	if err := conn.QueryRowContext(ctx, "SELECT LAST_INSERT_ID()").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// LockAccount sets the lockout deadline. Nothing clears it actively; the
// lock simply stops applying once the wall clock passes it.
func (r *UserRepo) LockAccount(ctx context.Context, id uint64, until time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET lock_until = ? WHERE id = ?", until.UTC(), id)
	return err
}

// RecordLogin resets the lockout state and stores the login telemetry used
// for new-device detection, all in one update.
func (r *UserRepo) RecordLogin(ctx context.Context, id uint64, ip, userAgent string, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET failed_login_count = 0, lock_until = NULL,
			last_login_ip = ?, last_login_user_agent = ?, last_login_at = ?
		 WHERE id = ?`,
		ip, userAgent, at.UTC(), id)
	return err
}

// SetPasswordResetCode stores the hash of a freshly issued code, its expiry
// and an unused marker, replacing any previous pending code.
func (r *UserRepo) SetPasswordResetCode(ctx context.Context, id uint64, codeHash string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_reset_code_hash = ?, password_reset_expires_at = ?,
			password_reset_used = 0
		 WHERE id = ?`,
		codeHash, expiresAt.UTC(), id)
	return err
}

// ClearPasswordResetCode removes any pending code, used both on expiry and
// as the compensating action when delivery fails.
func (r *UserRepo) ClearPasswordResetCode(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_reset_code_hash = NULL, password_reset_expires_at = NULL,
			password_reset_used = 0
		 WHERE id = ?`, id)
	return err
}

// MarkPasswordResetCodeUsed makes a code single-use.
func (r *UserRepo) MarkPasswordResetCodeUsed(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_used = 1 WHERE id = ?", id)
	return err
}

// UpdatePassword hashes the new password and applies the whole
// post-reset state change as a single record update: lockout cleared,
// session epoch bumped (revoking every outstanding token), reset-code
// fields wiped.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, plaintext string, cost int) error {
	hash, err := utils.HashPassword(plaintext, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		`UPDATE users SET password = ?, failed_login_count = 0, lock_until = NULL,
			session_version = session_version + 1,
			password_reset_code_hash = NULL, password_reset_expires_at = NULL,
			password_reset_used = 0, force_password_reset = 0
		 WHERE id = ?`,
		hash, id)
	return err
}

// IncrementSessionVersion revokes all outstanding tokens for the user.
func (r *UserRepo) IncrementSessionVersion(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET session_version = session_version + 1 WHERE id = ?", id)
	return err
}

// Delete removes a user.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
