// Package handler implements the HTTP endpoints. The authentication
// handlers depend on the narrow store contracts declared here rather than
// on concrete repositories, so the security flows can be exercised against
// in-memory fakes.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskflow-app/taskflow/internal/model"
	"github.com/taskflow-app/taskflow/internal/queue"
)

// UserStore is the account state store. All lockout, session-epoch and
// reset-code state is mutated only through these methods; implementations
// must apply each mutation as a single record update.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	Create(ctx context.Context, firstName, lastName, email, password, role string, cost int) (uint64, error)

	// IncrementFailedLogins must be atomic: concurrent failed attempts
	// against one account may not lose updates.
	IncrementFailedLogins(ctx context.Context, id uint64) (int, error)
	LockAccount(ctx context.Context, id uint64, until time.Time) error
	RecordLogin(ctx context.Context, id uint64, ip, userAgent string, at time.Time) error

	SetPasswordResetCode(ctx context.Context, id uint64, codeHash string, expiresAt time.Time) error
	ClearPasswordResetCode(ctx context.Context, id uint64) error
	MarkPasswordResetCodeUsed(ctx context.Context, id uint64) error
	// UpdatePassword hashes, resets lockout state and bumps the session
	// epoch in one update.
	UpdatePassword(ctx context.Context, id uint64, plaintext string, cost int) error
}

// SettingsProvider exposes the live runtime settings. Implementations
// return usable defaults alongside any error so callers can keep going
// when a settings row is unreadable.
type SettingsProvider interface {
	SecuritySettings(ctx context.Context) (model.SecuritySettings, error)
	Maintenance(ctx context.Context) (model.MaintenanceSettings, error)
}

// IPRuleSource supplies the allow/deny rules evaluated for admin logins.
type IPRuleSource interface {
	RulesForCheck(ctx context.Context) ([]model.IPRule, error)
}

// AuditSink accepts audit events. Delivery is best-effort; Record never
// fails the calling operation.
type AuditSink interface {
	Record(ctx context.Context, ev queue.AuditEvent)
}

// getUserID extracts the authenticated user's ID placed in context by the
// authentication middleware.
func getUserID(c echo.Context) (uint64, error) {
	if id, ok := c.Get("user_id").(uint64); ok && id != 0 {
		return id, nil
	}
	return 0, echo.ErrUnauthorized
}

// reqContext bounds a handler's database work.
func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// jsonError is the uniform error body.
func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"error": msg})
}

// Health reports liveness for load balancers.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
