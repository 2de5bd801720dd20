// Package middleware holds the Echo middleware for request authentication
// and traffic shaping.
package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskflow-app/taskflow/internal/model"
	"github.com/taskflow-app/taskflow/internal/utils"
)

// UserLoader loads the live account record for a token's subject.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// MaintenanceSource reports the maintenance-mode setting.
type MaintenanceSource interface {
	Maintenance(ctx context.Context) (model.MaintenanceSettings, error)
}

// Authenticate validates the bearer token and re-checks the account state
// on every request: a token alone is never sufficient. Disabled accounts,
// locked accounts and tokens from a stale session epoch are all rejected
// even when the signature and expiry are fine. During maintenance mode
// only admins get through.
func Authenticate(secret string, users UserLoader, settings MaintenanceSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				if err == sql.ErrNoRows {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}

			if u.Status == model.StatusDisabled {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "account disabled"})
			}
			now := time.Now().UTC()
			if u.Locked(now) {
				return c.JSON(http.StatusLocked, echo.Map{
					"error":               "account locked",
					"retry_after_minutes": u.LockRemainingMinutes(now),
				})
			}
			if claims.SessionVersion < u.SessionVersion {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session revoked"})
			}

			if u.Role != model.RoleAdmin {
				if m, err := settings.Maintenance(ctx); err == nil && m.Enabled {
					msg := m.Message
					if msg == "" {
						msg = "service is under maintenance"
					}
					return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": msg})
				}
			}

			c.Set("user_id", u.ID)
			c.Set("role", u.Role)
			c.Set("email", u.Email)
			return next(c)
		}
	}
}

// RequireAdmin gates a route group on the admin role. It assumes
// Authenticate already ran.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if role, ok := c.Get("role").(string); !ok || role != model.RoleAdmin {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
		}
		return next(c)
	}
}
