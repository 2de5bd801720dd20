package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskflow-app/taskflow/internal/audit"
	"github.com/taskflow-app/taskflow/internal/config"
	"github.com/taskflow-app/taskflow/internal/mailer"
	"github.com/taskflow-app/taskflow/internal/model"
	"github.com/taskflow-app/taskflow/internal/ratelimit"
	"github.com/taskflow-app/taskflow/internal/repository"
	"github.com/taskflow-app/taskflow/internal/utils"
)

const minPasswordLen = 8

// resetCodeTTL is how long an emailed reset code stays valid.
const resetCodeTTL = 2 * time.Minute

// AuthHandler bundles dependencies for the auth endpoints: login with
// progressive lockout and IP policy, registration, and the two-step
// email-code password reset.
type AuthHandler struct {
	Cfg          config.Config
	Users        UserStore
	Settings     SettingsProvider
	IPRules      IPRuleSource
	Audit        AuditSink
	Mail         mailer.Mailer
	ResetLimiter ratelimit.Limiter

	now func() time.Time // injectable for tests
}

func NewAuthHandler(cfg config.Config, users UserStore, settings SettingsProvider,
	ipRules IPRuleSource, sink AuditSink, mail mailer.Mailer, limiter ratelimit.Limiter) *AuthHandler {
	return &AuthHandler{
		Cfg:          cfg,
		Users:        users,
		Settings:     settings,
		IPRules:      ipRules,
		Audit:        sink,
		Mail:         mail,
		ResetLimiter: limiter,
		now:          time.Now,
	}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type forgotReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type loginResp struct {
	Token string   `json:"token"`
	User  userPart `json:"user"`
}

// Register: create an account with the default user role.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.FirstName == "" || req.LastName == "" {
		return jsonError(c, http.StatusBadRequest, "first and last name are required")
	}
	if !utils.ValidEmail(req.Email) {
		return jsonError(c, http.StatusBadRequest, "valid email is required")
	}
	if len(req.Password) < minPasswordLen {
		return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.FirstName, req.LastName, req.Email, req.Password, model.RoleUser, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return jsonError(c, http.StatusConflict, "email already in use")
		}
		return jsonError(c, http.StatusInternalServerError, "create user failed")
	}

	h.Audit.Record(ctx, audit.Event(uid, "register", nil, c.RealIP(), c.Request().UserAgent()))
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully"})
}

// Login verifies credentials and mints an access token. Gates run in a
// fixed order — disabled, locked, password, IP policy — so a disabled admin
// from a denied IP is reported as disabled, not IP-denied.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "email/password required")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	clientIP := c.RealIP()
	userAgent := c.Request().UserAgent()
	now := h.now().UTC()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			// Indistinguishable from a wrong password, to avoid enumeration.
			return jsonError(c, http.StatusUnauthorized, "invalid credentials")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}

	if u.Status == model.StatusDisabled {
		return jsonError(c, http.StatusForbidden, "account disabled")
	}

	if u.Locked(now) {
		return c.JSON(http.StatusLocked, echo.Map{
			"error":               "account locked",
			"retry_after_minutes": u.LockRemainingMinutes(now),
		})
	}

	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return h.failedLogin(c, u, now)
	}

	if u.Role == model.RoleAdmin {
		if status, msg := h.checkIPRules(c, clientIP); status != 0 {
			return jsonError(c, status, msg)
		}
	}

	// New device or location: emit the alert before the login event so the
	// audit trail reads in cause order. Both are best-effort.
	if changed, details := loginChanged(u, clientIP, userAgent); changed {
		h.Audit.Record(ctx, audit.Event(u.ID, "login_alert", details, clientIP, userAgent))
	}
	h.Audit.Record(ctx, audit.Event(u.ID, "login", nil, clientIP, userAgent))

	if err := h.Users.RecordLogin(ctx, u.ID, clientIP, userAgent, now); err != nil {
		return jsonError(c, http.StatusInternalServerError, "update login state failed")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, u.SessionVersion, h.Cfg.AccessTTLMin)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "issue token failed")
	}

	return c.JSON(http.StatusOK, loginResp{
		Token: access.Token,
		User:  userPart{ID: u.ID, Email: u.Email, Role: u.Role},
	})
}

// failedLogin applies the lockout policy after a wrong password. The
// thresholds are re-read from system settings on every attempt so a policy
// change applies immediately.
func (h *AuthHandler) failedLogin(c echo.Context, u model.User, now time.Time) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	sec, _ := h.Settings.SecuritySettings(ctx)

	count, err := h.Users.IncrementFailedLogins(ctx, u.ID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "update login state failed")
	}

	if count >= sec.LockAfterFailed {
		until := now.Add(time.Duration(sec.LockMinutes) * time.Minute)
		if err := h.Users.LockAccount(ctx, u.ID, until); err != nil {
			return jsonError(c, http.StatusInternalServerError, "update login state failed")
		}
		return c.JSON(http.StatusLocked, echo.Map{
			"error":               "account locked",
			"retry_after_minutes": sec.LockMinutes,
		})
	}

	attemptsLeft := sec.LockAfterFailed - count
	if attemptsLeft < 0 {
		attemptsLeft = 0
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"error":         "invalid credentials",
		"attempts_left": attemptsLeft,
	})
}

// checkIPRules evaluates the admin IP policy. Deny rules win; a non-empty
// allow list then restricts admins to the listed addresses. Returns a zero
// status when the IP passes.
func (h *AuthHandler) checkIPRules(c echo.Context, clientIP string) (int, string) {
	ctx, cancel := reqContext(c)
	defer cancel()

	rules, err := h.IPRules.RulesForCheck(ctx)
	if err != nil {
		// Fail closed for admins: an unreadable rule set should not waive
		// the policy.
		return http.StatusInternalServerError, "ip policy unavailable"
	}

	allowCount := 0
	allowed := false
	for _, rule := range rules {
		switch rule.RuleType {
		case model.RuleDeny:
			if rule.IP == clientIP {
				return http.StatusForbidden, "login blocked by ip policy"
			}
		case model.RuleAllow:
			allowCount++
			if rule.IP == clientIP {
				allowed = true
			}
		}
	}
	if allowCount > 0 && !allowed {
		return http.StatusForbidden, "ip not allowed"
	}
	return 0, ""
}

// loginChanged compares the attempt against the stored telemetry and
// builds the alert details when either IP or user agent differs from a
// previously recorded value.
func loginChanged(u model.User, clientIP, userAgent string) (bool, map[string]any) {
	details := map[string]any{}
	if u.LastLoginIP != nil && *u.LastLoginIP != clientIP {
		details["previous_ip"] = *u.LastLoginIP
		details["new_ip"] = clientIP
	}
	if u.LastLoginUA != nil && *u.LastLoginUA != userAgent {
		details["previous_user_agent"] = *u.LastLoginUA
		details["new_user_agent"] = userAgent
	}
	return len(details) > 0, details
}

// ForgotPassword issues a 6-digit reset code by email. The response for an
// unknown email is the same generic acceptance as for a known one, and the
// flow fails closed when the mail channel is down or misconfigured.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	requested := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := reqContext(c)
	defer cancel()

	clientIP := c.RealIP()
	now := h.now().UTC()

	// The endpoint is public but accepts a bearer token: an authenticated
	// caller may only reset their own password, and the target email is
	// pinned to their account.
	target := requested
	throttleKey := fmt.Sprintf("ip:%s:%s", clientIP, requested)
	if claims, ok := h.bearerClaims(c); ok {
		self, err := h.Users.GetByID(ctx, claims.UserID)
		if err != nil {
			return jsonError(c, http.StatusUnauthorized, "unauthorized")
		}
		if requested != "" && requested != self.Email {
			return jsonError(c, http.StatusForbidden, "cannot request a reset for another account")
		}
		target = self.Email
		throttleKey = fmt.Sprintf("ip:%s:user:%d", clientIP, self.ID)
	}

	if !utils.ValidEmail(target) {
		return jsonError(c, http.StatusBadRequest, "valid email is required")
	}

	if !h.ResetLimiter.Allow(ctx, throttleKey, h.Cfg.ResetWindow, h.Cfg.ResetMaxRequests) {
		return jsonError(c, http.StatusTooManyRequests, "too many reset requests, try again later")
	}

	if !h.Mail.Configured() {
		return jsonError(c, http.StatusServiceUnavailable, "email service not configured")
	}

	const accepted = "If the email exists, a reset code has been sent"

	u, err := h.Users.GetByEmail(ctx, target)
	if err != nil {
		if err == sql.ErrNoRows {
			// Burn a hash so the miss path costs about as much as the hit
			// path; the response never reveals whether the email is
			// registered. Nothing is stored or sent.
			if code, genErr := utils.GenerateResetCode(); genErr == nil {
				_, _ = utils.HashPassword(code, h.Cfg.BcryptCost)
			}
			return c.JSON(http.StatusOK, echo.Map{"message": accepted})
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}

	code, err := utils.GenerateResetCode()
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "generate code failed")
	}
	codeHash, err := utils.HashPassword(code, h.Cfg.BcryptCost)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "generate code failed")
	}
	if err := h.Users.SetPasswordResetCode(ctx, u.ID, codeHash, now.Add(resetCodeTTL)); err != nil {
		return jsonError(c, http.StatusInternalServerError, "store code failed")
	}

	if err := h.Mail.Send(ctx, u.Email, "Your TaskFlow password reset code", resetMailBody(u.FirstName, code)); err != nil {
		// A code the user never received must not stay redeemable.
		if clearErr := h.Users.ClearPasswordResetCode(ctx, u.ID); clearErr != nil {
			c.Logger().Errorf("clear undelivered reset code for user %d: %v", u.ID, clearErr)
		}
		if errors.Is(err, mailer.ErrAuth) {
			return jsonError(c, http.StatusServiceUnavailable, "email service authentication failed")
		}
		return jsonError(c, http.StatusServiceUnavailable, "failed to send reset email")
	}

	h.Audit.Record(ctx, audit.Event(u.ID, "password_reset_request", nil, clientIP, c.Request().UserAgent()))
	return c.JSON(http.StatusOK, echo.Map{"message": accepted})
}

// ResetPassword redeems a reset code. A successful reset bumps the session
// epoch, which revokes every outstanding token for the account.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		return jsonError(c, http.StatusBadRequest, "email, code and new_password are required")
	}
	if !utils.ValidResetCode(req.Code) {
		return jsonError(c, http.StatusBadRequest, "invalid code format")
	}
	if len(req.NewPassword) < minPasswordLen {
		return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	now := h.now().UTC()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			return jsonError(c, http.StatusBadRequest, "invalid or expired code")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}

	if u.ResetCodeHash == nil || u.ResetExpiresAt == nil || u.ResetUsed {
		return jsonError(c, http.StatusBadRequest, "invalid or expired code")
	}
	if now.After(*u.ResetExpiresAt) {
		if err := h.Users.ClearPasswordResetCode(ctx, u.ID); err != nil {
			c.Logger().Errorf("clear expired reset code for user %d: %v", u.ID, err)
		}
		return jsonError(c, http.StatusBadRequest, "code expired")
	}
	if !utils.VerifyPassword(*u.ResetCodeHash, req.Code) {
		// The code stays pending; its short TTL bounds guessing.
		return jsonError(c, http.StatusBadRequest, "invalid code")
	}

	if err := h.Users.MarkPasswordResetCodeUsed(ctx, u.ID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "update failed")
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, req.NewPassword, h.Cfg.BcryptCost); err != nil {
		return jsonError(c, http.StatusInternalServerError, "update failed")
	}

	h.Audit.Record(ctx, audit.Event(u.ID, "password_reset", nil, c.RealIP(), c.Request().UserAgent()))
	return c.JSON(http.StatusOK, echo.Map{"message": "Password has been reset, please log in again"})
}

// bearerClaims parses an optional Authorization header. Absence or an
// invalid token simply means the caller is unauthenticated here; the
// forgot-password endpoint is public.
func (h *AuthHandler) bearerClaims(c echo.Context) (utils.Claims, bool) {
	auth := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return utils.Claims{}, false
	}
	claims, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		return utils.Claims{}, false
	}
	return claims, true
}

func resetMailBody(firstName, code string) string {
	name := firstName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`<h2>Password reset requested</h2>
<p>Hi %s,</p>
<p>Your TaskFlow verification code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px;">%s</p>
<p>The code expires in 2 minutes. If you did not request a reset, you can ignore this email.</p>
<hr/>
<p>The TaskFlow Team</p>`, name, code)
}
