package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/taskflow-app/taskflow/internal/config"
	"github.com/taskflow-app/taskflow/internal/mailer"
	"github.com/taskflow-app/taskflow/internal/model"
	"github.com/taskflow-app/taskflow/internal/queue"
	"github.com/taskflow-app/taskflow/internal/repository"
	"github.com/taskflow-app/taskflow/internal/utils"
)

// ----- fakes -----

type fakeUserStore struct {
	users  map[uint64]*model.User
	nextID uint64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[uint64]*model.User{}, nextID: 1}
}

func (s *fakeUserStore) add(u model.User) *model.User {
	if u.ID == 0 {
		u.ID = s.nextID
	}
	if u.ID >= s.nextID {
		s.nextID = u.ID + 1
	}
	s.users[u.ID] = &u
	return s.users[u.ID]
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range s.users {
		if u.Email == repository.NormalizeEmail(email) {
			return *u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

func (s *fakeUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	if u, ok := s.users[id]; ok {
		return *u, nil
	}
	return model.User{}, sql.ErrNoRows
}

func (s *fakeUserStore) Create(_ context.Context, firstName, lastName, email, password, role string, cost int) (uint64, error) {
	norm := repository.NormalizeEmail(email)
	for _, u := range s.users {
		if u.Email == norm {
			return 0, repository.ErrEmailExists
		}
	}
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	u := s.add(model.User{
		FirstName: firstName, LastName: lastName, Email: norm,
		PasswordHash: hash, Role: role, Status: model.StatusActive,
	})
	return u.ID, nil
}

func (s *fakeUserStore) IncrementFailedLogins(_ context.Context, id uint64) (int, error) {
	u := s.users[id]
	u.FailedLoginCount++
	return u.FailedLoginCount, nil
}

func (s *fakeUserStore) LockAccount(_ context.Context, id uint64, until time.Time) error {
	t := until
	s.users[id].LockUntil = &t
	return nil
}

func (s *fakeUserStore) RecordLogin(_ context.Context, id uint64, ip, userAgent string, at time.Time) error {
	u := s.users[id]
	u.FailedLoginCount = 0
	u.LockUntil = nil
	u.LastLoginIP = &ip
	u.LastLoginUA = &userAgent
	t := at
	u.LastLoginAt = &t
	return nil
}

func (s *fakeUserStore) SetPasswordResetCode(_ context.Context, id uint64, codeHash string, expiresAt time.Time) error {
	u := s.users[id]
	h, t := codeHash, expiresAt
	u.ResetCodeHash = &h
	u.ResetExpiresAt = &t
	u.ResetUsed = false
	return nil
}

func (s *fakeUserStore) ClearPasswordResetCode(_ context.Context, id uint64) error {
	u := s.users[id]
	u.ResetCodeHash = nil
	u.ResetExpiresAt = nil
	u.ResetUsed = false
	return nil
}

func (s *fakeUserStore) MarkPasswordResetCodeUsed(_ context.Context, id uint64) error {
	s.users[id].ResetUsed = true
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, id uint64, plaintext string, cost int) error {
	u := s.users[id]
	hash, err := utils.HashPassword(plaintext, cost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.FailedLoginCount = 0
	u.LockUntil = nil
	u.SessionVersion++
	u.ResetCodeHash = nil
	u.ResetExpiresAt = nil
	u.ResetUsed = false
	u.ForcePasswordReset = false
	return nil
}

type fakeSettings struct {
	security    model.SecuritySettings
	maintenance model.MaintenanceSettings
}

func (s *fakeSettings) SecuritySettings(context.Context) (model.SecuritySettings, error) {
	return s.security, nil
}
func (s *fakeSettings) Maintenance(context.Context) (model.MaintenanceSettings, error) {
	return s.maintenance, nil
}

type fakeIPRules struct {
	rules []model.IPRule
	err   error
}

func (s *fakeIPRules) RulesForCheck(context.Context) ([]model.IPRule, error) {
	return s.rules, s.err
}

type fakeAudit struct {
	events []queue.AuditEvent
}

func (s *fakeAudit) Record(_ context.Context, ev queue.AuditEvent) {
	s.events = append(s.events, ev)
}

func (s *fakeAudit) actions() []string {
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.Action)
	}
	return out
}

type fakeMailer struct {
	configured bool
	failWith   error
	sent       []string // recipients
	lastBody   string
}

func (m *fakeMailer) Configured() bool { return m.configured }
func (m *fakeMailer) Send(_ context.Context, to, _, html string) error {
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, to)
	m.lastBody = html
	return nil
}

type fakeLimiter struct {
	allow bool
	keys  []string
}

func (l *fakeLimiter) Allow(_ context.Context, key string, _ time.Duration, _ int) bool {
	l.keys = append(l.keys, key)
	return l.allow
}

// ----- harness -----

type authEnv struct {
	h        *AuthHandler
	users    *fakeUserStore
	settings *fakeSettings
	ipRules  *fakeIPRules
	audit    *fakeAudit
	mail     *fakeMailer
	limiter  *fakeLimiter
	now      time.Time
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()
	env := &authEnv{
		users:    newFakeUserStore(),
		settings: &fakeSettings{security: model.DefaultSecuritySettings()},
		ipRules:  &fakeIPRules{},
		audit:    &fakeAudit{},
		mail:     &fakeMailer{configured: true},
		limiter:  &fakeLimiter{allow: true},
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	cfg := config.Config{
		JWTSecret:        "test-secret",
		AccessTTLMin:     60,
		BcryptCost:       4,
		ResetWindow:      10 * time.Minute,
		ResetMaxRequests: 3,
	}
	env.h = NewAuthHandler(cfg, env.users, env.settings, env.ipRules, env.audit, env.mail, env.limiter)
	env.h.now = func() time.Time { return env.now }
	return env
}

func (env *authEnv) addUser(t *testing.T, email, password, role string) *model.User {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	return env.users.add(model.User{
		FirstName: "Test", LastName: "User", Email: email,
		PasswordHash: hash, Role: role, Status: model.StatusActive,
	})
}

func postJSON(t *testing.T, handlerFn echo.HandlerFunc, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, handlerFn(c))

	var out map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func loginBody(email, password string) string {
	return fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
}

// ----- register -----

func TestRegisterCreatesUser(t *testing.T) {
	env := newAuthEnv(t)

	rec, _ := postJSON(t, env.h.Register,
		`{"first_name":"Ada","last_name":"Lovelace","email":"Ada@Example.com","password":"longenough"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	u, err := env.users.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, u.Role)
	require.Contains(t, env.audit.actions(), "register")
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "taken@example.com", "password1", model.RoleUser)

	rec, out := postJSON(t, env.h.Register,
		`{"first_name":"A","last_name":"B","email":"taken@example.com","password":"longenough"}`, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, out["error"], "email")
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := newAuthEnv(t)
	rec, _ := postJSON(t, env.h.Register,
		`{"first_name":"A","last_name":"B","email":"a@example.com","password":"short"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// ----- login -----

func TestLoginSuccess(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)
	u.SessionVersion = 2

	rec, out := postJSON(t, env.h.Login, loginBody("User@Example.com", "password1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	claims, err := utils.ParseAccessToken("test-secret", out["token"].(string))
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
	require.Equal(t, 2, claims.SessionVersion)

	userOut := out["user"].(map[string]any)
	require.Equal(t, "user@example.com", userOut["email"])
	require.Contains(t, env.audit.actions(), "login")
}

func TestLoginUnknownEmailLooksLikeWrongPassword(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "user@example.com", "password1", model.RoleUser)

	recUnknown, outUnknown := postJSON(t, env.h.Login, loginBody("nobody@example.com", "password1"), nil)
	require.Equal(t, http.StatusUnauthorized, recUnknown.Code)
	require.Equal(t, "invalid credentials", outUnknown["error"])
}

func TestLoginProgressiveLockout(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)

	// Four wrong passwords count down attempts_left.
	for want := 4; want >= 1; want-- {
		rec, out := postJSON(t, env.h.Login, loginBody("user@example.com", "wrong"), nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, float64(want), out["attempts_left"])
	}

	// The fifth locks the account for the configured window.
	rec, out := postJSON(t, env.h.Login, loginBody("user@example.com", "wrong"), nil)
	require.Equal(t, http.StatusLocked, rec.Code)
	require.Equal(t, float64(15), out["retry_after_minutes"])
	require.NotNil(t, env.users.users[u.ID].LockUntil)

	// Even the correct password is refused while locked.
	rec, out = postJSON(t, env.h.Login, loginBody("user@example.com", "password1"), nil)
	require.Equal(t, http.StatusLocked, rec.Code)
	require.Equal(t, float64(15), out["retry_after_minutes"])

	// Once the window passes, the lock lapses without any sweeper.
	env.now = env.now.Add(16 * time.Minute)
	rec, _ = postJSON(t, env.h.Login, loginBody("user@example.com", "password1"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, env.users.users[u.ID].FailedLoginCount)
	require.Nil(t, env.users.users[u.ID].LockUntil)
}

func TestLoginThresholdReadPerAttempt(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "user@example.com", "password1", model.RoleUser)
	env.settings.security = model.SecuritySettings{LockAfterFailed: 2, LockMinutes: 30}

	rec, _ := postJSON(t, env.h.Login, loginBody("user@example.com", "wrong"), nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out := postJSON(t, env.h.Login, loginBody("user@example.com", "wrong"), nil)
	require.Equal(t, http.StatusLocked, rec.Code)
	require.Equal(t, float64(30), out["retry_after_minutes"])
}

func TestLoginDisabledBeforeLockAndPassword(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)
	u.Status = model.StatusDisabled
	lock := env.now.Add(10 * time.Minute)
	u.LockUntil = &lock

	// Even with a wrong password and an active lock, disabled wins.
	rec, out := postJSON(t, env.h.Login, loginBody("user@example.com", "wrong"), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "account disabled", out["error"])
	require.Equal(t, 0, env.users.users[u.ID].FailedLoginCount)
}

func TestLoginLockedBeforePassword(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)
	lock := env.now.Add(5*time.Minute + 30*time.Second)
	u.LockUntil = &lock

	rec, out := postJSON(t, env.h.Login, loginBody("user@example.com", "password1"), nil)
	require.Equal(t, http.StatusLocked, rec.Code)
	// 5.5 minutes rounds up to 6.
	require.Equal(t, float64(6), out["retry_after_minutes"])
}

func TestLoginAdminDeniedByIPRule(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "admin@example.com", "password1", model.RoleAdmin)
	env.ipRules.rules = []model.IPRule{{IP: "192.0.2.1", RuleType: model.RuleDeny}}

	rec, _ := postJSON(t, env.h.Login, loginBody("admin@example.com", "password1"),
		map[string]string{"X-Real-IP": "192.0.2.1"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginAdminMissingFromAllowList(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "admin@example.com", "password1", model.RoleAdmin)
	env.ipRules.rules = []model.IPRule{{IP: "198.51.100.7", RuleType: model.RuleAllow}}

	rec, out := postJSON(t, env.h.Login, loginBody("admin@example.com", "password1"),
		map[string]string{"X-Real-IP": "192.0.2.1"})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "ip not allowed", out["error"])

	// The listed address gets through.
	rec, _ = postJSON(t, env.h.Login, loginBody("admin@example.com", "password1"),
		map[string]string{"X-Real-IP": "198.51.100.7"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginIPRulesIgnoredForRegularUsers(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "user@example.com", "password1", model.RoleUser)
	env.ipRules.rules = []model.IPRule{{IP: "192.0.2.1", RuleType: model.RuleDeny}}

	rec, _ := postJSON(t, env.h.Login, loginBody("user@example.com", "password1"),
		map[string]string{"X-Real-IP": "192.0.2.1"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginAlertOnChangedTelemetry(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)
	prevIP := "203.0.113.9"
	u.LastLoginIP = &prevIP

	rec, _ := postJSON(t, env.h.Login, loginBody("user@example.com", "password1"),
		map[string]string{"X-Real-IP": "192.0.2.1"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"login_alert", "login"}, env.audit.actions())
}

// ----- forgot password -----

func TestForgotPasswordHappyPath(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)

	rec, _ := postJSON(t, env.h.ForgotPassword, `{"email":"user@example.com"}`,
		map[string]string{"X-Real-IP": "192.0.2.1"})
	require.Equal(t, http.StatusOK, rec.Code)

	stored := env.users.users[u.ID]
	require.NotNil(t, stored.ResetCodeHash)
	require.Equal(t, env.now.Add(2*time.Minute), *stored.ResetExpiresAt)
	require.False(t, stored.ResetUsed)
	require.Equal(t, []string{"user@example.com"}, env.mail.sent)
	require.Equal(t, []string{"ip:192.0.2.1:user@example.com"}, env.limiter.keys)
	require.Contains(t, env.audit.actions(), "password_reset_request")
}

func TestForgotPasswordUnknownEmailIsGeneric(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "user@example.com", "password1", model.RoleUser)

	recKnown, outKnown := postJSON(t, env.h.ForgotPassword, `{"email":"user@example.com"}`, nil)
	recUnknown, outUnknown := postJSON(t, env.h.ForgotPassword, `{"email":"ghost@example.com"}`, nil)

	require.Equal(t, http.StatusOK, recKnown.Code)
	require.Equal(t, http.StatusOK, recUnknown.Code)
	require.Equal(t, outKnown["message"], outUnknown["message"])
	// Only the known address actually got mail, stored a code, or left an
	// audit trace.
	require.Equal(t, []string{"user@example.com"}, env.mail.sent)
	require.Equal(t, []string{"password_reset_request"}, env.audit.actions())
	for _, u := range env.users.users {
		if u.Email != "user@example.com" {
			require.Nil(t, u.ResetCodeHash)
		}
	}
}

func TestForgotPasswordRateLimited(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "user@example.com", "password1", model.RoleUser)
	env.limiter.allow = false

	rec, _ := postJSON(t, env.h.ForgotPassword, `{"email":"user@example.com"}`, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Empty(t, env.mail.sent)
}

func TestForgotPasswordMailNotConfigured(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "user@example.com", "password1", model.RoleUser)
	env.mail.configured = false

	rec, _ := postJSON(t, env.h.ForgotPassword, `{"email":"user@example.com"}`, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestForgotPasswordClearsCodeWhenSendFails(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)
	env.mail.failWith = errors.New("smtp: connection refused")

	rec, _ := postJSON(t, env.h.ForgotPassword, `{"email":"user@example.com"}`, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Nil(t, env.users.users[u.ID].ResetCodeHash)
}

func TestForgotPasswordDistinguishesAuthFailure(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "user@example.com", "password1", model.RoleUser)
	env.mail.failWith = fmt.Errorf("send: %w", mailer.ErrAuth)

	rec, out := postJSON(t, env.h.ForgotPassword, `{"email":"user@example.com"}`, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, out["error"], "authentication")
}

func TestForgotPasswordAuthenticatedCallerPinnedToOwnEmail(t *testing.T) {
	env := newAuthEnv(t)
	self := env.addUser(t, "self@example.com", "password1", model.RoleUser)
	env.addUser(t, "victim@example.com", "password1", model.RoleUser)

	at, err := utils.NewAccessToken("test-secret", self.ID, self.Role, 0, 60)
	require.NoError(t, err)
	headers := map[string]string{
		"Authorization": "Bearer " + at.Token,
		"X-Real-IP":     "192.0.2.1",
	}

	// Another account's email is refused outright.
	rec, _ := postJSON(t, env.h.ForgotPassword, `{"email":"victim@example.com"}`, headers)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// An empty body defaults to the caller's own account, throttled per
	// user id rather than per submitted email.
	rec, _ = postJSON(t, env.h.ForgotPassword, `{}`, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"self@example.com"}, env.mail.sent)
	require.Equal(t, fmt.Sprintf("ip:192.0.2.1:user:%d", self.ID), env.limiter.keys[len(env.limiter.keys)-1])
}

// ----- reset password -----

func (env *authEnv) issueResetCode(t *testing.T, u *model.User, code string) {
	t.Helper()
	hash, err := utils.HashPassword(code, 4)
	require.NoError(t, err)
	require.NoError(t, env.users.SetPasswordResetCode(context.Background(), u.ID, hash, env.now.Add(2*time.Minute)))
}

func TestResetPasswordHappyPath(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)
	u.FailedLoginCount = 3
	env.issueResetCode(t, u, "123456")

	rec, _ := postJSON(t, env.h.ResetPassword,
		`{"email":"user@example.com","code":"123456","new_password":"brandnewpass"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stored := env.users.users[u.ID]
	require.True(t, utils.VerifyPassword(stored.PasswordHash, "brandnewpass"))
	require.Equal(t, 1, stored.SessionVersion, "reset must bump the session epoch")
	require.Equal(t, 0, stored.FailedLoginCount)
	require.Nil(t, stored.ResetCodeHash)
	require.Contains(t, env.audit.actions(), "password_reset")
}

func TestResetPasswordCodeIsSingleUse(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)
	env.issueResetCode(t, u, "123456")

	rec, _ := postJSON(t, env.h.ResetPassword,
		`{"email":"user@example.com","code":"123456","new_password":"brandnewpass"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out := postJSON(t, env.h.ResetPassword,
		`{"email":"user@example.com","code":"123456","new_password":"anotherpass1"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid or expired code", out["error"])
}

func TestResetPasswordExpiredCode(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)
	env.issueResetCode(t, u, "123456")
	env.now = env.now.Add(3 * time.Minute)

	rec, out := postJSON(t, env.h.ResetPassword,
		`{"email":"user@example.com","code":"123456","new_password":"brandnewpass"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "code expired", out["error"])
	require.Nil(t, env.users.users[u.ID].ResetCodeHash)
}

func TestResetPasswordWrongCodeKeepsRecordPending(t *testing.T) {
	env := newAuthEnv(t)
	u := env.addUser(t, "user@example.com", "password1", model.RoleUser)
	env.issueResetCode(t, u, "123456")

	rec, out := postJSON(t, env.h.ResetPassword,
		`{"email":"user@example.com","code":"654321","new_password":"brandnewpass"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid code", out["error"])

	// The stored code survives a wrong guess; the right one still works.
	rec, _ = postJSON(t, env.h.ResetPassword,
		`{"email":"user@example.com","code":"123456","new_password":"brandnewpass"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestResetPasswordRejectsMalformedCode(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "user@example.com", "password1", model.RoleUser)

	rec, out := postJSON(t, env.h.ResetPassword,
		`{"email":"user@example.com","code":"12345a","new_password":"brandnewpass"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid code format", out["error"])
}

func TestResetPasswordNoPendingCode(t *testing.T) {
	env := newAuthEnv(t)
	env.addUser(t, "user@example.com", "password1", model.RoleUser)

	rec, out := postJSON(t, env.h.ResetPassword,
		`{"email":"user@example.com","code":"123456","new_password":"brandnewpass"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid or expired code", out["error"])
}
