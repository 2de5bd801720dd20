package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskflow-app/taskflow/internal/audit"
	"github.com/taskflow-app/taskflow/internal/config"
	"github.com/taskflow-app/taskflow/internal/model"
	"github.com/taskflow-app/taskflow/internal/repository"
	"github.com/taskflow-app/taskflow/internal/utils"
)

// AdminHandler serves the admin console: user management, FAQ moderation,
// audit-log inspection, runtime settings and the login IP policy. Every
// mutation here emits an audit event naming the acting admin.
type AdminHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Faq      *repository.FaqRepo
	Audits   *repository.AuditRepo
	Settings *repository.SettingsRepo
	IPRules  *repository.IPRuleRepo
	Audit    AuditSink
}

func NewAdminHandler(cfg config.Config, users *repository.UserRepo, faq *repository.FaqRepo,
	audits *repository.AuditRepo, settings *repository.SettingsRepo,
	ipRules *repository.IPRuleRepo, sink AuditSink) *AdminHandler {
	return &AdminHandler{
		Cfg: cfg, Users: users, Faq: faq, Audits: audits,
		Settings: settings, IPRules: ipRules, Audit: sink,
	}
}

// adminUserView is the safe projection of a user for the console. Hashes
// and reset-code state never leave the server.
type adminUserView struct {
	ID                 uint64     `json:"id"`
	FirstName          string     `json:"first_name"`
	LastName           string     `json:"last_name"`
	Email              string     `json:"email"`
	Role               string     `json:"role"`
	Status             string     `json:"status"`
	ForcePasswordReset bool       `json:"force_password_reset"`
	FailedLoginCount   int        `json:"failed_login_count"`
	LockUntil          *time.Time `json:"lock_until"`
	LastLoginIP        *string    `json:"last_login_ip"`
	LastLoginAt        *time.Time `json:"last_login_at"`
	CreatedAt          time.Time  `json:"created_at"`
}

func adminView(u model.User) adminUserView {
	return adminUserView{
		ID:                 u.ID,
		FirstName:          u.FirstName,
		LastName:           u.LastName,
		Email:              u.Email,
		Role:               u.Role,
		Status:             u.Status,
		ForcePasswordReset: u.ForcePasswordReset,
		FailedLoginCount:   u.FailedLoginCount,
		LockUntil:          u.LockUntil,
		LastLoginIP:        u.LastLoginIP,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
	}
}

func (h *AdminHandler) record(c echo.Context, action string, details map[string]any) {
	actorID, _ := getUserID(c)
	ctx, cancel := reqContext(c)
	defer cancel()
	h.Audit.Record(ctx, audit.Event(actorID, action, details, c.RealIP(), c.Request().UserAgent()))
}

// ----- users -----

func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	out := make([]adminUserView, 0, len(users))
	for _, u := range users {
		out = append(out, adminView(u))
	}
	return c.JSON(http.StatusOK, out)
}

type adminCreateUserReq struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req adminCreateUserReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.Email = repository.NormalizeEmail(req.Email)
	if req.FirstName == "" || req.LastName == "" {
		return jsonError(c, http.StatusBadRequest, "first and last name are required")
	}
	if !utils.ValidEmail(req.Email) {
		return jsonError(c, http.StatusBadRequest, "valid email is required")
	}
	if len(req.Password) < minPasswordLen {
		return jsonError(c, http.StatusBadRequest, "password must be at least 8 characters")
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		return jsonError(c, http.StatusBadRequest, "role must be user or admin")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Users.Create(ctx, req.FirstName, req.LastName, req.Email, req.Password, req.Role, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return jsonError(c, http.StatusConflict, "email already in use")
		}
		return jsonError(c, http.StatusInternalServerError, "create user failed")
	}

	h.record(c, "admin_user_create", map[string]any{"user_id": id, "email": req.Email, "role": req.Role})
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

type adminUpdateUserReq struct {
	FirstName          *string `json:"first_name"`
	LastName           *string `json:"last_name"`
	Email              *string `json:"email"`
	Role               *string `json:"role"`
	Status             *string `json:"status"`
	ForcePasswordReset *bool   `json:"force_password_reset"`
	Unlock             *bool   `json:"unlock"`
}

// UpdateUser applies a partial update. Field names map onto a fixed column
// allow list; unlock clears the lockout counters.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid user id")
	}
	var req adminUpdateUserReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}

	fields := map[string]any{}
	details := map[string]any{"user_id": id}

	if req.FirstName != nil {
		v := strings.TrimSpace(*req.FirstName)
		if v == "" {
			return jsonError(c, http.StatusBadRequest, "first_name cannot be empty")
		}
		fields["first_name"] = v
	}
	if req.LastName != nil {
		v := strings.TrimSpace(*req.LastName)
		if v == "" {
			return jsonError(c, http.StatusBadRequest, "last_name cannot be empty")
		}
		fields["last_name"] = v
	}
	if req.Email != nil {
		v := repository.NormalizeEmail(*req.Email)
		if !utils.ValidEmail(v) {
			return jsonError(c, http.StatusBadRequest, "valid email is required")
		}
		fields["email"] = v
		details["email"] = v
	}
	if req.Role != nil {
		if *req.Role != model.RoleUser && *req.Role != model.RoleAdmin {
			return jsonError(c, http.StatusBadRequest, "role must be user or admin")
		}
		fields["role"] = *req.Role
		details["role"] = *req.Role
	}
	if req.Status != nil {
		if *req.Status != model.StatusActive && *req.Status != model.StatusDisabled {
			return jsonError(c, http.StatusBadRequest, "status must be active or disabled")
		}
		fields["status"] = *req.Status
		details["status"] = *req.Status
	}
	if req.ForcePasswordReset != nil {
		fields["force_password_reset"] = *req.ForcePasswordReset
	}
	if req.Unlock != nil && *req.Unlock {
		fields["failed_login_count"] = 0
		fields["lock_until"] = nil
		details["unlocked"] = true
	}
	if len(fields) == 0 {
		return jsonError(c, http.StatusBadRequest, "no fields to update")
	}

	// Demoting or disabling yourself locks the last admin out mid-session.
	if actorID, _ := getUserID(c); actorID == id {
		if req.Role != nil && *req.Role != model.RoleAdmin {
			return jsonError(c, http.StatusBadRequest, "cannot change your own role")
		}
		if req.Status != nil && *req.Status == model.StatusDisabled {
			return jsonError(c, http.StatusBadRequest, "cannot disable your own account")
		}
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.UpdateFields(ctx, id, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "user not found")
		}
		return jsonError(c, http.StatusInternalServerError, "update user failed")
	}

	h.record(c, "admin_user_update", details)
	return c.JSON(http.StatusOK, echo.Map{"message": "user updated"})
}

func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid user id")
	}
	if actorID, _ := getUserID(c); actorID == id {
		return jsonError(c, http.StatusBadRequest, "cannot delete your own account")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "user not found")
		}
		return jsonError(c, http.StatusInternalServerError, "delete user failed")
	}

	h.record(c, "admin_user_delete", map[string]any{"user_id": id})
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted"})
}

// RevokeSessions bumps the user's session epoch, which invalidates every
// outstanding token without touching the password.
func (h *AdminHandler) RevokeSessions(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid user id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return jsonError(c, http.StatusNotFound, "user not found")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	if err := h.Users.IncrementSessionVersion(ctx, id); err != nil {
		return jsonError(c, http.StatusInternalServerError, "revoke sessions failed")
	}

	h.record(c, "admin_sessions_revoke", map[string]any{"user_id": id})
	return c.JSON(http.StatusOK, echo.Map{"message": "sessions revoked"})
}

// ----- FAQ moderation -----

func (h *AdminHandler) ListFaqQuestions(c echo.Context) error {
	status := c.QueryParam("status")
	if status != "" && status != model.FaqOpen && status != model.FaqAnswered && status != model.FaqRejected {
		return jsonError(c, http.StatusBadRequest, "invalid status filter")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Faq.ListQuestions(ctx, status)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, items)
}

type faqModerateReq struct {
	Answer      *string `json:"answer"`
	IsPublished *bool   `json:"is_published"`
	Status      *string `json:"status"`
}

// ModerateFaqQuestion answers, publishes or rejects a question. Setting an
// answer marks the question answered and records the moderator.
func (h *AdminHandler) ModerateFaqQuestion(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid question id")
	}
	var req faqModerateReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}

	fields := map[string]any{}
	if req.Answer != nil {
		answer := strings.TrimSpace(*req.Answer)
		if answer == "" {
			return jsonError(c, http.StatusBadRequest, "answer cannot be empty")
		}
		actorID, _ := getUserID(c)
		fields["answer"] = answer
		fields["status"] = model.FaqAnswered
		fields["answered_by"] = actorID
		fields["answered_at"] = time.Now().UTC()
	}
	if req.Status != nil {
		if *req.Status != model.FaqOpen && *req.Status != model.FaqAnswered && *req.Status != model.FaqRejected {
			return jsonError(c, http.StatusBadRequest, "invalid status")
		}
		fields["status"] = *req.Status
	}
	if req.IsPublished != nil {
		fields["is_published"] = *req.IsPublished
	}
	if len(fields) == 0 {
		return jsonError(c, http.StatusBadRequest, "no fields to update")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	q, err := h.Faq.GetQuestion(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "question not found")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	// A question cannot be published without an answer on record.
	wantPublished := req.IsPublished != nil && *req.IsPublished
	if wantPublished && req.Answer == nil && q.Answer == nil {
		return jsonError(c, http.StatusBadRequest, "cannot publish an unanswered question")
	}

	if err := h.Faq.UpdateQuestion(ctx, id, fields); err != nil {
		return jsonError(c, http.StatusInternalServerError, "update question failed")
	}

	h.record(c, "admin_faq_update", map[string]any{"question_id": id})
	return c.JSON(http.StatusOK, echo.Map{"message": "question updated"})
}

// ----- audit logs -----

func (h *AdminHandler) ListAuditLogs(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid limit")
		}
		limit = n
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	logs, err := h.Audits.List(ctx, limit)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, logs)
}

// ----- settings -----

// settingKeys is the fixed set of editable system_settings rows.
var settingKeys = map[string]bool{
	"defaults":    true,
	"features":    true,
	"maintenance": true,
	"security":    true,
}

func (h *AdminHandler) GetSettings(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	settings, err := h.Settings.All(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, settings)
}

type settingUpdateReq struct {
	Value any `json:"value"`
}

// UpdateSetting overwrites one settings row. The security and maintenance
// policies take effect on the next login attempt or request; nothing is
// cached.
func (h *AdminHandler) UpdateSetting(c echo.Context) error {
	key := c.Param("key")
	if !settingKeys[key] {
		return jsonError(c, http.StatusBadRequest, "unknown setting")
	}
	var req settingUpdateReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	if req.Value == nil {
		return jsonError(c, http.StatusBadRequest, "value is required")
	}
	if key == "security" {
		if msg := validateSecurityValue(req.Value); msg != "" {
			return jsonError(c, http.StatusBadRequest, msg)
		}
	}

	actorID, _ := getUserID(c)
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Settings.Update(ctx, key, req.Value, actorID); err != nil {
		return jsonError(c, http.StatusInternalServerError, "update setting failed")
	}

	h.record(c, "admin_setting_update", map[string]any{"key": key})
	return c.JSON(http.StatusOK, echo.Map{"message": "setting updated"})
}

// validateSecurityValue rejects lockout policies that would disable the
// protection or lock everyone out behaviorally.
func validateSecurityValue(v any) string {
	obj, ok := v.(map[string]any)
	if !ok {
		return "security value must be an object"
	}
	after, ok := asPositiveInt(obj["lockAfterFailed"])
	if !ok || after < 1 || after > 100 {
		return "lockAfterFailed must be between 1 and 100"
	}
	minutes, ok := asPositiveInt(obj["lockMinutes"])
	if !ok || minutes < 1 || minutes > 24*60 {
		return "lockMinutes must be between 1 and 1440"
	}
	return ""
}

func asPositiveInt(v any) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// ----- IP rules -----

func (h *AdminHandler) ListIPRules(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	rules, err := h.IPRules.List(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, rules)
}

type ipRuleReq struct {
	IP          string `json:"ip"`
	RuleType    string `json:"rule_type"`
	Description string `json:"description"`
}

func (h *AdminHandler) AddIPRule(c echo.Context) error {
	var req ipRuleReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.IP = strings.TrimSpace(req.IP)
	if req.IP == "" {
		return jsonError(c, http.StatusBadRequest, "ip is required")
	}
	if req.RuleType != model.RuleAllow && req.RuleType != model.RuleDeny {
		return jsonError(c, http.StatusBadRequest, "rule_type must be allow or deny")
	}

	actorID, _ := getUserID(c)
	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.IPRules.Add(ctx, req.IP, req.RuleType, strings.TrimSpace(req.Description), actorID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "create rule failed")
	}

	h.record(c, "admin_ip_rule_add", map[string]any{"rule_id": id, "ip": req.IP, "rule_type": req.RuleType})
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

func (h *AdminHandler) DeleteIPRule(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid rule id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.IPRules.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "rule not found")
		}
		return jsonError(c, http.StatusInternalServerError, "delete rule failed")
	}

	h.record(c, "admin_ip_rule_delete", map[string]any{"rule_id": id})
	return c.JSON(http.StatusOK, echo.Map{"message": "rule deleted"})
}
