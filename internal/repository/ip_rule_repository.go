package repository

import (
	"context"
	"database/sql"

	"github.com/taskflow-app/taskflow/internal/model"
)

// IPRuleRepo manages the ip_rules table consulted for admin logins.
type IPRuleRepo struct{ DB *sql.DB }

func NewIPRuleRepo(db *sql.DB) *IPRuleRepo { return &IPRuleRepo{DB: db} }

// List returns all rules with metadata, newest first, for the admin console.
func (r *IPRuleRepo) List(ctx context.Context) ([]model.IPRule, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, ip, rule_type, description, created_by, created_at FROM ip_rules ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []model.IPRule
	for rows.Next() {
		var rule model.IPRule
		if err := rows.Scan(&rule.ID, &rule.IP, &rule.RuleType, &rule.Description, &rule.CreatedBy, &rule.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// RulesForCheck returns the minimal projection evaluated during login.
func (r *IPRuleRepo) RulesForCheck(ctx context.Context) ([]model.IPRule, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT ip, rule_type FROM ip_rules")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []model.IPRule
	for rows.Next() {
		var rule model.IPRule
		if err := rows.Scan(&rule.IP, &rule.RuleType); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Add inserts a rule and returns its ID.
func (r *IPRuleRepo) Add(ctx context.Context, ip, ruleType, description string, createdBy uint64) (uint64, error) {
	var desc *string
	if description != "" {
		desc = &description
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO ip_rules (ip, rule_type, description, created_by) VALUES (?,?,?,?)",
		ip, ruleType, desc, createdBy)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Delete removes a rule.
func (r *IPRuleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM ip_rules WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
