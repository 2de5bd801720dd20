package model

import "time"

// IP rule types. Deny rules always win; a non-empty allow list additionally
// restricts admin logins to the listed addresses.
const (
	RuleAllow = "allow"
	RuleDeny  = "deny"
)

// IPRule is a row of the ip_rules table, consulted at login time for
// admin accounts only.
type IPRule struct {
	ID          uint64    `json:"id"`
	IP          string    `json:"ip"`
	RuleType    string    `json:"rule_type"`
	Description *string   `json:"description"`
	CreatedBy   *uint64   `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
