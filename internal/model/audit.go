package model

import "time"

// AuditLog is a row of the audit_logs table. Details holds a JSON object
// describing the action; shape varies per action.
type AuditLog struct {
	ID          uint64    `json:"id"`
	ActorUserID *uint64   `json:"actor_user_id"`
	Action      string    `json:"action"`
	Details     *string   `json:"details"`
	IP          *string   `json:"ip"`
	UserAgent   *string   `json:"user_agent"`
	CreatedAt   time.Time `json:"created_at"`
}
