package repository

import (
	"context"
	"database/sql"

	"github.com/taskflow-app/taskflow/internal/model"
)

// AuditRepo persists audit_logs rows. Writes arrive either directly from
// the in-process recorder or from the queue consumer draining the audit
// side channel.
type AuditRepo struct{ DB *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{DB: db} }

// Insert appends one audit entry. Callers treat failures as best-effort:
// auditing never blocks the operation it documents.
func (r *AuditRepo) Insert(ctx context.Context, actorUserID *uint64, action string, details, ip, userAgent *string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO audit_logs (actor_user_id, action, details, ip, user_agent) VALUES (?,?,?,?,?)",
		actorUserID, action, details, ip, userAgent)
	return err
}

// List returns the most recent entries. The limit is clamped to 1..200 so
// the admin console cannot dump the whole table.
func (r *AuditRepo) List(ctx context.Context, limit int) ([]model.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, actor_user_id, action, details, ip, user_agent, created_at FROM audit_logs ORDER BY created_at DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []model.AuditLog
	for rows.Next() {
		var entry model.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUserID, &entry.Action, &entry.Details, &entry.IP, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
