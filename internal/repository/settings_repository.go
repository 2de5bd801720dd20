package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/taskflow-app/taskflow/internal/model"
)

// SettingsRepo reads and writes the system_settings table. Values are JSON
// documents keyed by a short name (defaults, features, maintenance,
// security). Security thresholds and the maintenance flag are re-read on
// every login / middleware check so that an admin change takes effect
// immediately, without a redeploy.
type SettingsRepo struct{ DB *sql.DB }

func NewSettingsRepo(db *sql.DB) *SettingsRepo { return &SettingsRepo{DB: db} }

// All returns every setting decoded from JSON, keyed by name. Values that
// fail to decode are passed through as raw strings, matching how the admin
// console treats hand-edited rows.
func (r *SettingsRepo) All(ctx context.Context) (map[string]any, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT `key`, `value` FROM system_settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, err
		}
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			settings[key] = raw
			continue
		}
		settings[key] = decoded
	}
	return settings, rows.Err()
}

// Update overwrites one setting value, recording who changed it.
func (r *SettingsRepo) Update(ctx context.Context, key string, value any, updatedBy uint64) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE system_settings SET `value` = ?, updated_by = ?, updated_at = NOW() WHERE `key` = ?",
		string(raw), updatedBy, key)
	return err
}

// SecuritySettings returns the live lockout policy. A missing or unreadable
// row falls back to the seeded defaults rather than failing the login.
func (r *SettingsRepo) SecuritySettings(ctx context.Context) (model.SecuritySettings, error) {
	sec := model.DefaultSecuritySettings()
	var raw string
	err := r.DB.QueryRowContext(ctx,
		"SELECT `value` FROM system_settings WHERE `key` = 'security'").Scan(&raw)
	if err != nil {
		return sec, err
	}
	if err := json.Unmarshal([]byte(raw), &sec); err != nil {
		return model.DefaultSecuritySettings(), err
	}
	if sec.LockAfterFailed <= 0 {
		sec.LockAfterFailed = model.DefaultSecuritySettings().LockAfterFailed
	}
	if sec.LockMinutes <= 0 {
		sec.LockMinutes = model.DefaultSecuritySettings().LockMinutes
	}
	return sec, nil
}

// Maintenance returns the live maintenance flag. Errors degrade to
// "not in maintenance" so a broken settings row cannot lock everyone out.
func (r *SettingsRepo) Maintenance(ctx context.Context) (model.MaintenanceSettings, error) {
	var m model.MaintenanceSettings
	var raw string
	err := r.DB.QueryRowContext(ctx,
		"SELECT `value` FROM system_settings WHERE `key` = 'maintenance'").Scan(&raw)
	if err != nil {
		return m, err
	}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return model.MaintenanceSettings{}, err
	}
	return m, nil
}
