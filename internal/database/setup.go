package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Setup creates missing tables, adds hardened user columns to existing
// installs, and seeds default system settings. Every statement is
// idempotent so the server can run it on each start.
func Setup(ctx context.Context, db *sql.DB) error {
	for _, stmt := range createTables {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	// Older databases predate the account-security columns; add them one by
	// one instead of failing on a schema mismatch at first query.
	userColumns := []struct{ name, definition string }{
		{"role", "`role` VARCHAR(20) NOT NULL DEFAULT 'user'"},
		{"status", "`status` VARCHAR(20) NOT NULL DEFAULT 'active'"},
		{"force_password_reset", "`force_password_reset` TINYINT(1) NOT NULL DEFAULT 0"},
		{"failed_login_count", "`failed_login_count` INT NOT NULL DEFAULT 0"},
		{"lock_until", "`lock_until` DATETIME NULL"},
		{"session_version", "`session_version` INT NOT NULL DEFAULT 0"},
		{"password_reset_code_hash", "`password_reset_code_hash` VARCHAR(100) NULL"},
		{"password_reset_expires_at", "`password_reset_expires_at` DATETIME NULL"},
		{"password_reset_used", "`password_reset_used` TINYINT(1) NOT NULL DEFAULT 0"},
		{"last_login_ip", "`last_login_ip` VARCHAR(45) NULL"},
		{"last_login_at", "`last_login_at` DATETIME NULL"},
		{"last_login_user_agent", "`last_login_user_agent` VARCHAR(255) NULL"},
	}
	for _, col := range userColumns {
		if err := ensureColumn(ctx, db, "users", col.name, col.definition); err != nil {
			return err
		}
	}

	defaults := map[string]any{
		"defaults":    map[string]any{"priority": "Medium", "status": "Pending", "dueDays": 7},
		"features":    map[string]any{"comments": true, "attachments": true, "notifications": true},
		"maintenance": map[string]any{"enabled": false, "message": "System maintenance in progress."},
		"security":    map[string]any{"lockAfterFailed": 5, "lockMinutes": 15},
	}
	for key, value := range defaults {
		if err := ensureSetting(ctx, db, key, value); err != nil {
			return err
		}
	}
	return nil
}

func ensureColumn(ctx context.Context, db *sql.DB, table, column, definition string) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM INFORMATION_SCHEMA.COLUMNS
		 WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND COLUMN_NAME = ?`,
		table, column).Scan(&count)
	if err != nil {
		return fmt.Errorf("inspect column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE `%s` ADD COLUMN %s", table, definition)); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, column, err)
	}
	return nil
}

func ensureSetting(ctx context.Context, db *sql.DB, key string, value any) error {
	var id uint64
	err := db.QueryRowContext(ctx, "SELECT id FROM system_settings WHERE `key` = ?", key).Scan(&id)
	if err == nil {
		return nil
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("inspect setting %s: %w", key, err)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO system_settings (`key`, `value`, updated_at) VALUES (?, ?, NOW())",
		key, string(raw))
	if err != nil {
		return fmt.Errorf("seed setting %s: %w", key, err)
	}
	return nil
}

var createTables = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL UNIQUE,
		password VARCHAR(100) NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS boards (
		id INT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NULL,
		user_id INT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT fk_boards_user FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id INT AUTO_INCREMENT PRIMARY KEY,
		board_id INT NOT NULL,
		user_id INT NOT NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT NULL,
		status VARCHAR(30) NOT NULL DEFAULT 'pending',
		priority VARCHAR(20) NOT NULL DEFAULT 'Medium',
		due_date DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_tasks_board FOREIGN KEY (board_id) REFERENCES boards(id),
		CONSTRAINT fk_tasks_user FOREIGN KEY (user_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS board_invitations (
		id INT AUTO_INCREMENT PRIMARY KEY,
		board_id INT NOT NULL,
		inviter_id INT NOT NULL,
		invitee_id INT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		responded_at DATETIME NULL,
		CONSTRAINT fk_inv_board FOREIGN KEY (board_id) REFERENCES boards(id),
		CONSTRAINT fk_inv_inviter FOREIGN KEY (inviter_id) REFERENCES users(id),
		CONSTRAINT fk_inv_invitee FOREIGN KEY (invitee_id) REFERENCES users(id)
	)`,
	`CREATE TABLE IF NOT EXISTS faq_questions (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NULL,
		question TEXT NOT NULL,
		answer TEXT NULL,
		is_published TINYINT(1) NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'open',
		answered_by INT NULL,
		answered_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id INT AUTO_INCREMENT PRIMARY KEY,
		actor_user_id INT NULL,
		action VARCHAR(100) NOT NULL,
		details TEXT NULL,
		ip VARCHAR(45) NULL,
		user_agent VARCHAR(255) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS system_settings (
		id INT AUTO_INCREMENT PRIMARY KEY,
		` + "`key`" + ` VARCHAR(100) NOT NULL UNIQUE,
		` + "`value`" + ` TEXT NOT NULL,
		updated_by INT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS ip_rules (
		id INT AUTO_INCREMENT PRIMARY KEY,
		ip VARCHAR(45) NOT NULL,
		rule_type VARCHAR(10) NOT NULL,
		description VARCHAR(255) NULL,
		created_by INT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}
