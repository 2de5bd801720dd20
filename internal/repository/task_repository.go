package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/taskflow-app/taskflow/internal/model"
)

// TaskRepo manages tasks. Tasks inherit visibility from their board; the
// write paths also check the creator so members cannot edit each other's
// tasks.
type TaskRepo struct{ DB *sql.DB }

func NewTaskRepo(db *sql.DB) *TaskRepo { return &TaskRepo{DB: db} }

// Create inserts a task and returns its ID.
func (r *TaskRepo) Create(ctx context.Context, boardID, userID uint64, title, description, status, priority string, dueDate *time.Time) (uint64, error) {
	var desc *string
	if description != "" {
		desc = &description
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO tasks (board_id, user_id, title, description, status, priority, due_date) VALUES (?,?,?,?,?,?,?)",
		boardID, userID, title, desc, status, priority, dueDate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListForUser returns the user's tasks, optionally filtered to one board.
func (r *TaskRepo) ListForUser(ctx context.Context, userID uint64, boardID uint64) ([]model.Task, error) {
	query := `SELECT id, board_id, user_id, title, description, status, priority, due_date, created_at, updated_at
		FROM tasks WHERE user_id = ?`
	args := []any{userID}
	if boardID != 0 {
		query += " AND board_id = ?"
		args = append(args, boardID)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.BoardID, &t.UserID, &t.Title, &t.Description,
			&t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Get fetches one task.
func (r *TaskRepo) Get(ctx context.Context, id uint64) (model.Task, error) {
	var t model.Task
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, board_id, user_id, title, description, status, priority, due_date, created_at, updated_at
		 FROM tasks WHERE id = ? LIMIT 1`, id).
		Scan(&t.ID, &t.BoardID, &t.UserID, &t.Title, &t.Description,
			&t.Status, &t.Priority, &t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.Task{}, ErrNotFound
	}
	return t, err
}

// Update rewrites the mutable fields of a task.
func (r *TaskRepo) Update(ctx context.Context, id uint64, title, description, status, priority string, dueDate *time.Time) error {
	var desc *string
	if description != "" {
		desc = &description
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, due_date = ? WHERE id = ?",
		title, desc, status, priority, dueDate, id)
	return err
}

// Delete removes a task.
func (r *TaskRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// StatsForUser returns the dashboard counters.
func (r *TaskRepo) StatsForUser(ctx context.Context, userID uint64) (model.TaskStats, error) {
	var stats model.TaskStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(status = 'completed'), 0)
		 FROM tasks WHERE user_id = ?`, userID).
		Scan(&stats.Total, &stats.Completed)
	return stats, err
}
