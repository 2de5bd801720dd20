package model

import "time"

// Task is a row of the tasks table.
type Task struct {
	ID          uint64     `json:"id"`
	BoardID     uint64     `json:"board_id"`
	UserID      uint64     `json:"user_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskStats backs the dashboard counters.
type TaskStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}
