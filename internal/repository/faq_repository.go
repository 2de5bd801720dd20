package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/taskflow-app/taskflow/internal/model"
)

// FaqRepo manages the faq_questions table: public published entries,
// user-submitted questions and the admin answering workflow.
type FaqRepo struct{ DB *sql.DB }

func NewFaqRepo(db *sql.DB) *FaqRepo { return &FaqRepo{DB: db} }

// ListPublished returns the public FAQ: answered, published entries only.
func (r *FaqRepo) ListPublished(ctx context.Context) ([]model.FaqQuestion, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, question, answer FROM faq_questions
		 WHERE is_published = 1 AND answer IS NOT NULL
		 ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var faqs []model.FaqQuestion
	for rows.Next() {
		var q model.FaqQuestion
		if err := rows.Scan(&q.ID, &q.Question, &q.Answer); err != nil {
			return nil, err
		}
		faqs = append(faqs, q)
	}
	return faqs, rows.Err()
}

// CreateQuestion stores a user-submitted question in the open state.
func (r *FaqRepo) CreateQuestion(ctx context.Context, userID uint64, question string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO faq_questions (user_id, question, status) VALUES (?,?,'open')",
		userID, question)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListQuestions returns questions for the admin console, optionally
// filtered by status.
func (r *FaqRepo) ListQuestions(ctx context.Context, status string) ([]model.FaqQuestion, error) {
	query := `SELECT fq.id, fq.user_id, u.email, fq.question, fq.answer, fq.is_published,
		fq.status, fq.answered_by, fq.answered_at, fq.created_at, fq.updated_at
		FROM faq_questions fq LEFT JOIN users u ON fq.user_id = u.id`
	var args []any
	if status != "" && status != "all" {
		query += " WHERE fq.status = ?"
		args = append(args, status)
	}
	query += " ORDER BY fq.created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.FaqQuestion
	for rows.Next() {
		var q model.FaqQuestion
		if err := rows.Scan(&q.ID, &q.UserID, &q.UserEmail, &q.Question, &q.Answer, &q.IsPublished,
			&q.Status, &q.AnsweredBy, &q.AnsweredAt, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetQuestion fetches one question for the admin workflow.
func (r *FaqRepo) GetQuestion(ctx context.Context, id uint64) (model.FaqQuestion, error) {
	var q model.FaqQuestion
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, question, answer, is_published, status, answered_by, answered_at, created_at, updated_at
		 FROM faq_questions WHERE id = ? LIMIT 1`, id).
		Scan(&q.ID, &q.UserID, &q.Question, &q.Answer, &q.IsPublished,
			&q.Status, &q.AnsweredBy, &q.AnsweredAt, &q.CreatedAt, &q.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.FaqQuestion{}, ErrNotFound
	}
	return q, err
}

// UpdateQuestion applies a partial update. Column names come from the
// handler's fixed allow list.
func (r *FaqRepo) UpdateQuestion(ctx context.Context, id uint64, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	set := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		set = append(set, fmt.Sprintf("%s = ?", k))
		args = append(args, fields[k])
	}
	args = append(args, id)

	_, err := r.DB.ExecContext(ctx,
		fmt.Sprintf("UPDATE faq_questions SET %s WHERE id = ?", strings.Join(set, ", ")), args...)
	return err
}
