package model

import "time"

// FAQ question statuses.
const (
	FaqOpen     = "open"
	FaqAnswered = "answered"
	FaqRejected = "rejected"
)

// FaqQuestion is a row of the faq_questions table. Published entries with
// an answer appear on the public FAQ page; everything else is visible only
// in the admin console.
type FaqQuestion struct {
	ID          uint64     `json:"id"`
	UserID      *uint64    `json:"user_id,omitempty"`
	UserEmail   *string    `json:"email,omitempty"`
	Question    string     `json:"question"`
	Answer      *string    `json:"answer"`
	IsPublished bool       `json:"is_published"`
	Status      string     `json:"status"`
	AnsweredBy  *uint64    `json:"answered_by,omitempty"`
	AnsweredAt  *time.Time `json:"answered_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
