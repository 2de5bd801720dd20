package model

import "time"

// Board is a row of the boards table. TaskCount and OwnerEmail are
// populated by aggregate queries, not stored columns.
type Board struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UserID      uint64    `json:"user_id"`
	OwnerEmail  string    `json:"owner_email,omitempty"`
	TaskCount   int       `json:"task_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// BoardUser is one entry of a board's member list: the owner plus every
// accepted invitee.
type BoardUser struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"` // owner|member
}

// Invitation statuses.
const (
	InvitePending  = "pending"
	InviteAccepted = "accepted"
	InviteDeclined = "declined"
)

// Invitation is a row of the board_invitations table. An accepted
// invitation grants the invitee read access to the board and its tasks.
type Invitation struct {
	ID           uint64     `json:"id"`
	BoardID      uint64     `json:"board_id"`
	BoardName    string     `json:"board_name,omitempty"`
	InviterID    uint64     `json:"inviter_id"`
	InviterEmail string     `json:"inviter_email,omitempty"`
	InviteeID    uint64     `json:"invitee_id"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	RespondedAt  *time.Time `json:"responded_at"`
}
