package repository

import (
	"context"
	"database/sql"

	"github.com/taskflow-app/taskflow/internal/model"
)

// InvitationRepo manages board_invitations.
type InvitationRepo struct{ DB *sql.DB }

func NewInvitationRepo(db *sql.DB) *InvitationRepo { return &InvitationRepo{DB: db} }

// Create invites a user to a board. The caller must already have verified
// that the inviter owns the board. Inviting the owner, an existing member
// or someone with a pending invitation is ErrConflict.
func (r *InvitationRepo) Create(ctx context.Context, boardID, inviterID, inviteeID uint64) (uint64, error) {
	if inviteeID == inviterID {
		return 0, ErrConflict
	}
	var existing uint64
	err := r.DB.QueryRowContext(ctx,
		`SELECT id FROM board_invitations
		 WHERE board_id = ? AND invitee_id = ? AND status IN ('pending', 'accepted') LIMIT 1`,
		boardID, inviteeID).Scan(&existing)
	if err == nil {
		return 0, ErrConflict
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO board_invitations (board_id, inviter_id, invitee_id) VALUES (?,?,?)",
		boardID, inviterID, inviteeID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ListPendingForUser returns the user's open invitations with board and
// inviter context for display.
func (r *InvitationRepo) ListPendingForUser(ctx context.Context, inviteeID uint64) ([]model.Invitation, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT bi.id, bi.board_id, boards.name, bi.inviter_id, users.email,
			bi.invitee_id, bi.status, bi.created_at, bi.responded_at
		 FROM board_invitations bi
		 JOIN boards ON bi.board_id = boards.id
		 JOIN users ON bi.inviter_id = users.id
		 WHERE bi.invitee_id = ? AND bi.status = 'pending'
		 ORDER BY bi.created_at DESC`,
		inviteeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []model.Invitation
	for rows.Next() {
		var inv model.Invitation
		if err := rows.Scan(&inv.ID, &inv.BoardID, &inv.BoardName, &inv.InviterID, &inv.InviterEmail,
			&inv.InviteeID, &inv.Status, &inv.CreatedAt, &inv.RespondedAt); err != nil {
			return nil, err
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// Respond records accept or decline. Only the invitee may respond, and only
// while the invitation is pending; the WHERE clause enforces both.
func (r *InvitationRepo) Respond(ctx context.Context, id, inviteeID uint64, status string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE board_invitations SET status = ?, responded_at = NOW()
		 WHERE id = ? AND invitee_id = ? AND status = 'pending'`,
		status, id, inviteeID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
