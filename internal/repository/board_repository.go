package repository

import (
	"context"
	"database/sql"

	"github.com/taskflow-app/taskflow/internal/model"
)

// BoardRepo manages boards. A board is visible to its owner and to users
// who accepted an invitation to it; visibility checks live in the SQL so
// handlers cannot forget them.
type BoardRepo struct{ DB *sql.DB }

func NewBoardRepo(db *sql.DB) *BoardRepo { return &BoardRepo{DB: db} }

// boardAccess is the shared visibility predicate: owner or accepted invitee.
const boardAccess = `(boards.user_id = ? OR EXISTS (
	SELECT 1 FROM board_invitations bi
	WHERE bi.board_id = boards.id AND bi.invitee_id = ? AND bi.status = 'accepted'))`

// Create inserts a board and returns its ID.
func (r *BoardRepo) Create(ctx context.Context, name, description string, ownerID uint64) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO boards (name, description, user_id) VALUES (?,?,?)",
		name, description, ownerID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetForUser fetches one board the user can see. Invisible and missing
// boards are both ErrNotFound so requesters cannot probe for existence.
func (r *BoardRepo) GetForUser(ctx context.Context, id, userID uint64) (model.Board, error) {
	var b model.Board
	err := r.DB.QueryRowContext(ctx,
		`SELECT boards.id, boards.name, COALESCE(boards.description, ''), boards.user_id,
			users.email, boards.created_at,
			(SELECT COUNT(*) FROM tasks WHERE tasks.board_id = boards.id)
		 FROM boards JOIN users ON boards.user_id = users.id
		 WHERE boards.id = ? AND `+boardAccess,
		id, userID, userID).
		Scan(&b.ID, &b.Name, &b.Description, &b.UserID, &b.OwnerEmail, &b.CreatedAt, &b.TaskCount)
	if err == sql.ErrNoRows {
		return model.Board{}, ErrNotFound
	}
	return b, err
}

// ListForUser returns every board the user owns or joined, with task counts.
func (r *BoardRepo) ListForUser(ctx context.Context, userID uint64) ([]model.Board, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT boards.id, boards.name, COALESCE(boards.description, ''), boards.user_id,
			users.email, boards.created_at, COUNT(tasks.id)
		 FROM boards
		 JOIN users ON boards.user_id = users.id
		 LEFT JOIN tasks ON boards.id = tasks.board_id
		 WHERE `+boardAccess+`
		 GROUP BY boards.id, boards.name, boards.description, boards.user_id, users.email, boards.created_at
		 ORDER BY boards.id DESC`,
		userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []model.Board
	for rows.Next() {
		var b model.Board
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.UserID, &b.OwnerEmail, &b.CreatedAt, &b.TaskCount); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// Update renames a board. Only the owner may update; the handler verifies
// ownership through GetForUser first, this guards against races.
func (r *BoardRepo) Update(ctx context.Context, id, ownerID uint64, name, description string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE boards SET name = ?, description = ? WHERE id = ? AND user_id = ?",
		name, description, id, ownerID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists uint64
		if lookupErr := r.DB.QueryRowContext(ctx,
			"SELECT id FROM boards WHERE id = ? AND user_id = ?", id, ownerID).Scan(&exists); lookupErr == sql.ErrNoRows {
			return ErrNotFound
		}
	}
	return nil
}

// Delete removes a board with its tasks and invitations in one transaction.
func (r *BoardRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var owner uint64
	err = tx.QueryRowContext(ctx, "SELECT user_id FROM boards WHERE id = ?", id).Scan(&owner)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if owner != ownerID {
		return ErrForbidden
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE board_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM board_invitations WHERE board_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM boards WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// Users lists the owner and accepted members of a board.
func (r *BoardRepo) Users(ctx context.Context, boardID uint64) ([]model.BoardUser, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT users.id, users.email, 'owner'
		 FROM boards JOIN users ON boards.user_id = users.id
		 WHERE boards.id = ?
		 UNION ALL
		 SELECT users.id, users.email, 'member'
		 FROM board_invitations bi JOIN users ON bi.invitee_id = users.id
		 WHERE bi.board_id = ? AND bi.status = 'accepted'`,
		boardID, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.BoardUser
	for rows.Next() {
		var m model.BoardUser
		if err := rows.Scan(&m.ID, &m.Email, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
