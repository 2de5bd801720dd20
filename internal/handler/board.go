package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskflow-app/taskflow/internal/audit"
	"github.com/taskflow-app/taskflow/internal/model"
	"github.com/taskflow-app/taskflow/internal/repository"
)

// BoardHandler serves the board CRUD and the invitation flow.
type BoardHandler struct {
	Boards      *repository.BoardRepo
	Invitations *repository.InvitationRepo
	Users       *repository.UserRepo
	Audit       AuditSink
}

func NewBoardHandler(boards *repository.BoardRepo, invitations *repository.InvitationRepo,
	users *repository.UserRepo, sink AuditSink) *BoardHandler {
	return &BoardHandler{Boards: boards, Invitations: invitations, Users: users, Audit: sink}
}

type boardReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type inviteReq struct {
	Email string `json:"email"`
}

type respondReq struct {
	Accept bool `json:"accept"`
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// List returns every board the user owns or was accepted into, with task
// counts for the dashboard.
func (h *BoardHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	boards, err := h.Boards.ListForUser(ctx, userID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, boards)
}

func (h *BoardHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid board id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	board, err := h.Boards.GetForUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "board not found")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, board)
}

func (h *BoardHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	var req boardReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return jsonError(c, http.StatusBadRequest, "board name is required")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Boards.Create(ctx, req.Name, strings.TrimSpace(req.Description), userID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "create board failed")
	}
	h.Audit.Record(ctx, audit.Event(userID, "board_create",
		map[string]any{"board_id": id, "name": req.Name}, c.RealIP(), c.Request().UserAgent()))
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Update renames a board. Owner only: invitees can read a shared board but
// not reshape it.
func (h *BoardHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid board id")
	}
	var req boardReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return jsonError(c, http.StatusBadRequest, "board name is required")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Boards.Update(ctx, id, userID, req.Name, strings.TrimSpace(req.Description)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "board not found")
		}
		return jsonError(c, http.StatusInternalServerError, "update board failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "board updated"})
}

// Delete removes a board with its tasks and invitations in one
// transaction.
func (h *BoardHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid board id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Boards.Delete(ctx, id, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return jsonError(c, http.StatusNotFound, "board not found")
		case errors.Is(err, repository.ErrForbidden):
			return jsonError(c, http.StatusForbidden, "only the owner can delete a board")
		}
		return jsonError(c, http.StatusInternalServerError, "delete board failed")
	}
	h.Audit.Record(ctx, audit.Event(userID, "board_delete",
		map[string]any{"board_id": id}, c.RealIP(), c.Request().UserAgent()))
	return c.JSON(http.StatusOK, echo.Map{"message": "board deleted"})
}

// Members lists the owner and accepted invitees of a board the caller can
// see.
func (h *BoardHandler) Members(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid board id")
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Boards.GetForUser(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "board not found")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	users, err := h.Boards.Users(ctx, id)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, users)
}

// Invite shares a board with another registered user by email. Only the
// owner can invite, and duplicate or self invitations are rejected.
func (h *BoardHandler) Invite(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	boardID, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid board id")
	}
	var req inviteReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	board, err := h.Boards.GetForUser(ctx, boardID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "board not found")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	if board.UserID != userID {
		return jsonError(c, http.StatusForbidden, "only the owner can invite")
	}

	invitee, err := h.Users.GetByEmail(ctx, repository.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return jsonError(c, http.StatusNotFound, "no user with that email")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}

	id, err := h.Invitations.Create(ctx, boardID, userID, invitee.ID)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return jsonError(c, http.StatusConflict, "user is already invited or a member")
		}
		return jsonError(c, http.StatusInternalServerError, "create invitation failed")
	}
	h.Audit.Record(ctx, audit.Event(userID, "board_invite",
		map[string]any{"board_id": boardID, "invitee_id": invitee.ID}, c.RealIP(), c.Request().UserAgent()))
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// PendingInvitations lists the caller's open invitations.
func (h *BoardHandler) PendingInvitations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	invs, err := h.Invitations.ListPendingForUser(ctx, userID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, invs)
}

// Respond accepts or declines a pending invitation addressed to the
// caller.
func (h *BoardHandler) Respond(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid invitation id")
	}
	var req respondReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}

	status := model.InviteDeclined
	if req.Accept {
		status = model.InviteAccepted
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Invitations.Respond(ctx, id, userID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "no pending invitation")
		}
		return jsonError(c, http.StatusInternalServerError, "update invitation failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"status": status})
}
