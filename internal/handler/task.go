package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskflow-app/taskflow/internal/repository"
)

// TaskHandler serves task CRUD scoped by board access plus the dashboard
// stats endpoint.
type TaskHandler struct {
	Tasks  *repository.TaskRepo
	Boards *repository.BoardRepo
}

func NewTaskHandler(tasks *repository.TaskRepo, boards *repository.BoardRepo) *TaskHandler {
	return &TaskHandler{Tasks: tasks, Boards: boards}
}

type taskReq struct {
	BoardID     uint64  `json:"board_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"due_date"` // YYYY-MM-DD
}

var taskStatuses = map[string]bool{"pending": true, "in_progress": true, "completed": true}
var taskPriorities = map[string]bool{"low": true, "medium": true, "high": true}

func (req *taskReq) normalize() (dueDate *time.Time, errMsg string) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, "title is required"
	}
	if req.Status == "" {
		req.Status = "pending"
	}
	if !taskStatuses[req.Status] {
		return nil, "invalid status"
	}
	if req.Priority == "" {
		req.Priority = "medium"
	}
	if !taskPriorities[req.Priority] {
		return nil, "invalid priority"
	}
	if req.DueDate != nil && *req.DueDate != "" {
		t, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return nil, "due_date must be YYYY-MM-DD"
		}
		dueDate = &t
	}
	return dueDate, ""
}

// List returns the caller's visible tasks, optionally filtered to one
// board via ?board_id=.
func (h *TaskHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	var boardID uint64
	if raw := c.QueryParam("board_id"); raw != "" {
		boardID, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return jsonError(c, http.StatusBadRequest, "invalid board_id")
		}
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	tasks, err := h.Tasks.ListForUser(ctx, userID, boardID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	if req.BoardID == 0 {
		return jsonError(c, http.StatusBadRequest, "board_id is required")
	}
	dueDate, msg := req.normalize()
	if msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	// Creating a task requires visibility of the target board.
	if _, err := h.Boards.GetForUser(ctx, req.BoardID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return jsonError(c, http.StatusNotFound, "board not found")
		}
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}

	id, err := h.Tasks.Create(ctx, req.BoardID, userID, req.Title, strings.TrimSpace(req.Description), req.Status, req.Priority, dueDate)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "create task failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// loadVisible fetches a task and verifies the caller can see its board.
func (h *TaskHandler) loadVisible(c echo.Context, userID uint64) (uint64, int, string) {
	id, err := pathID(c, "id")
	if err != nil {
		return 0, http.StatusBadRequest, "invalid task id"
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	task, err := h.Tasks.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, http.StatusNotFound, "task not found"
		}
		return 0, http.StatusInternalServerError, "query failed"
	}
	if _, err := h.Boards.GetForUser(ctx, task.BoardID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// The board is invisible to the caller, so the task is too.
			return 0, http.StatusNotFound, "task not found"
		}
		return 0, http.StatusInternalServerError, "query failed"
	}
	return id, 0, ""
}

func (h *TaskHandler) Update(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, status, msg := h.loadVisible(c, userID)
	if status != 0 {
		return jsonError(c, status, msg)
	}
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	dueDate, vmsg := req.normalize()
	if vmsg != "" {
		return jsonError(c, http.StatusBadRequest, vmsg)
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Tasks.Update(ctx, id, req.Title, strings.TrimSpace(req.Description), req.Status, req.Priority, dueDate); err != nil {
		return jsonError(c, http.StatusInternalServerError, "update task failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "task updated"})
}

func (h *TaskHandler) Delete(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	id, status, msg := h.loadVisible(c, userID)
	if status != 0 {
		return jsonError(c, status, msg)
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Tasks.Delete(ctx, id); err != nil {
		return jsonError(c, http.StatusInternalServerError, "delete task failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}

// Stats returns the caller's task counters for the dashboard header.
func (h *TaskHandler) Stats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	stats, err := h.Tasks.StatsForUser(ctx, userID)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, stats)
}
