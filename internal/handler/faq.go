package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskflow-app/taskflow/internal/repository"
)

// FaqHandler serves the public FAQ page and authenticated question
// submission. Moderation lives in the admin handler.
type FaqHandler struct {
	Faq *repository.FaqRepo
}

func NewFaqHandler(faq *repository.FaqRepo) *FaqHandler {
	return &FaqHandler{Faq: faq}
}

type faqSubmitReq struct {
	Question string `json:"question"`
}

// ListPublished returns the published, answered questions. No auth.
func (h *FaqHandler) ListPublished(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	items, err := h.Faq.ListPublished(ctx)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "query failed")
	}
	return c.JSON(http.StatusOK, items)
}

// Submit files a new question from a signed-in user.
func (h *FaqHandler) Submit(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return err
	}
	var req faqSubmitReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Question = strings.TrimSpace(req.Question)
	if len(req.Question) < 10 {
		return jsonError(c, http.StatusBadRequest, "question must be at least 10 characters")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	id, err := h.Faq.CreateQuestion(ctx, userID, req.Question)
	if err != nil {
		return jsonError(c, http.StatusInternalServerError, "submit question failed")
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "message": "question submitted"})
}
