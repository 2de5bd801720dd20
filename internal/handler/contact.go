package handler

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskflow-app/taskflow/internal/config"
	"github.com/taskflow-app/taskflow/internal/mailer"
	"github.com/taskflow-app/taskflow/internal/utils"
)

// ContactHandler forwards contact-form submissions by email: a notification
// to the site operator and an acknowledgement back to the sender.
type ContactHandler struct {
	Cfg  config.Config
	Mail mailer.Mailer
}

func NewContactHandler(cfg config.Config, mail mailer.Mailer) *ContactHandler {
	return &ContactHandler{Cfg: cfg, Mail: mail}
}

type contactReq struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (h *ContactHandler) Send(c echo.Context) error {
	var req contactReq
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" || req.Subject == "" || req.Message == "" {
		return jsonError(c, http.StatusBadRequest, "name, subject and message are required")
	}
	if !utils.ValidEmail(req.Email) {
		return jsonError(c, http.StatusBadRequest, "valid email is required")
	}

	if !h.Mail.Configured() || h.Cfg.ContactRecipient == "" {
		return jsonError(c, http.StatusServiceUnavailable, "email service not configured")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	name := html.EscapeString(req.Name)
	subject := html.EscapeString(req.Subject)
	message := html.EscapeString(req.Message)

	notification := fmt.Sprintf(`<h2>New contact form message</h2>
<p><b>From:</b> %s &lt;%s&gt;</p>
<p><b>Subject:</b> %s</p>
<p>%s</p>`, name, req.Email, subject, message)

	if err := h.Mail.Send(ctx, h.Cfg.ContactRecipient, "[TaskFlow Contact] "+req.Subject, notification); err != nil {
		if errors.Is(err, mailer.ErrAuth) {
			return jsonError(c, http.StatusServiceUnavailable, "email service authentication failed")
		}
		return jsonError(c, http.StatusServiceUnavailable, "failed to send message")
	}

	ack := fmt.Sprintf(`<h2>We received your message</h2>
<p>Hi %s,</p>
<p>Thanks for reaching out. We will get back to you as soon as possible.</p>
<p><b>Your subject:</b> %s</p>
<hr/>
<p>The TaskFlow Team</p>`, name, subject)

	// The operator copy already went through; a failed acknowledgement is
	// logged but does not fail the submission.
	if err := h.Mail.Send(ctx, req.Email, "We received your message", ack); err != nil {
		c.Logger().Warnf("contact: acknowledgement to %s failed: %v", req.Email, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Message sent successfully"})
}
