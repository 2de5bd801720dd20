// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/taskflow-app/taskflow/internal/handler"
	"github.com/taskflow-app/taskflow/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication: the
// health check, the published FAQ page and the contact form.
func RegisterRoutes(e *echo.Echo, faq *handler.FaqHandler, contact *handler.ContactHandler) {
	// Load balancers and monitoring probe this endpoint.
	e.GET("/healthz", handler.Health)

	e.GET("/api/faq", faq.ListPublished)
	e.POST("/api/contact/send", contact.Send)
}

// RegisterAuth registers the authentication endpoints. The public ones sit
// behind the token-bucket limiter so credential stuffing cannot hammer the
// bcrypt path; forgot/reset carry their own per-identity throttle on top.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/forgot-password", a.ForgotPassword)
	g.POST("/reset-password", a.ResetPassword)
}

// RegisterProtected registers the board, task and FAQ-submission endpoints
// behind the authentication middleware. The middleware re-checks account
// state per request, so a freshly disabled or locked user is cut off even
// with a valid token in hand.
func RegisterProtected(e *echo.Echo, auth echo.MiddlewareFunc,
	boards *handler.BoardHandler, tasks *handler.TaskHandler, faq *handler.FaqHandler) {
	g := e.Group("/api", auth)

	g.GET("/boards", boards.List)
	g.POST("/boards", boards.Create)
	g.GET("/boards/:id", boards.Get)
	g.PUT("/boards/:id", boards.Update)
	g.DELETE("/boards/:id", boards.Delete)
	g.GET("/boards/:id/users", boards.Members)
	g.POST("/boards/:id/invite", boards.Invite)
	g.GET("/invitations", boards.PendingInvitations)
	g.POST("/invitations/:id/respond", boards.Respond)

	g.GET("/tasks", tasks.List)
	g.POST("/tasks", tasks.Create)
	g.GET("/tasks/stats", tasks.Stats)
	g.PUT("/tasks/:id", tasks.Update)
	g.DELETE("/tasks/:id", tasks.Delete)

	g.POST("/faq/questions", faq.Submit)
}

// RegisterAdmin registers the admin console under /api/admin. The group
// runs Authenticate then RequireAdmin.
func RegisterAdmin(e *echo.Echo, auth echo.MiddlewareFunc, admin *handler.AdminHandler) {
	g := e.Group("/api/admin", auth, middleware.RequireAdmin)

	g.GET("/users", admin.ListUsers)
	g.POST("/users", admin.CreateUser)
	g.PATCH("/users/:id", admin.UpdateUser)
	g.DELETE("/users/:id", admin.DeleteUser)
	g.POST("/users/:id/revoke-sessions", admin.RevokeSessions)

	g.GET("/faq-questions", admin.ListFaqQuestions)
	g.PATCH("/faq-questions/:id", admin.ModerateFaqQuestion)

	g.GET("/audit-logs", admin.ListAuditLogs)

	g.GET("/settings", admin.GetSettings)
	g.PUT("/settings/:key", admin.UpdateSetting)

	g.GET("/ip-rules", admin.ListIPRules)
	g.POST("/ip-rules", admin.AddIPRule)
	g.DELETE("/ip-rules/:id", admin.DeleteIPRule)
}
