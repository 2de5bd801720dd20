package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/taskflow-app/taskflow/internal/audit"
	"github.com/taskflow-app/taskflow/internal/config"
	"github.com/taskflow-app/taskflow/internal/database"
	"github.com/taskflow-app/taskflow/internal/handler"
	"github.com/taskflow-app/taskflow/internal/mailer"
	"github.com/taskflow-app/taskflow/internal/middleware"
	"github.com/taskflow-app/taskflow/internal/queue"
	"github.com/taskflow-app/taskflow/internal/ratelimit"
	"github.com/taskflow-app/taskflow/internal/repository"
	"github.com/taskflow-app/taskflow/internal/router"
)

func main() {
	// .env is optional; in production everything comes from the real
	// environment.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(database.Config{
		User: cfg.DBUser, Pass: cfg.DBPass,
		Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
		MaxConns: cfg.DBMaxConns, ConnLifetime: cfg.DBConnLifetime,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	setupCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := database.Setup(setupCtx, db); err != nil {
		cancel()
		log.Fatalf("database setup: %v", err)
	}
	cancel()

	users := repository.NewUserRepo(db)
	boards := repository.NewBoardRepo(db)
	tasks := repository.NewTaskRepo(db)
	invitations := repository.NewInvitationRepo(db)
	faq := repository.NewFaqRepo(db)
	settings := repository.NewSettingsRepo(db)
	ipRules := repository.NewIPRuleRepo(db)
	audits := repository.NewAuditRepo(db)

	rdb := config.NewRedisClient()

	// The reset-request throttle prefers Redis so the window holds across
	// instances; without Redis an in-process sliding window serves a
	// single-instance deployment.
	var resetLimiter ratelimit.Limiter
	if rdb != nil {
		resetLimiter = ratelimit.NewRedis(rdb, "reset")
	} else {
		mem := ratelimit.NewMemory()
		go mem.StartPruner(context.Background(), time.Minute, cfg.ResetWindow)
		resetLimiter = mem
	}

	mail := mailer.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	recorder := audit.NewRecorder(audits)

	if recorder.UseQueue {
		go func() {
			if err := queue.StartAuditConsumer(audits); err != nil {
				log.Printf("audit consumer stopped: %v", err)
			}
		}()
	}

	authHandler := handler.NewAuthHandler(cfg, users, settings, ipRules, recorder, mail, resetLimiter)
	boardHandler := handler.NewBoardHandler(boards, invitations, users, recorder)
	taskHandler := handler.NewTaskHandler(tasks, boards)
	faqHandler := handler.NewFaqHandler(faq)
	contactHandler := handler.NewContactHandler(cfg, mail)
	adminHandler := handler.NewAdminHandler(cfg, users, faq, audits, settings, ipRules, recorder)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	authMW := middleware.Authenticate(cfg.JWTSecret, users, settings)
	bucket := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e, faqHandler, contactHandler)
	router.RegisterAuth(e, authHandler, bucket)
	router.RegisterProtected(e, authMW, boardHandler, taskHandler, faqHandler)
	router.RegisterAdmin(e, authMW, adminHandler)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
