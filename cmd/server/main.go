package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/socials/backend/internal/auth"
	"github.com/anonto42/socials/backend/internal/handlers"
	"github.com/anonto42/socials/backend/internal/metrics"
	"github.com/anonto42/socials/backend/internal/router"
	"github.com/anonto42/socials/backend/pkg/config"
	"github.com/anonto42/socials/backend/pkg/firebase"
	"github.com/anonto42/socials/backend/pkg/mailer"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := config.InitDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB()

	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	config.SetupMiddleware(e, cfg)

	err = router.SetupRoutes(ctx, e, router.Deps{
		Postgres:      db.Postgres,
		Mongo:         db.Mongo,
		Tokens:        auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Uploader:      firebaseApp.Storage,
		Mailer:        mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom),
		ClientURL:     cfg.ClientURL,
		SecureCookies: cfg.IsProduction(),
		HealthChecks: map[string]handlers.Pinger{
			"mongo":    db.PingMongo,
			"postgres": db.PingPostgres,
		},
	})
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server stopped: %v", err)
		}
	}()

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Errorf("HTTP server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP shutdown: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Metrics shutdown: %v", err)
	}
}
