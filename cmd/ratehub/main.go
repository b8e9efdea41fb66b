// Package main is the entry point for the RateHub API server. It loads
// configuration, connects to PostgreSQL and Valkey, wires the stores and
// handler groups, and starts the HTTP server with graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ratehub/internal/config"
	"ratehub/internal/database"
	"ratehub/internal/handlers"
	"ratehub/internal/mail"
	"ratehub/internal/middleware"
	"ratehub/internal/router"
	"ratehub/internal/store"
	"ratehub/internal/token"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db, cfg.AdminUsername, cfg.AdminEmail); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	valkeyClient, err := database.ConnectValkey(cfg.ValkeyAddr(), cfg.ValkeyPassword)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// Auth services: one-time confirmation codes and bearer tokens, both
	// backed by Valkey.
	confirmer := token.NewConfirmer(valkeyClient, cfg.AuthSecret, cfg.ConfirmTTL)
	bearer := token.NewBearer(valkeyClient, cfg.TokenTTL)

	// Outbound mail. Without an SMTP host, development logs the codes and
	// production refuses to start.
	var mailer mail.Sender
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	} else if cfg.IsDev() {
		slog.Warn("smtp not configured, confirmation codes will be logged")
		mailer = mail.LogSender{}
	} else {
		slog.Error("smtp not configured in production")
		os.Exit(1)
	}

	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	genreStore := store.NewGenreStore(db)
	titleStore := store.NewTitleStore(db)
	reviewStore := store.NewReviewStore(db)
	commentStore := store.NewCommentStore(db)

	authHandlers := handlers.NewAuth(userStore, confirmer, bearer, mailer)
	categoryHandlers := handlers.NewCategories(categoryStore)
	genreHandlers := handlers.NewGenres(genreStore)
	titleHandlers := handlers.NewTitles(titleStore, categoryStore, genreStore)
	reviewHandlers := handlers.NewReviews(titleStore, reviewStore)
	commentHandlers := handlers.NewComments(titleStore, reviewStore, commentStore)
	userHandlers := handlers.NewUsers(userStore)

	// 10 auth attempts per minute per IP, well under what brute forcing
	// an 8-digit code inside its TTL would need.
	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()

	r := router.New(
		bearer, userStore, authLimiter,
		authHandlers, categoryHandlers, genreHandlers,
		titleHandlers, reviewHandlers, commentHandlers, userHandlers,
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
