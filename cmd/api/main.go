package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"adspace/internal/config"
	"adspace/internal/mail"
	"adspace/internal/messaging"
	"adspace/internal/notify"
	"adspace/internal/ratelimit"
	"adspace/internal/server"
	"adspace/internal/services"
	"adspace/internal/store"
	"adspace/internal/templates"
	"adspace/internal/util"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 30 * time.Second
	readTimeout     = 15 * time.Second
	writeTimeout    = 60 * time.Second
	idleTimeout     = 60 * time.Second
	startupTimeout  = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.App.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := validateConfig(cfg); err != nil {
		log.Fatal("configuration validation failed", zap.Error(err))
	}
	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.Bool("debug", cfg.App.Debug),
		zap.String("host", cfg.App.Host),
		zap.String("port", cfg.App.Port))

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	st, err := store.Open(ctx, &cfg.Database, log)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}
	defer func() {
		log.Info("closing database connections")
		if err := st.Close(context.Background()); err != nil {
			log.Warn("error closing database", zap.Error(err))
		}
	}()
	if n, err := st.Users.Count(ctx); err == nil && n == 0 {
		log.Warn("no admin accounts exist yet, run create_admin to seed one")
	}

	limiter, closeLimiter, err := ratelimit.New(ctx, &cfg.Redis, &cfg.RateLimit, log)
	if err != nil {
		return err
	}
	defer func() { _ = closeLimiter() }()

	sender, err := messaging.New(&cfg.Messaging, log)
	if err != nil {
		return errors.Wrap(err, "failed to create messaging channel")
	}
	tmpl, err := templates.New(cfg.App.Name)
	if err != nil {
		return err
	}
	mailer := mail.NewEmailService(&cfg.Email, log)

	bucket, err := services.OpenBucket(ctx, cfg.Media.BucketURL)
	if err != nil {
		return err
	}
	defer func() { _ = bucket.Close() }()
	media := services.NewMediaService(bucket, &cfg.Media, log)

	dispatcher := notify.New(notify.ConfigFrom(&cfg.Notify, &cfg.Messaging), mailer, sender, tmpl, log)

	tokens := util.NewTokenManager(cfg.Auth.SecretKey, time.Duration(cfg.Auth.TokenExpiryMinutes)*time.Minute)
	handler := server.New(cfg, server.Services{
		Auth:      services.NewAuthService(st.Users, tokens, limiter, log),
		Contact:   services.NewContactService(st.Inquiries, dispatcher, mailer, tmpl, log),
		Blogs:     services.NewBlogService(st.Blogs, media, log),
		Jobs:      services.NewContentService("job", st.Jobs, media, log),
		Reels:     services.NewContentService("reel", st.Reels, media, log),
		Media:     media,
		Health:    services.NewHealthService(st, cfg.App.Name, cfg.App.Version, log),
		Messaging: sender,
	}, log)

	addr := fmt.Sprintf("%s:%s", cfg.App.Host, cfg.App.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		ErrorLog:     zap.NewStdLog(log.Named("http")),
	}

	// Setup cannot fail past this point, so the workers always get closed.
	dispatcher.Start()

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		_ = dispatcher.Close(context.Background())
		return errors.Wrap(err, "server error")
	case sig := <-shutdown:
		log.Info("starting graceful shutdown", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("error during graceful shutdown", zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			log.Warn("shutdown timeout exceeded, forcing close")
			_ = httpServer.Close()
		}
	}
	// Queued notifications are still delivered with whatever time is left.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn("notifications abandoned at shutdown", zap.Error(err))
	}

	log.Info("server shutdown complete")
	return nil
}

// validateConfig rejects settings the API must not start with.
func validateConfig(cfg *config.Config) error {
	if cfg.Auth.SecretKey == "" || cfg.Auth.SecretKey == "your-secret-key-change-in-production" {
		return errors.New("SECRET_KEY must be set and changed from default value")
	}
	if len(cfg.Auth.SecretKey) < 32 {
		return errors.New("SECRET_KEY must be at least 32 characters")
	}
	if cfg.App.Port == "" {
		return errors.New("PORT must be set")
	}
	return nil
}
