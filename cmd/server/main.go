package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/blog_api/internal/apperr"
	"github.com/Skotchmaster/blog_api/internal/config"
	"github.com/Skotchmaster/blog_api/internal/es"
	"github.com/Skotchmaster/blog_api/internal/handlers"
	"github.com/Skotchmaster/blog_api/internal/hash"
	"github.com/Skotchmaster/blog_api/internal/logging"
	"github.com/Skotchmaster/blog_api/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/blog_api/internal/middleware/logging"
	"github.com/Skotchmaster/blog_api/internal/mykafka"
	"github.com/Skotchmaster/blog_api/internal/repo"
	"github.com/Skotchmaster/blog_api/internal/service"
	"github.com/Skotchmaster/blog_api/internal/service/search"
	httpserver "github.com/Skotchmaster/blog_api/internal/transport/http"
	"github.com/Skotchmaster/blog_api/internal/validate"
	"github.com/Skotchmaster/blog_api/pkg/db"
	"github.com/Skotchmaster/blog_api/pkg/tokens"
)

const bodyLimit = "1M"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server_failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := logging.IntoContext(context.Background(), logger)

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if sqlDB, err := gdb.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logger.Error("db_close_failed", "error", err)
			}
		}
	}()

	store := &repo.GormRepo{DB: gdb}
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := store.Seed(ctx); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	hasher, err := hash.NewHasher(cfg.SaltRounds)
	if err != nil {
		return err
	}
	tokenSvc, err := tokens.NewService(cfg.AccessSecret, cfg.RefreshSecret)
	if err != nil {
		return err
	}
	jar, err := auth.NewCookieJar(cfg.CookieSecret, cfg.RefreshTTL)
	if err != nil {
		return err
	}

	var events mykafka.Publisher = mykafka.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		prod, err := mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer func() {
			if err := prod.Close(); err != nil {
				logger.Error("kafka_close_failed", "error", err)
			}
		}()
		events = prod
	}

	var index *es.PostIndex
	if cfg.ESURL != "" {
		client, err := es.NewClient(ctx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			return err
		}
		index = es.NewPostIndex(client, cfg.ESIndex)
		if err := index.EnsureIndex(ctx); err != nil {
			return err
		}
	}

	registry, err := httpserver.NewRegistry(store, hasher, tokenSvc, jar)
	if err != nil {
		return err
	}

	posts := &service.PostService{Repo: store, Events: events}
	users := &service.UserService{Repo: store, Events: events}
	finder := &search.Service{Store: store}
	if index != nil {
		posts.Index = index
		users.Index = index
		finder.Index = index
	}

	if len(cfg.CORSOrigins) == 0 {
		logger.Warn("cors_origins_unset", "reason", "credentialed cross-origin requests are disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperr.Handler(cfg.Production)
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		loggingmw.RequestLogger(logger),
		middleware.CORSWithConfig(httpserver.CORSConfig(cfg.CORSOrigins)),
		middleware.Secure(),
		middleware.BodyLimit(bodyLimit),
	)

	httpserver.Register(e, &httpserver.Deps{
		Validator:      validate.New(),
		Auth:           registry,
		TrustedOrigins: cfg.CORSOrigins,
		LoginPerMinute: cfg.LoginRatePerMinute,
		Health:         &handlers.HealthHandler{DB: store},
		Sessions: &handlers.AuthHandler{
			Auth: &service.AuthService{
				Repo: store, Tokens: tokenSvc, Hasher: hasher, Events: events,
				AccessTTL: cfg.AccessTTL, RefreshTTL: cfg.RefreshTTL,
			},
			Jar: jar,
		},
		Users:    &handlers.UserHandler{Users: users},
		Posts:    &handlers.PostHandler{Posts: posts, Search: finder},
		Comments: &handlers.CommentHandler{Comments: &service.CommentService{Repo: store, Posts: posts, Events: events}},
		Tags:     &handlers.TagHandler{Tags: &service.TagService{Repo: store}},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	logger.Info("shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_failed", "error", err)
	}
	logger.Info("shutdown_complete")
	return nil
}
