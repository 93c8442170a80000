package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"dynamicpro_backend/internal/app/di"
	"dynamicpro_backend/internal/app/router"
	authhandler "dynamicpro_backend/internal/feature/auth/transport/handler"
	authusecase "dynamicpro_backend/internal/feature/auth/usecase"
	coursesadapters "dynamicpro_backend/internal/feature/courses/adapters"
	courseshandler "dynamicpro_backend/internal/feature/courses/transport/handler"
	coursesusecase "dynamicpro_backend/internal/feature/courses/usecase"
	postsadapters "dynamicpro_backend/internal/feature/posts/adapters"
	postshandler "dynamicpro_backend/internal/feature/posts/transport/handler"
	postsusecase "dynamicpro_backend/internal/feature/posts/usecase"
	"dynamicpro_backend/internal/platform/config"
	jwtmw "dynamicpro_backend/internal/platform/jwt"
	"dynamicpro_backend/internal/platform/logger"
	infraredis "dynamicpro_backend/internal/platform/redis"
)

func main() {
	// .envを読み込む
	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	appLogger := logger.New(os.Stdout, cfg.IsDevelopment())
	slog.SetDefault(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, appLogger *slog.Logger) error {
	// db
	sqlDB, err := di.OpenSQL(cfg)
	if err != nil {
		return err
	}
	if raw, err := sqlDB.DB(); err == nil {
		defer func() { _ = raw.Close() }()
	}

	// Redis（未設定・接続失敗時はインメモリで代替）
	rdb, err := infraredis.NewRedisClient(ctx, infraredis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		slog.Warn("Redis unavailable. Running without cache and with in-memory rate limiting.")
		rdb = nil
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				slog.Error("failed to close Redis client", "error", err)
			}
		}()
	}

	// Repository
	users, closeUsers, err := di.NewUserRepository(ctx, cfg, sqlDB, rdb)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := closeUsers(shutdownCtx); err != nil {
			slog.Error("failed to close user store", "error", err)
		}
	}()

	gen, err := jwtmw.NewGenerator(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	// Usecase
	authUC := authusecase.NewAuthUsecase(users, gen, cfg.BcryptCost)
	postsUC := postsusecase.NewPostsUsecase(postsadapters.NewPostRepository(sqlDB), postsadapters.NewCommentRepository(sqlDB))
	coursesUC := coursesusecase.NewCoursesUsecase(coursesadapters.NewCourseRepository(sqlDB), users)

	if cfg.DemoMode {
		slog.Warn("DEMO_MODE is on: /auth/login-demo issues tokens without a password")
	}

	// ルータ生成
	r := router.NewRouter(
		router.Options{
			Env:         cfg.Env,
			DemoMode:    cfg.DemoMode,
			CORSOrigins: cfg.CORSAllowedOrigins,
			Logger:      appLogger,
		},
		router.Handlers{
			Auth:    authhandler.NewAuthHandler(authUC, cfg.DemoMode),
			Posts:   postshandler.NewPostsHandler(postsUC, cfg.DemoMode),
			Courses: courseshandler.NewCoursesHandler(coursesUC, cfg.DemoMode),
		},
		router.Security{
			Verifier: gen,
			Users:    users,
			Limiter:  di.NewRateLimiter(rdb, cfg.RateLimitAuth, cfg.RateLimitWindow),
		},
	)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(appLogger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "address", srv.Addr, "store", cfg.StoreDriver, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutdown signal received, starting graceful shutdown")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("HTTP server gracefully stopped")
	return nil
}
