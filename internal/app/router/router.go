package router

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	authentity "dynamicpro_backend/internal/feature/auth/domain/entity"
	authhandler "dynamicpro_backend/internal/feature/auth/transport/handler"
	courseshandler "dynamicpro_backend/internal/feature/courses/transport/handler"
	postshandler "dynamicpro_backend/internal/feature/posts/transport/handler"
	"dynamicpro_backend/internal/platform/http/handler"
	"dynamicpro_backend/internal/platform/http/middleware"
	jwtmw "dynamicpro_backend/internal/platform/jwt"
	"dynamicpro_backend/internal/platform/logger"
	"dynamicpro_backend/internal/platform/metrics"
	"dynamicpro_backend/internal/platform/ratelimit"
	"dynamicpro_backend/internal/shared/ratelimiter"
)

// Options はルーター全体に関わる設定です。
type Options struct {
	Env         string
	DemoMode    bool
	CORSOrigins []string
	Logger      *slog.Logger
}

// Handlers はルートに登録するフィーチャーハンドラーです。
type Handlers struct {
	Auth    *authhandler.AuthHandler
	Posts   *postshandler.PostsHandler
	Courses *courseshandler.CoursesHandler
}

// Security は認証・認可・レート制限の依存です。
type Security struct {
	Verifier jwtmw.TokenVerifier
	Users    jwtmw.UserLookup
	Limiter  ratelimiter.Limiter
}

func NewRouter(opts Options, h Handlers, sec Security) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID())
	if opts.Logger != nil {
		r.Use(logger.RequestLogger(opts.Logger))
	}
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	// 認証不要
	// 導通確認用
	r.GET("/healthz", handler.Health)
	r.HEAD("/healthz", handler.Health)
	r.OPTIONS("/healthz", handler.Health)
	r.GET("/api/health", handler.APIHealth(opts.Env))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// ログイン・登録はクライアントIPごとにレート制限
	r.POST("/auth/register", ratelimit.PerClientIP(sec.Limiter, "register"), h.Auth.Signup)
	r.POST("/auth/login", ratelimit.PerClientIP(sec.Limiter, "login"), h.Auth.Login)
	// デモモードでのみ登録
	if opts.DemoMode {
		r.POST("/auth/login-demo", ratelimit.PerClientIP(sec.Limiter, "login-demo"), h.Auth.DemoLogin)
	}

	// 認証必須のルート
	// → リクエストヘッダーに JWT が必要になる
	auth := r.Group("/")
	auth.Use(jwtmw.AuthRequired(sec.Verifier))
	{
		auth.GET("/auth/verify", h.Auth.Verify)

		// ストアのユーザーが存在すること（ロールは問わない）
		member := jwtmw.RequireRole(sec.Users)
		teacher := jwtmw.RequireRole(sec.Users, authentity.RoleTeacher)

		auth.GET("/profile", member, h.Auth.Profile)
		auth.PUT("/profile", member, h.Auth.UpdateProfile)

		auth.GET("/posts", member, h.Posts.List)
		auth.POST("/posts", teacher, h.Posts.Create)
		auth.GET("/posts/:id", member, h.Posts.Get)
		auth.POST("/posts/:id/like", member, h.Posts.ToggleLike)
		auth.GET("/posts/:id/comments", member, h.Posts.ListComments)
		auth.POST("/posts/:id/comments", member, h.Posts.AddComment)

		auth.GET("/courses", member, h.Courses.List)
		auth.POST("/courses", teacher, h.Courses.Create)
		auth.POST("/courses/:id/enrollments", member, h.Courses.Enroll)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
