// Package handler はauthフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dynamicpro_backend/internal/api"
	"dynamicpro_backend/internal/feature/auth/domain/entity"
	"dynamicpro_backend/internal/feature/auth/transport/http/dto"
	"dynamicpro_backend/internal/feature/auth/usecase"
	jwtmw "dynamicpro_backend/internal/platform/jwt"
	"dynamicpro_backend/internal/platform/metrics"
)

// AuthUsecase は認証操作のユースケースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（usecase）ではなくコンシューマー（handler）が定義します。
type AuthUsecase interface {
	// Signup は新規ユーザーを登録し、トークンを発行します。
	Signup(ctx context.Context, in usecase.SignupInput) (*usecase.AuthResult, error)
	// Login はユーザーを認証し、成功時にトークンを返します。
	Login(ctx context.Context, email, password string, role entity.Role) (*usecase.AuthResult, error)
	// CurrentUser はストアから最新のユーザーを取得します。
	CurrentUser(ctx context.Context, id string) (*entity.User, error)
	// UpdateProfile はプロフィールを更新します。
	UpdateProfile(ctx context.Context, id string, in usecase.ProfileInput) (*entity.User, error)
	// DemoLogin はデモモードでパスワードなしのログインを行います。
	DemoLogin(ctx context.Context, email string, role entity.Role) (*usecase.AuthResult, error)
}

// AuthHandler は認証操作のHTTPリクエストを処理します。
// AuthUsecaseインターフェースに依存し、JSONリクエスト/レスポンスを処理します。
type AuthHandler struct {
	auth AuthUsecase
	demo bool
}

// NewAuthHandler はAuthHandlerの新しいインスタンスを生成します。
// demoがtrueの場合、すべてのレスポンスにdemo: trueを付与します。
func NewAuthHandler(auth AuthUsecase, demo bool) *AuthHandler {
	return &AuthHandler{auth: auth, demo: demo}
}

// Signup はユーザー登録APIエンドポイントを処理します。
// - リクエストJSONをSignupReqにバインド
// - バリデーションエラー時は400を返却
// - メール重複時は409を返却
// - 成功時はトークンとユーザー付きで200を返却
func (h *AuthHandler) Signup(c *gin.Context) {
	var req dto.SignupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("signup validation failed", "error", err, "remote_addr", c.ClientIP())
		h.fail(c, "signup", http.StatusBadRequest, api.CodeInvalidRequest, "name, email, password and role are required")
		return
	}

	res, err := h.auth.Signup(c.Request.Context(), usecase.SignupInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        entity.Role(req.Role),
		Formation:   req.Formation,
		Disciplines: req.Disciplines,
	})
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			slog.Warn("signup rejected", "error", err, "remote_addr", c.ClientIP())
			h.fail(c, "signup", http.StatusBadRequest, api.CodeInvalidRequest, err.Error())
		case errors.Is(err, usecase.ErrEmailAlreadyExists):
			slog.Warn("signup conflict", "email", req.Email, "remote_addr", c.ClientIP())
			h.fail(c, "signup", http.StatusConflict, api.CodeConflict, "email already registered")
		default:
			// ドライバーのエラー内容はログのみに出力し、クライアントには公開しない
			slog.Error("signup failed", "error", err, "remote_addr", c.ClientIP())
			h.fail(c, "signup", http.StatusInternalServerError, api.CodeUnavailable, "service unavailable")
		}
		return
	}

	metrics.AuthAttempts.WithLabelValues("signup", "success").Inc()
	slog.Info("user signup successful", "user_id", res.User.ID, "role", res.User.Role, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.AuthRes{Token: res.Token, User: res.User, Demo: h.demo})
}

// Login はユーザーログインAPIエンドポイントを処理します。
// - リクエストJSONをLoginReqにバインド
// - バリデーションエラー時は400を返却
// - ユーザー未検出時は404、パスワード不一致時は401を返却
// - 認証成功時はトークンとユーザー付きで200を返却
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("login validation failed", "error", err, "remote_addr", c.ClientIP())
		h.fail(c, "login", http.StatusBadRequest, api.CodeInvalidRequest, "email, password and role are required")
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, entity.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			h.fail(c, "login", http.StatusBadRequest, api.CodeInvalidRequest, "email, password and role are required")
		case errors.Is(err, usecase.ErrUserNotFound):
			slog.Warn("login for unknown user", "email", req.Email, "role", req.Role, "remote_addr", c.ClientIP())
			h.fail(c, "login", http.StatusNotFound, api.CodeNotFound, "user not found")
		case errors.Is(err, usecase.ErrInvalidCredentials):
			slog.Warn("login failed", "email", req.Email, "remote_addr", c.ClientIP())
			h.fail(c, "login", http.StatusUnauthorized, api.CodeInvalidCredentials, "invalid email or password")
		default:
			slog.Error("login failed", "error", err, "remote_addr", c.ClientIP())
			h.fail(c, "login", http.StatusInternalServerError, api.CodeUnavailable, "service unavailable")
		}
		return
	}

	metrics.AuthAttempts.WithLabelValues("login", "success").Inc()
	slog.Info("user login successful", "user_id", res.User.ID, "remote_addr", c.ClientIP())
	c.JSON(http.StatusOK, dto.AuthRes{Token: res.Token, User: res.User, Demo: h.demo})
}

// DemoLogin はデモモード専用のログインエンドポイントを処理します。
// レスポンスには常にdemo: trueが付与されます。
func (h *AuthHandler) DemoLogin(c *gin.Context) {
	var req dto.DemoLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, "demo_login", http.StatusBadRequest, api.CodeInvalidRequest, "email and role are required")
		return
	}

	res, err := h.auth.DemoLogin(c.Request.Context(), req.Email, entity.Role(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			h.fail(c, "demo_login", http.StatusBadRequest, api.CodeInvalidRequest, err.Error())
		case errors.Is(err, usecase.ErrUserNotFound):
			h.fail(c, "demo_login", http.StatusNotFound, api.CodeNotFound, "user not found")
		case errors.Is(err, usecase.ErrEmailAlreadyExists):
			slog.Warn("demo login refused for registered account", "remote_addr", c.ClientIP())
			h.fail(c, "demo_login", http.StatusConflict, api.CodeConflict, "email belongs to a registered account")
		default:
			slog.Error("demo login failed", "error", err, "remote_addr", c.ClientIP())
			h.fail(c, "demo_login", http.StatusInternalServerError, api.CodeUnavailable, "service unavailable")
		}
		return
	}

	metrics.AuthAttempts.WithLabelValues("demo_login", "success").Inc()
	slog.Info("demo login", "user_id", res.User.ID, "role", res.User.Role)
	c.JSON(http.StatusOK, dto.AuthRes{Token: res.Token, User: res.User, Demo: true})
}

// Verify はトークンの所有者をストアから再取得して返します。
// ユーザーが削除されている場合は401を返却します。
func (h *AuthHandler) Verify(c *gin.Context) {
	identity, ok := jwtmw.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "missing bearer token"))
		return
	}

	user, err := h.auth.CurrentUser(c.Request.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "invalid token"))
			return
		}
		slog.Error("verify failed", "user_id", identity.ID, "error", err)
		c.JSON(http.StatusInternalServerError, api.NewError(api.CodeUnavailable, "service unavailable"))
		return
	}

	c.JSON(http.StatusOK, dto.UserRes{User: user, Demo: h.demo})
}

// Profile はログイン中のユーザーのプロフィールを返します。
// RequireRoleの後に登録する必要があります。
func (h *AuthHandler) Profile(c *gin.Context) {
	user, ok := jwtmw.UserFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "missing bearer token"))
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Data: user, Demo: h.demo})
}

// UpdateProfile はプロフィールを更新します。
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	identity, ok := jwtmw.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "missing bearer token"))
		return
	}

	var req dto.ProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.NewError(api.CodeInvalidRequest, "invalid request"))
		return
	}

	user, err := h.auth.UpdateProfile(c.Request.Context(), identity.ID, usecase.ProfileInput{
		Name:         req.Name,
		Bio:          req.Bio,
		Formation:    req.Formation,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "invalid token"))
			return
		}
		slog.Error("profile update failed", "user_id", identity.ID, "error", err)
		c.JSON(http.StatusInternalServerError, api.NewError(api.CodeUnavailable, "service unavailable"))
		return
	}

	slog.Info("profile updated", "user_id", user.ID)
	c.JSON(http.StatusOK, api.DataResponse{Data: user, Demo: h.demo})
}

func (h *AuthHandler) fail(c *gin.Context, operation string, status int, code, message string) {
	metrics.AuthAttempts.WithLabelValues(operation, outcome(code)).Inc()
	c.JSON(status, api.NewError(code, message))
}

func outcome(code string) string {
	switch code {
	case api.CodeInvalidRequest:
		return "invalid_request"
	case api.CodeNotFound:
		return "not_found"
	case api.CodeInvalidCredentials:
		return "invalid_credentials"
	case api.CodeConflict:
		return "conflict"
	default:
		return "error"
	}
}
