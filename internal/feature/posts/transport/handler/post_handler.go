// Package handler はpostsフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"dynamicpro_backend/internal/api"
	"dynamicpro_backend/internal/feature/posts/domain/entity"
	"dynamicpro_backend/internal/feature/posts/transport/http/dto"
	"dynamicpro_backend/internal/feature/posts/usecase"
	jwtmw "dynamicpro_backend/internal/platform/jwt"
)

// PostsUsecase は投稿操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type PostsUsecase interface {
	ListPosts(ctx context.Context) ([]entity.Post, error)
	CreatePost(ctx context.Context, author entity.Author, in usecase.CreatePostInput) (*entity.Post, error)
	GetPost(ctx context.Context, id string) (*entity.Post, error)
	ToggleLike(ctx context.Context, postID, userID string) (*entity.Post, bool, error)
	ListComments(ctx context.Context, postID string) ([]entity.Comment, error)
	AddComment(ctx context.Context, postID string, author entity.Author, content string) (*entity.Comment, error)
}

// PostsHandler は投稿・いいね・コメントのHTTPリクエストを処理します。
type PostsHandler struct {
	uc   PostsUsecase
	demo bool
}

// NewPostsHandler は指定されたusecaseでPostsHandlerの新しいインスタンスを生成します。
func NewPostsHandler(uc PostsUsecase, demo bool) *PostsHandler {
	return &PostsHandler{uc: uc, demo: demo}
}

// List は新しい順に投稿一覧を返します。
//
// エンドポイント例:
// GET /posts
func (h *PostsHandler) List(c *gin.Context) {
	posts, err := h.uc.ListPosts(c.Request.Context())
	if err != nil {
		unavailable(c, "list posts failed", err)
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Data: posts, Demo: h.demo})
}

// Create は投稿を作成します。RequireRole(teacher)の後に登録します。
//
// エンドポイント例:
// POST /posts
func (h *PostsHandler) Create(c *gin.Context) {
	author, ok := authorFrom(c)
	if !ok {
		return
	}

	var req dto.CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.NewError(api.CodeInvalidRequest, "title and content are required"))
		return
	}

	post, err := h.uc.CreatePost(c.Request.Context(), author, usecase.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Images:  req.Images,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, api.NewError(api.CodeInvalidRequest, "title and content are required"))
			return
		}
		unavailable(c, "create post failed", err)
		return
	}

	slog.Info("post created", "post_id", post.ID, "author_id", author.ID)
	c.JSON(http.StatusCreated, api.DataResponse{Data: post, Demo: h.demo})
}

// Get は投稿を1件返します。
func (h *PostsHandler) Get(c *gin.Context) {
	post, err := h.uc.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, api.NewError(api.CodeNotFound, "post not found"))
			return
		}
		unavailable(c, "get post failed", err)
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Data: post, Demo: h.demo})
}

// ToggleLike はいいねを切り替えます。
//
// エンドポイント例:
// POST /posts/:id/like
func (h *PostsHandler) ToggleLike(c *gin.Context) {
	identity, ok := jwtmw.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "missing bearer token"))
		return
	}

	post, liked, err := h.uc.ToggleLike(c.Request.Context(), c.Param("id"), identity.ID)
	if err != nil {
		if errors.Is(err, usecase.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, api.NewError(api.CodeNotFound, "post not found"))
			return
		}
		unavailable(c, "toggle like failed", err)
		return
	}
	c.JSON(http.StatusOK, dto.LikeRes{Data: post, Liked: liked, Demo: h.demo})
}

// ListComments は古い順にコメントを返します。
//
// エンドポイント例:
// GET /posts/:id/comments
func (h *PostsHandler) ListComments(c *gin.Context) {
	comments, err := h.uc.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		unavailable(c, "list comments failed", err)
		return
	}
	c.JSON(http.StatusOK, api.DataResponse{Data: comments, Demo: h.demo})
}

// AddComment はコメントを追加します。RequireRole()の後に登録します。
//
// エンドポイント例:
// POST /posts/:id/comments
func (h *PostsHandler) AddComment(c *gin.Context) {
	author, ok := authorFrom(c)
	if !ok {
		return
	}

	var req dto.CreateCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.NewError(api.CodeInvalidRequest, "content is required"))
		return
	}

	comment, err := h.uc.AddComment(c.Request.Context(), c.Param("id"), author, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, api.NewError(api.CodeInvalidRequest, "content is required"))
		case errors.Is(err, usecase.ErrPostNotFound):
			c.JSON(http.StatusBadRequest, api.NewError(api.CodeInvalidRequest, "post does not exist"))
		default:
			unavailable(c, "add comment failed", err)
		}
		return
	}
	c.JSON(http.StatusCreated, api.DataResponse{Data: comment, Demo: h.demo})
}

// authorFrom はRequireRoleが読み込んだユーザーから投稿者情報を作ります。
func authorFrom(c *gin.Context) (entity.Author, bool) {
	user, ok := jwtmw.UserFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.NewError(api.CodeUnauthenticated, "missing bearer token"))
		return entity.Author{}, false
	}
	return entity.Author{ID: user.ID, Name: user.Name, Role: user.Role}, true
}

func unavailable(c *gin.Context, msg string, err error) {
	slog.Error(msg, "error", err, "path", c.FullPath())
	c.JSON(http.StatusInternalServerError, api.NewError(api.CodeUnavailable, "service unavailable"))
}
