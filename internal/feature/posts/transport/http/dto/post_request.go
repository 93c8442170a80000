// Package dto はpostsフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import "dynamicpro_backend/internal/feature/posts/domain/entity"

// CreatePostReq はPOST /postsのリクエストボディです。
type CreatePostReq struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content" binding:"required"`
	Images  []string `json:"images"`
}

// CreateCommentReq はPOST /posts/:id/commentsのリクエストボディです。
type CreateCommentReq struct {
	Content string `json:"content" binding:"required"`
}

// LikeRes はPOST /posts/:id/likeのレスポンスです。
type LikeRes struct {
	Data  *entity.Post `json:"data"`
	Liked bool         `json:"liked"`
	Demo  bool         `json:"demo,omitempty"`
}
