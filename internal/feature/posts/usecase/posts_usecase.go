// Package usecase は投稿・いいね・コメントのビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dynamicpro_backend/internal/feature/posts/domain/entity"
)

// PostRepository は投稿データの永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type PostRepository interface {
	// Create は投稿を保存し、post.IDを設定します。
	Create(ctx context.Context, post *entity.Post) error
	// List は新しい順にすべての投稿を返します。
	List(ctx context.Context) ([]entity.Post, error)
	// FindByID は投稿を取得します。存在しない場合はErrPostNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.Post, error)
	// ToggleLike はユーザーのいいねをアトミックに切り替え、更新後の投稿といいね状態を返します。
	ToggleLike(ctx context.Context, postID, userID string) (*entity.Post, bool, error)
}

// CommentRepository はコメントの永続化層を抽象化します。
type CommentRepository interface {
	// Create はコメントを保存します。投稿が存在しない場合はErrPostNotFoundを返します。
	Create(ctx context.Context, comment *entity.Comment) error
	// ListByPost は古い順に投稿のコメントを返します。
	ListByPost(ctx context.Context, postID string) ([]entity.Comment, error)
}

// CreatePostInput は投稿作成の入力値です。
type CreatePostInput struct {
	Title   string
	Content string
	Images  []string
}

// postsUsecase は投稿操作のユースケースを定義します。
type postsUsecase struct {
	posts    PostRepository
	comments CommentRepository
	now      func() time.Time
}

// NewPostsUsecase はpostsUsecaseの新しいインスタンスを生成します。
func NewPostsUsecase(posts PostRepository, comments CommentRepository) *postsUsecase {
	return &postsUsecase{posts: posts, comments: comments, now: time.Now}
}

// ListPosts は新しい順に投稿を返します。
func (u *postsUsecase) ListPosts(ctx context.Context) ([]entity.Post, error) {
	posts, err := u.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// CreatePost は投稿を作成します。権限チェックはルーターのRequireRoleで行います。
func (u *postsUsecase) CreatePost(ctx context.Context, author entity.Author, in CreatePostInput) (*entity.Post, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}

	images := make([]string, 0, len(in.Images))
	for _, img := range in.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}

	now := u.now()
	post := &entity.Post{
		Title:      title,
		Content:    content,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		AuthorRole: author.Role,
		Images:     images,
		LikedBy:    []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := u.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return post, nil
}

// GetPost は投稿を1件取得します。
func (u *postsUsecase) GetPost(ctx context.Context, id string) (*entity.Post, error) {
	post, err := u.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return post, nil
}

// ToggleLike はいいねを切り替えます。戻り値のboolはいいね後ならtrueです。
func (u *postsUsecase) ToggleLike(ctx context.Context, postID, userID string) (*entity.Post, bool, error) {
	return u.posts.ToggleLike(ctx, postID, userID)
}

// ListComments は古い順にコメントを返します。投稿が存在しない場合は空のリストです。
func (u *postsUsecase) ListComments(ctx context.Context, postID string) ([]entity.Comment, error) {
	comments, err := u.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// AddComment はコメントを追加します。
func (u *postsUsecase) AddComment(ctx context.Context, postID string, author entity.Author, content string) (*entity.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	comment := &entity.Comment{
		PostID:     postID,
		AuthorID:   author.ID,
		AuthorName: author.Name,
		AuthorRole: author.Role,
		Content:    content,
		CreatedAt:  u.now(),
	}
	if err := u.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
