// Package adapters はpostsフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	authentity "dynamicpro_backend/internal/feature/auth/domain/entity"
	"dynamicpro_backend/internal/feature/posts/domain/entity"
	"dynamicpro_backend/internal/feature/posts/usecase"
	"dynamicpro_backend/internal/platform/db"
)

// PostModel はpostsテーブルの行を表すGORMモデルです。
type PostModel struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Title      string    `gorm:"size:255;not null"`
	Content    string    `gorm:"type:text;not null"`
	AuthorID   string    `gorm:"size:64;not null;index"`
	AuthorName string    `gorm:"size:255"`
	AuthorRole string    `gorm:"size:16"`
	Images     []string  `gorm:"serializer:json"`
	Likes      int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time
}

func (PostModel) TableName() string { return "posts" }

// PostLikeModel は1ユーザー1投稿につき1行です。複合主キーで二重いいねを防ぎます。
type PostLikeModel struct {
	PostID    string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"primaryKey;size:64"`
	CreatedAt time.Time
}

func (PostLikeModel) TableName() string { return "post_likes" }

func toPostEntity(m PostModel, likedBy []string) entity.Post {
	if likedBy == nil {
		likedBy = []string{}
	}
	images := m.Images
	if images == nil {
		images = []string{}
	}
	return entity.Post{
		ID:         m.ID,
		Title:      m.Title,
		Content:    m.Content,
		AuthorID:   m.AuthorID,
		AuthorName: m.AuthorName,
		AuthorRole: authentity.Role(m.AuthorRole),
		Images:     images,
		Likes:      m.Likes,
		LikedBy:    likedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type postGorm struct {
	db *gorm.DB
}

var _ usecase.PostRepository = (*postGorm)(nil)

// NewPostRepository は指定されたgorm.DB接続でPostRepositoryを生成します。
func NewPostRepository(db *gorm.DB) *postGorm {
	return &postGorm{db: db}
}

func (r *postGorm) Create(ctx context.Context, p *entity.Post) error {
	m := PostModel{
		ID:         uuid.NewString(),
		Title:      p.Title,
		Content:    p.Content,
		AuthorID:   p.AuthorID,
		AuthorName: p.AuthorName,
		AuthorRole: string(p.AuthorRole),
		Images:     p.Images,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	p.ID = m.ID
	return nil
}

func (r *postGorm) List(ctx context.Context) ([]entity.Post, error) {
	var rows []PostModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []entity.Post{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, m := range rows {
		ids = append(ids, m.ID)
	}
	likes, err := r.likedBy(r.db.WithContext(ctx), ids...)
	if err != nil {
		return nil, err
	}

	out := make([]entity.Post, 0, len(rows))
	for _, m := range rows {
		out = append(out, toPostEntity(m, likes[m.ID]))
	}
	return out, nil
}

func (r *postGorm) FindByID(ctx context.Context, id string) (*entity.Post, error) {
	return r.find(r.db.WithContext(ctx), id)
}

// ToggleLike はトランザクション内で、既存のいいねがあれば削除し、なければ追加します。
func (r *postGorm) ToggleLike(ctx context.Context, postID, userID string) (*entity.Post, bool, error) {
	var (
		post  *entity.Post
		liked bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m PostModel
		if err := tx.Select("id").Where("id = ?", postID).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return usecase.ErrPostNotFound
			}
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&PostLikeModel{})
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			if err := tx.Create(&PostLikeModel{PostID: postID, UserID: userID}).Error; err != nil {
				return err
			}
			delta = 1
			liked = true
		}

		if err := tx.Model(&PostModel{}).Where("id = ?", postID).
			Update("likes", gorm.Expr("likes + ?", delta)).Error; err != nil {
			return err
		}

		var err error
		post, err = r.find(tx, postID)
		return err
	})
	if err != nil {
		// 同一ユーザーの同時リクエストで先に追加された場合
		if db.IsDuplicateKey(err) {
			post, err = r.FindByID(ctx, postID)
			return post, true, err
		}
		return nil, false, err
	}
	return post, liked, nil
}

func (r *postGorm) find(tx *gorm.DB, id string) (*entity.Post, error) {
	var m PostModel
	if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrPostNotFound
		}
		return nil, err
	}
	likes, err := r.likedBy(tx, id)
	if err != nil {
		return nil, err
	}
	p := toPostEntity(m, likes[id])
	return &p, nil
}

func (r *postGorm) likedBy(tx *gorm.DB, postIDs ...string) (map[string][]string, error) {
	var rows []PostLikeModel
	if err := tx.Where("post_id IN ?", postIDs).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(postIDs))
	for _, l := range rows {
		out[l.PostID] = append(out[l.PostID], l.UserID)
	}
	return out, nil
}
