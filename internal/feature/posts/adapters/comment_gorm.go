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
)

// CommentModel はcommentsテーブルの行を表すGORMモデルです。
type CommentModel struct {
	ID         string    `gorm:"primaryKey;size:36"`
	PostID     string    `gorm:"size:36;not null;index:idx_comments_post_created,priority:1"`
	AuthorID   string    `gorm:"size:64;not null"`
	AuthorName string    `gorm:"size:255"`
	AuthorRole string    `gorm:"size:16"`
	Content    string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"index:idx_comments_post_created,priority:2"`
}

func (CommentModel) TableName() string { return "comments" }

type commentGorm struct {
	db *gorm.DB
}

var _ usecase.CommentRepository = (*commentGorm)(nil)

// NewCommentRepository は指定されたgorm.DB接続でCommentRepositoryを生成します。
func NewCommentRepository(db *gorm.DB) *commentGorm {
	return &commentGorm{db: db}
}

func (r *commentGorm) Create(ctx context.Context, c *entity.Comment) error {
	m := CommentModel{
		ID:         uuid.NewString(),
		PostID:     c.PostID,
		AuthorID:   c.AuthorID,
		AuthorName: c.AuthorName,
		AuthorRole: string(c.AuthorRole),
		Content:    c.Content,
		CreatedAt:  c.CreatedAt,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&PostModel{}).Where("id = ?", c.PostID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return usecase.ErrPostNotFound
		}
		return tx.Create(&m).Error
	})
	if err != nil {
		if errors.Is(err, usecase.ErrPostNotFound) {
			return usecase.ErrPostNotFound
		}
		return err
	}
	c.ID = m.ID
	return nil
}

func (r *commentGorm) ListByPost(ctx context.Context, postID string) ([]entity.Comment, error) {
	var rows []CommentModel
	if err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.Comment, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.Comment{
			ID:         m.ID,
			PostID:     m.PostID,
			AuthorID:   m.AuthorID,
			AuthorName: m.AuthorName,
			AuthorRole: authentity.Role(m.AuthorRole),
			Content:    m.Content,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}
