// Package adapters はauthフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"dynamicpro_backend/internal/feature/auth/domain/entity"
	"dynamicpro_backend/internal/feature/auth/usecase"
	"dynamicpro_backend/internal/platform/db"
)

// UserModel はusersテーブルの行を表すGORMモデルです。
type UserModel struct {
	ID           string   `gorm:"primaryKey;size:36"`
	Name         string   `gorm:"size:255;not null"`
	Email        string   `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string   `gorm:"size:255;not null"`
	Role         string   `gorm:"size:16;not null"`
	Formation    string   `gorm:"size:255"`
	Disciplines  []string `gorm:"serializer:json"`
	Bio          string   `gorm:"type:text"`
	ProfileImage string   `gorm:"type:text"`
	Demo         bool     `gorm:"not null;default:false"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName はGORMが使用するテーブル名を返します。
func (UserModel) TableName() string { return "users" }

func toUserModel(u *entity.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Formation:    u.Formation,
		Disciplines:  u.Disciplines,
		Bio:          u.Bio,
		ProfileImage: u.ProfileImage,
		Demo:         u.Demo,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (m *UserModel) toEntity() *entity.User {
	return &entity.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         entity.Role(m.Role),
		Formation:    m.Formation,
		Disciplines:  m.Disciplines,
		Bio:          m.Bio,
		ProfileImage: m.ProfileImage,
		Demo:         m.Demo,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// userGorm はUserRepositoryインターフェースのGORM実装です。
// SQLite / PostgreSQL / MySQL のいずれでも動作します。
type userGorm struct {
	db *gorm.DB
}

// userGormがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userGorm)(nil)

// NewUserGorm は指定されたgorm.DB接続でuserGormの新しいインスタンスを生成します。
// 依存性注入用のコンストラクタです。
func NewUserGorm(db *gorm.DB) *userGorm {
	return &userGorm{db: db}
}

// Create はユーザーをデータベースに追加し、UUIDをuser.IDに設定します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userGorm) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user must not be nil")
	}
	m := toUserModel(u)
	m.ID = uuid.NewString()

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if db.IsDuplicateKey(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	u.UpdatedAt = m.UpdatedAt
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.toEntity(), nil
}

// FindByID はIDでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userGorm) FindByID(ctx context.Context, id string) (*entity.User, error) {
	var m UserModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return m.toEntity(), nil
}

// UpdateProfile はプロフィール項目のみを更新します。
func (r *userGorm) UpdateProfile(ctx context.Context, u *entity.User) error {
	res := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":          u.Name,
		"bio":           u.Bio,
		"formation":     u.Formation,
		"profile_image": u.ProfileImage,
		"updated_at":    u.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQLは値が変わらない行を0件として返すため存在を確認する
		var n int64
		if err := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", u.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return usecase.ErrUserNotFound
		}
	}
	return nil
}
