// Package usecase はauthフィーチャーのビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dynamicpro_backend/internal/feature/auth/domain/entity"
)

const (
	// minPasswordLength はパスワードの最低文字数を定義します。
	minPasswordLength = 6
)

// UserRepository はユーザーエンティティの永続化層を抽象化します。
// Goの慣例に従い、インターフェースはプロバイダー（adapters）ではなくコンシューマー（usecase）が定義します。
type UserRepository interface {
	// Create は新しいユーザーをストレージに永続化し、user.IDを設定します。
	// 同じメールアドレスのユーザーが既に存在する場合、ErrEmailAlreadyExistsを返します。
	// 一意性はストアのユニークインデックスで保証されます。
	Create(ctx context.Context, user *entity.User) error

	// FindByEmail は指定されたメールアドレスに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByID は指定されたIDに一致するユーザーを取得します。
	// ユーザーが存在しない場合、ErrUserNotFoundを返します。
	FindByID(ctx context.Context, id string) (*entity.User, error)

	// UpdateProfile はプロフィール項目（name, bio, formation, profileImage）を更新します。
	UpdateProfile(ctx context.Context, user *entity.User) error
}

// JWTGenerator はJWTトークン生成のインターフェースを定義します。
// Goの慣例に従い、インターフェースはプロバイダー（platform/jwt）ではなくコンシューマー（usecase）が定義します。
type JWTGenerator interface {
	// GenerateToken は指定されたユーザーの署名済みJWTトークンを生成します。
	GenerateToken(userID, email string, role entity.Role) (string, error)
}

// SignupInput は新規登録の入力値です。
type SignupInput struct {
	Name        string
	Email       string
	Password    string
	Role        entity.Role
	Formation   string
	Disciplines []string
}

// ProfileInput はプロフィール更新の入力値です。nilの項目は変更しません。
type ProfileInput struct {
	Name         *string
	Bio          *string
	Formation    *string
	ProfileImage *string
}

// AuthResult はログイン・登録成功時に返すトークンとユーザーです。
type AuthResult struct {
	Token string
	User  *entity.User
}

// authUsecase は認証ビジネスロジックを実装します。
type authUsecase struct {
	users        UserRepository
	jwtGenerator JWTGenerator
	bcryptCost   int
	now          func() time.Time
}

// NewAuthUsecase はauthUsecaseの新しいインスタンスを生成します。
func NewAuthUsecase(users UserRepository, jwtGenerator JWTGenerator, bcryptCost int) *authUsecase {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authUsecase{
		users:        users,
		jwtGenerator: jwtGenerator,
		bcryptCost:   bcryptCost,
		now:          time.Now,
	}
}

// NormalizeEmail は比較用にメールアドレスを正規化します。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword はパスワードがセキュリティ要件を満たしているかチェックします。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters long", ErrInvalidInput, minPasswordLength)
	}
	return nil
}

// Signup はハッシュ化されたパスワードで新規ユーザーを登録し、トークンを発行します。
func (u *authUsecase) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" || in.Role == "" {
		return nil, fmt.Errorf("%w: name, email, password and role are required", ErrInvalidInput)
	}
	if !in.Role.Registrable() {
		return nil, fmt.Errorf("%w: role must be student or teacher", ErrInvalidInput)
	}
	// パスワード強度を検証
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := u.now()
	user := &entity.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         in.Role,
		Formation:    strings.TrimSpace(in.Formation),
		Disciplines:  compact(in.Disciplines),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// 重複チェックはストアのユニークインデックスに任せる（check-then-insertは行わない）
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u.issue(user)
}

// Login はユーザーを認証し、成功時にJWTトークンを返します。
// メールアドレスで検索し、登録時のロールと一致しない場合はユーザー未検出として扱います。
func (u *authUsecase) Login(ctx context.Context, email, password string, role entity.Role) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" || role == "" {
		return nil, fmt.Errorf("%w: email, password and role are required", ErrInvalidInput)
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.Role != role {
		return nil, ErrUserNotFound
	}

	// 第1引数はハッシュ化パスワード、第2引数は平文パスワード
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u.issue(user)
}

// CurrentUser はトークンのIDでストアから最新のユーザーを取得します。
func (u *authUsecase) CurrentUser(ctx context.Context, id string) (*entity.User, error) {
	user, err := u.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateProfile はログイン中のユーザーのプロフィールを更新します。
// nameとprofileImageは空文字の場合に既存値を維持し、formationは教師のみ反映されます。
func (u *authUsecase) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*entity.User, error) {
	user, err := u.CurrentUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.Formation != nil && user.Role == entity.RoleTeacher {
		user.Formation = strings.TrimSpace(*in.Formation)
	}
	if in.ProfileImage != nil && *in.ProfileImage != "" {
		user.ProfileImage = *in.ProfileImage
	}
	user.UpdatedAt = u.now()

	if err := u.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// DemoLogin はデモモード専用で、パスワードなしでログインします。
// メールアドレスのユーザーが存在しない場合は、使用不能なパスワードハッシュを持つデモアカウントを作成します。
// 再利用できるのはデモログインで作成されたアカウントのみで、通常登録のアカウントにはErrEmailAlreadyExistsを返します。
// ルーターはDEMO_MODEが有効な場合にのみこのエンドポイントを登録します。
func (u *authUsecase) DemoLogin(ctx context.Context, email string, role entity.Role) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || !role.Registrable() {
		return nil, fmt.Errorf("%w: email and a student or teacher role are required", ErrInvalidInput)
	}

	user, err := u.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := demoAccount(user, role); err != nil {
			return nil, err
		}
		return u.issue(user)
	case !errors.Is(err, ErrUserNotFound):
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// ランダムなUUIDをハッシュ化し、通常のログインでは使えないようにする
	hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), u.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	name, _, _ := strings.Cut(email, "@")
	now := u.now()
	user = &entity.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		Demo:         true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if !errors.Is(err, ErrEmailAlreadyExists) {
			return nil, fmt.Errorf("failed to create demo user: %w", err)
		}
		// 同時リクエストで先に作成された場合は再取得する
		if user, err = u.users.FindByEmail(ctx, email); err != nil {
			return nil, fmt.Errorf("failed to find user: %w", err)
		}
		if err := demoAccount(user, role); err != nil {
			return nil, err
		}
	}
	return u.issue(user)
}

// demoAccount はパスワードなしで再利用してよいデモアカウントかを検証します。
func demoAccount(user *entity.User, role entity.Role) error {
	if !user.Demo {
		return ErrEmailAlreadyExists
	}
	if user.Role != role {
		return ErrUserNotFound
	}
	return nil
}

func (u *authUsecase) issue(user *entity.User) (*AuthResult, error) {
	// 注入されたジェネレーターを使用してJWTトークンを生成
	token, err := u.jwtGenerator.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
