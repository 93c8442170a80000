package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"dynamicpro_backend/internal/feature/auth/domain/entity"
	"dynamicpro_backend/internal/feature/auth/usecase"
)

const (
	usersCollection = "users"
	emailIndexName  = "email_unique"
)

// userMongo はUserRepositoryインターフェースのMongoDB実装です。
// メールアドレスの一意性はユニークインデックスで保証します。
type userMongo struct {
	coll      *mongo.Collection
	opTimeout time.Duration
}

// userMongoがUserRepositoryを実装していることをコンパイル時に検証します。
var _ usecase.UserRepository = (*userMongo)(nil)

// NewUserMongo は指定されたデータベースのusersコレクションを使うuserMongoを生成します。
// opTimeoutは各操作に適用されるタイムアウトです（0の場合は呼び出し元のコンテキストのみ）。
func NewUserMongo(db *mongo.Database, opTimeout time.Duration) *userMongo {
	return &userMongo{coll: db.Collection(usersCollection), opTimeout: opTimeout}
}

// EnsureIndexes はemailのユニークインデックスを作成します。起動時に一度呼び出します。
func (r *userMongo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

// Create はユーザーを挿入し、生成したObjectIDをuser.IDに設定します。
// 同じメールアドレスのユーザーが既に存在する場合、usecase.ErrEmailAlreadyExistsを返します。
func (r *userMongo) Create(ctx context.Context, u *entity.User) error {
	if u == nil {
		return errors.New("user must not be nil")
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc := toUserDocument(u)
	doc.ID = bson.NewObjectID()

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if isDuplicateEmail(err) {
			return usecase.ErrEmailAlreadyExists
		}
		return err
	}
	u.ID = doc.ID.Hex()
	return nil
}

// FindByEmail はメールアドレスでユーザーを取得します。
// ユーザーが存在しない場合、usecase.ErrUserNotFoundを返します。
func (r *userMongo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// FindByID はIDでユーザーを取得します。
// IDがObjectIDとして不正な場合もusecase.ErrUserNotFoundを返します。
func (r *userMongo) FindByID(ctx context.Context, id string) (*entity.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, usecase.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// UpdateProfile はプロフィール項目のみを$setで更新します。
func (r *userMongo) UpdateProfile(ctx context.Context, u *entity.User) error {
	oid, err := bson.ObjectIDFromHex(u.ID)
	if err != nil {
		return usecase.ErrUserNotFound
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"name":         u.Name,
		"bio":          u.Bio,
		"formation":    u.Formation,
		"profileImage": u.ProfileImage,
		"updatedAt":    u.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return usecase.ErrUserNotFound
	}
	return nil
}

func (r *userMongo) findOne(ctx context.Context, filter bson.M) (*entity.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, usecase.ErrUserNotFound
		}
		return nil, err
	}
	return doc.toEntity(), nil
}

func (r *userMongo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

// isDuplicateEmail はE11000（ユニークキー重複）エラーかどうかを判定します。
func isDuplicateEmail(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}
