// Package di provides dependency injection factories for creating application components.
package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	authadapters "dynamicpro_backend/internal/feature/auth/adapters"
	"dynamicpro_backend/internal/feature/auth/usecase"
	coursesadapters "dynamicpro_backend/internal/feature/courses/adapters"
	postsadapters "dynamicpro_backend/internal/feature/posts/adapters"
	"dynamicpro_backend/internal/platform/cache"
	"dynamicpro_backend/internal/platform/config"
	"dynamicpro_backend/internal/platform/db"
	"dynamicpro_backend/internal/platform/mongodb"
)

// ContentModels are migrated on every SQL database the process opens.
func ContentModels() []any {
	return []any{
		&postsadapters.PostModel{},
		&postsadapters.PostLikeModel{},
		&postsadapters.CommentModel{},
		&coursesadapters.CourseModel{},
		&coursesadapters.EnrollmentModel{},
	}
}

// OpenSQL opens the gorm database holding posts and courses.
// When the Credential Store is SQL, the users table lives there too.
func OpenSQL(cfg config.Config) (*gorm.DB, error) {
	models := ContentModels()
	if cfg.StoreDriver == config.StoreSQL {
		models = append(models, &authadapters.UserModel{})
	}
	return db.OpenDB(db.Config{
		Driver:         cfg.SQL.Driver,
		DSN:            cfg.SQL.DSN,
		ConnectTimeout: cfg.SQL.ConnectTimeout,
	}, models...)
}

// NewUserRepository creates the Credential Store selected by STORE_DRIVER.
// If Redis is available, lookups by id are cached in front of it.
// The returned close function releases the Mongo client, if one was opened.
func NewUserRepository(ctx context.Context, cfg config.Config, sqlDB *gorm.DB, rdb *redis.Client) (usecase.UserRepository, func(context.Context) error, error) {
	var (
		repo    usecase.UserRepository
		closeFn = func(context.Context) error { return nil }
	)

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := mongodb.Connect(ctx, mongodb.Config{
			URI:            cfg.Mongo.URI,
			Database:       cfg.Mongo.Database,
			ConnectTimeout: cfg.Mongo.ConnectTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		users := authadapters.NewUserMongo(client.Database(cfg.Mongo.Database), cfg.Mongo.OpTimeout)
		if err := users.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("ensure user indexes: %w", err)
		}
		repo = users
		closeFn = client.Disconnect
	case config.StoreSQL:
		repo = authadapters.NewUserGorm(sqlDB)
	default:
		return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	if rdb != nil {
		slog.Info("user lookups cached in Redis", "ttl", cfg.UserCacheTTL)
		repo = cache.NewCachingUserRepository(rdb, cfg.UserCacheTTL, repo, "user")
	}
	return repo, closeFn, nil
}
